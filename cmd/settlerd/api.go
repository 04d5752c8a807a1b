// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/binary"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/rewards"
)

type proofResponse struct {
	Era            uint32               `json:"era"`
	Validator      primitives.Address   `json:"validator"`
	Points         uint32               `json:"points"`
	Root           primitives.Bytes32   `json:"root"`
	Path           []primitives.Bytes32 `json:"path"`
	NumberOfLeaves uint64               `json:"numberOfLeaves"`
	LeafIndex      uint64               `json:"leafIndex"`
	Leaf           hexutil.Bytes        `json:"leaf"`
	Verified       bool                 `json:"verified"`
}

type slashingResponse struct {
	Mode        string  `json:"mode"`
	NextSlashID uint32  `json:"nextSlashId"`
	QueueLength uint64  `json:"queueLength"`
	ActiveEra   *uint32 `json:"activeEra"`
}

type envelopeResponse struct {
	Nonce   uint64             `json:"nonce"`
	ID      primitives.Bytes32 `json:"id"`
	Size    int                `json:"size"`
	Fee     *hexutil.Big       `json:"fee"`
	Payload hexutil.Bytes      `json:"payload"`
}

type httpError struct {
	status int
	cause  error
}

func (e *httpError) Error() string { return e.cause.Error() }

func badRequest(cause error) error {
	return &httpError{status: http.StatusBadRequest, cause: cause}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func wrap(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			var he *httpError
			if errors.As(err, &he) {
				http.Error(w, he.Error(), he.status)
				return
			}
			logger.Error("api request failed", "path", r.URL.Path, "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(v)
}

type api struct {
	sim *simulator
}

func newRouter(sim *simulator) *mux.Router {
	a := &api{sim: sim}
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.HandleFunc("/slashing", wrap(a.handleSlashing)).Methods(http.MethodGet)
	router.HandleFunc("/proof/{era:[0-9]+}/{validator}", wrap(a.handleProof)).Methods(http.MethodGet)
	router.HandleFunc("/outbox", wrap(a.handleOutbox)).Methods(http.MethodGet)
	return router
}

func newHandler(sim *simulator, allowedOrigins string) http.Handler {
	origins := strings.Split(strings.TrimSpace(allowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	handler := handlers.CompressHandler(newRouter(sim))
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
}

func startAPI(addr, allowedOrigins string, sim *simulator) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: newHandler(sim, allowedOrigins), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("api server stopped", "err", err)
		}
	}()
	return srv, "http://" + listener.Addr().String(), nil
}

func (a *api) handleSlashing(w http.ResponseWriter, _ *http.Request) error {
	a.sim.mu.Lock()
	defer a.sim.mu.Unlock()

	svc := a.sim.engine.Slashing()
	mode, err := svc.Mode()
	if err != nil {
		return err
	}
	nextID, err := svc.NextSlashID()
	if err != nil {
		return err
	}
	queued, err := svc.UnreportedQueueLength()
	if err != nil {
		return err
	}
	resp := slashingResponse{Mode: mode.String(), NextSlashID: nextID, QueueLength: queued}
	active, ok, err := a.sim.engine.Eras().ActiveEra()
	if err != nil {
		return err
	}
	if ok {
		resp.ActiveEra = &active.Index
	}
	return writeJSON(w, resp)
}

func (a *api) handleProof(w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)
	era, err := strconv.ParseUint(vars["era"], 10, 32)
	if err != nil {
		return badRequest(errors.Wrap(err, "era"))
	}
	validator, err := primitives.ParseAddress(vars["validator"])
	if err != nil {
		return badRequest(errors.Wrap(err, "validator"))
	}

	a.sim.mu.Lock()
	defer a.sim.mu.Unlock()

	ledger := a.sim.engine.Rewards()
	proof, err := ledger.GenerateRewardsProof(uint32(era), *validator)
	if err != nil {
		return err
	}
	if proof == nil {
		http.Error(w, "no points for validator in era", http.StatusNotFound)
		return nil
	}
	verified, err := ledger.VerifyRewardsProof(uint32(era), proof)
	if err != nil {
		return err
	}
	return writeJSON(w, proofResponse{
		Era:            uint32(era),
		Validator:      *validator,
		Points:         binary.BigEndian.Uint32(proof.Leaf[primitives.AddressLength:rewards.LeafSize]),
		Root:           proof.Root,
		Path:           proof.Path,
		NumberOfLeaves: proof.NumberOfLeaves,
		LeafIndex:      proof.LeafIndex,
		Leaf:           proof.Leaf,
		Verified:       verified,
	})
}

func (a *api) handleOutbox(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	var from uint64
	limit := 20
	if s := query.Get("from"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return badRequest(errors.Wrap(err, "from"))
		}
		from = v
	}
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 100 {
			return badRequest(errors.New("limit must be in [1, 100]"))
		}
		limit = v
	}

	a.sim.mu.Lock()
	defer a.sim.mu.Unlock()

	list, err := a.sim.outbox.List(from, limit)
	if err != nil {
		return err
	}
	resp := make([]envelopeResponse, 0, len(list))
	for _, e := range list {
		resp = append(resp, envelopeResponse{
			Nonce:   e.Nonce,
			ID:      e.ID,
			Size:    len(e.Payload),
			Fee:     (*hexutil.Big)(e.Fee),
			Payload: e.Payload,
		})
	}
	return writeJSON(w, resp)
}
