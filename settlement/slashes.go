// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vechain/settlement/primitives"
)

// SlashData is one slash ready to be submitted, WadToSlash being on the 1e18 scale.
type SlashData struct {
	Validator   primitives.Address
	WadToSlash  *big.Int
	Description string
}

// SlashesMessage is the payload of the slashes adapter.
type SlashesMessage struct {
	Slashes []SlashData
}

// SlashesConfig configures the slashes message.
type SlashesConfig struct {
	ServiceManager primitives.Address
	Strategies     []primitives.Address
	Gas            uint64
}

// SlashesBuilder builds one slashValidatorsOperator call for a batch of slashes.
type SlashesBuilder struct {
	config SlashesConfig
}

func NewSlashesBuilder(config SlashesConfig) *SlashesBuilder {
	return &SlashesBuilder{config: config}
}

// Build returns nil, and logs why, when the batch cannot be sent.
func (b *SlashesBuilder) Build(data *SlashesMessage) *Message {
	if b.config.ServiceManager.IsZero() {
		logger.Error("slashes not built: settlement contract address not set")
		return nil
	}
	if data == nil || len(data.Slashes) == 0 {
		logger.Error("slashes not built: empty batch")
		return nil
	}

	strategies := make([]common.Address, 0, len(b.config.Strategies))
	for _, s := range b.config.Strategies {
		strategies = append(strategies, s.Common())
	}

	requests := make([]SlashingRequest, 0, len(data.Slashes))
	for _, s := range data.Slashes {
		if !fitsUint(s.WadToSlash, 256) {
			logger.Error("slashes not built: wad overflows uint256", "validator", s.Validator)
			return nil
		}
		// every strategy is slashed by the same wad
		wads := make([]*big.Int, len(strategies))
		for i := range wads {
			wads[i] = new(big.Int).Set(s.WadToSlash)
		}
		requests = append(requests, SlashingRequest{
			Operator:    s.Validator.Common(),
			Strategies:  strategies,
			WadsToSlash: wads,
			Description: s.Description,
		})
	}

	calldata, err := EncodeSlashValidatorsOperator(requests)
	if err != nil {
		logger.Error("slashes not built: failed to encode slashings", "err", err)
		return nil
	}

	logger.Debug("slashes message built", "slashes", len(requests), "strategies", len(strategies))
	return &Message{
		Commands: []*Command{NewCallCommand(b.config.ServiceManager, calldata, b.config.Gas)},
	}
}
