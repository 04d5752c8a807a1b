// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/primitives"
)

var (
	logger = log.WithContext("pkg", "inflation")

	metricMinted = metrics.LazyLoadCounterVec("inflation_minted_count", []string{"pool"})
)

func SetLogger(l log.Logger) {
	logger = l
}

// ErrZeroInflation is returned when there is nothing to mint.
var ErrZeroInflation = errors.New("zero inflation")

// Distributor mints era inflation, split between the treasury and the rewards pool.
type Distributor struct {
	calc     *Calculator
	minter   Minter
	treasury primitives.Address
	pool     primitives.Address
	events   events.Sink
}

func NewDistributor(calc *Calculator, minter Minter, treasury, rewardsPool primitives.Address, sink events.Sink) *Distributor {
	if sink == nil {
		sink = events.Discard
	}
	return &Distributor{calc: calc, minter: minter, treasury: treasury, pool: rewardsPool, events: sink}
}

func (d *Distributor) Calculator() *Calculator {
	return d.calc
}

// RewardsPool is the account receiving the rewards share.
func (d *Distributor) RewardsPool() primitives.Address {
	return d.pool
}

// Mint splits total and mints both parts. Either both parts are minted or none is.
func (d *Distributor) Mint(era uint32, total *big.Int) (treasury, rewards *big.Int, err error) {
	if total == nil || total.Sign() <= 0 {
		return nil, nil, ErrZeroInflation
	}
	treasury, rewards = d.calc.Split(total)

	if treasury.Sign() > 0 {
		if err := d.minter.CheckMint(d.treasury, treasury); err != nil {
			return nil, nil, errors.Wrap(err, "treasury mint rejected")
		}
	}
	if rewards.Sign() > 0 {
		if err := d.minter.CheckMint(d.pool, rewards); err != nil {
			return nil, nil, errors.Wrap(err, "rewards mint rejected")
		}
	}

	if treasury.Sign() > 0 {
		if err := d.minter.Mint(d.treasury, treasury); err != nil {
			return nil, nil, errors.Wrap(err, "failed to mint treasury share")
		}
		metricMinted().AddWithLabel(1, map[string]string{"pool": "treasury"})
	}
	if rewards.Sign() > 0 {
		if err := d.minter.Mint(d.pool, rewards); err != nil {
			return nil, nil, errors.Wrap(err, "failed to mint rewards share")
		}
		metricMinted().AddWithLabel(1, map[string]string{"pool": "rewards"})
	}

	d.events.Emit(events.InflationMinted{Era: era, Treasury: treasury, Rewards: rewards})
	logger.Info("era inflation minted", "era", era, "treasury", treasury, "rewards", rewards)
	return treasury, rewards, nil
}
