// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/store"
)

// ErrBalanceOverflow is returned when a mint would overflow a balance or the total issuance.
var ErrBalanceOverflow = errors.New("balance overflow")

// Minter credits newly issued tokens. CheckMint must succeed iff Mint would.
type Minter interface {
	CheckMint(to primitives.Address, amount *big.Int) error
	Mint(to primitives.Address, amount *big.Int) error
}

// Balances is a Minter keeping 256 bit balances in a kv store.
type Balances struct {
	balances *store.Mapping[primitives.Address, *big.Int]
	issuance *store.Value[*big.Int]
}

func NewBalances(db kv.Store) *Balances {
	return &Balances{
		balances: store.NewMapping[primitives.Address, *big.Int](db, "balances"),
		issuance: store.NewValue[*big.Int](db, "balances-issuance"),
	}
}

func (b *Balances) BalanceOf(account primitives.Address) (*big.Int, error) {
	bal, err := b.balances.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

func (b *Balances) TotalIssuance() (*big.Int, error) {
	total, err := b.issuance.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get total issuance")
	}
	return total, nil
}

func checkedAdd(a, b *big.Int) (*big.Int, error) {
	x, overflow := uint256.FromBig(a)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	y, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return nil, ErrBalanceOverflow
	}
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	return sum.ToBig(), nil
}

func (b *Balances) credit(to primitives.Address, amount *big.Int) (balance, issuance *big.Int, err error) {
	bal, err := b.BalanceOf(to)
	if err != nil {
		return nil, nil, err
	}
	total, err := b.TotalIssuance()
	if err != nil {
		return nil, nil, err
	}
	if balance, err = checkedAdd(bal, amount); err != nil {
		return nil, nil, err
	}
	if issuance, err = checkedAdd(total, amount); err != nil {
		return nil, nil, err
	}
	return balance, issuance, nil
}

func (b *Balances) CheckMint(to primitives.Address, amount *big.Int) error {
	_, _, err := b.credit(to, amount)
	return err
}

func (b *Balances) Mint(to primitives.Address, amount *big.Int) error {
	balance, issuance, err := b.credit(to, amount)
	if err != nil {
		return err
	}
	if err := b.balances.Set(to, balance); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := b.issuance.Set(issuance); err != nil {
		return errors.Wrap(err, "failed to set total issuance")
	}
	return nil
}
