// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vechain/settlement/primitives"
)

// Percent is a percentage written as "20%", "2.5" or "0.0000001%", stored as a Perbill.
type Percent primitives.Perbill

func (p Percent) Perbill() primitives.Perbill {
	return primitives.Perbill(p)
}

// MarshalText implements encoding.TextMarshaler.
func (p Percent) MarshalText() ([]byte, error) {
	r := new(big.Rat).SetFrac64(int64(p), primitives.PerbillAccuracy/100)
	return []byte(strings.TrimRight(strings.TrimRight(r.FloatString(7), "0"), ".") + "%"), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Percent) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(text)), "%"))
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return fmt.Errorf("invalid percentage %q", text)
	}
	if r.Sign() < 0 || r.Cmp(big.NewRat(100, 1)) > 0 {
		return fmt.Errorf("percentage %q out of range", text)
	}
	parts := r.Mul(r, big.NewRat(primitives.PerbillAccuracy/100, 1))
	if !parts.IsInt() {
		return fmt.Errorf("percentage %q exceeds perbill precision", text)
	}
	*p = Percent(parts.Num().Uint64())
	return nil
}
