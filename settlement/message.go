// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/settlement/primitives"
)

// CommandKind is the kind of instruction carried by an outbound message.
type CommandKind uint8

const (
	// MintForeignToken mints a registered token on the settlement chain.
	MintForeignToken CommandKind = iota + 1
	// CallContract calls a contract on the settlement chain with ABI encoded calldata.
	CallContract
)

func (k CommandKind) String() string {
	switch k {
	case MintForeignToken:
		return "MintForeignToken"
	case CallContract:
		return "CallContract"
	default:
		return "Unknown"
	}
}

// Command is a single instruction of a Message. Only the fields relevant to Kind are set.
type Command struct {
	Kind      CommandKind
	TokenID   primitives.Bytes32
	Recipient primitives.Address
	Amount    *big.Int
	Target    primitives.Address
	Calldata  []byte
	Gas       uint64
}

// NewMintCommand creates a MintForeignToken command.
func NewMintCommand(tokenID primitives.Bytes32, recipient primitives.Address, amount *big.Int) *Command {
	return &Command{
		Kind:      MintForeignToken,
		TokenID:   tokenID,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
	}
}

// NewCallCommand creates a CallContract command.
func NewCallCommand(target primitives.Address, calldata []byte, gas uint64) *Command {
	return &Command{
		Kind:     CallContract,
		Target:   target,
		Calldata: calldata,
		Gas:      gas,
		Amount:   new(big.Int),
	}
}

// Message is the unit handed to the outbound bridge.
type Message struct {
	Commands []*Command
}

// Encode returns the RLP encoding of the message, as submitted to the bridge.
func (m *Message) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

// DecodeMessage is the inverse of Message.Encode.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := rlp.DecodeBytes(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Ticket is a validated message ready for delivery.
type Ticket struct {
	ID      primitives.Bytes32
	Payload []byte
	Fee     *big.Int
}
