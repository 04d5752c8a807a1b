// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"errors"
	"fmt"
)

// SendErrorKind classifies bridge failures.
type SendErrorKind uint8

const (
	Unroutable SendErrorKind = iota + 1
	Fees
	MessageTooLarge
	Transport
)

func (k SendErrorKind) String() string {
	switch k {
	case Unroutable:
		return "unroutable"
	case Fees:
		return "fees"
	case MessageTooLarge:
		return "message too large"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

// SendError is returned by Sender implementations.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

func NewSendError(kind SendErrorKind, format string, args ...any) *SendError {
	return &SendError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return "send failed: " + e.Kind.String()
	}
	return "send failed: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsSendError reports whether err is a SendError of the given kind.
func IsSendError(err error, kind SendErrorKind) bool {
	var se *SendError
	return errors.As(err, &se) && se.Kind == kind
}

// ErrNotBuilt is returned by Send when the builder declined to produce a message.
var ErrNotBuilt = errors.New("message not built")
