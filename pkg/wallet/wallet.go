// Package wallet provides the two wallet kinds a session can connect: an
// EVM key wallet and a Solana key wallet. Both require an explicit approval
// before exposing an account, and both publish change notifications.
package wallet

import (
	"context"
	"fmt"
	"strings"

	dexerr "dex-seasonal/pkg/errors"
)

// Kind identifies a wallet ecosystem and, with it, the chain family.
type Kind string

const (
	KindEVM    Kind = "evm"
	KindSolana Kind = "solana"
)

var kindAliases = map[string]Kind{
	"evm":      KindEVM,
	"eth":      KindEVM,
	"ethereum": KindEVM,
	"metamask": KindEVM,
	"solana":   KindSolana,
	"sol":      KindSolana,
	"phantom":  KindSolana,
}

// ParseKind accepts a kind name or one of its aliases.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", dexerr.Newf(dexerr.CodeInvalidInput, "unknown wallet kind %q (use evm or solana)", s)
}

func (k Kind) String() string { return string(k) }

// NativeSymbol is the gas asset symbol of the chain family.
func (k Kind) NativeSymbol() string {
	if k == KindSolana {
		return "SOL"
	}
	return "ETH"
}

// EventType enumerates wallet notifications.
type EventType int

const (
	EventAccountsChanged EventType = iota + 1
	EventChainChanged
	EventDisconnect
)

func (t EventType) String() string {
	switch t {
	case EventAccountsChanged:
		return "accounts_changed"
	case EventChainChanged:
		return "chain_changed"
	case EventDisconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is an unsolicited notification from a wallet. Events can arrive at
// any time, including while a connect is in flight.
type Event struct {
	Kind     Kind
	Type     EventType
	Accounts []string
	ChainID  int64
}

// Account is an approved wallet account.
type Account interface {
	Kind() Kind
	Address() string
}

// Provider performs the connect handshake for one wallet kind.
type Provider interface {
	Kind() Kind
	// Connect asks for approval and returns the approved account. It fails
	// with CodeUserRejected when approval is declined and with
	// CodeRequestPending when another Connect is still waiting.
	Connect(ctx context.Context) (Account, error)
	// Subscribe streams notifications until ctx is done. The channel is
	// closed when the provider stops emitting.
	Subscribe(ctx context.Context) <-chan Event
}

// Disconnecter is implemented by providers with an explicit session teardown.
type Disconnecter interface {
	Disconnect(ctx context.Context) error
}

// Approver asks the user to approve exposing address to the application.
type Approver func(ctx context.Context, kind Kind, address string) (bool, error)

// AutoApprove approves every request.
func AutoApprove(context.Context, Kind, string) (bool, error) { return true, nil }

func approve(ctx context.Context, fn Approver, kind Kind, address string) error {
	if fn == nil {
		fn = AutoApprove
	}
	ok, err := fn(ctx, kind, address)
	if err != nil {
		return dexerr.Wrap(dexerr.CodeInternal, "approval prompt failed", err)
	}
	if !ok {
		return dexerr.Newf(dexerr.CodeUserRejected, "connection rejected: you must approve the %s wallet connection to continue", kind)
	}
	return nil
}

func pendingError(kind Kind) error {
	return dexerr.Newf(dexerr.CodeRequestPending, "connection request already pending for %s wallet", kind)
}

func closedEvents() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}
