package gate

import "github.com/openreel/gateway/internal/wallet"

// Signals is the wallet state tuple reported by the client on every
// wallet event: connect, disconnect, account switch, or network switch.
type Signals struct {
	Initializing  bool
	Connected     bool
	ChainID       int64
	WalletAddress string
}

// Decision is the render outcome for the client shell.
type Decision int

const (
	// DecisionPending means identity initialization is still running and
	// nothing conclusive should be rendered.
	DecisionPending Decision = iota
	// DecisionLogin means the login surface should be shown.
	DecisionLogin
	// DecisionProtected means the protected tree may render.
	DecisionProtected
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionLogin:
		return "login"
	case DecisionProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Clearing reasons surfaced in logs and revocation records.
const (
	ReasonDisconnected     = "wallet disconnected"
	ReasonUnsupportedChain = "unsupported network"
	ReasonAddressMismatch  = "address mismatch"
)

// Gate decides whether an identity session may survive a signal update
// and what the client should render. It holds no session state itself;
// clearing is carried out by the caller.
type Gate struct {
	networks wallet.Networks
}

// New builds a gate for the configured supported-network set.
func New(networks wallet.Networks) *Gate {
	return &Gate{networks: networks}
}

// Evaluate applies the session-clearing rules over the full signal tuple.
// It reports whether the session must be cleared and the first matching
// reason. identityAddress is the address the session's credential was
// issued for; pass the empty string when there is no session.
func (g *Gate) Evaluate(signals Signals, identityAddress string) (bool, string) {
	if !signals.Connected {
		return true, ReasonDisconnected
	}
	if !g.networks.Supports(signals.ChainID) {
		return true, ReasonUnsupportedChain
	}
	if identityAddress != "" && signals.WalletAddress != "" && !wallet.Equal(identityAddress, signals.WalletAddress) {
		return true, ReasonAddressMismatch
	}
	return false, ""
}

// Decide picks the render decision. While initialization is in progress
// nothing conclusive is rendered; afterwards a disconnected wallet or a
// missing identity lands on the login surface.
func (g *Gate) Decide(signals Signals, hasIdentity bool) Decision {
	if signals.Initializing {
		return DecisionPending
	}
	if !signals.Connected || !hasIdentity {
		return DecisionLogin
	}
	return DecisionProtected
}
