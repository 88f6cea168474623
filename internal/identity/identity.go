package identity

import (
	"context"
	"errors"
	"time"
)

// ErrProofRejected indicates the verifier examined the proof and refused
// it: bad signature, expired message, or address mismatch.
var ErrProofRejected = errors.New("identity: proof rejected")

// Proof is the signed challenge material a wallet submits to derive an
// identity session.
type Proof struct {
	Address   string
	ChainID   int64
	Message   string
	Signature string
}

// Verification is the identity derived from a valid proof.
type Verification struct {
	IdentityAddress string
	Credential      string
	ExpiresAt       time.Time
}

// Verifier proves control of a wallet address.
type Verifier interface {
	Verify(ctx context.Context, proof Proof) (Verification, error)
}
