package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openreel/gateway/internal/wallet"
)

// ErrChallengeNotFound indicates the nonce is unknown, already consumed,
// expired, or bound to different sign-in parameters.
var ErrChallengeNotFound = errors.New("challenge not found")

// Challenge is a single-use sign-in nonce bound to a wallet address and
// chain. The wallet signs Message to prove control of the address.
type Challenge struct {
	Nonce     string
	Address   string
	ChainID   int64
	Message   string
	ExpiresAt time.Time
}

// ChallengeStore persists challenges until they are consumed or expire.
type ChallengeStore interface {
	Put(ctx context.Context, challenge Challenge) error
	// Take removes and returns the challenge for nonce, or
	// ErrChallengeNotFound.
	Take(ctx context.Context, nonce string) (Challenge, error)
}

// Challenger issues and redeems sign-in challenges.
type Challenger struct {
	ttl   time.Duration
	store ChallengeStore
}

// NewChallenger constructs a Challenger with the provided nonce TTL.
func NewChallenger(ttl time.Duration, store ChallengeStore) *Challenger {
	if store == nil {
		panic("auth: challenge store must not be nil")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Challenger{ttl: ttl, store: store}
}

// Issue creates a challenge for the given wallet address and chain.
func (c *Challenger) Issue(ctx context.Context, address string, chainID int64) (Challenge, error) {
	normalized, err := wallet.Normalize(address)
	if err != nil {
		return Challenge{}, err
	}

	nonce, err := randomToken()
	if err != nil {
		return Challenge{}, err
	}

	expiresAt := time.Now().UTC().Add(c.ttl)
	challenge := Challenge{
		Nonce:     nonce,
		Address:   normalized,
		ChainID:   chainID,
		Message:   signInMessage(normalized, chainID, nonce, expiresAt),
		ExpiresAt: expiresAt,
	}

	if err := c.store.Put(ctx, challenge); err != nil {
		return Challenge{}, fmt.Errorf("store challenge: %w", err)
	}

	return challenge, nil
}

// Redeem consumes the challenge for nonce. The nonce is spent regardless
// of outcome; a second redemption always fails.
func (c *Challenger) Redeem(ctx context.Context, nonce, address string, chainID int64) (Challenge, error) {
	if nonce == "" {
		return Challenge{}, ErrChallengeNotFound
	}

	challenge, err := c.store.Take(ctx, nonce)
	if err != nil {
		return Challenge{}, err
	}

	if time.Now().UTC().After(challenge.ExpiresAt) {
		return Challenge{}, ErrChallengeNotFound
	}
	if challenge.ChainID != chainID || !wallet.Equal(challenge.Address, address) {
		return Challenge{}, ErrChallengeNotFound
	}

	return challenge, nil
}

func signInMessage(address string, chainID int64, nonce string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"OpenReel wants you to sign in with your wallet:\n%s\n\nChain ID: %d\nNonce: %s\nExpires At: %s",
		address, chainID, nonce, expiresAt.Format(time.RFC3339),
	)
}
