package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openreel/gateway/internal/models"
	"github.com/openreel/gateway/internal/wallet"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrSessionRevoked indicates the session was cleared before its access token expired.
	ErrSessionRevoked = errors.New("session revoked")
)

// SessionStore persists issued wallet sessions so they survive process
// restarts.
type SessionStore interface {
	Save(ctx context.Context, session models.WalletSession) error
	Find(ctx context.Context, refreshToken string) (models.WalletSession, error)
	FindByID(ctx context.Context, id string) (models.WalletSession, error)
	Delete(ctx context.Context, refreshToken string) error
	DeleteByID(ctx context.Context, id string) error
}

// RevocationStore flags sessions whose access tokens must die before
// their natural expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Manager manages the lifecycle of wallet sessions: RS256 access tokens
// plus opaque refresh tokens backed by a persistent store.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration

	signer  *Signer
	store   SessionStore
	revoked RevocationStore
}

// NewManager constructs a Manager that issues access and refresh tokens
// with the provided TTLs.
func NewManager(signer *Signer, store SessionStore, revoked RevocationStore, accessTTL, refreshTTL time.Duration) *Manager {
	if signer == nil {
		panic("auth: signer must not be nil")
	}
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if revoked == nil {
		panic("auth: revocation store must not be nil")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		signer:     signer,
		store:      store,
		revoked:    revoked,
	}
}

// Issue creates a session for a verified wallet identity and returns it
// with its token pair.
func (m *Manager) Issue(ctx context.Context, walletAddress string, chainID int64, identityAddress, credential string) (models.WalletSession, models.SessionTokens, error) {
	normalizedWallet, err := wallet.Normalize(walletAddress)
	if err != nil {
		return models.WalletSession{}, models.SessionTokens{}, fmt.Errorf("wallet address: %w", err)
	}
	normalizedIdentity, err := wallet.Normalize(identityAddress)
	if err != nil {
		return models.WalletSession{}, models.SessionTokens{}, fmt.Errorf("identity address: %w", err)
	}
	if credential == "" {
		return models.WalletSession{}, models.SessionTokens{}, errors.New("credential must be provided")
	}

	now := time.Now().UTC()
	refreshToken, err := randomToken()
	if err != nil {
		return models.WalletSession{}, models.SessionTokens{}, err
	}

	session := models.WalletSession{
		ID:              uuid.NewString(),
		WalletAddress:   normalizedWallet,
		ChainID:         chainID,
		IdentityAddress: normalizedIdentity,
		Credential:      credential,
		RefreshToken:    refreshToken,
		IssuedAt:        now,
		ExpiresAt:       now.Add(m.refreshTTL),
	}

	accessToken, err := m.signer.Sign(Claims{
		WalletAddress: session.WalletAddress,
		ChainID:       session.ChainID,
		SessionID:     session.ID,
		IssuedAt:      now,
		ExpiresAt:     now.Add(m.accessTTL),
	})
	if err != nil {
		return models.WalletSession{}, models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	if err := m.store.Save(ctx, session); err != nil {
		return models.WalletSession{}, models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: session.ExpiresAt,
	}

	return session, tokens, nil
}

// Refresh exchanges a refresh token for a new session, preserving the
// wallet identity. The old refresh token is spent either way.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.WalletSession, models.SessionTokens, error) {
	if refreshToken == "" {
		return models.WalletSession{}, models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return models.WalletSession{}, models.SessionTokens{}, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, refreshToken)
		return models.WalletSession{}, models.SessionTokens{}, ErrRefreshTokenExpired
	}

	if err := m.store.Delete(ctx, refreshToken); err != nil {
		return models.WalletSession{}, models.SessionTokens{}, err
	}

	return m.Issue(ctx, session.WalletAddress, session.ChainID, session.IdentityAddress, session.Credential)
}

// Revoke spends a refresh token and flags its session so outstanding
// access tokens stop validating.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if session, err := m.store.Find(ctx, refreshToken); err == nil {
		_ = m.revoked.Revoke(ctx, session.ID, m.accessTTL)
	}
	_ = m.store.Delete(ctx, refreshToken)
}

// Clear removes a session by ID, flagging it revoked. Used by the gate
// when a signal update invalidates the session; failures are reported for
// logging, never surfaced to the wallet holder.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	var firstErr error
	if err := m.revoked.Revoke(ctx, sessionID, m.accessTTL); err != nil {
		firstErr = err
	}
	if err := m.store.DeleteByID(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Validate checks an access token's signature, expiry, and revocation
// state, returning its claims.
func (m *Manager) Validate(ctx context.Context, accessToken string) (Claims, error) {
	claims, err := m.signer.ParseAndValidate(accessToken)
	if err != nil {
		return Claims{}, err
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.SessionID)
	if err != nil {
		return Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Claims{}, ErrSessionRevoked
	}

	return claims, nil
}

// Session loads the stored session for an ID.
func (m *Manager) Session(ctx context.Context, sessionID string) (models.WalletSession, error) {
	if sessionID == "" {
		return models.WalletSession{}, ErrSessionNotFound
	}
	return m.store.FindByID(ctx, sessionID)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
