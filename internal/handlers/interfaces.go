package handlers

import (
	"context"

	"github.com/openreel/gateway/internal/auth"
	"github.com/openreel/gateway/internal/feed"
	"github.com/openreel/gateway/internal/models"
)

// SessionManager issues, refreshes, validates, and clears wallet sessions.
type SessionManager interface {
	Issue(ctx context.Context, walletAddress string, chainID int64, identityAddress, credential string) (models.WalletSession, models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.WalletSession, models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
	Clear(ctx context.Context, sessionID string) error
	Validate(ctx context.Context, accessToken string) (auth.Claims, error)
	Session(ctx context.Context, sessionID string) (models.WalletSession, error)
}

// ChallengeIssuer hands out and redeems single-use sign-in challenges.
type ChallengeIssuer interface {
	Issue(ctx context.Context, address string, chainID int64) (auth.Challenge, error)
	Redeem(ctx context.Context, nonce, address string, chainID int64) (auth.Challenge, error)
}

// FeedFetcher resolves a tag-filtered video collection.
type FeedFetcher interface {
	Load(ctx context.Context, tag string) feed.FetchState
}

// HomeFeed exposes the continuously warmed home collection.
type HomeFeed interface {
	State() feed.FetchState
}
