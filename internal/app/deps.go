package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openreel/gateway/internal/actor"
	"github.com/openreel/gateway/internal/auth"
	"github.com/openreel/gateway/internal/config"
	"github.com/openreel/gateway/internal/db"
	"github.com/openreel/gateway/internal/display"
	"github.com/openreel/gateway/internal/feed"
	"github.com/openreel/gateway/internal/gate"
	"github.com/openreel/gateway/internal/handlers"
	"github.com/openreel/gateway/internal/identity"
	"github.com/openreel/gateway/internal/middleware"
	"github.com/openreel/gateway/internal/mirror"
	"github.com/openreel/gateway/internal/repositories"
	"github.com/openreel/gateway/internal/storage"
	"github.com/openreel/gateway/internal/wallet"
)

// buildDependencies wires the gateway's collaborators: session and challenge
// stores, the identity verifier, the feed pipeline, and the optional
// thumbnail mirror. The returned cleanup drains background workers and closes
// clients that outlive a request.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *homeWarmer, func(context.Context) error, error) {
	signer, err := newSigner(cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, nil, err
	}

	var (
		challengeStore  auth.ChallengeStore  = auth.NewInMemoryChallengeStore()
		revocationStore auth.RevocationStore = auth.NewInMemoryRevocationStore()
		redisClient     *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = repositories.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return handlers.Dependencies{}, nil, nil, err
		}
		challengeStore = repositories.NewRedisChallengeStore(redisClient)
		revocationStore = repositories.NewRedisRevocationStore(redisClient)
	}

	sessions := auth.NewManager(signer, repositories.NewPostgresSessionStore(pool), revocationStore, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	resolver := display.Resolver{
		PlaybackDomain:    cfg.PlaybackDomain,
		IPFSGatewayDomain: cfg.IPFSGatewayDomain,
	}

	var (
		actorClient *actor.Client
		directory   feed.Directory
		probe       readinessProbe
	)
	if cfg.ActorURL != "" {
		actorClient = actor.NewClient(cfg.ActorURL, cfg.ActorTimeout)
		directory = actorClient
		probe = actorClient
	}

	var fetcher feed.Fetcher = feed.NewLoader(directory)

	var thumbnailMirror *mirror.Mirror
	if cfg.ObjectStore.Enabled() {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return handlers.Dependencies{}, nil, nil, err
		}
		thumbnailMirror = mirror.New(nil, resolver, store, repositories.NewPostgresMirrorRepository(pool), mirror.Config{
			QueueSize: cfg.MirrorQueueSize,
			Workers:   cfg.MirrorWorkers,
		}, logger)
		fetcher = mirror.NewTap(fetcher, thumbnailMirror)
	}

	fetcher = feed.NewCachingFetcher(fetcher, cfg.FeedCacheTTL)

	warmer := newHomeWarmer(feed.NewView(fetcher), probe, cfg.FeedRefreshInterval, cfg.HomeTag, logger)

	var limiter middleware.RateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, time.Minute, cfg.AuthRateBurst, 5*time.Minute)
	}

	deps := handlers.Dependencies{
		Logger:         logger,
		Sessions:       sessions,
		Challenges:     auth.NewChallenger(cfg.ChallengeTTL, challengeStore),
		Verifier:       identity.NewClient(cfg.IdentityURL, cfg.ActorTimeout),
		Gate:           gate.New(wallet.NewNetworks(cfg.SupportedChainIDs)),
		Feed:           fetcher,
		Home:           warmer,
		Display:        resolver,
		AuthLimiter:    limiter,
		DirectoryReady: warmer.Ready,
	}

	cleanup := func(shutdownCtx context.Context) error {
		var firstErr error
		if thumbnailMirror != nil {
			if err := thumbnailMirror.Shutdown(shutdownCtx); err != nil {
				firstErr = err
			}
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	return deps, warmer, cleanup, nil
}

func newSigner(cfg config.Config) (*auth.Signer, error) {
	if cfg.JWTPrivateKeyPEM != "" && cfg.JWTPublicKeyPEM != "" {
		return auth.NewSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	}
	if !cfg.AllowEphemeralJWT {
		return nil, errors.New("jwt signing keys are required when ephemeral keys are disabled")
	}
	return auth.NewEphemeralSigner(cfg.JWTKeyID)
}
