package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openreel/gateway/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		SupportedChainIDs:   []int64{1, 11155111},
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     24 * time.Hour,
		ChallengeTTL:        5 * time.Minute,
		AuthRateLimit:       10,
		AuthRateBurst:       5,
		FeedCacheTTL:        30 * time.Second,
		FeedRefreshInterval: time.Minute,
		AllowEphemeralJWT:   true,
	}
}

func TestBuildDependencies(t *testing.T) {
	deps, warmer, cleanup, err := buildDependencies(context.Background(), fakePool{}, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cleanup(ctx)
	}()

	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Challenges == nil {
		t.Fatal("expected challenge issuer to be configured")
	}
	if deps.Verifier == nil {
		t.Fatal("expected identity verifier to be configured")
	}
	if deps.Gate == nil {
		t.Fatal("expected signal gate to be configured")
	}
	if deps.Feed == nil {
		t.Fatal("expected feed fetcher to be configured")
	}
	if deps.Home == nil {
		t.Fatal("expected home feed to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
	if deps.DirectoryReady == nil {
		t.Fatal("expected readiness hook to be configured")
	}
	if deps.DirectoryReady() {
		t.Fatal("expected directory to start unready")
	}
	if warmer == nil {
		t.Fatal("expected home warmer to be configured")
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{
		Bucket:   "test-bucket",
		Endpoint: "http://localhost:9000",
		Region:   "us-east-1",
	}

	deps, _, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Feed == nil {
		t.Fatal("expected feed fetcher to be configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestBuildDependenciesDisablesThrottlingAtZero(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = 0

	deps, _, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cleanup(ctx)
	}()

	if deps.AuthLimiter != nil {
		t.Fatal("expected throttling to be disabled")
	}
}

func TestBuildDependenciesRequiresSigningKeys(t *testing.T) {
	cfg := testConfig()
	cfg.AllowEphemeralJWT = false

	if _, _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger()); err == nil {
		t.Fatal("expected an error when no signing keys are available")
	}
}
