package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

const (
	testWalletAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testCredential    = "credential-1"
)

func newTestManager(t *testing.T, accessTTL, refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	t.Helper()

	signer, err := NewEphemeralSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}
	store := NewInMemorySessionStore()
	return NewManager(signer, store, NewInMemoryRevocationStore(), accessTTL, refreshTTL), store
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store := newTestManager(t, time.Minute, time.Hour)

	session, tokens, err := manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if session.WalletAddress != testWalletAddress || session.IdentityAddress != testWalletAddress {
		t.Fatalf("unexpected session addresses: %+v", session)
	}
	if !store.Has(tokens.RefreshToken) {
		t.Fatal("expected refresh token to be stored")
	}

	refreshedSession, refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
	if refreshedSession.WalletAddress != session.WalletAddress || refreshedSession.Credential != session.Credential {
		t.Fatalf("expected wallet identity to survive refresh: %+v", refreshedSession)
	}
}

func TestManagerIssueNormalizesAddresses(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)

	session, _, err := manager.Issue(context.Background(), "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if session.WalletAddress != testWalletAddress {
		t.Fatalf("expected checksummed wallet address, got %q", session.WalletAddress)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)

	if _, _, err := manager.Issue(context.Background(), "not-an-address", 1, testWalletAddress, testCredential); err == nil {
		t.Fatal("expected error for invalid wallet address")
	}
	if _, _, err := manager.Issue(context.Background(), testWalletAddress, 1, "not-an-address", testCredential); err == nil {
		t.Fatal("expected error for invalid identity address")
	}
	if _, _, err := manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, ""); err == nil {
		t.Fatal("expected error for empty credential")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, 5*time.Millisecond)

	if _, _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}

	_, tokens, err := manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected refresh expired got %v", err)
	}

	_, tokens, err = manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestManagerValidate(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)

	session, tokens, err := manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := manager.Validate(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != session.ID || claims.WalletAddress != testWalletAddress || claims.ChainID != 1 {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := manager.Validate(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestManagerRevokeKillsAccessToken(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)

	_, tokens, err := manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.Revoke(context.Background(), tokens.RefreshToken)

	if _, err := manager.Validate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected revoked session got %v", err)
	}
}

func TestManagerClear(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)

	session, tokens, err := manager.Issue(context.Background(), testWalletAddress, 1, testWalletAddress, testCredential)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Clear(context.Background(), session.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, err := manager.Validate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected revoked session got %v", err)
	}
	if _, err := manager.Session(context.Background(), session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session to be gone got %v", err)
	}
	if _, _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected refresh to fail after clear got %v", err)
	}

	if err := manager.Clear(context.Background(), session.ID); err != nil {
		t.Fatalf("expected clearing twice to be harmless, got %v", err)
	}
}
