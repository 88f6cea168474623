package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

func TestSignerRoundTrip(t *testing.T) {
	signer, err := NewEphemeralSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	claims := Claims{
		WalletAddress: testWalletAddress,
		ChainID:       11155111,
		SessionID:     "session-1",
		IssuedAt:      now,
		ExpiresAt:     now.Add(time.Minute),
	}

	raw, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := signer.ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.WalletAddress != claims.WalletAddress || parsed.ChainID != claims.ChainID || parsed.SessionID != claims.SessionID {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
	if !parsed.ExpiresAt.Equal(claims.ExpiresAt) {
		t.Fatalf("expected expiry %v got %v", claims.ExpiresAt, parsed.ExpiresAt)
	}
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer, err := NewEphemeralSigner("test-key")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}

	now := time.Now().UTC()
	raw, err := signer.Sign(Claims{
		WalletAddress: testWalletAddress,
		SessionID:     "session-1",
		IssuedAt:      now.Add(-time.Hour),
		ExpiresAt:     now.Add(-2 * time.Minute),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.ParseAndValidate(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestSignerRejectsForeignSignature(t *testing.T) {
	signerA, err := NewEphemeralSigner("key-a")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}
	signerB, err := NewEphemeralSigner("key-b")
	if err != nil {
		t.Fatalf("ephemeral signer: %v", err)
	}

	now := time.Now().UTC()
	raw, err := signerA.Sign(Claims{
		WalletAddress: testWalletAddress,
		SessionID:     "session-1",
		IssuedAt:      now,
		ExpiresAt:     now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signerB.ParseAndValidate(raw); err == nil {
		t.Fatal("expected token signed with a different key to be rejected")
	}
}

func TestNewSignerFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	signer, err := NewSigner("pem-key", string(privPEM), string(pubPEM))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	now := time.Now().UTC()
	raw, err := signer.Sign(Claims{
		WalletAddress: testWalletAddress,
		SessionID:     "session-1",
		IssuedAt:      now,
		ExpiresAt:     now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.ParseAndValidate(raw); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

func TestNewSignerValidation(t *testing.T) {
	if _, err := NewSigner("", "priv", "pub"); err == nil {
		t.Fatal("expected error for missing kid")
	}
	if _, err := NewSigner("kid", "", ""); err == nil {
		t.Fatal("expected error for missing keys")
	}
	if _, err := NewSigner("kid", "not pem", "not pem"); err == nil {
		t.Fatal("expected error for malformed PEM")
	}
}
