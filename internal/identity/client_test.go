package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVerifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/identity/verify" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req struct {
			Address   string `json:"address"`
			ChainID   int64  `json:"chain_id"`
			Message   string `json:"message"`
			Signature string `json:"signature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Address != "0xabc" || req.ChainID != 1 || req.Signature != "0xsig" {
			t.Errorf("unexpected request body: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"identity_address":"0xabc","credential":"cred-1","expires_at":1700003600}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	verification, err := client.Verify(context.Background(), Proof{
		Address:   "0xabc",
		ChainID:   1,
		Message:   "sign me",
		Signature: "0xsig",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if verification.IdentityAddress != "0xabc" || verification.Credential != "cred-1" {
		t.Fatalf("unexpected verification: %+v", verification)
	}
	if !verification.ExpiresAt.Equal(time.Unix(1700003600, 0)) {
		t.Fatalf("unexpected expiry: %v", verification.ExpiresAt)
	}
}

func TestVerifyRejection(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusUnprocessableEntity} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(server.URL, time.Second)
		_, err := client.Verify(context.Background(), Proof{Address: "0xabc"})
		server.Close()

		if !errors.Is(err, ErrProofRejected) {
			t.Fatalf("status %d: expected ErrProofRejected got %v", status, err)
		}
	}
}

func TestVerifyServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Verify(context.Background(), Proof{Address: "0xabc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrProofRejected) {
		t.Fatalf("expected transport error, got rejection: %v", err)
	}
}

func TestVerifyIncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"identity_address":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Verify(context.Background(), Proof{Address: "0xabc"}); err == nil {
		t.Fatal("expected error for incomplete response")
	}
}
