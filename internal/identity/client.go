package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls the external identity verifier service.
type Client struct {
	http *resty.Client
}

// NewClient configures a client for the verifier at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{http: httpClient}
}

type verifyRequest struct {
	Address   string `json:"address"`
	ChainID   int64  `json:"chain_id"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type verifyResponse struct {
	IdentityAddress string `json:"identity_address"`
	Credential      string `json:"credential"`
	ExpiresAt       int64  `json:"expires_at"`
}

// Verify submits the proof. A 401 or 422 answer maps to ErrProofRejected;
// anything else non-200 is a transport-level failure.
func (c *Client) Verify(ctx context.Context, proof Proof) (Verification, error) {
	reqBody := verifyRequest{
		Address:   proof.Address,
		ChainID:   proof.ChainID,
		Message:   proof.Message,
		Signature: proof.Signature,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&reqBody).
		Post("/v1/identity/verify")
	if err != nil {
		return Verification{}, fmt.Errorf("identity verify: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return Verification{}, ErrProofRejected
	default:
		return Verification{}, fmt.Errorf("identity verify: unexpected status %d", resp.StatusCode())
	}

	var parsed verifyResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return Verification{}, fmt.Errorf("identity verify: decode response: %w", err)
	}
	if parsed.IdentityAddress == "" || parsed.Credential == "" {
		return Verification{}, fmt.Errorf("identity verify: incomplete response")
	}

	return Verification{
		IdentityAddress: parsed.IdentityAddress,
		Credential:      parsed.Credential,
		ExpiresAt:       time.Unix(parsed.ExpiresAt, 0),
	}, nil
}
