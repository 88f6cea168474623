package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/openreel/gateway/internal/auth"
	"github.com/openreel/gateway/internal/identity"
	"github.com/openreel/gateway/internal/logging"
	"github.com/openreel/gateway/internal/models"
	"github.com/openreel/gateway/internal/wallet"
)

// AuthHandler implements the wallet sign-in endpoints: challenge issuance,
// proof verification, token refresh, and logout.
type AuthHandler struct {
	Challenges ChallengeIssuer
	Verifier   identity.Verifier
	Sessions   SessionManager
}

// Challenge handles POST /api/v1/auth/challenge requests.
func (h AuthHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Challenges == nil {
		logger.Error("challenge issuer unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid challenge payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.WalletAddress == "" || req.ChainID == 0 {
		logger.Warn("challenge missing wallet details")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "wallet address and chain id are required"})
		return
	}

	challenge, err := h.Challenges.Issue(ctx, req.WalletAddress, req.ChainID)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAddress) {
			logger.Warn("challenge rejected", "error", err)
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid wallet address"})
			return
		}
		logger.Error("failed to issue challenge", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to issue challenge"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, challengeResponse{
		Nonce:     challenge.Nonce,
		Message:   challenge.Message,
		ExpiresAt: challenge.ExpiresAt.Unix(),
	})
}

// Verify handles POST /api/v1/auth/verify requests. A redeemed challenge
// plus a valid signature yields a wallet session and its tokens.
func (h AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Challenges == nil || h.Verifier == nil || h.Sessions == nil {
		logger.Error("verification dependencies unavailable",
			"hasChallenges", h.Challenges != nil, "hasVerifier", h.Verifier != nil, "hasSessions", h.Sessions != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "authentication services unavailable"})
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Nonce = strings.TrimSpace(req.Nonce)
	req.Signature = strings.TrimSpace(req.Signature)
	if req.Nonce == "" || req.Signature == "" || req.WalletAddress == "" || req.ChainID == 0 {
		logger.Warn("verify missing fields")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "nonce, wallet address, chain id, and signature are required"})
		return
	}

	challenge, err := h.Challenges.Redeem(ctx, req.Nonce, req.WalletAddress, req.ChainID)
	if err != nil {
		if errors.Is(err, auth.ErrChallengeNotFound) {
			logger.Warn("unknown or expired challenge", "nonce", req.Nonce)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unknown or expired challenge"})
			return
		}
		logger.Error("failed to redeem challenge", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to verify challenge"})
		return
	}

	verification, err := h.Verifier.Verify(ctx, identity.Proof{
		Address:   challenge.Address,
		ChainID:   challenge.ChainID,
		Message:   challenge.Message,
		Signature: req.Signature,
	})
	if err != nil {
		if errors.Is(err, identity.ErrProofRejected) {
			logger.Warn("signature rejected", "walletAddress", challenge.Address)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "signature rejected"})
			return
		}
		logger.Error("identity verification failed", "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "identity service unavailable"})
		return
	}

	session, tokens, err := h.Sessions.Issue(ctx, challenge.Address, challenge.ChainID, verification.IdentityAddress, verification.Credential)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "walletAddress", challenge.Address)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{
		Session: toSessionPayload(session),
		Tokens:  toTokensPayload(tokens),
	})
}

// Refresh exchanges a refresh token for a rotated session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		logger.Warn("missing refresh token")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "refresh token is required"})
		return
	}

	session, tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrRefreshTokenExpired) {
			logger.Warn("refresh rejected", "error", err)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "unable to refresh session"})
			return
		}
		logger.Error("refresh failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to refresh session"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{
		Session: toSessionPayload(session),
		Tokens:  toTokensPayload(tokens),
	})
}

// Logout revokes the session behind a refresh token. It succeeds even when
// the token is already gone so the client can always drop its copy.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session service unavailable"})
		return
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid logout payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		logger.Warn("missing refresh token")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "refresh token is required"})
		return
	}

	h.Sessions.Revoke(ctx, req.RefreshToken)
	w.WriteHeader(http.StatusNoContent)
}

type challengeRequest struct {
	WalletAddress string `json:"wallet_address"`
	ChainID       int64  `json:"chain_id"`
}

type challengeResponse struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	ExpiresAt int64  `json:"expires_at"`
}

type verifyRequest struct {
	Nonce         string `json:"nonce"`
	WalletAddress string `json:"wallet_address"`
	ChainID       int64  `json:"chain_id"`
	Signature     string `json:"signature"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokensPayload struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

type sessionPayload struct {
	WalletAddress   string `json:"wallet_address"`
	ChainID         int64  `json:"chain_id"`
	IdentityAddress string `json:"identity_address"`
	IssuedAt        int64  `json:"issued_at"`
	ExpiresAt       int64  `json:"expires_at"`
}

type authResponse struct {
	Session sessionPayload `json:"session"`
	Tokens  tokensPayload  `json:"tokens"`
}

func toTokensPayload(tokens models.SessionTokens) tokensPayload {
	return tokensPayload{
		AccessToken:      tokens.AccessToken,
		AccessExpiresAt:  tokens.AccessExpiresAt.Unix(),
		RefreshToken:     tokens.RefreshToken,
		RefreshExpiresAt: tokens.RefreshExpiresAt.Unix(),
	}
}

func toSessionPayload(session models.WalletSession) sessionPayload {
	return sessionPayload{
		WalletAddress:   session.WalletAddress,
		ChainID:         session.ChainID,
		IdentityAddress: session.IdentityAddress,
		IssuedAt:        session.IssuedAt.Unix(),
		ExpiresAt:       session.ExpiresAt.Unix(),
	}
}
