package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openreel/gateway/internal/auth"
	"github.com/openreel/gateway/internal/gate"
	"github.com/openreel/gateway/internal/logging"
	"github.com/openreel/gateway/internal/wallet"
)

// SessionHandler applies the wallet signal rules to the caller's session and
// reports what the client shell should render.
type SessionHandler struct {
	Sessions SessionManager
	Gate     *gate.Gate
}

// Signals handles POST /api/v1/session/signals. The client reports its
// wallet state on every connect, disconnect, account switch, or network
// switch; the gate decides whether the session survives and what to render.
// Clearing a session is never an error for the caller.
func (h SessionHandler) Signals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil || h.Gate == nil {
		logger.Error("session dependencies unavailable", "hasSessions", h.Sessions != nil, "hasGate", h.Gate != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session services unavailable"})
		return
	}

	var req signalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signals payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	signals := gate.Signals{
		Initializing:  req.Initializing,
		Connected:     req.Connected,
		ChainID:       req.ChainID,
		WalletAddress: req.WalletAddress,
	}

	var (
		sessionID       string
		identityAddress string
		hasIdentity     bool
	)
	if claims, ok := ClaimsFromContext(ctx); ok {
		session, err := h.Sessions.Session(ctx, claims.SessionID)
		if err != nil {
			logger.Debug("session behind token is gone", "sessionId", claims.SessionID, "error", err)
		} else {
			sessionID = session.ID
			identityAddress = session.IdentityAddress
			hasIdentity = true
		}
	}

	mustClear, reason := h.Gate.Evaluate(signals, identityAddress)

	cleared := false
	if mustClear && hasIdentity {
		if err := h.Sessions.Clear(ctx, sessionID); err != nil {
			logger.Error("failed to clear session", "sessionId", sessionID, "error", err)
		}
		logger.Info("session cleared",
			"sessionId", sessionID,
			"reason", reason,
			"chain", wallet.ChainName(req.ChainID),
		)
		cleared = true
		hasIdentity = false
	}

	decision := h.Gate.Decide(signals, hasIdentity)

	resp := signalsResponse{
		Decision:       decision.String(),
		SessionCleared: cleared,
	}
	if cleared {
		resp.Reason = reason
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

// Current handles GET /api/v1/session requests for the active session.
func (h SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "session services unavailable"})
		return
	}

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
		return
	}

	session, err := h.Sessions.Session(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "session no longer active"})
			return
		}
		logger.Error("session lookup failed", "sessionId", claims.SessionID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load session"})
		return
	}

	// A live session behind a valid token always renders the protected
	// subtree; a 401 from this endpoint is the login decision.
	respondJSON(ctx, w, http.StatusOK, currentSessionResponse{
		Decision: gate.DecisionProtected.String(),
		Session:  toSessionPayload(session),
	})
}

type signalsRequest struct {
	Initializing  bool   `json:"initializing"`
	Connected     bool   `json:"connected"`
	ChainID       int64  `json:"chain_id"`
	WalletAddress string `json:"wallet_address"`
}

type signalsResponse struct {
	Decision       string `json:"decision"`
	SessionCleared bool   `json:"session_cleared"`
	Reason         string `json:"reason,omitempty"`
}

type currentSessionResponse struct {
	Decision string         `json:"decision"`
	Session  sessionPayload `json:"session"`
}
