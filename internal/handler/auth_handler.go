package handler

import (
	"net/http"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexcommand/internal/auth"
)

var clientIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// AuthHandler issues and refreshes API tokens.
type AuthHandler struct {
	jwtMgr *auth.JWTManager
	dev    bool
}

// NewAuthHandler creates an AuthHandler. Dev tokens are only issued when
// dev is set.
func NewAuthHandler(jwtMgr *auth.JWTManager, dev bool) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr, dev: dev}
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.jwtMgr.ValidateToken(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(claims.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// DevToken handles POST /auth/dev and returns a token pair for the named
// client. Only available in dev mode.
func (h *AuthHandler) DevToken(w http.ResponseWriter, r *http.Request) {
	if !h.dev {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req struct {
		ClientID string `json:"client_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !clientIDPattern.MatchString(req.ClientID) {
		writeError(w, http.StatusBadRequest, "client_id must be 1-64 letters, digits, '.', '_' or '-'")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(req.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	log.Info().Str("clientId", req.ClientID).Msg("Issued dev token")
	writeJSON(w, http.StatusOK, tokens)
}
