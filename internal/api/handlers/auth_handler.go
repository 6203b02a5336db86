package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

// AuthHandler mints bearer tokens for the public API group.
type AuthHandler struct {
	secret []byte
	now    func() time.Time
}

func NewAuthHandler(secret string) *AuthHandler {
	return &AuthHandler{secret: []byte(secret), now: time.Now}
}

type tokenRequest struct {
	Client string `json:"client"`
}

// IssueToken returns a token for the named client. The route sits behind the internal secret.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if len(h.secret) == 0 {
		writeFailure(w, http.StatusNotFound, "token issuing disabled")
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Client) == "" {
		writeFailure(w, http.StatusBadRequest, "client required")
		return
	}

	token, expires, err := h.generateJWT(req.Client)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "token": token, "expiresAt": expires.Unix()})
}

// generateJWT creates a signed token with the client as subject
func (h *AuthHandler) generateJWT(client string) (string, time.Time, error) {
	now := h.now()
	exp := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   client,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	return token, exp, err
}
