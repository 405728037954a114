package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs session tokens that identify a profile.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue returns an HS256 token carrying the profile_id claim.
func (t *TokenIssuer) Issue(profileID string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"profile_id": profileID,
		"iat":        now.Unix(),
		"exp":        now.Add(t.ttl).Unix(),
	})

	s, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

type SessionHandler struct{}

// Signout acknowledges a sign-out. Sessions are stateless; the client drops its token.
func (h *SessionHandler) Signout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "signed out"}, http.StatusOK)
}
