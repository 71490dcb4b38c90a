// Package triggerauth decides whether a scheduler or admin caller may run an
// automation job.
package triggerauth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	// Secret is compared in constant time; SecretHash (bcrypt) wins when set.
	Secret     string
	SecretHash string
	// SchedulerHeader marks a trusted scheduler (set by infrastructure,
	// stripped from external traffic at the edge).
	SchedulerHeader string
	// JWTSecret verifies admin bearer tokens for manual runs.
	JWTSecret string
}

// Authenticate checks credentials in a fixed precedence order: trusted
// scheduler header, bearer token (shared secret or admin JWT), body secret,
// query secret. bodySecret is the already-decoded `secret` field, since the
// request body can only be read once.
func (a Auth) Authenticate(r *http.Request, bodySecret string) bool {
	if v := r.Header.Get(a.SchedulerHeader); v == "true" || v == "1" {
		return true
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		if a.matchSecret(token) || a.validAdminToken(token) {
			return true
		}
	}
	if bodySecret != "" && a.matchSecret(bodySecret) {
		return true
	}
	if qs := r.URL.Query().Get("secret"); qs != "" && a.matchSecret(qs) {
		return true
	}
	// Open only when no credential source at all is configured; such
	// deployments gate triggers upstream.
	return a.Secret == "" && a.SecretHash == "" && a.JWTSecret == ""
}

func (a Auth) matchSecret(candidate string) bool {
	if a.SecretHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.SecretHash), []byte(candidate)) == nil
	}
	if a.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.Secret), []byte(candidate)) == 1
}

func (a Auth) validAdminToken(tokenStr string) bool {
	if a.JWTSecret == "" {
		return false
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
