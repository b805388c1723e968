package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// AppAuth authenticates the calling application. The service has exactly one
// trusted caller (the chat front-end), so credentials are a single shared
// secret checked against a bcrypt hash from configuration rather than a
// per-app credential table.
type AppAuth struct {
	secretHash []byte
}

// NewAppAuth creates the shared-secret authenticator. An empty hash disables
// authentication, which is only acceptable for local development.
func NewAppAuth(secretHash string) *AppAuth {
	return &AppAuth{secretHash: []byte(secretHash)}
}

// Authenticate validates the shared secret from either
// Authorization: Bearer <secret> or X-App-Secret: <secret>.
func (m *AppAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.secretHash) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		secret := extractSecret(r)
		if secret == "" {
			m.writeError(w, apperrors.NewWithDetail(
				apperrors.ErrCodeUnauthorized,
				"Missing app credentials",
				"Provide Authorization: Bearer or X-App-Secret",
				http.StatusUnauthorized,
			))
			return
		}

		if err := bcrypt.CompareHashAndPassword(m.secretHash, []byte(secret)); err != nil {
			m.writeError(w, apperrors.ErrUnauthorized)
			return
		}

		// Reduce risk of accidental leakage in downstream logs
		r.Header.Del("X-App-Secret")
		r.Header.Del("Authorization")

		next.ServeHTTP(w, r)
	})
}

func extractSecret(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-App-Secret")
}

func (m *AppAuth) writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Message})
}
