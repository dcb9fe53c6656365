package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// HeaderUserID names the request header that carries the caller's user id.
const HeaderUserID = "X-User-ID"

// contextKey keeps our context values out of reach of other packages.
type contextKey string

const userIDKey contextKey = "userID"

// RequireUser rejects requests without an X-User-ID header with 401 and
// stores the id in the request context for handlers.
//
// The header is an identity claim, not a credential: the stub service
// trusts it the way the hosted service trusts the uid it handed out at
// login.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			unauthorized(w, "Please log in first.")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// UserLookup reports whether an account exists.
type UserLookup interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// RequireKnownUser is RequireUser plus an account check: an id that names
// no account gets 401, so a client holding a deleted account's id learns
// its session is gone. A failed lookup is a 500.
func RequireKnownUser(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := UserIDFromContext(r.Context())
			ok, err := users.UserExists(r.Context(), id)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"An unexpected error occurred","code":"internal_error"}` + "\n"))
				return
			}
			if !ok {
				unauthorized(w, "Your session is no longer valid. Please log in again.")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	body, _ := json.Marshal(map[string]string{"error": message, "code": "unauthorized"})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(append(body, '\n'))
}

// WithUserID returns a context carrying id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the caller's id, or false for anonymous
// requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
