package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/electrohub/shop-api/internal/auth"
)

type ctxKey int

const identityKey ctxKey = iota

// SessionHeader carries the anonymous cart session key. Clients without an
// account keep a cart under this key instead of a user id.
const SessionHeader = "X-Session-Key"

type Middleware struct {
	Auth *auth.Service
}

// WithIdentity resolves a bearer token when one is present and continues
// anonymously otherwise.
func (m *Middleware) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if id, err := m.Auth.Resolve(r.Context(), token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a valid bearer token.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		id, err := m.Auth.Resolve(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// RequireAdmin additionally checks the admin flag on the identity.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		if id == nil || !id.Admin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok
}

// cartOwner picks the cart key for a request: the user id when
// authenticated, otherwise the anonymous session key. A fresh session key
// is minted and echoed back when the client has neither.
func cartOwner(w http.ResponseWriter, r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return id.UserID
	}
	if key := r.Header.Get(SessionHeader); key != "" {
		return key
	}
	key := uuid.NewString()
	w.Header().Set(SessionHeader, key)
	return key
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
