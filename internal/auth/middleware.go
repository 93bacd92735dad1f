package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Faith-tech-code/safemove/internal/users"
	"github.com/Faith-tech-code/safemove/pkg/jwt"
)

type ctxKey string

const userCtxKey ctxKey = "auth_user"

// UserCache is the optional read-through cache in front of the
// per-request store lookup. *redis.Client satisfies it.
type UserCache interface {
	GetAuthUser(ctx context.Context, userID string, dest any) (bool, error)
	CacheAuthUser(ctx context.Context, userID string, user any) error
}

// Middleware guards routes with bearer-token auth. Every request
// resolves the token's subject against the store (through the cache
// when one is configured) and attaches the user to the context.
type Middleware struct {
	signer *jwt.Signer
	store  users.Store
	cache  UserCache // may be nil
}

// NewMiddleware builds the auth middleware. cache may be nil.
func NewMiddleware(signer *jwt.Signer, store users.Store, cache UserCache) *Middleware {
	return &Middleware{signer: signer, store: store, cache: cache}
}

// RequireAuth rejects requests without a valid bearer token whose
// subject still exists. Malformed headers, bad signatures, expired
// tokens and deleted users all collapse to the same 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w)
			return
		}

		claims, err := m.signer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w)
			return
		}

		user, err := m.resolveUser(r.Context(), claims.UserID)
		if err != nil {
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (m *Middleware) resolveUser(ctx context.Context, userID string) (*users.User, error) {
	if m.cache != nil {
		var cached users.User
		if ok, err := m.cache.GetAuthUser(ctx, userID, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	user, err := m.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		_ = m.cache.CacheAuthUser(ctx, userID, user)
	}
	return user, nil
}

// WithUser returns a context carrying the authenticated user. It is
// what RequireAuth installs for downstream handlers.
func WithUser(ctx context.Context, u *users.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// CurrentUser returns the authenticated user attached by RequireAuth,
// or nil outside a guarded route.
func CurrentUser(ctx context.Context) *users.User {
	u, _ := ctx.Value(userCtxKey).(*users.User)
	return u
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Authentication required"}`))
}
