package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/rbac"
)

type UserLookup interface {
	Get(ctx context.Context, id int64) (account.User, error)
}

// AttachRoleFromDB replaces the claimed role with the stored one, so a
// role change applies to tokens issued before it. Runs after JWTMiddleware.
func AttachRoleFromDB(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := UserIDFromContext(ctx)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			u, err := users.Get(ctx, id)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
			case errors.Is(err, account.ErrNotFound):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			default:
				logging.Ctx(ctx).Error().Err(err).Msg("role lookup failed")
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
