package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/audit"
	authmw "github.com/exploremore-ph/exploremore/internal/auth/middleware"
	"github.com/exploremore-ph/exploremore/internal/logging"
)

// GET /api/users-with-feedback
func UsersWithFeedbackHandler(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := accounts.ListWithFeedback(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"users": users})
	}
}

type updateUserRoleReq struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// PUT /api/admin/users/{userID}/role. The last admin cannot be demoted.
func AdminUpdateUserRoleHandler(accounts *account.Service, events audit.Appender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil || id <= 0 {
			fail(w, http.StatusBadRequest, "bad_request", "invalid user id")
			return
		}
		var req updateUserRoleReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		u, err := accounts.SetRole(r.Context(), id, req.Role)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if events != nil {
			data := map[string]any{"role": u.Role, "by": authmw.SubjectFromContext(r.Context())}
			if err := events.Append(r.Context(), audit.TypeUserRoleChanged, userKey(u.ID), data); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("audit append failed")
			}
		}
		ok(w, http.StatusOK, map[string]any{"user": toSessionUser(u)})
	}
}
