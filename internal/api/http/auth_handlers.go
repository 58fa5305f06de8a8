package http

import (
	"net/http"
	"strconv"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/audit"
	authmw "github.com/exploremore-ph/exploremore/internal/auth/middleware"
	"github.com/exploremore-ph/exploremore/internal/logging"
)

// sessionUser is the user shape returned by login and auth-status.
type sessionUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toSessionUser(u account.User) sessionUser {
	return sessionUser{ID: u.ID, Username: u.Username, Fullname: u.Fullname, Email: u.Email, Role: u.Role}
}

// POST /signup
func SignupHandler(accounts *account.Service, events audit.Appender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in account.SignupInput
		if err := decode(r, &in); err != nil {
			writeErr(w, r, err)
			return
		}
		u, err := accounts.Signup(r.Context(), in)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if events != nil {
			if err := events.Append(r.Context(), audit.TypeUserSignedUp, userKey(u.ID), map[string]any{"username": u.Username}); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("audit append failed")
			}
		}
		ok(w, http.StatusCreated, map[string]any{
			"message": "Account created successfully.",
			"user":    toSessionUser(u),
		})
	}
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /login issues a token, returned in the body and as an HttpOnly cookie.
func LoginHandler(accounts *account.Service, a *authmw.AuthService, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		u, err := accounts.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		tok, exp, err := a.IssueJWT(strconv.FormatInt(u.ID, 10), u.Role)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		a.SetSessionCookie(w, tok, exp, secureCookie)
		ok(w, http.StatusOK, map[string]any{
			"token":      tok,
			"expires_at": exp.Unix(),
			"user":       toSessionUser(u),
		})
	}
}

func LogoutHandler(a *authmw.AuthService, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.ClearSessionCookie(w, secureCookie)
		ok(w, http.StatusOK, nil)
	}
}

// GET /api/auth-status. Runs behind OptionalJWT; a token for a deleted
// user reports unauthenticated.
func AuthStatusHandler(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, found := authmw.UserIDFromContext(r.Context())
		if !found {
			ok(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		u, err := accounts.Get(r.Context(), id)
		if err != nil {
			ok(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		ok(w, http.StatusOK, map[string]any{"authenticated": true, "user": toSessionUser(u)})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

func ChangePasswordHandler(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := authmw.UserIDFromContext(r.Context())
		if !found {
			fail(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		var req changePasswordReq
		if err := decode(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		if err := accounts.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func userKey(id int64) string { return "user:" + strconv.FormatInt(id, 10) }
