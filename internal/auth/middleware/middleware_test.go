package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/rbac"
)

func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sub", SubjectFromContext(r.Context()))
		w.Header().Set("X-Role", rbac.RoleFromContext(r.Context()))
	})
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour, "")
	tok, exp, err := a.IssueJWT("7", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	c, err := a.Parse(tok)
	if err != nil || c.Sub != "7" || c.Role != "admin" {
		t.Fatalf("parse: %+v %v", c, err)
	}
	if _, err := NewAuthService("other", time.Hour, "").Parse(tok); err == nil {
		t.Fatalf("token verified with wrong secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	a := NewAuthService("secret", time.Minute, "")
	past := time.Now().Add(-time.Hour)
	a.now = func() time.Time { return past }
	tok, _, _ := a.IssueJWT("1", "user")
	a.now = time.Now
	if _, err := a.Parse(tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour, "session")
	tok, _, _ := a.IssueJWT("3", "user")
	h := JWTMiddleware(a)(echo())

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"none", func(r *http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: tok}) }, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if tc.status == http.StatusOK && (rr.Header().Get("X-Sub") != "3" || rr.Header().Get("X-Role") != "user") {
				t.Fatalf("context not populated: %v", rr.Header())
			}
		})
	}
}

func TestOptionalJWTPassesAnonymous(t *testing.T) {
	a := NewAuthService("secret", time.Hour, "")
	rr := httptest.NewRecorder()
	OptionalJWT(a)(echo()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("X-Sub") != "" {
		t.Fatalf("anonymous: %d %v", rr.Code, rr.Header())
	}
}

type fakeUsers map[int64]account.User

func (f fakeUsers) Get(_ context.Context, id int64) (account.User, error) {
	u, ok := f[id]
	if !ok {
		return account.User{}, account.ErrNotFound
	}
	return u, nil
}

func TestAttachRoleFromDBOverridesClaim(t *testing.T) {
	a := NewAuthService("secret", time.Hour, "")
	users := fakeUsers{1: {ID: 1, Role: account.RoleUser}}
	h := JWTMiddleware(a)(AttachRoleFromDB(users)(echo()))

	// token still claims admin after a demotion
	tok, _, _ := a.IssueJWT("1", "admin")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("X-Role") != "user" {
		t.Fatalf("role = %q status %d", rr.Header().Get("X-Role"), rr.Code)
	}

	tok, _, _ = a.IssueJWT("2", "user")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user status = %d", rr.Code)
	}
}
