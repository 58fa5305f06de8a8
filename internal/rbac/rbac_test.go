package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"user", PermFeedbackSubmit, true},
		{"user", PermUserChangePass, true},
		{"user", PermFeedbackModerate, false},
		{"user", PermPriceEdit, false},
		{"admin", PermFeedbackModerate, true},
		{"admin", PermAuditRead, true},
		{"", PermFeedbackSubmit, false},
		{"ghost", PermFeedbackSubmit, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestPrefixPattern(t *testing.T) {
	c := NewChecker(map[string][]string{"mod": {"feedback:*"}})
	if !c.Has("mod", PermFeedbackModerate) || c.Has("mod", PermPriceEdit) {
		t.Fatalf("prefix pattern mismatch")
	}
	if !c.Any("mod", PermPriceEdit, PermFeedbackSubmit) {
		t.Fatalf("Any should match second permission")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Require(PermPriceEdit)(ok)

	for role, want := range map[string]int{"": 403, "user": 403, "admin": 200} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("role %q: status %d, want %d", role, rr.Code, want)
		}
	}
}

func TestRequireAny(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	cases := []struct {
		perms []string
		role  string
		want  int
	}{
		{[]string{PermStatsRead, PermFeedbackModerate}, "user", 403},
		{[]string{PermStatsRead, PermFeedbackModerate}, "admin", 200},
		{[]string{PermStatsRead, PermFeedbackSubmit}, "user", 200},
		{[]string{PermStatsRead, PermFeedbackSubmit}, "", 403},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRole(req.Context(), tc.role))
		rr := httptest.NewRecorder()
		RequireAny(tc.perms...)(ok).ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Errorf("RequireAny(%v) role %q: status %d, want %d", tc.perms, tc.role, rr.Code, tc.want)
		}
	}
}
