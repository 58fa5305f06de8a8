package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/db/dbtest"
)

func newService(t *testing.T) *account.Service {
	t.Helper()
	return account.NewService(account.NewSQLStore(dbtest.Open(t)), 4)
}

func TestSignupAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	u, err := svc.Signup(ctx, account.SignupInput{Fullname: "Juan Dela Cruz", Email: "juan@example.ph", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Role != account.RoleUser || u.Username != "juan" || u.ID == 0 {
		t.Fatalf("user = %+v", u)
	}

	if _, err := svc.Signup(ctx, account.SignupInput{Fullname: "Other", Email: "JUAN@example.ph", Password: "secret2"}); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("case-variant signup: %v", err)
	}
	if _, err := svc.Signup(ctx, account.SignupInput{Fullname: "Dup", Email: "juan@example.ph", Password: "secret2"}); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("duplicate: %v", err)
	}
	if _, err := svc.Signup(ctx, account.SignupInput{Fullname: "Evil", Email: "evil@example.ph", Password: "secret2", Role: "admin"}); !errors.Is(err, account.ErrAdminSignup) {
		t.Fatalf("admin signup: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "nobody@example.ph", "x"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("unknown: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "juan@example.ph", "wrong"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	got, err := svc.Authenticate(ctx, "juan@example.ph", "secret1")
	if err != nil || got.ID != u.ID {
		t.Fatalf("login: %+v %v", got, err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u, _ := svc.Signup(ctx, account.SignupInput{Fullname: "Ana", Email: "ana@example.ph", Password: "oldpass"})

	if err := svc.ChangePassword(ctx, u.ID, "nope", "newpass"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Fatalf("bad old password: %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "oldpass", "newpass"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@example.ph", "newpass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestSetRoleGuardsLastAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	admin, created, err := svc.EnsureAdmin(ctx, "admin@exploremore.ph", "admin", "Admin123!")
	if err != nil || !created || !admin.IsAdmin() {
		t.Fatalf("ensure admin: %+v %v %v", admin, created, err)
	}
	if _, err := svc.SetRole(ctx, admin.ID, account.RoleUser); !errors.Is(err, account.ErrLastAdmin) {
		t.Fatalf("demote last admin: %v", err)
	}

	u, _ := svc.Signup(ctx, account.SignupInput{Fullname: "Ben", Email: "ben@example.ph", Password: "benben"})
	if _, err := svc.SetRole(ctx, u.ID, "root"); !errors.Is(err, account.ErrInvalidRole) {
		t.Fatalf("invalid role: %v", err)
	}
	if _, err := svc.SetRole(ctx, u.ID, account.RoleAdmin); err != nil {
		t.Fatalf("promote: %v", err)
	}
	demoted, err := svc.SetRole(ctx, admin.ID, account.RoleUser)
	if err != nil || demoted.Role != account.RoleUser {
		t.Fatalf("demote with two admins: %+v %v", demoted, err)
	}
	if _, err := svc.SetRole(ctx, 999, account.RoleUser); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("missing user: %v", err)
	}
}

func TestEnsureAdminPromotesExisting(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	u, _ := svc.Signup(ctx, account.SignupInput{Fullname: "Site Owner", Email: "admin@exploremore.ph", Password: "owner1"})

	admin, created, err := svc.EnsureAdmin(ctx, "admin@exploremore.ph", "admin", "ignored")
	if err != nil || created || admin.ID != u.ID || !admin.IsAdmin() {
		t.Fatalf("promote: %+v created=%v err=%v", admin, created, err)
	}
}

func TestListWithFeedback(t *testing.T) {
	ctx := context.Background()
	d := dbtest.Open(t)
	svc := account.NewService(account.NewSQLStore(d), 4)
	u, _ := svc.Signup(ctx, account.SignupInput{Fullname: "Cara", Email: "cara@example.ph", Password: "carac1"})
	_, _ = svc.Signup(ctx, account.SignupInput{Fullname: "Dan", Email: "dan@example.ph", Password: "dandan"})

	for i, verified := range []bool{true, false} {
		if _, err := d.ExecContext(ctx,
			`INSERT INTO feedback (user_id, feedback, filtered_feedback, is_profane, is_verified, created_at) VALUES ($1,'hi','hi',$2,$3,$4)`,
			u.ID, false, verified, int64(100+i)); err != nil {
			t.Fatalf("seed feedback: %v", err)
		}
	}

	rows, err := svc.ListWithFeedback(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	cara := rows[0]
	if cara.Username != "cara" || cara.FeedbackCount != 2 || cara.VerifiedCount != 1 || cara.LastFeedbackAt == nil || *cara.LastFeedbackAt != 101 {
		t.Fatalf("cara = %+v", cara)
	}
	if rows[1].FeedbackCount != 0 || rows[1].LastFeedbackAt != nil {
		t.Fatalf("dan = %+v", rows[1])
	}
}
