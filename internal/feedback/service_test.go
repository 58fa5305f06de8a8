package feedback_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/exploremore-ph/exploremore/internal/audit"
	"github.com/exploremore-ph/exploremore/internal/db/dbtest"
	"github.com/exploremore-ph/exploremore/internal/feedback"
	"github.com/exploremore-ph/exploremore/internal/moderation"
)

type fixture struct {
	db     *sql.DB
	svc    *feedback.Service
	events *audit.EventRepo
	alice  int64
	bob    int64
}

func seedUser(t *testing.T, d *sql.DB, name string) int64 {
	t.Helper()
	var id int64
	err := d.QueryRow(`INSERT INTO users (username, fullname, email, password_hash, role, created_at)
		VALUES ($1,$1,$2,'x','user',0) RETURNING id`, name, name+"@example.ph").Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func newFixture(t *testing.T, words ...string) *fixture {
	t.Helper()
	d := dbtest.Open(t)
	events := audit.NewEventRepo(d)
	if len(words) == 0 {
		words = []string{"shit", "gago"}
	}
	return &fixture{
		db:     d,
		svc:    feedback.NewService(feedback.NewSQLStore(d), moderation.NewWithWords(words), events),
		events: events,
		alice:  seedUser(t, d, "alice"),
		bob:    seedUser(t, d, "bob"),
	}
}

func TestSubmitStoresOriginalAndFiltered(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	f, err := fx.svc.Submit(ctx, fx.alice, "  Siargao was shit hot!  ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.Feedback != "Siargao was shit hot!" || f.Filtered != "Siargao was **** hot!" || !f.IsProfane || f.IsVerified {
		t.Fatalf("feedback = %+v", f)
	}

	if _, err := fx.svc.Submit(ctx, fx.alice, "   "); !errors.Is(err, feedback.ErrEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fx.alice, strings.Repeat("a", feedback.MaxLength+1)); !errors.Is(err, feedback.ErrTooLong) {
		t.Fatalf("too long: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fx.alice, strings.Repeat("é", feedback.MaxLength)); err != nil {
		t.Fatalf("max length multibyte: %v", err)
	}

	events, _ := fx.events.Search(ctx, audit.TypeFeedbackSubmitted, 10, 0)
	if len(events) != 2 {
		t.Fatalf("audit events = %d, want 2", len(events))
	}
}

func TestPublicListShowsVerifiedFilteredOnly(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	a, _ := fx.svc.Submit(ctx, fx.alice, "ang gago ng traffic")
	_, _ = fx.svc.Submit(ctx, fx.bob, "Loved Nagsasa Cove")

	if err := fx.svc.Verify(ctx, a.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	pub, err := fx.svc.ListPublic(ctx, 0)
	if err != nil {
		t.Fatalf("public: %v", err)
	}
	if len(pub) != 1 || pub[0].Feedback != "ang **** ng traffic" || pub[0].Username != "alice" {
		t.Fatalf("public = %+v", pub)
	}
	if err := fx.svc.Verify(ctx, 9999); !errors.Is(err, feedback.ErrNotFound) {
		t.Fatalf("verify missing: %v", err)
	}
}

func TestAdminFilters(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	a, _ := fx.svc.Submit(ctx, fx.alice, "shit weather at Tinago")
	b, _ := fx.svc.Submit(ctx, fx.bob, "Hamiguitan is beautiful")
	_ = fx.svc.Verify(ctx, b.ID)

	cases := []struct {
		name string
		q    feedback.Query
		want []int64
	}{
		{"all", feedback.Query{}, []int64{b.ID, a.ID}},
		{"search", feedback.Query{Search: "tinago"}, []int64{a.ID}},
		{"user", feedback.Query{User: "bob"}, []int64{b.ID}},
		{"verified", feedback.Query{Status: "verified"}, []int64{b.ID}},
		{"unverified", feedback.Query{Status: "unverified"}, []int64{a.ID}},
		{"filtered", feedback.Query{Profanity: "filtered"}, []int64{a.ID}},
		{"clean", feedback.Query{Profanity: "clean"}, []int64{b.ID}},
		{"today", feedback.Query{Date: time.Now().UTC().Format(time.DateOnly)}, []int64{b.ID, a.ID}},
		{"other day", feedback.Query{Date: "2001-01-01"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := fx.svc.List(ctx, tc.q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(rows) != len(tc.want) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tc.want))
			}
			got := map[int64]bool{}
			for _, r := range rows {
				got[r.ID] = true
			}
			for _, id := range tc.want {
				if !got[id] {
					t.Fatalf("missing id %d in %+v", id, rows)
				}
			}
		})
	}
	if _, err := fx.svc.List(ctx, feedback.Query{Date: "15/10/2026"}); !errors.Is(err, feedback.ErrBadDate) {
		t.Fatalf("bad date: %v", err)
	}
}

func TestBulkOperations(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	var ids []int64
	for _, text := range []string{"one", "two", "three"} {
		f, _ := fx.svc.Submit(ctx, fx.alice, text)
		ids = append(ids, f.ID)
	}

	n, err := fx.svc.BulkVerify(ctx, append(ids, 4242))
	if err != nil || n != 3 {
		t.Fatalf("bulk verify: %d %v", n, err)
	}
	n, err = fx.svc.BulkUnverify(ctx, ids[:1])
	if err != nil || n != 1 {
		t.Fatalf("bulk unverify: %d %v", n, err)
	}
	st, _ := fx.svc.Stats(ctx)
	if st.Total != 3 || st.Verified != 2 || st.Unverified != 1 || st.Users != 2 {
		t.Fatalf("stats = %+v", st)
	}

	n, err = fx.svc.BulkDelete(ctx, ids[1:])
	if err != nil || n != 2 {
		t.Fatalf("bulk delete: %d %v", n, err)
	}
	if err := fx.svc.Delete(ctx, ids[1]); !errors.Is(err, feedback.ErrNotFound) {
		t.Fatalf("delete twice: %v", err)
	}
	events, _ := fx.events.Search(ctx, audit.TypeFeedbackDeleted, 10, 0)
	if len(events) != 2 {
		t.Fatalf("delete events = %d", len(events))
	}
}

func TestRefilterAndProfanityStats(t *testing.T) {
	ctx := context.Background()
	d := dbtest.Open(t)
	uid := seedUser(t, d, "carl")
	store := feedback.NewSQLStore(d)

	lenient := feedback.NewService(store, moderation.NewWithWords([]string{"shit"}), nil)
	_, _ = lenient.Submit(ctx, uid, "what the heck")
	f, _ := lenient.Submit(ctx, uid, "shit happens")
	_ = lenient.Verify(ctx, f.ID)

	strict := feedback.NewService(store, moderation.NewWithWords([]string{"shit", "heck"}), nil)
	res, err := strict.Refilter(ctx)
	if err != nil {
		t.Fatalf("refilter: %v", err)
	}
	if res.Processed != 2 || res.Updated != 1 {
		t.Fatalf("refilter = %+v", res)
	}
	ps, err := strict.ProfanityStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if ps.TotalProfane != 2 || ps.VerifiedProfane != 1 || ps.UnverifiedProfane != 1 {
		t.Fatalf("profanity stats = %+v", ps)
	}
}

func TestAdminFiltersMatchWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	a, _ := fx.svc.Submit(ctx, fx.alice, "100% worth the climb")
	_, _ = fx.svc.Submit(ctx, fx.bob, "1000 steps to the falls")

	cases := []struct {
		name string
		q    feedback.Query
		want int
	}{
		{"percent in search", feedback.Query{Search: "100%"}, 1},
		{"bare percent", feedback.Query{Search: "%"}, 1},
		{"underscore in search", feedback.Query{Search: "10_0"}, 0},
		{"underscore in user", feedback.Query{User: "_"}, 0},
		{"percent in user", feedback.Query{User: "%"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := fx.svc.List(ctx, tc.q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(rows) != tc.want {
				t.Fatalf("got %d rows, want %d: %+v", len(rows), tc.want, rows)
			}
			if tc.want == 1 && rows[0].ID != a.ID {
				t.Fatalf("got id %d, want %d", rows[0].ID, a.ID)
			}
		})
	}
}
