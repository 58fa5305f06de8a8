package feedback

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/exploremore-ph/exploremore/internal/audit"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/metrics"
)

// Censor is the profanity filter contract; moderation.Filter satisfies it.
type Censor interface {
	Censor(text string) (string, bool)
}

type Service struct {
	store  Store
	censor Censor
	audit  audit.Appender
	now    func() time.Time
}

func NewService(store Store, censor Censor, events audit.Appender) *Service {
	return &Service{store: store, censor: censor, audit: events, now: time.Now}
}

// Submit stores the original text alongside its censored form.
func (s *Service) Submit(ctx context.Context, userID int64, text string) (Feedback, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return Feedback{}, ErrEmpty
	case n > MaxLength:
		return Feedback{}, ErrTooLong
	}
	filtered, profane := s.censor.Censor(text)
	f, err := s.store.Insert(ctx, Feedback{
		UserID:    userID,
		Feedback:  text,
		Filtered:  filtered,
		IsProfane: profane,
		CreatedAt: s.now().Unix(),
	})
	if err != nil {
		return Feedback{}, err
	}
	outcome := "clean"
	if profane {
		outcome = "filtered"
		logging.Ctx(ctx).Info().Int64("feedback", f.ID).Int64("user", userID).Msg("feedback censored")
	}
	metrics.FeedbackSubmissions.WithLabelValues(outcome).Inc()
	s.record(ctx, audit.TypeFeedbackSubmitted, f.ID, map[string]any{"user_id": userID, "profane": profane})
	return f, nil
}

// ListPublic returns verified feedback for the public page.
func (s *Service) ListPublic(ctx context.Context, limit int) ([]Public, error) {
	yes := true
	rows, err := s.store.List(ctx, ListParams{Verified: &yes, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]Public, 0, len(rows))
	for _, f := range rows {
		out = append(out, f.Public())
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, q Query) ([]Feedback, error) {
	p, err := q.params()
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, p)
}

func (q Query) params() (ListParams, error) {
	p := ListParams{
		Search: strings.TrimSpace(q.Search),
		User:   strings.TrimSpace(q.User),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	switch q.Status {
	case "verified":
		v := true
		p.Verified = &v
	case "unverified":
		v := false
		p.Verified = &v
	}
	switch q.Profanity {
	case "filtered", "profane":
		v := true
		p.Profane = &v
	case "clean":
		v := false
		p.Profane = &v
	}
	if q.Date != "" {
		day, err := time.Parse(time.DateOnly, q.Date)
		if err != nil {
			return ListParams{}, ErrBadDate
		}
		p.FromUnix = day.Unix()
		p.ToUnix = day.Add(24 * time.Hour).Unix()
	}
	return p, nil
}

func (s *Service) Verify(ctx context.Context, id int64) error {
	return s.setVerified(ctx, id, true)
}

func (s *Service) Unverify(ctx context.Context, id int64) error {
	return s.setVerified(ctx, id, false)
}

func (s *Service) setVerified(ctx context.Context, id int64, verified bool) error {
	if err := s.store.SetVerified(ctx, id, verified, s.now().Unix()); err != nil {
		return err
	}
	typ, action := audit.TypeFeedbackVerified, "verify"
	if !verified {
		typ, action = audit.TypeFeedbackUnverified, "unverify"
	}
	metrics.ModerationActions.WithLabelValues(action).Inc()
	s.record(ctx, typ, id, nil)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ModerationActions.WithLabelValues("delete").Inc()
	s.record(ctx, audit.TypeFeedbackDeleted, id, nil)
	return nil
}

// BulkVerify, BulkUnverify and BulkDelete apply per item; missing ids are
// skipped and not counted.
func (s *Service) BulkVerify(ctx context.Context, ids []int64) (int, error) {
	return s.bulk(ctx, ids, s.Verify)
}

func (s *Service) BulkUnverify(ctx context.Context, ids []int64) (int, error) {
	return s.bulk(ctx, ids, s.Unverify)
}

func (s *Service) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	return s.bulk(ctx, ids, s.Delete)
}

func (s *Service) bulk(ctx context.Context, ids []int64, fn func(context.Context, int64) error) (int, error) {
	affected := 0
	for _, id := range ids {
		err := fn(ctx, id)
		switch {
		case err == nil:
			affected++
		case errors.Is(err, ErrNotFound):
		default:
			return affected, err
		}
	}
	return affected, nil
}

// Refilter re-runs the censor over every row, e.g. after the word list
// changed.
func (s *Service) Refilter(ctx context.Context) (RefilterResult, error) {
	rows, err := s.store.List(ctx, ListParams{})
	if err != nil {
		return RefilterResult{}, err
	}
	var res RefilterResult
	for _, f := range rows {
		res.Processed++
		filtered, profane := s.censor.Censor(f.Feedback)
		if filtered == f.Filtered && profane == f.IsProfane {
			continue
		}
		if err := s.store.UpdateFiltered(ctx, f.ID, filtered, profane); err != nil {
			return res, err
		}
		res.Updated++
	}
	metrics.ModerationActions.WithLabelValues("refilter").Inc()
	s.record(ctx, audit.TypeFeedbackRefiltered, 0, res)
	logging.Ctx(ctx).Info().Int("processed", res.Processed).Int("updated", res.Updated).Msg("feedback refiltered")
	return res, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) { return s.store.Stats(ctx) }

func (s *Service) ProfanityStats(ctx context.Context) (ProfanityStats, error) {
	return s.store.ProfanityStats(ctx)
}

func (s *Service) record(ctx context.Context, typ string, id int64, data any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, typ, "feedback:"+strconv.FormatInt(id, 10), data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("type", typ).Msg("audit append failed")
	}
}
