package quiz

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"

	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/metrics"
)

const lockStripes = 64

// Service runs quiz sessions on top of a SessionStore. Each call loads the
// session, applies one operation and saves it back under a per-id lock, so
// two requests for the same session never interleave.
type Service struct {
	catalog *Catalog
	store   SessionStore
	locks   [lockStripes]sync.Mutex
	newID   func() string
}

func NewService(c *Catalog, store SessionStore) *Service {
	return &Service{catalog: c, store: store, newID: func() string { return uuid.NewString() }}
}

func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &s.locks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// Start creates an empty session positioned on the first question.
func (s *Service) Start(ctx context.Context) (string, Snapshot, error) {
	id := s.newID()
	sess := NewSession(s.catalog)
	if err := s.store.Save(ctx, id, sess.State()); err != nil {
		return "", Snapshot{}, err
	}
	return id, sess.Snapshot(), nil
}

func (s *Service) Get(ctx context.Context, id string) (Snapshot, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *Service) Toggle(ctx context.Context, id string, qid int, letter string) (Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		_, err := sess.Toggle(qid, letter)
		return err
	})
}

// Next advances the session. On ErrValidationFailed the returned snapshot
// is the unchanged session so the caller can re-render it.
func (s *Service) Next(ctx context.Context, id string) (Snapshot, error) {
	var completed *Result
	snap, err := s.mutate(ctx, id, func(sess *Session) error {
		step, err := sess.Advance()
		if err != nil {
			return err
		}
		completed = step.Result
		return nil
	})
	switch {
	case errors.Is(err, ErrValidationFailed):
		metrics.QuizGateRejections.Inc()
	case err == nil && completed != nil:
		metrics.QuizCompletions.WithLabelValues(completed.Destination.Name).Inc()
		logging.Ctx(ctx).Info().
			Str("session", id).
			Str("destination", completed.Destination.Name).
			Int("score", completed.Score).
			Int("possible", completed.Possible).
			Msg("quiz completed")
	}
	return snap, err
}

func (s *Service) Back(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Back()
		return nil
	})
}

func (s *Service) Reset(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

func (s *Service) End(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()
	return s.store.Delete(ctx, id)
}

// Score is the stateless scoring path: answers are checked against the
// catalog and the best match returned.
func (s *Service) Score(answers map[int][]string) (Result, error) {
	a := NewAnswers(answers)
	if err := s.catalog.CheckAnswers(a); err != nil {
		return Result{}, err
	}
	return BestMatch(s.catalog, a)
}

func (s *Service) load(ctx context.Context, id string) (*Session, error) {
	st, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return RestoreSession(s.catalog, st)
}

// mutate applies fn and persists the session. When fn fails the session is
// not saved, so a rejected operation leaves stored state untouched.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Session) error) (Snapshot, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(sess); err != nil {
		return sess.Snapshot(), err
	}
	if err := s.store.Save(ctx, id, sess.State()); err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}
