package quiz

import "fmt"

// Session is one user's pass through the quiz. It is not safe for
// concurrent use; Service serialises access per session id.
type Session struct {
	catalog *Catalog
	answers Answers
	index   int
	result  *Result
}

func NewSession(c *Catalog) *Session {
	return &Session{catalog: c, answers: Answers{}}
}

// Step is what the caller renders after a navigation call: either the
// question at Index or, when Done, the final result.
type Step struct {
	Index    int       `json:"index"`
	Question *Question `json:"question,omitempty"`
	Done     bool      `json:"done"`
	Result   *Result   `json:"result,omitempty"`
}

// State is the serialisable form of a Session.
type State struct {
	Index     int              `json:"index"`
	Answers   map[int][]string `json:"answers"`
	Completed bool             `json:"completed"`
}

// Snapshot is a render-ready view of a session.
type Snapshot struct {
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	Question  *Question        `json:"question,omitempty"`
	Answers   map[int][]string `json:"answers"`
	Completed bool             `json:"completed"`
	Result    *Result          `json:"result,omitempty"`
}

// Toggle selects letter for question qid, or deselects it when already
// selected. Single-choice questions drop any other selection first.
func (s *Session) Toggle(qid int, letter string) ([]string, error) {
	if s.result != nil {
		return nil, ErrQuizComplete
	}
	q, ok := s.catalog.Question(qid)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuestionID, qid)
	}
	letter = normalizeLetter(letter)
	if !q.HasLetter(letter) {
		return nil, fmt.Errorf("%w: %q for question %d", ErrUnknownOptionLetter, letter, qid)
	}

	selected := s.answers.has(qid, letter)
	if !q.Multiple {
		delete(s.answers, qid)
	}
	if selected {
		delete(s.answers[qid], letter)
		if len(s.answers[qid]) == 0 {
			delete(s.answers, qid)
		}
	} else {
		s.answers.add(qid, letter)
	}
	return s.answers.Selected(qid), nil
}

// Advance moves to the next question. The current question must have a
// selection; otherwise nothing changes and ErrValidationFailed is returned.
// Advancing past the last question scores the session.
func (s *Session) Advance() (Step, error) {
	if s.result != nil {
		return Step{}, ErrQuizComplete
	}
	if len(s.catalog.Questions) > 0 {
		q := s.catalog.Questions[s.index]
		if len(s.answers[q.ID]) == 0 {
			return s.step(), ErrValidationFailed
		}
		if s.index < len(s.catalog.Questions)-1 {
			s.index++
			return s.step(), nil
		}
	}
	res, err := BestMatch(s.catalog, s.answers)
	if err != nil {
		return Step{}, err
	}
	s.result = &res
	return s.step(), nil
}

// Back moves to the previous question. On a completed session it reopens
// the last question and discards the result.
func (s *Session) Back() Step {
	switch {
	case s.result != nil:
		s.result = nil
	case s.index > 0:
		s.index--
	}
	return s.step()
}

// Reset clears every selection and returns to the first question.
func (s *Session) Reset() {
	s.answers = Answers{}
	s.index = 0
	s.result = nil
}

func (s *Session) Index() int       { return s.index }
func (s *Session) Completed() bool  { return s.result != nil }
func (s *Session) Answers() Answers { return s.answers }

// Result returns the final result once the session is complete.
func (s *Session) Result() (Result, bool) {
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Scores is a scoring pass over the current selections without completing
// the session.
func (s *Session) Scores() []Scored {
	return ScoreAll(s.catalog, s.answers)
}

func (s *Session) Current() *Question {
	if s.result != nil || len(s.catalog.Questions) == 0 {
		return nil
	}
	q := s.catalog.Questions[s.index]
	return &q
}

func (s *Session) step() Step {
	if s.result != nil {
		r := *s.result
		return Step{Index: s.index, Done: true, Result: &r}
	}
	return Step{Index: s.index, Question: s.Current()}
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Index:     s.index,
		Total:     len(s.catalog.Questions),
		Question:  s.Current(),
		Answers:   s.answers.Plain(),
		Completed: s.result != nil,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

func (s *Session) State() State {
	return State{Index: s.index, Answers: s.answers.Plain(), Completed: s.result != nil}
}

// RestoreSession rebuilds a session from stored state, re-validating it
// against the catalog and recomputing the result for completed sessions.
func RestoreSession(c *Catalog, st State) (*Session, error) {
	if st.Index < 0 || st.Index >= len(c.Questions) {
		return nil, fmt.Errorf("restore session: index %d out of range", st.Index)
	}
	answers := NewAnswers(st.Answers)
	if err := c.CheckAnswers(answers); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s := &Session{catalog: c, answers: answers, index: st.Index}
	if st.Completed {
		res, err := BestMatch(c, answers)
		if err != nil {
			return nil, err
		}
		s.result = &res
	}
	return s, nil
}
