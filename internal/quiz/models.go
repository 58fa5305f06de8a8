package quiz

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidationFailed        = errors.New("select at least one option before continuing")
	ErrNoDestinationsAvailable = errors.New("no destinations available")
	ErrUnknownQuestionID       = errors.New("unknown question id")
	ErrUnknownOptionLetter     = errors.New("unknown option letter")
	ErrQuizComplete            = errors.New("quiz already complete")
	ErrSessionNotFound         = errors.New("quiz session not found")
)

// Option is one labeled choice. Letter is assigned from the option's
// position when the catalog is built, never parsed from Text.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type Question struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Options  []Option `json:"options"`
	Multiple bool     `json:"multiple"`
}

// HasLetter reports whether letter names one of the question's options.
func (q Question) HasLetter(letter string) bool {
	for _, o := range q.Options {
		if o.Letter == letter {
			return true
		}
	}
	return false
}

// Destination is a candidate outcome. Matches maps a question id to the
// letters this destination accepts; an empty set still counts toward
// Possible but can never score.
type Destination struct {
	Name    string           `json:"name"`
	Image   string           `json:"image"`
	Region  string           `json:"region,omitempty"`
	Link    string           `json:"link,omitempty"`
	SpotID  int              `json:"spot_id,omitempty"`
	Matches map[int][]string `json:"-"`
}

// Possible is the denominator shown as "score / possible".
func (d Destination) Possible() int { return len(d.Matches) }

// Answers is the per-session selection state: question id -> selected letters.
type Answers map[int]map[string]struct{}

// NewAnswers builds Answers from plain slices. No validation is done here;
// see Catalog.CheckAnswers.
func NewAnswers(in map[int][]string) Answers {
	a := Answers{}
	for qid, letters := range in {
		for _, l := range letters {
			a.add(qid, normalizeLetter(l))
		}
	}
	return a
}

func (a Answers) add(qid int, letter string) {
	set, ok := a[qid]
	if !ok {
		set = map[string]struct{}{}
		a[qid] = set
	}
	set[letter] = struct{}{}
}

func (a Answers) has(qid int, letter string) bool {
	_, ok := a[qid][letter]
	return ok
}

// Selected returns the letters chosen for qid in sorted order.
func (a Answers) Selected(qid int) []string {
	set := a[qid]
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Plain returns a copy with sorted slices, omitting questions with no selection.
func (a Answers) Plain() map[int][]string {
	out := make(map[int][]string, len(a))
	for qid, set := range a {
		if len(set) == 0 {
			continue
		}
		out[qid] = a.Selected(qid)
	}
	return out
}

func normalizeLetter(l string) string {
	return strings.ToUpper(strings.TrimSpace(l))
}
