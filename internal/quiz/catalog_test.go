package quiz

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	if len(c.Questions) != 8 {
		t.Fatalf("questions = %d, want 8", len(c.Questions))
	}
	if len(c.Destinations) != 9 {
		t.Fatalf("destinations = %d, want 9", len(c.Destinations))
	}
	q2, _ := c.Question(2)
	if !q2.Multiple {
		t.Fatal("question 2 should allow multiple selections")
	}
	for _, q := range c.Questions {
		for i, o := range q.Options {
			if o.Letter != string(rune('A'+i)) {
				t.Fatalf("question %d option %d letter = %q", q.ID, i, o.Letter)
			}
		}
	}
	ids := map[int]bool{}
	for _, d := range c.Destinations {
		if d.SpotID == 0 || ids[d.SpotID] {
			t.Fatalf("destination %s has bad spot id %d", d.Name, d.SpotID)
		}
		ids[d.SpotID] = true
	}
}

func TestParseCatalogErrors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"unknown field": {doc: "questions: []\nextra: 1\n"},
		"no questions":  {doc: "questions: []\n"},
		"bad id order": {doc: `
questions:
  - id: 2
    text: x
    options: [a]
`},
		"unknown match question": {doc: `
questions:
  - id: 1
    text: x
    options: [a, b]
destinations:
  - name: D
    matches: {3: [A]}
`, want: ErrUnknownQuestionID},
		"unknown match letter": {doc: `
questions:
  - id: 1
    text: x
    options: [a, b]
destinations:
  - name: D
    matches: {1: [C]}
`, want: ErrUnknownOptionLetter},
		"duplicate destination": {doc: `
questions:
  - id: 1
    text: x
    options: [a]
destinations:
  - name: D
  - name: D
`},
		"two documents": {doc: "questions:\n  - id: 1\n    text: x\n    options: [a]\n---\nquestions: []\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseCatalogAllowsNoDestinations(t *testing.T) {
	c, err := ParseCatalog([]byte("questions:\n  - id: 1\n    text: x\n    options: [a]\n"))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(c.Destinations) != 0 {
		t.Fatalf("destinations = %d", len(c.Destinations))
	}
}

func TestCheckAnswers(t *testing.T) {
	c := twoQuestionCatalog(t)
	if err := c.CheckAnswers(NewAnswers(map[int][]string{1: {"A", "B"}})); !errors.Is(err, ErrValidationFailed) || !strings.Contains(err.Error(), "single") {
		t.Fatalf("err = %v, want single selection error", err)
	}
	if err := c.CheckAnswers(NewAnswers(map[int][]string{2: {"a", "c"}})); err != nil {
		t.Fatalf("multi: %v", err)
	}
}

func TestNewCatalogNormalisesLetters(t *testing.T) {
	c, err := NewCatalog(
		[]Question{{ID: 1, Text: "Pick", Options: []Option{{Letter: "a", Text: "Beach"}, {Letter: " b ", Text: "Hills"}}}},
		[]Destination{{Name: "Coast", Matches: map[int][]string{1: {"a"}}}},
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if got := c.Questions[0].Options[1].Letter; got != "B" {
		t.Fatalf("letter = %q, want B", got)
	}
	if got := c.Destinations[0].Matches[1]; len(got) != 1 || got[0] != "A" {
		t.Fatalf("matches = %v, want [A]", got)
	}

	s := NewSession(c)
	if _, err := s.Toggle(1, "a"); err != nil {
		t.Fatalf("toggle lowercase: %v", err)
	}
	step, err := s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !step.Done || step.Result.Destination.Name != "Coast" || step.Result.Score != 1 {
		t.Fatalf("step = %+v", step)
	}
}

func TestNewCatalogRejectsDuplicateLetters(t *testing.T) {
	_, err := NewCatalog(
		[]Question{{ID: 1, Text: "Pick", Options: []Option{{Letter: "A"}, {Letter: "a"}}}},
		nil,
	)
	if err == nil || !strings.Contains(err.Error(), "duplicate letter") {
		t.Fatalf("err = %v, want duplicate letter error", err)
	}
}
