package quiz

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

const maxOptions = 26

// Catalog is the fixed question sequence plus the destination list.
// It is built once and never mutated; sessions share it read-only.
type Catalog struct {
	Questions    []Question
	Destinations []Destination

	byID map[int]int
}

type catalogFile struct {
	Questions    []questionFile    `yaml:"questions"`
	Destinations []destinationFile `yaml:"destinations"`
}

type questionFile struct {
	ID       int      `yaml:"id"`
	Text     string   `yaml:"text"`
	Multiple bool     `yaml:"multiple"`
	Options  []string `yaml:"options"`
}

type destinationFile struct {
	Name    string           `yaml:"name"`
	Image   string           `yaml:"image"`
	Region  string           `yaml:"region"`
	Link    string           `yaml:"link"`
	SpotID  int              `yaml:"spot_id"`
	Matches map[int][]string `yaml:"matches"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog file; an empty path selects the built-in one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a single YAML document, rejecting unknown fields.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse catalog: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	questions := make([]Question, 0, len(f.Questions))
	for _, qf := range f.Questions {
		q := Question{ID: qf.ID, Text: qf.Text, Multiple: qf.Multiple}
		for i, text := range qf.Options {
			q.Options = append(q.Options, Option{Letter: letterAt(i), Text: text})
		}
		questions = append(questions, q)
	}
	dests := make([]Destination, 0, len(f.Destinations))
	for _, df := range f.Destinations {
		matches := make(map[int][]string, len(df.Matches))
		for qid, letters := range df.Matches {
			norm := make([]string, 0, len(letters))
			for _, l := range letters {
				norm = append(norm, normalizeLetter(l))
			}
			matches[qid] = norm
		}
		dests = append(dests, Destination{
			Name:    df.Name,
			Image:   df.Image,
			Region:  df.Region,
			Link:    df.Link,
			SpotID:  df.SpotID,
			Matches: matches,
		})
	}
	return NewCatalog(questions, dests)
}

// NewCatalog validates and indexes questions and destinations. Option
// letters that are empty are assigned from position. An empty destination
// list is accepted; scoring then reports ErrNoDestinationsAvailable.
func NewCatalog(questions []Question, destinations []Destination) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog: no questions")
	}
	c := &Catalog{
		Questions:    make([]Question, len(questions)),
		Destinations: make([]Destination, len(destinations)),
		byID:         make(map[int]int, len(questions)),
	}
	for i, q := range questions {
		if q.ID != i+1 {
			return nil, fmt.Errorf("catalog: question %d has id %d, want %d", i+1, q.ID, i+1)
		}
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("catalog: question %d has no options", q.ID)
		}
		if len(q.Options) > maxOptions {
			return nil, fmt.Errorf("catalog: question %d has %d options (max %d)", q.ID, len(q.Options), maxOptions)
		}
		opts := make([]Option, len(q.Options))
		letters := make(map[string]bool, len(q.Options))
		for j, o := range q.Options {
			o.Letter = normalizeLetter(o.Letter)
			if o.Letter == "" {
				o.Letter = letterAt(j)
			}
			if letters[o.Letter] {
				return nil, fmt.Errorf("catalog: question %d has duplicate letter %q", q.ID, o.Letter)
			}
			letters[o.Letter] = true
			opts[j] = o
		}
		q.Options = opts
		c.Questions[i] = q
		c.byID[q.ID] = i
	}

	seen := map[string]bool{}
	for i, d := range destinations {
		if d.Name == "" {
			return nil, fmt.Errorf("catalog: destination %d has no name", i+1)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("catalog: duplicate destination %q", d.Name)
		}
		seen[d.Name] = true
		matches := make(map[int][]string, len(d.Matches))
		for qid, letters := range d.Matches {
			q, ok := c.Question(qid)
			if !ok {
				return nil, fmt.Errorf("catalog: destination %q: %w %d", d.Name, ErrUnknownQuestionID, qid)
			}
			accepted := make([]string, 0, len(letters))
			for _, l := range letters {
				l = normalizeLetter(l)
				if !q.HasLetter(l) {
					return nil, fmt.Errorf("catalog: destination %q question %d: %w %q", d.Name, qid, ErrUnknownOptionLetter, l)
				}
				accepted = append(accepted, l)
			}
			matches[qid] = accepted
		}
		d.Matches = matches
		c.Destinations[i] = d
	}
	return c, nil
}

// Question looks up a question by id.
func (c *Catalog) Question(id int) (Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.Questions[i], true
}

// CheckAnswers rejects answers naming questions or letters the catalog
// does not define.
func (c *Catalog) CheckAnswers(a Answers) error {
	for qid, set := range a {
		q, ok := c.Question(qid)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownQuestionID, qid)
		}
		for l := range set {
			if !q.HasLetter(l) {
				return fmt.Errorf("%w: %q for question %d", ErrUnknownOptionLetter, l, qid)
			}
		}
		if !q.Multiple && len(set) > 1 {
			return fmt.Errorf("%w: question %d allows a single selection", ErrValidationFailed, qid)
		}
	}
	return nil
}

func letterAt(i int) string { return string(rune('A' + i)) }
