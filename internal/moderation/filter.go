// Package moderation censors profanity in user feedback.
package moderation

import (
	"bufio"
	_ "embed"
	"strings"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

//go:embed words.txt
var defaultWords string

// Mask replaces every profane word.
const Mask = "****"

var leet = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'@': 'a',
	'$': 's',
}

// Filter matches a fixed word list. It is immutable after construction and
// safe for concurrent use.
type Filter struct {
	ac    *ahocorasick.AhoCorasick // nil when the word list is empty
	words int
}

type hit struct {
	start, end int // rune offsets, end exclusive
}

// DefaultWords returns the built-in word list.
func DefaultWords() []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(defaultWords))
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out
}

// New builds a filter from the built-in list plus extra words.
func New(extra ...string) *Filter {
	return NewWithWords(append(DefaultWords(), extra...))
}

// NewWithWords builds a filter from exactly the given words.
func NewWithWords(words []string) *Filter {
	seen := map[string]bool{}
	var norm []string
	for _, w := range words {
		n := string(normalize([]rune(strings.TrimSpace(w))))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		norm = append(norm, n)
	}
	f := &Filter{words: len(norm)}
	if len(norm) > 0 {
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			MatchKind: ahocorasick.LeftMostLongestMatch,
			DFA:       true,
		})
		ac := builder.Build(norm)
		f.ac = &ac
	}
	return f
}

func (f *Filter) Words() int { return f.words }

// Contains reports whether text has at least one profane word.
func (f *Filter) Contains(text string) bool {
	return len(f.find([]rune(text))) > 0
}

// Censor replaces each profane word with Mask. Clean text comes back
// unchanged with false.
func (f *Filter) Censor(text string) (string, bool) {
	orig := []rune(text)
	hits := f.find(orig)
	if len(hits) == 0 {
		return text, false
	}
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, h := range hits {
		b.WriteString(string(orig[pos:h.start]))
		b.WriteString(Mask)
		pos = h.end
	}
	b.WriteString(string(orig[pos:]))
	return b.String(), true
}

// find returns non-overlapping whole-word hits, leftmost first and longest
// at each start. A match that is not a whole word is skipped and the scan
// resumes one rune after its start, so a shorter word inside it can still hit.
func (f *Filter) find(orig []rune) []hit {
	if f.ac == nil || len(orig) == 0 {
		return nil
	}
	text := string(normalize(orig))
	// runeAt maps a byte offset in text to a rune offset in orig.
	runeAt := make([]int, len(text)+1)
	n := 0
	for i := range text {
		runeAt[i] = n
		n++
	}
	runeAt[len(text)] = n

	var out []hit
	off := 0
	for off < len(text) {
		resume := -1
		for _, m := range f.ac.FindAll(text[off:]) {
			start, end := off+m.Start(), off+m.End()
			if wordBoundaryBefore(text, start) && wordBoundaryAfter(text, end) {
				out = append(out, hit{start: runeAt[start], end: runeAt[end]})
				continue
			}
			_, size := utf8.DecodeRuneInString(text[start:])
			resume = start + size
			break
		}
		if resume < 0 {
			break
		}
		off = resume
	}
	return out
}

func normalize(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		if l, ok := leet[r]; ok {
			r = l
		}
		out[i] = unicode.ToLower(r)
	}
	return out
}

func wordBoundaryBefore(text string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
