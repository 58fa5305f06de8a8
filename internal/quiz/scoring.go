package quiz

import "sort"

// Scored is one destination's outcome for a given answer state.
type Scored struct {
	Destination Destination `json:"destination"`
	Score       int         `json:"score"`
	Possible    int         `json:"possible"`
}

// Result is the best match plus the full catalog-order ranking.
type Result struct {
	Destination Destination `json:"destination"`
	Score       int         `json:"score"`
	Possible    int         `json:"possible"`
	Ranking     []Scored    `json:"ranking"`
}

// Score counts the questions in d's compatibility table where the user's
// selection shares at least one letter with the accepted set. A question
// contributes at most one point regardless of how many letters overlap.
func Score(d Destination, answers Answers) int {
	score := 0
	for qid, accepted := range d.Matches {
		for _, l := range accepted {
			if answers.has(qid, l) {
				score++
				break
			}
		}
	}
	return score
}

// ScoreAll scores every destination, preserving catalog order.
func ScoreAll(c *Catalog, answers Answers) []Scored {
	out := make([]Scored, 0, len(c.Destinations))
	for _, d := range c.Destinations {
		out = append(out, Scored{Destination: d, Score: Score(d, answers), Possible: d.Possible()})
	}
	return out
}

// BestMatch returns the highest-scoring destination. Ties go to the
// earliest destination in catalog order.
func BestMatch(c *Catalog, answers Answers) (Result, error) {
	if c == nil || len(c.Destinations) == 0 {
		return Result{}, ErrNoDestinationsAvailable
	}
	scored := ScoreAll(c, answers)
	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[best].Score {
			best = i
		}
	}

	ranking := append([]Scored(nil), scored...)
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Score > ranking[j].Score })

	return Result{
		Destination: scored[best].Destination,
		Score:       scored[best].Score,
		Possible:    scored[best].Possible,
		Ranking:     ranking,
	}, nil
}
