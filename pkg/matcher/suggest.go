package matcher

import (
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/normalize"
	"github.com/sahilm/fuzzy"
)

// Suggestion is a near miss for a phrase that did not match.
type Suggestion struct {
	Intent  string `json:"intent"`
	Variant string `json:"variant"`
	Score   int    `json:"score"`
}

// Suggest ranks configured phrase variants against phrase with subsequence
// matching and returns at most limit suggestions, one per intent.
func (m *Matcher) Suggest(phrase string, intents []domain.Intent, limit int) []Suggestion {
	pattern := normalize.Text(phrase)
	if pattern == "" || limit <= 0 {
		return nil
	}

	var (
		data   []string
		owners []int
	)
	for i, in := range intents {
		for _, v := range in.Variants() {
			data = append(data, normalize.Text(v))
			owners = append(owners, i)
		}
	}

	seen := make(map[int]struct{})
	var out []Suggestion
	for _, match := range fuzzy.Find(pattern, data) {
		owner := owners[match.Index]
		if _, dup := seen[owner]; dup {
			continue
		}
		seen[owner] = struct{}{}
		out = append(out, Suggestion{
			Intent:  intents[owner].Name,
			Variant: match.Str,
			Score:   match.Score,
		})
		if len(out) == limit {
			break
		}
	}
	return out
}
