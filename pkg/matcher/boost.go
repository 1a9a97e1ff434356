package matcher

import (
	"strings"
	"unicode"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/normalize"
)

// Booster adjusts the fuzzy score of an intent after its best variant was found.
type Booster interface {
	Boost(phrase string, in domain.Intent, score float64) float64
}

// DefaultColors maps each color to the words that name it.
var DefaultColors = map[string][]string{
	"rouge":  {"rouge", "red"},
	"vert":   {"vert", "verte", "green"},
	"bleu":   {"bleu", "bleue", "blue"},
	"jaune":  {"jaune", "yellow"},
	"blanc":  {"blanc", "blanche", "white"},
	"noir":   {"noir", "noire", "black"},
	"orange": {"orange"},
	"violet": {"violet", "violette", "purple"},
}

// ColorBoost raises the score of intents that mention the same color as the phrase.
type ColorBoost struct {
	Colors map[string][]string
	Bonus  float64
}

// NewColorBoost returns a ColorBoost over DefaultColors.
func NewColorBoost(bonus float64) ColorBoost {
	return ColorBoost{Colors: DefaultColors, Bonus: bonus}
}

func (c ColorBoost) Boost(phrase string, in domain.Intent, score float64) float64 {
	said := wordSet(phrase)
	if len(said) == 0 {
		return score
	}
	var text []string
	text = append(text, in.Variants()...)
	text = append(text, in.Name)
	known := wordSet(strings.Join(text, " "))

	for _, words := range c.Colors {
		if containsAny(said, words) && containsAny(known, words) {
			return min(1, score+c.Bonus)
		}
	}
	return score
}

func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(normalize.Text(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func containsAny(set map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

type noBoost struct{}

func (noBoost) Boost(_ string, _ domain.Intent, score float64) float64 { return score }
