package matcher_test

import (
	"errors"
	"testing"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(score float64) matcher.Scorer {
	return matcher.ScorerFunc(func(_, _ string) (float64, error) { return score, nil })
}

func catalog() []domain.Intent {
	return []domain.Intent{
		{Name: "add_cube", Phrases: []string{"ajoute un cube"}, Operator: "mesh.primitive_cube_add"},
		{Name: "add_sphere", Phrases: []string{"ajoute une sphère"}, Operator: "mesh.primitive_uv_sphere_add"},
		{Name: "color_red", Phrases: []string{"change en rouge"}, Operator: "context.object.active_material.diffuse_color"},
	}
}

func TestMatch_ExactPrecedence(t *testing.T) {
	intents := []domain.Intent{
		{Name: "first", Phrases: []string{"ajoute un cube"}},
		{Name: "second", Phrases: []string{"Ajoute un   CUBE"}},
	}
	res := matcher.New().Match("ajoute un cube", intents)
	require.True(t, res.Matched())
	assert.Equal(t, "first", res.Intent.Name)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, domain.MatchExact, res.Stage)
}

func TestMatch_ExactBeatsEarlierFuzzy(t *testing.T) {
	intents := []domain.Intent{
		{Name: "red_cube", Phrases: []string{"ajoute un cube rouge"}},
		{Name: "cube", Phrases: []string{"ajoute un cube"}},
	}
	res := matcher.New().Match("Ajoute un cube", intents)
	require.True(t, res.Matched())
	assert.Equal(t, "cube", res.Intent.Name)
	assert.Equal(t, domain.MatchExact, res.Stage)
}

func TestMatch_FuzzyColor(t *testing.T) {
	res := matcher.New().Match("mets en rouge", catalog())
	require.True(t, res.Matched())
	assert.Equal(t, "color_red", res.Intent.Name)
	assert.Equal(t, domain.MatchFuzzy, res.Stage)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
}

func TestMatch_Unmatched(t *testing.T) {
	res := matcher.New().Match("xyzzy plugh", catalog())
	assert.False(t, res.Matched())
	assert.Nil(t, res.Intent)
	assert.Equal(t, domain.MatchNone, res.Stage)
	assert.Less(t, res.Score, domain.DefaultThreshold)
}

func TestMatch_ThresholdLaw(t *testing.T) {
	intents := []domain.Intent{{Name: "only", Phrases: []string{"quelque chose"}}}

	at := matcher.New(matcher.WithScorer(fixed(0.50)), matcher.WithBooster(nil)).Match("autre chose", intents)
	require.True(t, at.Matched())
	assert.Equal(t, 0.50, at.Score)

	below := matcher.New(matcher.WithScorer(fixed(0.49)), matcher.WithBooster(nil)).Match("autre chose", intents)
	assert.False(t, below.Matched())
	assert.Equal(t, 0.49, below.Score)

	custom := matcher.New(matcher.WithThreshold(0.8), matcher.WithScorer(fixed(0.7)), matcher.WithBooster(nil))
	assert.False(t, custom.Match("autre chose", intents).Matched())
	assert.Equal(t, 0.8, custom.Threshold())
}

func TestMatch_ScorerFailureFallsBack(t *testing.T) {
	failing := matcher.ScorerFunc(func(_, _ string) (float64, error) { return 0, errors.New("model offline") })
	res := matcher.New(matcher.WithScorer(failing)).Match("ajoute un cub", catalog())
	require.True(t, res.Matched())
	assert.Equal(t, "add_cube", res.Intent.Name)
	assert.InDelta(t, 20.0/21.0, res.Score, 1e-9)

	panicking := matcher.ScorerFunc(func(_, _ string) (float64, error) { panic("boom") })
	res = matcher.New(matcher.WithScorer(panicking)).Match("ajoute un cub", catalog())
	require.True(t, res.Matched())
	assert.Equal(t, "add_cube", res.Intent.Name)
}

func TestMatch_BoostPolicy(t *testing.T) {
	intents := []domain.Intent{{Name: "paint_red", Phrases: []string{"peins en rouge"}}}

	crossing := matcher.New(matcher.WithScorer(fixed(0.4)))
	res := crossing.Match("mets du rouge", intents)
	require.True(t, res.Matched())
	assert.InDelta(t, 0.55, res.Score, 1e-9)

	guarded := matcher.New(matcher.WithScorer(fixed(0.4)), matcher.WithBoostCrossingThreshold(false))
	res = guarded.Match("mets du rouge", intents)
	assert.False(t, res.Matched())
	assert.InDelta(t, 0.4, res.Score, 1e-9)

	capped := matcher.New(matcher.WithScorer(fixed(0.95)))
	res = capped.Match("mets du red", intents)
	require.True(t, res.Matched())
	assert.Equal(t, 1.0, res.Score)
}

type boosterFunc func(phrase string, in domain.Intent, score float64) float64

func (f boosterFunc) Boost(phrase string, in domain.Intent, score float64) float64 {
	return f(phrase, in, score)
}

func TestMatch_PanickingBoosterKeepsScore(t *testing.T) {
	panicking := boosterFunc(func(string, domain.Intent, float64) float64 { panic("boom") })
	m := matcher.New(matcher.WithBooster(panicking))

	var res domain.MatchResult
	require.NotPanics(t, func() { res = m.Match("ajoute un cub", catalog()) })
	require.True(t, res.Matched())
	assert.Equal(t, "add_cube", res.Intent.Name)
	assert.InDelta(t, 20.0/21.0, res.Score, 1e-9)

	require.NotPanics(t, func() { res = m.Match("xyzzy plugh", catalog()) })
	assert.False(t, res.Matched())
}

func TestMatch_SingleWordAroundThreshold(t *testing.T) {
	m := matcher.New()

	hit := m.Match("cube", catalog())
	require.True(t, hit.Matched())
	assert.Equal(t, "add_cube", hit.Intent.Name)
	assert.InDelta(t, 8.0/15.0, hit.Score, 1e-9)

	miss := m.Match("cub", catalog())
	assert.False(t, miss.Matched())
	assert.InDelta(t, 6.0/14.0, miss.Score, 1e-9)
	require.NotEmpty(t, m.Suggest("cub", catalog(), 2))
	assert.Equal(t, "add_cube", m.Suggest("cub", catalog(), 2)[0].Intent)
}

func TestMatch_NameFallback(t *testing.T) {
	intents := []domain.Intent{{Name: "shade_smooth", Operator: "object.shade_smooth"}}
	res := matcher.New().Match("shade smooth", intents)
	require.True(t, res.Matched())
	assert.Equal(t, domain.MatchFuzzy, res.Stage)
	assert.Equal(t, "shade_smooth", res.Intent.Name)
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := matcher.New()
	assert.False(t, m.Match("   ", catalog()).Matched())
	assert.False(t, m.Match("ajoute un cube", nil).Matched())
	assert.Equal(t, 0.0, m.Match("", catalog()).Score)
}

func TestMatch_ReturnsCopy(t *testing.T) {
	intents := catalog()
	res := matcher.New().Match("ajoute un cube", intents)
	require.True(t, res.Matched())
	res.Intent.Phrases[0] = "mutated"
	assert.Equal(t, "ajoute un cube", intents[0].Phrases[0])
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.75, matcher.Ratio("abcd", "bcde"))
	assert.Equal(t, 1.0, matcher.Ratio("", ""))
	assert.Equal(t, 0.0, matcher.Ratio("abc", ""))
	assert.Equal(t, 1.0, matcher.Ratio("ajoute cube", "ajoute cube"))
	assert.InDelta(t, 2.0*2/22, matcher.Ratio("xyzzy plugh", "ajoute cube"), 1e-9)
}

func TestSuggest(t *testing.T) {
	m := matcher.New()
	got := m.Suggest("ajout cub", catalog(), 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "add_cube", got[0].Intent)
	assert.Equal(t, "ajoute un cube", got[0].Variant)

	assert.Empty(t, m.Suggest("", catalog(), 3))
	assert.Empty(t, m.Suggest("ajout", catalog(), 0))
	assert.LessOrEqual(t, len(m.Suggest("ajout", catalog(), 1)), 1)
}
