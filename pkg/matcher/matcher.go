package matcher

import (
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/normalize"
)

// Matcher resolves phrases to intents.
type Matcher struct {
	threshold      float64
	scorer         Scorer
	booster        Booster
	boostCrossings bool
	stopwords      normalize.Stopwords
	logger         *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the minimum fuzzy score accepted as a match.
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		m.threshold = t
	}
}

// WithScorer replaces the fuzzy scorer.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// WithBooster replaces the score booster. A nil booster disables boosting.
func WithBooster(b Booster) Option {
	return func(m *Matcher) {
		if b == nil {
			b = noBoost{}
		}
		m.booster = b
	}
}

// WithBoostCrossingThreshold controls whether a boost may lift a score that
// was below the threshold into an accepted match. When disabled, boosts only
// reorder candidates that were already accepted.
func WithBoostCrossingThreshold(allow bool) Option {
	return func(m *Matcher) {
		m.boostCrossings = allow
	}
}

// WithStopwords replaces the stopword set of the fuzzy stage.
func WithStopwords(s normalize.Stopwords) Option {
	return func(m *Matcher) {
		m.stopwords = s
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Matcher with the default threshold, SequenceRatio scorer and color boost.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		threshold:      domain.DefaultThreshold,
		scorer:         SequenceRatio{},
		booster:        NewColorBoost(domain.DefaultColorBoost),
		boostCrossings: true,
		stopwords:      normalize.DefaultStopwords,
		logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match finds the intent for phrase. The returned intent is a copy.
func (m *Matcher) Match(phrase string, intents []domain.Intent) domain.MatchResult {
	text := normalize.Text(phrase)
	if text == "" || len(intents) == 0 {
		return domain.MatchResult{Stage: domain.MatchNone}
	}

	if idx := m.exact(text, intents); idx >= 0 {
		found := intents[idx].Clone()
		m.logger.Debug("exact match", "phrase", phrase, "intent", found.Name)
		return domain.MatchResult{Intent: &found, Score: 1, Stage: domain.MatchExact}
	}

	idx, score := m.fuzzy(phrase, intents)
	if idx >= 0 && score >= m.threshold {
		found := intents[idx].Clone()
		m.logger.Debug("fuzzy match", "phrase", phrase, "intent", found.Name, "score", score)
		return domain.MatchResult{Intent: &found, Score: score, Stage: domain.MatchFuzzy}
	}

	m.logger.Debug("no match", "phrase", phrase, "best_score", score)
	return domain.MatchResult{Score: score, Stage: domain.MatchNone}
}

// exact returns the index of the first intent with a variant equal to text.
func (m *Matcher) exact(text string, intents []domain.Intent) int {
	for i, in := range intents {
		for _, v := range in.Variants() {
			if normalize.Text(v) == text {
				return i
			}
		}
	}
	return -1
}

// fuzzy returns the best scoring intent; ties keep the earlier one.
func (m *Matcher) fuzzy(phrase string, intents []domain.Intent) (int, float64) {
	loose := normalize.Loose(phrase, m.stopwords)
	strict := loose == ""
	if strict {
		loose = normalize.Text(phrase)
	}

	bestIdx, bestScore := -1, 0.0
	for i, in := range intents {
		variants := in.Variants()
		if len(variants) == 0 && in.Name != "" {
			variants = []string{strings.ReplaceAll(in.Name, "_", " ")}
		}

		score := 0.0
		for _, v := range variants {
			cand := normalize.Text(v)
			if !strict {
				cand = normalize.Loose(v, m.stopwords)
			}
			score = max(score, m.score(loose, cand))
		}

		score = m.boost(phrase, in, score)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}

// boost applies the booster, keeping score unchanged when it panics.
func (m *Matcher) boost(phrase string, in domain.Intent, score float64) (out float64) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("booster panicked, score left unboosted", "intent", in.Name, "panic", r)
			out = score
		}
	}()
	boosted := m.booster.Boost(phrase, in, score)
	if !m.boostCrossings && score < m.threshold {
		return score
	}
	return clamp(boosted)
}

// score runs the configured scorer, falling back to SequenceRatio when it
// errors or panics.
func (m *Matcher) score(phrase, candidate string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("scorer panicked, using sequence ratio", "panic", r)
			score = Ratio(phrase, candidate)
		}
	}()
	s, err := m.scorer.Score(phrase, candidate)
	if err != nil {
		m.logger.Debug("scorer failed, using sequence ratio", "err", err)
		return Ratio(phrase, candidate)
	}
	return clamp(s)
}

func clamp(s float64) float64 {
	return min(1, max(0, s))
}
