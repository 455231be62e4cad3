package matcher

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-resume-fit/internal/vocabulary"
)

// Mode selects the matching granularity.
type Mode string

const (
	ModePhrase Mode = "phrase"
	ModeToken  Mode = "token"
)

// GradeFit is the qualitative reading of a match score.
type GradeFit string

const (
	GradeMatches          GradeFit = "matches"
	GradePartiallyMatches GradeFit = "partially matches"
	GradeDoesNotMatch     GradeFit = "does not match"
)

// Chance estimates how likely the candidate is to pass screening.
type Chance string

const (
	ChanceHigh   Chance = "high"
	ChanceMedium Chance = "medium"
	ChanceLow    Chance = "low"
)

// Status of a single requirement in the detailed breakdown.
type Status string

const (
	StatusFullMatch Status = "full match"
	StatusNoMatch   Status = "no match"
)

const (
	highThreshold   = 70
	mediumThreshold = 40

	// MaxRecommendations bounds Result.Recommendations.
	MaxRecommendations = 12
	// MaxBreakdownEntries bounds the detailed breakdown.
	MaxBreakdownEntries = 25
	missingInAdvice     = 12
)

var ErrInvalidArgument = errors.New("invalid argument")

// Result is the outcome of matching a candidate against a universe.
type Result struct {
	Score           int      `json:"overall_score"`
	Matched         []string `json:"matched"`
	Missing         []string `json:"missing"`
	GradeFit        GradeFit `json:"grade_fit"`
	Chance          Chance   `json:"chance_level"`
	Recommendations []string `json:"recommendations"`
}

// Entry is the per-requirement line of the detailed breakdown.
type Entry struct {
	Requirement string  `json:"requirement"`
	Evidence    *string `json:"evidence"`
	Status      Status  `json:"status"`
	Score       int     `json:"score"`
	Comment     *string `json:"comment"`
}

// Matcher compares candidate texts with requirement phrases or tokens.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	vocab *vocabulary.Compiled
}

func New(vocab *vocabulary.Compiled) *Matcher {
	return &Matcher{vocab: vocab}
}

// Default returns a Matcher using the built-in vocabulary.
func Default() *Matcher {
	return New(vocabulary.MustCompile(vocabulary.Default()))
}

// Match dispatches to phrase or token matching. In phrase mode the universe is
// a list of requirement phrases. In token mode every item is tokenized and the
// score is computed against the resulting unique token set.
func (m *Matcher) Match(candidate string, universe []string, mode Mode) (*Result, error) {
	switch mode {
	case ModePhrase:
		return m.MatchPhrases(candidate, universe), nil
	case ModeToken:
		reference := NewTokenSet()
		for _, item := range universe {
			for _, token := range m.tokens(item) {
				reference.Add(token)
			}
		}
		return m.matchTokenSet(m.Tokenize(candidate), reference), nil
	default:
		return nil, fmt.Errorf("%w: unknown match mode %q", ErrInvalidArgument, mode)
	}
}

// MatchTokens tokenizes both texts and matches reference tokens against the
// candidate token set.
func (m *Matcher) MatchTokens(candidate, reference string) *Result {
	return m.matchTokenSet(m.Tokenize(candidate), m.Tokenize(reference))
}

func (m *Matcher) matchTokenSet(candidate, reference *TokenSet) *Result {
	matched := make([]string, 0)
	missing := make([]string, 0)

	for _, token := range reference.Items() {
		if candidate.Has(token) {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}

	return m.result(matched, missing, reference.Len())
}

// MatchPhrases checks every phrase against the candidate text.
func (m *Matcher) MatchPhrases(candidate string, phrases []string) *Result {
	lower := strings.ToLower(candidate)
	matched := make([]string, 0)
	missing := make([]string, 0)

	for _, phrase := range phrases {
		if _, ok := m.findPhrase(candidate, lower, phrase); ok {
			matched = append(matched, phrase)
		} else {
			missing = append(missing, phrase)
		}
	}

	return m.result(matched, missing, len(phrases))
}

// Breakdown reports every requirement (at most 25) with evidence or a comment.
func (m *Matcher) Breakdown(candidate string, requirements []string) []Entry {
	lower := strings.ToLower(candidate)
	msgs := m.vocab.Messages()

	n := min(len(requirements), MaxBreakdownEntries)
	entries := make([]Entry, 0, n)

	for _, req := range requirements[:n] {
		quote, ok := m.findPhrase(candidate, lower, req)
		if !ok {
			comment := msgs.MissingComment
			entries = append(entries, Entry{
				Requirement: req,
				Status:      StatusNoMatch,
				Score:       0,
				Comment:     &comment,
			})
			continue
		}

		evidence := fmt.Sprintf(msgs.Evidence, quote)
		entries = append(entries, Entry{
			Requirement: req,
			Evidence:    &evidence,
			Status:      StatusFullMatch,
			Score:       100,
		})
	}

	return entries
}

// findPhrase decides whether phrase is covered by the candidate text and
// returns the text that proves it. A phrase without significant tokens never
// matches.
func (m *Matcher) findPhrase(candidate, lower, phrase string) (string, bool) {
	tokens := m.tokens(phrase)
	if len(tokens) == 0 {
		return "", false
	}

	trimmed := strings.TrimSpace(phrase)
	if strings.Contains(lower, strings.ToLower(trimmed)) {
		if quote, ok := indexFold(candidate, trimmed); ok {
			return quote, true
		}
		return trimmed, true
	}

	for _, t := range tokens {
		if !strings.Contains(lower, t) {
			return "", false
		}
	}

	return strings.Join(tokens, "», «"), true
}

// indexFold returns the first part of s that equals substr under Unicode case
// folding. It walks runes, so the quote is taken from s itself even when
// lower-casing changes byte lengths.
func indexFold(s, substr string) (string, bool) {
	n := utf8.RuneCountInString(substr)
	if n == 0 {
		return "", false
	}

	for start := range s {
		end := start
		for i := 0; i < n; i++ {
			if end >= len(s) {
				return "", false
			}
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if strings.EqualFold(s[start:end], substr) {
			return s[start:end], true
		}
	}

	return "", false
}

func (m *Matcher) result(matched, missing []string, universe int) *Result {
	score := Score(len(matched), universe)
	return &Result{
		Score:           score,
		Matched:         matched,
		Missing:         missing,
		GradeFit:        GradeFitFor(score),
		Chance:          ChanceFor(score),
		Recommendations: m.Recommend(score, missing),
	}
}

// Recommend returns the advice for a score and the items that were not found.
func (m *Matcher) Recommend(score int, missing []string) []string {
	msgs := m.vocab.Messages()
	out := make([]string, 0, 2)

	if score < highThreshold {
		out = append(out, msgs.ReinforceSkills)
	}
	if len(missing) > 0 {
		head := missing[:min(len(missing), missingInAdvice)]
		out = append(out, fmt.Sprintf(msgs.AddExperience, strings.Join(head, ", ")))
	}

	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	return out
}

// Score is round(100 * matched / max(universe, 1)).
func Score(matched, universe int) int {
	return int(math.Round(100 * float64(matched) / float64(max(universe, 1))))
}

func GradeFitFor(score int) GradeFit {
	switch {
	case score >= highThreshold:
		return GradeMatches
	case score >= mediumThreshold:
		return GradePartiallyMatches
	default:
		return GradeDoesNotMatch
	}
}

func ChanceFor(score int) Chance {
	switch {
	case score >= highThreshold:
		return ChanceHigh
	case score >= mediumThreshold:
		return ChanceMedium
	default:
		return ChanceLow
	}
}
