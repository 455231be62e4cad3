package segmenter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/hh-resume-fit/internal/vocabulary"
)

// Level is a coarse seniority band inferred from text.
type Level string

const (
	LevelJunior Level = "Junior"
	LevelMiddle Level = "Middle"
	LevelSenior Level = "Senior"
)

const (
	// Bullet is the canonical bullet glyph produced by Normalize.
	Bullet = "•"

	minPhraseRunes    = 3
	descriptionLines  = 2
	maxSummaryRunes   = 300
	seniorYears       = 3
	middleYears       = 2
	summaryTruncation = "…"
)

var (
	bulletGlyphs = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\t", "  ",
		"\u00a0", " ",
		"◦", Bullet, "·", Bullet, "▪", Bullet, "▫", Bullet, "●", Bullet, "○", Bullet,
		"■", Bullet, "□", Bullet, "‣", Bullet, "∙", Bullet, "►", Bullet, "▸", Bullet,
		"➢", Bullet, "➤", Bullet, "✓", Bullet, "✔", Bullet, "⁃", Bullet, "\uf0b7", Bullet,
	)

	listMarker     = regexp.MustCompile(`^(?:[•*]|[-–—](?:\s|$))\s*`)
	numberMarker   = regexp.MustCompile(`^\d+[.)]`)
	inlineDelims   = regexp.MustCompile(`[;•]`)
	sentenceBreak  = regexp.MustCompile(`\.\s+`)
	hasSentence    = regexp.MustCompile(`\.\s+\S`)
	spaces         = regexp.MustCompile(`\s+`)
	leadingDash    = regexp.MustCompile(`^[-–—•*]\s*`)
	yearsMentioned = regexp.MustCompile(`(?i)(?:^|\D)(\d{1,2})(?:\s*(?:[-–—]|до)\s*\d{1,2})?(?:-?х)?\s*\+?\s*(?:год|лет|years?|yrs?)`)
)

// Breakdown is the structured view of a single job description.
type Breakdown struct {
	Description      string   `json:"description"`
	Level            Level    `json:"level"`
	Requirements     []string `json:"requirements"`
	NiceToHave       []string `json:"nice_to_have"`
	Responsibilities []string `json:"responsibilities"`
	// Fallback is filled only when none of the named sections were found.
	Fallback []string `json:"fallback"`
}

// Universe returns the phrases a candidate is matched against: requirements
// when present, otherwise responsibilities, otherwise the fallback phrases.
func (b *Breakdown) Universe() []string {
	switch {
	case len(b.Requirements) > 0:
		return b.Requirements
	case len(b.Responsibilities) > 0:
		return b.Responsibilities
	default:
		return b.Fallback
	}
}

// HasSections reports whether any named section was recognised.
func (b *Breakdown) HasSections() bool {
	return len(b.Requirements)+len(b.NiceToHave)+len(b.Responsibilities) > 0
}

// Segmenter splits job texts into requirement phrases.
// It holds no mutable state and is safe for concurrent use.
type Segmenter struct {
	vocab *vocabulary.Compiled
}

func New(vocab *vocabulary.Compiled) *Segmenter {
	return &Segmenter{vocab: vocab}
}

// Default returns a Segmenter using the built-in vocabulary.
func Default() *Segmenter {
	return New(vocabulary.MustCompile(vocabulary.Default()))
}

// Normalize unifies line endings, bullet glyphs and tabs.
func Normalize(text string) string {
	return bulletGlyphs.Replace(text)
}

// SplitBulletLines turns a block of text into candidate phrases.
func (s *Segmenter) SplitBulletLines(block string) []string {
	phrases := make([]string, 0)

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var parts []string
		rest, marked := stripListMarker(line)
		switch {
		case marked:
			parts = []string{rest}
		case inlineDelims.MatchString(line):
			parts = inlineDelims.Split(line, -1)
		case hasSentence.MatchString(line):
			parts = sentenceBreak.Split(line, -1)
		default:
			parts = []string{line}
		}

		for _, part := range parts {
			if phrase, ok := s.cleanPhrase(part); ok {
				phrases = append(phrases, phrase)
			}
		}
	}

	return phrases
}

// stripListMarker removes a leading bullet or list number from line. A number
// followed by another digit is a value such as "3.5 года", not a marker.
func stripListMarker(line string) (string, bool) {
	if loc := listMarker.FindStringIndex(line); loc != nil {
		return line[loc[1]:], true
	}

	loc := numberMarker.FindStringIndex(line)
	if loc == nil {
		return line, false
	}
	rest := line[loc[1]:]
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsDigit(r) {
		return line, false
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace), true
}

func (s *Segmenter) cleanPhrase(raw string) (string, bool) {
	p := strings.TrimSpace(spaces.ReplaceAllString(raw, " "))
	p = strings.TrimSpace(leadingDash.ReplaceAllString(p, ""))
	p = strings.TrimSpace(strings.TrimRight(p, ".,;"))

	if utf8.RuneCountInString(p) < minPhraseRunes {
		return "", false
	}
	if s.vocab.IsCurrencyAmount(p) {
		return "", false
	}

	return p, true
}

// CaptureSection returns the phrases between the first line matching heading
// and the next line matching stop. Text on the heading line after its colon
// belongs to the section.
func (s *Segmenter) CaptureSection(text string, heading, stop *regexp.Regexp) []string {
	if heading == nil {
		return []string{}
	}

	lines := strings.Split(text, "\n")
	start := -1
	var body []string

	for i, line := range lines {
		m := heading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start = i
		if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			body = append(body, m[1])
		}
		break
	}

	if start == -1 {
		return []string{}
	}

	for _, line := range lines[start+1:] {
		if stop != nil && stop.MatchString(line) {
			break
		}
		body = append(body, line)
	}

	return s.SplitBulletLines(strings.Join(body, "\n"))
}

// Extract builds the breakdown of a raw job description. It never fails:
// unrecognised layouts degrade to the fallback phrases.
func (s *Segmenter) Extract(rawText string) *Breakdown {
	text := Normalize(rawText)
	stop := s.vocab.Boundary()

	b := &Breakdown{
		Requirements:     s.CaptureSection(text, s.vocab.Heading(vocabulary.SectionRequirements), stop),
		NiceToHave:       s.CaptureSection(text, s.vocab.Heading(vocabulary.SectionNiceToHave), stop),
		Responsibilities: s.CaptureSection(text, s.vocab.Heading(vocabulary.SectionResponsibilities), stop),
		Fallback:         []string{},
	}

	if !b.HasSections() {
		b.Fallback = s.SplitBulletLines(text)
	}

	b.Level = s.InferLevel(text)
	b.Description = s.describe(text)

	return b
}

// InferLevel maps seniority cues of a text to a level, checking Senior first.
func (s *Segmenter) InferLevel(text string) Level {
	years := maxYears(text)

	switch {
	case years >= seniorYears || s.vocab.SeniorCue(text):
		return LevelSenior
	case years >= middleYears || s.vocab.MiddleCue(text):
		return LevelMiddle
	default:
		return LevelJunior
	}
}

func maxYears(text string) int {
	best := 0
	for _, m := range yearsMentioned.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}

func (s *Segmenter) describe(text string) string {
	lines := strings.Split(text, "\n")
	stop := s.vocab.Boundary()

	head := lines
	for i, line := range lines {
		if stop.MatchString(line) {
			head = lines[:i]
			break
		}
	}

	return Summarize(strings.Join(head, "\n"), descriptionLines)
}

// Summarize joins the first n non-empty lines of text with a space and caps
// the result at 300 runes.
func Summarize(text string, n int) string {
	picked := make([]string, 0, n)
	for _, line := range strings.Split(Normalize(text), "\n") {
		if len(picked) == n {
			break
		}
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			picked = append(picked, line)
		}
	}

	summary := strings.Join(picked, " ")
	runes := []rune(summary)
	if len(runes) > maxSummaryRunes {
		return string(runes[:maxSummaryRunes-1]) + summaryTruncation
	}
	return summary
}
