package vocabulary

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Section names used as keys of Vocabulary.Sections.
const (
	SectionRequirements     = "requirements"
	SectionNiceToHave       = "nice_to_have"
	SectionResponsibilities = "responsibilities"
)

var ErrInvalidVocabulary = errors.New("invalid vocabulary")

// Vocabulary is the language table the segmenter and matcher work with.
// Every list is a set of lower-case synonyms; order does not matter.
type Vocabulary struct {
	Sections   map[string][]string `mapstructure:"sections" json:"sections"`
	Closing    []string            `mapstructure:"closing" json:"closing"`
	StopWords  []string            `mapstructure:"stop-words" json:"stop_words"`
	SeniorCues []string            `mapstructure:"senior-cues" json:"senior_cues"`
	MiddleCues []string            `mapstructure:"middle-cues" json:"middle_cues"`
	Currency   []string            `mapstructure:"currency" json:"currency"`
	Messages   Messages            `mapstructure:"messages" json:"messages"`
}

// Messages are the user-facing texts produced by the matcher.
// Templates take a single %s argument where noted.
type Messages struct {
	ReinforceSkills string `mapstructure:"reinforce-skills" json:"reinforce_skills"`
	// AddExperience receives the joined list of missing items.
	AddExperience string `mapstructure:"add-experience" json:"add_experience"`
	// Evidence receives the quoted text found in the resume.
	Evidence string `mapstructure:"evidence" json:"evidence"`
	// MissingComment is attached to every unmatched requirement.
	MissingComment string `mapstructure:"missing-comment" json:"missing_comment"`
	// Strength and Weakness receive a single item.
	Strength string `mapstructure:"strength" json:"strength"`
	Weakness string `mapstructure:"weakness" json:"weakness"`
	// KeywordSummary receives matched count, reference count and score.
	KeywordSummary string `mapstructure:"keyword-summary" json:"keyword_summary"`
}

// SectionOrder is the order sections are captured and reported in.
var SectionOrder = []string{SectionRequirements, SectionNiceToHave, SectionResponsibilities}

// Default returns the built-in Russian/English table tuned for hh.ru vacancies.
func Default() *Vocabulary {
	return &Vocabulary{
		Sections: map[string][]string{
			SectionRequirements: {
				"требования", "что требуется", "мы ожидаем", "наши ожидания",
				"requirements", "must have", "qualifications",
			},
			SectionNiceToHave: {
				"будет плюсом", "будет преимуществом", "преимуществом", "плюсом",
				"nice to have", "bonus points",
			},
			SectionResponsibilities: {
				"обязанности", "что делать", "задачи", "чем предстоит заниматься",
				"responsibilities", "what you'll do",
			},
		},
		Closing: []string{
			"условия", "о вас", "мы предлагаем", "компания", "описание", "о компании",
			"ключевые навыки", "benefits", "we offer", "about us",
		},
		StopWords: []string{
			"и", "в", "во", "на", "с", "со", "по", "о", "об", "от", "до", "за", "к", "из", "у",
			"для", "это", "что", "the", "a", "an", "of", "to", "in", "on", "with",
			"или", "но", "же", "не", "да", "—", "-", "/",
		},
		SeniorCues: []string{"senior", "lead", "сеньор", "старший", "ведущий", "тимлид"},
		MiddleCues: []string{"middle", "мидл"},
		Currency:   []string{"руб", "р.", "₽", "rub", "usd", "eur", "$", "€"},
		Messages: Messages{
			ReinforceSkills: "Усилить раздел «Навыки» ключевыми словами из вакансии.",
			AddExperience:   "Добавить подтверждающий опыт/проекты по: %s",
			Evidence:        "Найдено упоминание «%s» в резюме",
			MissingComment:  "Добавьте подтверждение в опыте/навыках",
			Strength:        "Есть совпадение по ключу: %s",
			Weakness:        "Слабое место/нет упоминания: %s",
			KeywordSummary:  "Совпадение по ключевым словам: %d из %d (%d%%)",
		},
	}
}

// Merge overlays non-empty fields of override on top of v and returns the result.
// Sections are replaced per section name.
func (v *Vocabulary) Merge(override *Vocabulary) *Vocabulary {
	merged := *v
	merged.Sections = make(map[string][]string, len(v.Sections))
	for name, synonyms := range v.Sections {
		merged.Sections[name] = synonyms
	}

	if override == nil {
		return &merged
	}

	for name, synonyms := range override.Sections {
		if len(synonyms) > 0 {
			merged.Sections[name] = synonyms
		}
	}

	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return base
	}

	merged.Closing = pick(v.Closing, override.Closing)
	merged.StopWords = pick(v.StopWords, override.StopWords)
	merged.SeniorCues = pick(v.SeniorCues, override.SeniorCues)
	merged.MiddleCues = pick(v.MiddleCues, override.MiddleCues)
	merged.Currency = pick(v.Currency, override.Currency)

	msg := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}

	merged.Messages = Messages{
		ReinforceSkills: msg(v.Messages.ReinforceSkills, override.Messages.ReinforceSkills),
		AddExperience:   msg(v.Messages.AddExperience, override.Messages.AddExperience),
		Evidence:        msg(v.Messages.Evidence, override.Messages.Evidence),
		MissingComment:  msg(v.Messages.MissingComment, override.Messages.MissingComment),
		Strength:        msg(v.Messages.Strength, override.Messages.Strength),
		Weakness:        msg(v.Messages.Weakness, override.Messages.Weakness),
		KeywordSummary:  msg(v.Messages.KeywordSummary, override.Messages.KeywordSummary),
	}

	return &merged
}

// Compiled holds the regular expressions and lookup sets built from a Vocabulary.
// It is immutable and safe for concurrent use.
type Compiled struct {
	sections  map[string]*regexp.Regexp
	boundary  *regexp.Regexp
	stopWords map[string]struct{}
	senior    *regexp.Regexp
	middle    *regexp.Regexp
	currency  *regexp.Regexp
	messages  Messages
}

// Compile validates the table and builds its matchers.
func (v *Vocabulary) Compile() (*Compiled, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: vocabulary is nil", ErrInvalidVocabulary)
	}

	c := &Compiled{
		sections:  make(map[string]*regexp.Regexp, len(SectionOrder)),
		stopWords: make(map[string]struct{}, len(v.StopWords)),
		messages:  v.Messages,
	}

	var all []string
	for _, name := range SectionOrder {
		synonyms := cleanList(v.Sections[name])
		if len(synonyms) == 0 {
			return nil, fmt.Errorf("%w: section %q has no headings", ErrInvalidVocabulary, name)
		}
		c.sections[name] = headingPattern(synonyms)
		all = append(all, synonyms...)
	}

	all = append(all, cleanList(v.Closing)...)
	c.boundary = headingPattern(all)

	for _, w := range v.StopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			c.stopWords[w] = struct{}{}
		}
	}

	c.senior = cuePattern(cleanList(v.SeniorCues))
	c.middle = cuePattern(cleanList(v.MiddleCues))

	currency := cleanList(v.Currency)
	if len(currency) == 0 {
		return nil, fmt.Errorf("%w: currency indicators are empty", ErrInvalidVocabulary)
	}
	c.currency = currencyPattern(currency)

	return c, nil
}

// MustCompile is like Compile but panics on error. Intended for defaults and tests.
func MustCompile(v *Vocabulary) *Compiled {
	c, err := v.Compile()
	if err != nil {
		panic(err)
	}
	return c
}

// Heading returns the heading matcher of a section, nil for unknown names.
func (c *Compiled) Heading(section string) *regexp.Regexp {
	return c.sections[section]
}

// Boundary matches any heading of any section plus the closing headings.
func (c *Compiled) Boundary() *regexp.Regexp {
	return c.boundary
}

// IsStopWord reports whether a lower-case token is a stop-word.
func (c *Compiled) IsStopWord(token string) bool {
	_, ok := c.stopWords[token]
	return ok
}

// SeniorCue reports whether text contains a senior-level cue word.
func (c *Compiled) SeniorCue(text string) bool {
	return c.senior != nil && c.senior.MatchString(text)
}

// MiddleCue reports whether text contains a middle-level cue word.
func (c *Compiled) MiddleCue(text string) bool {
	return c.middle != nil && c.middle.MatchString(text)
}

// IsCurrencyAmount reports whether the phrase starts with a compensation figure.
func (c *Compiled) IsCurrencyAmount(phrase string) bool {
	return c.currency.MatchString(strings.TrimSpace(phrase))
}

func (c *Compiled) Messages() Messages {
	return c.messages
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// alternation quotes phrases and lets any run of spaces inside a phrase match.
// Longer phrases go first so that "будет плюсом" wins over "плюсом".
func alternation(phrases []string) string {
	sorted := make([]string, len(phrases))
	copy(sorted, phrases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	quoted := make([]string, 0, len(sorted))
	for _, p := range sorted {
		parts := strings.Fields(p)
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		quoted = append(quoted, strings.Join(parts, `\s+`))
	}
	return strings.Join(quoted, "|")
}

// headingPattern matches a whole line that is a heading: the synonym with at
// most two trailing words and an optional colon, or the synonym plus a short
// qualifier ending in a colon, optionally followed by inline content captured
// in group 1. The synonym must not continue into a longer word.
func headingPattern(synonyms []string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t#*]*(?:` + alternation(synonyms) + `)` +
		`(?:(?:[ \t]+[\p{L}\p{N}][\p{L}\p{N}/-]*){0,2}[ \t*]*:?[ \t*]*$|(?:[^\p{L}\p{N}:\n][^:\n]{0,40})?:(.*)$)`)
}

func cuePattern(cues []string) *regexp.Regexp {
	if len(cues) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + alternation(cues) + `)(?:$|[^\p{L}\p{N}])`)
}

// currencyPattern matches phrases that open with a salary figure: an amount or
// a range with an optional thousands multiplier, next to a money indicator.
func currencyPattern(indicators []string) *regexp.Regexp {
	const amount = `\d{1,3}(?:[ \x{00a0}.,]?\d{3})*(?:\s*(?:тыс\.?|k|к)(?:$|[^\p{L}]))?`
	const rangeSep = `\s*(?:[-–—]|до|to)\s*`
	alts := alternation(indicators)
	return regexp.MustCompile(`(?i)^(?:(?:от|до|from|up to)\s+)?(?:(?:` + alts + `)\s*` + amount + `|` +
		amount + `(?:` + rangeSep + amount + `)?\s*(?:` + alts + `))`)
}
