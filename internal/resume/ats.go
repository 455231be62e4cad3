package resume

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	baseScore  = 50
	checkScore = 10

	detailedRunes = 200
	shortRunes    = 100
	tinyRunes     = 50

	shortPenalty = 20
	shortFloor   = 20
	tinyPenalty  = 30
	tinyFloor    = 10
)

// Review is the ATS readiness of a resume.
type Review struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Highlights  []string `json:"highlights"`
}

// check is one structural test of a resume. Passing adds checkScore and the
// highlight, failing records the issue and the optional suggestion.
type check struct {
	pattern    *regexp.Regexp
	experience bool
	highlight  string
	issue      string
	suggestion string
}

var checks = []check{
	{
		pattern:   anyOf(stems("телефон", "email", "e-mail", "контакт", "telegram"), `@[\p{L}\p{N}_.-]+`, `(?:\+7|8)[\s(-]*\d{3}[\s)-]*\d{3}[\s-]*\d{2}[\s-]*\d{2}`),
		highlight: "Контактные данные указаны",
		issue:     "Отсутствуют контактные данные",
	},
	{
		experience: true,
		highlight:  "Опыт работы структурирован",
		issue:      "Опыт работы не структурирован",
		suggestion: "Укажите ваш опыт работы: должность, компанию и период",
	},
	{
		pattern:    anyOf(stems("образование", "education", "университет", "институт", "вуз")),
		highlight:  "Образование указано",
		issue:      "Информация об образовании отсутствует",
		suggestion: "Добавьте информацию об образовании",
	},
	{
		pattern:    anyOf(stems("навыки", "skills", "стек", "технологии")),
		highlight:  "Навыки выделены отдельным блоком",
		issue:      "Навыки не структурированы",
		suggestion: "Выделите ключевые навыки отдельным блоком",
	},
	{
		pattern:    anyOf(`\d+\s*%`, stems("процент", "увеличил", "снизил", "сократил", "ускорил", "повысил", "достижен")),
		highlight:  "Есть конкретные достижения с цифрами",
		issue:      "Отсутствуют конкретные достижения с цифрами",
		suggestion: "Добавьте конкретные достижения с цифрами",
	},
}

// Score rates how well a resume is structured for applicant tracking systems.
// Every structural check adds to the base score, short texts are penalised.
func Score(text string) *Review {
	r := &Review{
		Score:       baseScore,
		Issues:      []string{},
		Suggestions: []string{},
		Highlights:  []string{},
	}

	text = strings.TrimSpace(text)
	experience := DetectExperience(text)

	for _, c := range checks {
		passed := experience.Found
		if !c.experience {
			passed = c.pattern.MatchString(text)
		}

		if passed {
			r.Score += checkScore
			r.Highlights = append(r.Highlights, c.highlight)
			continue
		}

		r.Issues = append(r.Issues, c.issue)
		if c.suggestion != "" {
			r.Suggestions = append(r.Suggestions, c.suggestion)
		}
	}

	runes := utf8.RuneCountInString(text)
	if runes < detailedRunes {
		r.Suggestions = append(r.Suggestions, "Добавьте больше деталей о вашем опыте работы")
	}

	switch {
	case runes < tinyRunes:
		r.Score = max(r.Score-tinyPenalty, tinyFloor)
	case runes < shortRunes:
		r.Score = max(r.Score-shortPenalty, shortFloor)
	}

	r.Score = min(r.Score, 100)
	return r
}
