package resume

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// MaxExperienceLines bounds Experience.Lines.
	MaxExperienceLines = 24

	dateContextBefore = 2
	dateContextAfter  = 3
	followUpLines     = 4

	ExperienceOpen  = "[EXPERIENCE]"
	ExperienceClose = "[/EXPERIENCE]"
)

var (
	noiseHeader = regexp.MustCompile(`(?i)^(?:специализаци[яи]|навыки|ключевые навыки|о себе|образование|сертификаты|курсы|обучение|skills|education)(?:$|[^\p{L}])`)

	experienceHeader = regexp.MustCompile(`(?i)^(?:опыт работы|профессиональный опыт|карьера|трудовая деятельность|история работы|работа|` +
		`проекты|коммерческие проекты|кейсы|портфолио|реализованные проекты|` +
		`практика|производственная практика|стажировка|интернатура|подработка|волонтерство|` +
		`фриланс|консалтинг|самозанят\p{L}*|гпх|удаленная работа|remote|work experience|experience)(?:$|[^\p{L}])`)

	positionWords = anyOf(stems(
		"должност", "роль", "позици", "developer", "engineer", "analyst", "менеджер", "аналитик",
		"разработчик", "инженер", "devops", "архитектор", "дизайнер", "тестировщик", "team lead",
		"руководитель", "директор", "специалист", "эксперт", "консультант",
	), whole("qa"))
	companyWords = anyOf(stems(
		"банк", "компания", "организация", "фирма", "агентство", "студия", "лаборатория",
	), whole("ооо", "ао", "пао", "ип", "ltd", "inc", "corp", "llc", "gmbh"))
	dutyWords = anyOf(stems(
		"обязанност", "задач", "ответственност", "функци", "работал", "выполнял", "участвовал",
		"разрабатывал", "создавал", "оптимизировал", "внедрял", "интегрировал", "поддерживал",
		"администрировал",
	))
	achievementWords = anyOf(stems(
		"достижен", "результат", "метрик", "снизил", "повысил", "улучшил", "увеличил",
		"сократил", "автоматизировал", "внедрил", "реализовал", "запустил", "развернул",
	), whole("kpi"))

	period       = regexp.MustCompile(`(?i)(?:^|[^\d])(?:20\d{2}|19\d{2}|\d{1,2}\.\d{4})\s*[-–—]\s*(?:20\d{2}|19\d{2}|\d{1,2}\.\d{4}|по наст|наст\.|н\.\s?в\.|настоящее время|present|current|now)`)
	leadingRange = regexp.MustCompile(`(?i)^\d{4}\s*[-–—]\s*(?:н\.\s?в\.|наст\.|настоящее время|present|current|\d{4})`)
)

// stems matches any of words at the start of a word. Words are prefixes, so
// "разработчик" also matches "разработчиком".
func stems(words ...string) string {
	return `(?:^|[^\p{L}\p{N}])(?:` + quoteWords(words) + `)`
}

// whole matches any of words as a complete word.
func whole(words ...string) string {
	return stems(words...) + `(?:$|[^\p{L}\p{N}])`
}

func anyOf(patterns ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + strings.Join(patterns, "|"))
}

func quoteWords(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`))
	}
	return strings.Join(quoted, "|")
}

// Span is an inclusive range of non-empty resume lines.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Experience is what DetectExperience found in a resume.
type Experience struct {
	Found bool     `json:"found"`
	Lines []string `json:"lines"`
	Spans []Span   `json:"spans"`
}

// Lines returns the trimmed non-empty lines of text. Line indexes of Span
// refer to this slice.
func Lines(text string) []string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)

	out := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// DetectExperience looks for work history in a resume: explicit experience
// sections, date ranges next to job titles or companies, and lines that name
// a position together with a company or duties.
func DetectExperience(text string) *Experience {
	lines := Lines(text)
	hits := make(map[int]struct{})
	spans := make([]Span, 0)

	hit := func(i int) { hits[i] = struct{}{} }

	for i, line := range lines {
		if !experienceHeader.MatchString(line) {
			continue
		}
		j := i + 1
		for j < len(lines) && !isHeader(lines[j]) {
			j++
		}
		spans = append(spans, Span{Start: i, End: j - 1})
		for k := i; k < j; k++ {
			hit(k)
		}
	}

	for i, line := range lines {
		if !period.MatchString(line) {
			continue
		}
		window := strings.Join(lines[max(0, i-dateContextBefore):min(len(lines), i+dateContextAfter+1)], " ")
		if positionWords.MatchString(window) || companyWords.MatchString(window) ||
			dutyWords.MatchString(window) || achievementWords.MatchString(window) {
			hit(i)
			spans = append(spans, Span{Start: i, End: min(len(lines)-1, i+dateContextAfter)})
		}
	}

	for i, line := range lines {
		position := positionWords.MatchString(line)
		company := companyWords.MatchString(line)

		if (position && company) || (position && dutyWords.MatchString(line)) || (company && achievementWords.MatchString(line)) {
			hit(i)
		}

		if leadingRange.MatchString(line) && (position || company) {
			hit(i)
			spans = append(spans, Span{Start: i, End: min(len(lines)-1, i+dateContextAfter)})
		}

		if position && company && !isHeader(line) {
			j := i + 1
			for j < len(lines) && j <= i+followUpLines && isDetail(lines[j]) {
				j++
			}
			spans = append(spans, Span{Start: i, End: j - 1})
		}
	}

	indexes := make([]int, 0, len(hits))
	for i := range hits {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	found := make([]string, 0, min(len(indexes), MaxExperienceLines))
	for _, i := range indexes {
		if len(found) == MaxExperienceLines {
			break
		}
		found = append(found, lines[i])
	}

	return &Experience{
		Found: len(indexes) > 0,
		Lines: found,
		Spans: mergeSpans(spans),
	}
}

func isHeader(line string) bool {
	return noiseHeader.MatchString(line) || experienceHeader.MatchString(line)
}

func isDetail(line string) bool {
	return dutyWords.MatchString(line) || achievementWords.MatchString(line) ||
		strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-")
}

// mergeSpans sorts spans and joins the overlapping or adjacent ones.
func mergeSpans(spans []Span) []Span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := make([]Span, 0, len(spans))
	for _, s := range spans {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End+1 {
			merged[n-1].End = max(merged[n-1].End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// MarkExperience wraps every span of the non-empty lines of text in
// experience markers and returns those lines joined back together.
func MarkExperience(text string, spans []Span) string {
	lines := Lines(text)
	out := make([]string, 0, len(lines)+2*len(spans))

	next := 0
	for i, line := range lines {
		if next < len(spans) && spans[next].Start == i {
			out = append(out, ExperienceOpen)
		}
		out = append(out, line)
		if next < len(spans) && spans[next].End == i {
			out = append(out, ExperienceClose)
			next++
		}
	}

	return strings.Join(out, "\n")
}
