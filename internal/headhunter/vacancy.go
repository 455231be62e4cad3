package headhunter

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const keySkillsHeading = "Ключевые навыки:"

var (
	vacancyPath = regexp.MustCompile(`^/vacancy/(\d+)/?$`)
	numericID   = regexp.MustCompile(`^\d+$`)
	lineSpaces  = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Salary *struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
		Gross    bool   `json:"gross,omitempty"`
	} `json:"salary,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	KeySkills    []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// VacancyID extracts the vacancy id from an hh.ru link such as
// https://hh.ru/vacancy/123 or https://spb.hh.ru/vacancy/123?from=search.
// A bare numeric id is accepted as is.
func VacancyID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if numericID.MatchString(link) {
		return link, nil
	}

	if !strings.Contains(link, "://") {
		link = "https://" + link
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidLink, link, err)
	}

	host := strings.ToLower(u.Hostname())
	if host != "hh.ru" && !strings.HasSuffix(host, ".hh.ru") {
		return "", fmt.Errorf("%w: %q is not an hh.ru host", ErrInvalidLink, host)
	}

	m := vacancyPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: %q is not a vacancy page", ErrInvalidLink, u.Path)
	}

	return m[1], nil
}

// Text renders the vacancy as plain text with the line layout of the page:
// the name first, list items as bullet lines and the key skills at the end.
func (v *Vacancy) Text() (string, error) {
	var lines []string

	if name := strings.TrimSpace(v.Name); name != "" {
		lines = append(lines, name)
	}
	if exp := strings.TrimSpace(v.Experience.Name); exp != "" {
		lines = append(lines, "Опыт работы: "+exp)
	}

	description, err := HTMLText(v.Description)
	if err != nil {
		return "", fmt.Errorf("vacancy %s: %w", v.ID, err)
	}
	if description != "" {
		lines = append(lines, "", description)
	}

	var skills []string
	for _, s := range v.KeySkills {
		if name := strings.TrimSpace(s.Name); name != "" {
			skills = append(skills, "• "+name)
		}
	}
	if len(skills) > 0 {
		lines = append(lines, "", keySkillsHeading)
		lines = append(lines, skills...)
	}

	return strings.Join(lines, "\n"), nil
}

// HTMLText converts an HTML fragment into line-structured text. Block
// elements and <br> start new lines, <li> items become "• " lines.
func HTMLText(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n• ")
		s.AppendHtml("\n")
	})
	doc.Find("p, div, ul, ol, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	var cleaned []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(lineSpaces.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n"), nil
}
