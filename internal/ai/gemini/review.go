package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/hh-resume-fit/internal/ai"
)

const (
	defaultTone  = "профессиональный"
	maxToneRunes = 50
	maxNotes     = 12
)

var (
	//go:embed review_prompt.md
	reviewTemplate string

	//go:embed cover_letter_prompt.md
	coverLetterTemplate string
)

var (
	_ ai.Assessor = (*Assessor)(nil)
	_ ai.Reviewer = (*Assessor)(nil)
	_ ai.Writer   = (*Assessor)(nil)
)

// Review implements ai.Reviewer.
func (a *Assessor) Review(ctx context.Context, resumeText string) (*ai.Review, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	raw, err := a.generate(ctx, strings.NewReplacer(
		"{{INSTRUCTIONS}}", a.instructions,
		"{{RESUME}}", strings.TrimSpace(resumeText),
	).Replace(reviewTemplate))
	if err != nil {
		return nil, err
	}

	review, err := parseReview(raw)
	if err != nil {
		return nil, err
	}

	review.Raw = raw
	return review, nil
}

// CoverLetter implements ai.Writer. The reply is used as plain text.
func (a *Assessor) CoverLetter(ctx context.Context, resumeText, jobText, tone string) (string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return "", fmt.Errorf("resume text is required")
	}
	if strings.TrimSpace(jobText) == "" {
		return "", fmt.Errorf("job text is required")
	}

	tone = strings.Join(strings.Fields(sanitizeTone(tone)), " ")
	if tone == "" {
		tone = defaultTone
	}

	raw, err := a.generate(ctx, strings.NewReplacer(
		"{{TONE}}", tone,
		"{{INSTRUCTIONS}}", a.instructions,
		"{{RESUME}}", strings.TrimSpace(resumeText),
		"{{JOB}}", strings.TrimSpace(jobText),
	).Replace(coverLetterTemplate))
	if err != nil {
		return "", err
	}

	letter := stripFences(raw)
	if letter == "" {
		return "", fmt.Errorf("%w: empty cover letter", ErrMalformedResponse)
	}
	return letter, nil
}

type reviewPayload struct {
	Score       float64  `mapstructure:"score"`
	Issues      []string `mapstructure:"issues"`
	Suggestions []string `mapstructure:"suggestions"`
	Highlights  []string `mapstructure:"highlights"`
}

func parseReview(raw string) (*ai.Review, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	// some models answer with ats_score, the older schema name
	if _, ok := data["score"]; !ok {
		data["score"] = data["ats_score"]
	}

	var payload reviewPayload
	if err := mapstructure.WeakDecode(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &ai.Review{
		Score:       normalizeScore(payload.Score),
		Issues:      notes(payload.Issues),
		Suggestions: notes(payload.Suggestions),
		Highlights:  notes(payload.Highlights),
	}, nil
}

func notes(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
		if len(out) == maxNotes {
			break
		}
	}
	return out
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx != -1 {
			raw = raw[idx+1:]
		} else {
			raw = strings.TrimLeft(raw, "`")
		}
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	return strings.TrimSpace(raw)
}

func sanitizeTone(tone string) string {
	tone = strings.NewReplacer("[", "(", "]", ")").Replace(tone)
	if runes := []rune(tone); len(runes) > maxToneRunes {
		tone = string(runes[:maxToneRunes])
	}
	return tone
}
