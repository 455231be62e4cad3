package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/hh-resume-fit/internal/ai"
	"github.com/spigell/hh-resume-fit/internal/logger"
)

const (
	providerName = "gemini"

	defaultMaxLogLength     = 200
	maxInstructionRunes     = 500
	maxKeywords             = 30
	instructionsPlaceholder = "  - none"
)

//go:embed prompt.md
var promptTemplate string

var ErrMalformedResponse = errors.New("malformed gemini response")

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Assessor asks Gemini to score a resume against a job description.
type Assessor struct {
	generator    contentGenerator
	logger       *zap.Logger
	maxLogLen    int
	instructions string
}

func NewAssessor(generator contentGenerator, log *zap.Logger, maxLogLength int) *Assessor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Assessor{
		generator:    generator,
		logger:       logger.WithAIFields(log, providerName, generator.Model()),
		maxLogLen:    maxLogLength,
		instructions: instructionsPlaceholder,
	}
}

// SetInstructions adds free-form user guidance to the prompt. Square brackets
// are replaced so the text cannot open a new prompt section.
func (a *Assessor) SetInstructions(text string) {
	a.instructions = sanitizeInstructions(text)
}

// Assess implements ai.Assessor.
func (a *Assessor) Assess(ctx context.Context, resumeText, jobText string) (*ai.Assessment, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("resume text is required")
	}
	if strings.TrimSpace(jobText) == "" {
		return nil, fmt.Errorf("job text is required")
	}

	raw, err := a.generate(ctx, a.buildPrompt(resumeText, jobText))
	if err != nil {
		return nil, err
	}

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func (a *Assessor) generate(ctx context.Context, prompt string) (string, error) {
	a.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func (a *Assessor) buildPrompt(resumeText, jobText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME}}\n\nJob description:\n{{JOB}}\n\nJSON Response:"
	}

	return strings.NewReplacer(
		"{{INSTRUCTIONS}}", a.instructions,
		"{{RESUME}}", strings.TrimSpace(resumeText),
		"{{JOB}}", strings.TrimSpace(jobText),
	).Replace(template)
}

func sanitizeInstructions(text string) string {
	text = strings.NewReplacer("[", "(", "]", ")", "\r\n", "\n", "\r", "\n").Replace(text)

	if runes := []rune(strings.TrimSpace(text)); len(runes) > maxInstructionRunes {
		text = string(runes[:maxInstructionRunes])
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, "  - "+line)
		}
	}

	if len(lines) == 0 {
		return instructionsPlaceholder
	}
	return strings.Join(lines, "\n")
}

type responsePayload struct {
	Score   float64  `mapstructure:"score"`
	Overlap []string `mapstructure:"overlap_keywords"`
	Missing []string `mapstructure:"missing_keywords"`
	Summary string   `mapstructure:"summary"`
}

func parseResponse(raw string) (*ai.Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var payload responsePayload
	if err := mapstructure.WeakDecode(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &ai.Assessment{
		Score:   normalizeScore(payload.Score),
		Overlap: dedupKeywords(payload.Overlap),
		Missing: dedupKeywords(payload.Missing),
		Summary: strings.TrimSpace(payload.Summary),
	}, nil
}

// extractJSON strips code fences and any prose around the first JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}

	return strings.TrimSpace(raw)
}

// normalizeScore accepts both 0-100 and 0-1 scales and clamps to 0-100.
// Values up to and including 1 are read as fractions, so 1 means 100.
func normalizeScore(score float64) int {
	if math.IsNaN(score) || score <= 0 {
		return 0
	}
	if score <= 1 {
		score *= 100
	}
	return int(math.Round(math.Min(score, 100)))
}

func dedupKeywords(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == maxKeywords {
			break
		}
	}

	return out
}
