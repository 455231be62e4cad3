package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-resume-fit/internal/ai"
	"github.com/spigell/hh-resume-fit/internal/logger"
	"github.com/spigell/hh-resume-fit/internal/matcher"
	"github.com/spigell/hh-resume-fit/internal/resume"
	"github.com/spigell/hh-resume-fit/internal/segmenter"
	"github.com/spigell/hh-resume-fit/internal/vocabulary"
)

const (
	summaryLines      = 3
	maxKeySkills      = 20
	maxStrengths      = 12
	maxMissingInMatch = 20
	maxExperience     = 8
)

var ErrEmptyInput = errors.New("resume and job texts are required")

// Service assembles match reports from the segmenter, the matcher and an
// optional AI assessor.
type Service struct {
	segmenter *segmenter.Segmenter
	matcher   *matcher.Matcher
	messages  vocabulary.Messages
	assessor  ai.Assessor
	reviewer  ai.Reviewer
	writer    ai.Writer
	logger    *zap.Logger
}

// New creates a Service. assessor may be nil, in which case every operation
// is heuristic. When assessor also implements ai.Reviewer or ai.Writer it is
// used for resume reviews and cover letters too.
func New(vocab *vocabulary.Compiled, assessor ai.Assessor, log *zap.Logger) *Service {
	s := &Service{
		segmenter: segmenter.New(vocab),
		matcher:   matcher.New(vocab),
		messages:  vocab.Messages(),
		assessor:  assessor,
		logger:    logger.WithFields(log),
	}

	if r, ok := assessor.(ai.Reviewer); ok {
		s.reviewer = r
	}
	if w, ok := assessor.(ai.Writer); ok {
		s.writer = w
	}

	return s
}

// ExtractJob splits a job description into its sections.
func (s *Service) ExtractJob(jobText string) (*segmenter.Breakdown, error) {
	if strings.TrimSpace(jobText) == "" {
		return nil, fmt.Errorf("%w: job text is empty", ErrEmptyInput)
	}
	return s.segmenter.Extract(jobText), nil
}

// DetailedMatch matches the resume against the requirement phrases of the job.
func (s *Service) DetailedMatch(ctx context.Context, resumeText, jobText string) (*Report, error) {
	if err := checkInput(resumeText, jobText); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job := s.segmenter.Extract(jobText)
	universe := job.Universe()

	res, err := s.matcher.Match(resumeText, universe, matcher.ModePhrase)
	if err != nil {
		return nil, err
	}
	nice, err := s.matcher.Match(resumeText, job.NiceToHave, matcher.ModePhrase)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("detailed match done", logger.MatchFields(string(matcher.ModePhrase), res.Score, len(universe))...)

	return &Report{
		Job: JobSummary{
			Summary:          segmenter.Summarize(jobText, summaryLines),
			Grade:            job.Level,
			Requirements:     universe,
			NiceToHave:       job.NiceToHave,
			Responsibilities: job.Responsibilities,
		},
		Candidate: CandidateSummary{
			Summary:    segmenter.Summarize(resumeText, summaryLines),
			Grade:      s.segmenter.InferLevel(resumeText),
			KeySkills:  head(s.matcher.Tokenize(resumeText).Items(), maxKeySkills),
			Experience: head(resume.DetectExperience(resumeText).Lines, maxExperience),
		},
		Match: MatchSummary{
			OverallMatch:        res.Score,
			GradeFit:            res.GradeFit,
			Chances:             res.Chance,
			Strengths:           format(s.messages.Strength, head(res.Matched, maxStrengths)),
			Weaknesses:          format(s.messages.Weakness, head(res.Missing, maxStrengths)),
			MissingRequirements: head(res.Missing, maxMissingInMatch),
			NiceToHaveMatched:   nice.Matched,
			Recommendations:     res.Recommendations,
		},
		DetailedAnalysis: s.matcher.Breakdown(resumeText, universe),
	}, nil
}

// KeywordMatch compares the resume and job by keywords. The AI assessor is
// used when configured; on failure the heuristic result is returned.
func (s *Service) KeywordMatch(ctx context.Context, resumeText, jobText string) (*KeywordMatch, error) {
	if err := checkInput(resumeText, jobText); err != nil {
		return nil, err
	}

	if s.assessor != nil {
		assessment, err := s.assessor.Assess(ctx, resumeText, jobText)
		if err == nil {
			return s.fromAssessment(assessment), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("ai assessment failed, falling back to heuristic", zap.Error(err))
	}

	res, err := s.matcher.Match(resumeText, []string{jobText}, matcher.ModeToken)
	if err != nil {
		return nil, err
	}
	total := len(res.Matched) + len(res.Missing)

	s.logger.Debug("keyword match done", logger.MatchFields(string(matcher.ModeToken), res.Score, total)...)

	return &KeywordMatch{
		Score:           res.Score,
		Overlap:         res.Matched,
		Missing:         res.Missing,
		Summary:         fmt.Sprintf(s.messages.KeywordSummary, len(res.Matched), total, res.Score),
		GradeFit:        res.GradeFit,
		Chances:         res.Chance,
		Recommendations: res.Recommendations,
		Source:          SourceHeuristic,
	}, nil
}

func (s *Service) fromAssessment(a *ai.Assessment) *KeywordMatch {
	score := min(max(a.Score, 0), 100)
	overlap := nonNil(a.Overlap)
	missing := nonNil(a.Missing)

	s.logger.Debug("keyword match done",
		append(logger.MatchFields(string(matcher.ModeToken), score, len(overlap)+len(missing)),
			zap.String(logger.FieldSource, string(SourceAI)))...)

	return &KeywordMatch{
		Score:           score,
		Overlap:         overlap,
		Missing:         missing,
		Summary:         a.Summary,
		GradeFit:        matcher.GradeFitFor(score),
		Chances:         matcher.ChanceFor(score),
		Recommendations: s.matcher.Recommend(score, missing),
		Source:          SourceAI,
	}
}

func checkInput(resumeText, jobText string) error {
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jobText) == "" {
		return ErrEmptyInput
	}
	return nil
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func format(template string, items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf(template, item))
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
