package evaluation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-resume-fit/internal/logger"
	"github.com/spigell/hh-resume-fit/internal/matcher"
	"github.com/spigell/hh-resume-fit/internal/resume"
	"github.com/spigell/hh-resume-fit/internal/segmenter"
)

const (
	maxLetterMatches = 3
	maxLetterTokens  = 5

	letterGreeting   = "Здравствуйте!"
	letterInterest   = "Меня заинтересовала вакансия «%s»."
	letterExperience = "Мой опыт: %s."
	letterMatches    = "Мой опыт закрывает ваши требования: %s."
	letterKeywords   = "У меня есть опыт с %s."
	letterClosing    = "Буду рад рассказать подробнее о своих проектах на собеседовании."
	letterSignature  = "С уважением."
)

// ReviewResume rates the ATS readiness of a resume. The AI reviewer is used
// when configured; on failure the heuristic review is returned.
func (s *Service) ReviewResume(ctx context.Context, resumeText string) (*ResumeReview, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("%w: resume text is empty", ErrEmptyInput)
	}

	experience := resume.DetectExperience(resumeText)

	if s.reviewer != nil {
		text := resumeText
		if experience.Found {
			text = resume.MarkExperience(resumeText, experience.Spans)
		}

		review, err := s.reviewer.Review(ctx, text)
		if err == nil {
			s.logger.Debug("resume review done",
				zap.Int(logger.FieldScore, review.Score),
				zap.String(logger.FieldSource, string(SourceAI)))

			return &ResumeReview{
				Score:       min(max(review.Score, 0), 100),
				Issues:      nonNil(review.Issues),
				Suggestions: nonNil(review.Suggestions),
				Highlights:  nonNil(review.Highlights),
				Experience:  experience.Lines,
				Source:      SourceAI,
			}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("ai review failed, falling back to heuristic", zap.Error(err))
	}

	r := resume.Score(resumeText)

	s.logger.Debug("resume review done",
		zap.Int(logger.FieldScore, r.Score),
		zap.String(logger.FieldSource, string(SourceHeuristic)))

	return &ResumeReview{
		Score:       r.Score,
		Issues:      r.Issues,
		Suggestions: r.Suggestions,
		Highlights:  r.Highlights,
		Experience:  experience.Lines,
		Source:      SourceHeuristic,
	}, nil
}

// CoverLetter drafts a cover letter for the job. The AI writer is used when
// configured; on failure a letter is assembled from the match results.
func (s *Service) CoverLetter(ctx context.Context, resumeText, jobText, tone string) (*CoverLetter, error) {
	if err := checkInput(resumeText, jobText); err != nil {
		return nil, err
	}

	if s.writer != nil {
		text, err := s.writer.CoverLetter(ctx, resumeText, jobText, tone)
		if err == nil {
			return &CoverLetter{Text: text, Source: SourceAI}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("ai cover letter failed, falling back to template", zap.Error(err))
	}

	text, err := s.draftLetter(resumeText, jobText)
	if err != nil {
		return nil, err
	}

	return &CoverLetter{Text: text, Source: SourceHeuristic}, nil
}

// draftLetter builds a plain letter from the vacancy title, the first work
// history line and the requirements the resume covers.
func (s *Service) draftLetter(resumeText, jobText string) (string, error) {
	job := s.segmenter.Extract(jobText)

	phrases, err := s.matcher.Match(resumeText, job.Universe(), matcher.ModePhrase)
	if err != nil {
		return "", err
	}

	lines := []string{
		letterGreeting,
		"",
		fmt.Sprintf(letterInterest, strings.TrimRight(segmenter.Summarize(jobText, 1), ".")),
	}

	if experience := resume.DetectExperience(resumeText); experience.Found {
		lines = append(lines, fmt.Sprintf(letterExperience, strings.TrimRight(experienceLine(experience), ".")))
	}

	if len(phrases.Matched) > 0 {
		lines = append(lines, fmt.Sprintf(letterMatches, strings.Join(head(phrases.Matched, maxLetterMatches), "; ")))
	} else {
		tokens, err := s.matcher.Match(resumeText, []string{jobText}, matcher.ModeToken)
		if err != nil {
			return "", err
		}
		if len(tokens.Matched) > 0 {
			lines = append(lines, fmt.Sprintf(letterKeywords, strings.Join(head(tokens.Matched, maxLetterTokens), ", ")))
		}
	}

	lines = append(lines, letterClosing, "", letterSignature)
	return strings.Join(lines, "\n"), nil
}

// experienceLine picks the first detected line that is not a bare section
// heading.
func experienceLine(e *resume.Experience) string {
	for _, line := range e.Lines {
		if strings.ContainsAny(line, ",-–—|") || len(strings.Fields(line)) > 2 {
			return strings.TrimLeft(line, "•-–— ")
		}
	}
	return strings.TrimLeft(e.Lines[0], "•-–— ")
}
