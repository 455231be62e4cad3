package server

import (
	"strings"

	"github.com/spigell/hh-resume-fit/internal/evaluation"
	"github.com/spigell/hh-resume-fit/internal/segmenter"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeEmptyInput         = "EMPTY_INPUT"
	CodeBodyTooLarge       = "BODY_TOO_LARGE"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeUnreadableDocument = "UNREADABLE_DOCUMENT"
	CodeInvalidLink        = "INVALID_LINK"
	CodeVacancyNotFound    = "VACANCY_NOT_FOUND"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeUnavailable        = "NOT_CONFIGURED"
	CodeInternal           = "INTERNAL_ERROR"
)

// ExtractRequest accepts the job text under either key.
type ExtractRequest struct {
	JobText string `json:"jobText"`
	Vacancy string `json:"vacancy"`
}

func (r *ExtractRequest) job() string {
	return firstNonBlank(r.JobText, r.Vacancy)
}

type DetailedMatchRequest struct {
	ResumeText string `json:"resumeText"`
	Resume     string `json:"resume"`
	JobText    string `json:"jobText"`
	Vacancy    string `json:"vacancy"`
}

func (r *DetailedMatchRequest) resume() string {
	return firstNonBlank(r.ResumeText, r.Resume)
}

func (r *DetailedMatchRequest) job() string {
	return firstNonBlank(r.JobText, r.Vacancy)
}

type JobMatchRequest struct {
	ResumeText  string `json:"resumeText"`
	VacancyText string `json:"vacancyText"`
}

type JobMatchResponse struct {
	OK bool `json:"ok"`
	*evaluation.KeywordMatch
}

// ResumeReviewRequest accepts the resume text under either key.
type ResumeReviewRequest struct {
	ResumeText string `json:"resumeText"`
	Resume     string `json:"resume"`
}

func (r *ResumeReviewRequest) resume() string {
	return firstNonBlank(r.ResumeText, r.Resume)
}

type ResumeReviewResponse struct {
	OK bool `json:"ok"`
	*evaluation.ResumeReview
}

// CoverLetterRequest accepts the vacancy under jobText or vacancyText.
type CoverLetterRequest struct {
	ResumeText  string `json:"resumeText"`
	JobText     string `json:"jobText"`
	VacancyText string `json:"vacancyText"`
	Tone        string `json:"tone"`
}

func (r *CoverLetterRequest) job() string {
	return firstNonBlank(r.JobText, r.VacancyText)
}

type CoverLetterResponse struct {
	OK bool `json:"ok"`
	*evaluation.CoverLetter
}

type ParseURLRequest struct {
	VacancyURL string `json:"vacancyUrl"`
}

type ParseURLResponse struct {
	VacancyID string               `json:"vacancy_id"`
	Name      string               `json:"name"`
	URL       string               `json:"url"`
	Text      string               `json:"text"`
	Breakdown *segmenter.Breakdown `json:"breakdown"`
}

type ParseResponse struct {
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	Text       string `json:"text"`
	Characters int    `json:"characters"`
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
