package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/hh-resume-fit/internal/document"
	"github.com/spigell/hh-resume-fit/internal/evaluation"
	"github.com/spigell/hh-resume-fit/internal/headhunter"
	"github.com/spigell/hh-resume-fit/internal/logger"
)

const uploadField = "file"

// VacancyFetcher loads a vacancy by its hh.ru link.
type VacancyFetcher interface {
	GetVacancyByURL(ctx context.Context, link string) (*headhunter.Vacancy, error)
}

type Handler struct {
	evaluation *evaluation.Service
	vacancies  VacancyFetcher
	logger     *zap.Logger
	version    string
	aiEnabled  bool
}

func NewHandler(svc *evaluation.Service, vacancies VacancyFetcher, log *zap.Logger, version string, aiEnabled bool) *Handler {
	return &Handler{
		evaluation: svc,
		vacancies:  vacancies,
		logger:     logger.WithFields(log),
		version:    version,
		aiEnabled:  aiEnabled,
	}
}

// HealthCheck handles GET /api/health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "hh-resume-fit",
		"version":   h.version,
		"ai":        h.aiEnabled,
		"timestamp": time.Now().UTC(),
	})
}

// ExtractVacancy handles POST /api/vacancy/extract
func (h *Handler) ExtractVacancy(c *gin.Context) {
	var req ExtractRequest
	if !h.bind(c, &req) {
		return
	}

	breakdown, err := h.evaluation.ExtractJob(req.job())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// DetailedMatch handles POST /api/vacancy/detailed-match
func (h *Handler) DetailedMatch(c *gin.Context) {
	var req DetailedMatchRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.evaluation.DetailedMatch(c.Request.Context(), req.resume(), req.job())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// JobMatch handles POST /api/job-match
func (h *Handler) JobMatch(c *gin.Context) {
	var req JobMatchRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.evaluation.KeywordMatch(c.Request.Context(), req.ResumeText, req.VacancyText)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, JobMatchResponse{OK: true, KeywordMatch: res})
}

// ReviewResume handles POST /api/resume/ats
func (h *Handler) ReviewResume(c *gin.Context) {
	var req ResumeReviewRequest
	if !h.bind(c, &req) {
		return
	}

	review, err := h.evaluation.ReviewResume(c.Request.Context(), req.resume())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ResumeReviewResponse{OK: true, ResumeReview: review})
}

// CoverLetter handles POST /api/cover-letter
func (h *Handler) CoverLetter(c *gin.Context) {
	var req CoverLetterRequest
	if !h.bind(c, &req) {
		return
	}

	letter, err := h.evaluation.CoverLetter(c.Request.Context(), req.ResumeText, req.job(), req.Tone)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, CoverLetterResponse{OK: true, CoverLetter: letter})
}

// ParseURL handles POST /api/vacancy/parse-url
func (h *Handler) ParseURL(c *gin.Context) {
	var req ParseURLRequest
	if !h.bind(c, &req) {
		return
	}

	if h.vacancies == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Vacancy fetching is disabled",
			Code:  CodeUnavailable,
		})
		return
	}

	if req.VacancyURL == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Need vacancyUrl",
			Code:  CodeEmptyInput,
		})
		return
	}

	vacancy, err := h.vacancies.GetVacancyByURL(c.Request.Context(), req.VacancyURL)
	if err != nil {
		h.fail(c, err)
		return
	}

	text, err := vacancy.Text()
	if err != nil {
		h.fail(c, err)
		return
	}

	breakdown, err := h.evaluation.ExtractJob(text)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ParseURLResponse{
		VacancyID: vacancy.ID,
		Name:      vacancy.Name,
		URL:       vacancy.AlternateURL,
		Text:      text,
		Breakdown: breakdown,
	})
}

// ParseDocument handles POST /api/parse
func (h *Handler) ParseDocument(c *gin.Context) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		if isTooLarge(err) {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Need a multipart file field \"" + uploadField + "\"",
			Code:    CodeInvalidRequest,
			Details: err.Error(),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, err)
		return
	}

	contentType := header.Header.Get("Content-Type")

	format, err := document.Detect(header.Filename, contentType, data)
	if err != nil {
		h.fail(c, err)
		return
	}

	text, err := document.Extract(header.Filename, contentType, data)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ParseResponse{
		Filename:   header.Filename,
		Format:     string(format),
		Text:       text,
		Characters: utf8.RuneCountInString(text),
	})
}

// bind decodes the JSON body. An empty body is treated as an empty object.
func (h *Handler) bind(c *gin.Context, target any) bool {
	err := c.ShouldBindJSON(target)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	if isTooLarge(err) {
		h.fail(c, err)
		return false
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid JSON body",
		Code:    CodeInvalidRequest,
		Details: err.Error(),
	})
	return false
}

// fail maps an error to its HTTP status and writes the error response.
func (h *Handler) fail(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String(logger.FieldRequestID, GetRequestID(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, evaluation.ErrEmptyInput):
		return http.StatusBadRequest, ErrorResponse{Error: "Input text is empty", Code: CodeEmptyInput, Details: err.Error()}
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Body too large", Code: CodeBodyTooLarge}
	case errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, ErrorResponse{Error: "Unsupported file type", Code: CodeUnsupportedFormat, Details: err.Error()}
	case errors.Is(err, document.ErrUnreadable):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "Failed to read the document", Code: CodeUnreadableDocument, Details: err.Error()}
	case errors.Is(err, headhunter.ErrInvalidLink):
		return http.StatusBadRequest, ErrorResponse{Error: "Not an hh.ru vacancy link", Code: CodeInvalidLink, Details: err.Error()}
	case errors.Is(err, headhunter.ErrVacancyNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Vacancy not found", Code: CodeVacancyNotFound}
	case errors.Is(err, headhunter.ErrBadStatus), isNetwork(err):
		return http.StatusBadGateway, ErrorResponse{Error: "hh.ru request failed", Code: CodeUpstream, Details: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: CodeInternal}
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func isNetwork(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}
