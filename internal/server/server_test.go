package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-resume-fit/internal/evaluation"
	"github.com/spigell/hh-resume-fit/internal/headhunter"
	"github.com/spigell/hh-resume-fit/internal/vocabulary"
)

const (
	testJob = `Backend-разработчик (Go)

Требования:
- Опыт разработки на Go от 3 лет
- Знание PostgreSQL
- Опыт работы с Kafka

Будет плюсом:
- Kubernetes`

	testResume = `Go developer
Опыт разработки на Go от 3 лет, знание PostgreSQL.`
)

type fakeFetcher struct {
	vacancy *headhunter.Vacancy
	err     error
	links   []string
}

func (f *fakeFetcher) GetVacancyByURL(_ context.Context, link string) (*headhunter.Vacancy, error) {
	f.links = append(f.links, link)
	return f.vacancy, f.err
}

func newTestRouter(t *testing.T, fetcher VacancyFetcher, log *zap.Logger) *gin.Engine {
	t.Helper()

	svc := evaluation.New(vocabulary.MustCompile(vocabulary.Default()), nil, log)
	handler := NewHandler(svc, fetcher, log, "test", false)

	return NewRouter(&Config{MaxBodyBytes: 64 << 10}, handler, log)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, false, body["ai"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDSize+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestExtractVacancy(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	for _, key := range []string{"jobText", "vacancy"} {
		t.Run(key, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/vacancy/extract", map[string]string{key: testJob})
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Requirements []string `json:"requirements"`
				NiceToHave   []string `json:"nice_to_have"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, []string{"Опыт разработки на Go от 3 лет", "Знание PostgreSQL", "Опыт работы с Kafka"}, body.Requirements)
			assert.Equal(t, []string{"Kubernetes"}, body.NiceToHave)
		})
	}
}

func TestExtractVacancyEmpty(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	for name, body := range map[string]any{
		"no body":    nil,
		"empty json": "{}",
		"blank text": map[string]string{"jobText": "  "},
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/vacancy/extract", body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, CodeEmptyInput, decodeError(t, w).Code)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/job-match", `{"resumeText":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, w).Code)
}

func TestDetailedMatch(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/vacancy/detailed-match", map[string]string{
		"resume":  testResume,
		"jobText": testJob,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var report evaluation.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 67, report.Match.OverallMatch)
	assert.Equal(t, []string{"Опыт работы с Kafka"}, report.Match.MissingRequirements)
	assert.Empty(t, report.Match.NiceToHaveMatched)
	assert.Len(t, report.DetailedAnalysis, 3)
}

func TestDetailedMatchEmptyResume(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/vacancy/detailed-match", map[string]string{"jobText": testJob})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeEmptyInput, decodeError(t, w).Code)
}

func TestJobMatch(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/job-match", map[string]string{
		"resumeText":  "Пишу на Python, знаю SQL",
		"vacancyText": "Python SQL Kafka Docker",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 50, body["match_score"])
	assert.Equal(t, []any{"python", "sql"}, body["overlap_keywords"])
	assert.Equal(t, []any{"kafka", "docker"}, body["missing_keywords"])
	assert.Equal(t, "heuristic", body["source"])
}

func TestReviewResume(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/resume/ats", map[string]string{
		"resumeText": "Телефон +7 999 123-45-67\nОпыт работы\nGo разработчик, ООО Ромашка\nНавыки: Go",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 60, body["score"])
	assert.Equal(t, []any{"Информация об образовании отсутствует", "Отсутствуют конкретные достижения с цифрами"}, body["issues"])
	assert.Equal(t, []any{"Опыт работы", "Go разработчик, ООО Ромашка"}, body["experience"])
	assert.Equal(t, "heuristic", body["source"])
}

func TestReviewResumeEmpty(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/resume/ats", map[string]string{"resume": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeEmptyInput, decodeError(t, w).Code)
}

func TestCoverLetter(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/cover-letter", map[string]string{
		"resumeText":  testResume,
		"vacancyText": testJob,
		"tone":        "дружелюбный",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OK          bool   `json:"ok"`
		CoverLetter string `json:"cover_letter"`
		Source      string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, "heuristic", body.Source)
	assert.Contains(t, body.CoverLetter, "«Backend-разработчик (Go)»")
	assert.Contains(t, body.CoverLetter, "Опыт разработки на Go от 3 лет; Знание PostgreSQL")
}

func TestCoverLetterEmptyJob(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/cover-letter", map[string]string{"resumeText": testResume})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeEmptyInput, decodeError(t, w).Code)
}

func TestBodyTooLarge(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	big := fmt.Sprintf(`{"resumeText":%q,"vacancyText":"go"}`, strings.Repeat("a", 70<<10))
	w := doJSON(t, r, http.MethodPost, "/api/job-match", big)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, CodeBodyTooLarge, decodeError(t, w).Code)
}

func TestParseURL(t *testing.T) {
	vacancy := &headhunter.Vacancy{
		ID:           "123",
		Name:         "Go developer",
		AlternateURL: "https://hh.ru/vacancy/123",
		Description:  "<p><strong>Требования:</strong></p><ul><li>Golang</li><li>PostgreSQL</li></ul>",
	}
	fetcher := &fakeFetcher{vacancy: vacancy}
	r := newTestRouter(t, fetcher, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/vacancy/parse-url", map[string]string{"vacancyUrl": "https://hh.ru/vacancy/123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"https://hh.ru/vacancy/123"}, fetcher.links)

	var body ParseURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "123", body.VacancyID)
	assert.Equal(t, "Go developer", body.Name)
	assert.Contains(t, body.Text, "• Golang")
	require.NotNil(t, body.Breakdown)
	assert.Equal(t, []string{"Golang", "PostgreSQL"}, body.Breakdown.Requirements)
}

func TestParseURLErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid link", fmt.Errorf("%w: example.com", headhunter.ErrInvalidLink), http.StatusBadRequest, CodeInvalidLink},
		{"not found", fmt.Errorf("get vacancy 1: %w", headhunter.ErrVacancyNotFound), http.StatusNotFound, CodeVacancyNotFound},
		{"bad status", fmt.Errorf("get vacancy 1: %w: 503", headhunter.ErrBadStatus), http.StatusBadGateway, CodeUpstream},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeFetcher{err: tt.err}, zap.NewNop())

			w := doJSON(t, r, http.MethodPost, "/api/vacancy/parse-url", map[string]string{"vacancyUrl": "https://hh.ru/vacancy/1"})
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestParseURLWithoutFetcher(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/vacancy/parse-url", map[string]string{"vacancyUrl": "https://hh.ru/vacancy/1"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeUnavailable, decodeError(t, w).Code)
}

func TestParseURLEmpty(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestRouter(t, fetcher, zap.NewNop())

	w := doJSON(t, r, http.MethodPost, "/api/vacancy/parse-url", "{}")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeEmptyInput, decodeError(t, w).Code)
	assert.Empty(t, fetcher.links)
}

func upload(t *testing.T, r http.Handler, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestParseDocument(t *testing.T) {
	r := newTestRouter(t, nil, zap.NewNop())

	w := upload(t, r, "file", "resume.txt", []byte("Иван  Петров\n\n\n\nGo developer"))
	require.Equal(t, http.StatusOK, w.Code)

	var body ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "resume.txt", body.Filename)
	assert.Equal(t, "text", body.Format)
	assert.Equal(t, "Иван Петров\n\nGo developer", body.Text)
	assert.Equal(t, 25, body.Characters)
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
		status   int
		code     string
	}{
		{"missing field", "upload", "resume.txt", []byte("text"), http.StatusBadRequest, CodeInvalidRequest},
		{"unsupported", "file", "resume.bin", []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, http.StatusUnsupportedMediaType, CodeUnsupportedFormat},
		{"broken pdf", "file", "resume.pdf", []byte("%PDF-1.4 broken"), http.StatusUnprocessableEntity, CodeUnreadableDocument},
		{"invalid utf8", "file", "resume.txt", []byte{0xff, 0xfe, 0xfd}, http.StatusUnprocessableEntity, CodeUnreadableDocument},
	}

	r := newTestRouter(t, nil, zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, r, tt.field, tt.filename, tt.data)
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	svc := evaluation.New(vocabulary.MustCompile(vocabulary.Default()), nil, zap.NewNop())
	handler := NewHandler(svc, nil, zap.NewNop(), "test", false)
	r := NewRouter(&Config{AllowOrigins: []string{"https://app.example"}}, handler, zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/api/job-match", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/job-match", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)
	r := newTestRouter(t, nil, zap.New(core))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := doJSON(t, r, http.MethodGet, "/panic", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, decodeError(t, w).Code)

	entries := observed.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["panic"])
}

func TestLoggerMiddleware(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	r := newTestRouter(t, nil, zap.New(core))

	doJSON(t, r, http.MethodGet, "/api/health", nil)
	doJSON(t, r, http.MethodPost, "/api/vacancy/extract", "{}")

	entries := observed.FilterMessage("request handled").All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/api/health", entries[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusBadRequest, entries[1].ContextMap()["status"])
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:5177", (&Config{}).Addr())
	assert.Equal(t, "127.0.0.1:8080", (&Config{Host: "127.0.0.1", Port: 8080}).Addr())
}
