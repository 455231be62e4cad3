package headhunter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/hh-resume-fit (spigelly@gmail.com)"
	timeout   = 10 * time.Second
)

var (
	ErrVacancyNotFound = errors.New("vacancy not found")
	ErrBadStatus       = errors.New("bad status from hh.ru")
	ErrInvalidLink     = errors.New("invalid vacancy link")
)

// Client reads public vacancies from the HeadHunter API.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. The token is optional: vacancies are public.
func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// GetVacancy loads the full vacancy by its id.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	var vacancy Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s/vacancies/%s", c.APIURL, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	return &vacancy, nil
}

// GetVacancyByURL resolves a vacancy link (or a bare id) and loads the vacancy.
func (c *Client) GetVacancyByURL(ctx context.Context, link string) (*Vacancy, error) {
	id, err := VacancyID(link)
	if err != nil {
		return nil, err
	}

	return c.GetVacancy(ctx, id)
}
