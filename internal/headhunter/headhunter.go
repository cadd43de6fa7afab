// Package headhunter searches opportunities on hh.ru and turns them into
// scoring targets.
package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/ats-tuner (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
	// hh.ru throttles anonymous clients hard.
	requestsPerSecond = 5
)

type Client struct {
	token      string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. token may be empty: vacancy search does not
// require authorization.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// Vacancy fetches a single vacancy with its full description.
func (c *Client) Vacancy(ctx context.Context, id string) (*Vacancy, error) {
	var v Vacancy
	if err := c.getJSON(ctx, c.APIURL+SearchPath+"/"+id, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
