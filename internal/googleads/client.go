// Package googleads talks to the Google Ads REST API: OAuth2 bearer tokens,
// developer-token headers, quota-aware request pacing and paginated GAQL
// search.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/radiusdt/kpi-dashboard/internal/metrics"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Config holds per-account client settings.
type Config struct {
	BaseURL         string
	APIVersion      string
	CustomerID      string
	LoginCustomerID string
	DeveloperToken  string
	RequestsPerMin  int
	Timeout         time.Duration
}

// Client is a Google Ads API client for one customer account. It is safe for
// concurrent use; every HTTP request waits on a shared quota limiter.
type Client struct {
	cfg     Config
	http    *http.Client
	tokens  oauth2.TokenSource
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewClient creates a client. m may be nil.
func NewClient(cfg Config, tokens oauth2.TokenSource, logger *zap.Logger, m *metrics.Metrics) *Client {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 100
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), burst),
		logger:  logger,
		metrics: m,
	}
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []Row  `json:"results"`
	NextPageToken string `json:"nextPageToken"`
}

// Search runs a GAQL query and returns every result row, following
// nextPageToken until exhausted. operation labels metrics and logs.
func (c *Client) Search(ctx context.Context, operation, query string) ([]Row, error) {
	start := time.Now()
	rows, pages, err := c.search(ctx, query)
	status := "ok"
	if err != nil {
		status = errorStatus(err)
	}
	c.metrics.RecordAPIRequest(operation, status, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("google ads %s: %w", operation, err)
	}
	c.logger.Debug("google ads search",
		zap.String("operation", operation),
		zap.Int("rows", len(rows)),
		zap.Int("pages", pages),
		zap.Duration("duration", time.Since(start)),
	)
	return rows, nil
}

func (c *Client) search(ctx context.Context, query string) ([]Row, int, error) {
	url := fmt.Sprintf("%s/%s/customers/%s/googleAds:search", c.cfg.BaseURL, c.cfg.APIVersion, c.cfg.CustomerID)

	var (
		rows  []Row
		token string
		pages int
	)
	for {
		var page searchResponse
		if err := c.post(ctx, url, searchRequest{Query: query, PageToken: token}, &page); err != nil {
			return nil, pages, err
		}
		pages++
		rows = append(rows, page.Results...)
		if page.NextPageToken == "" {
			return rows, pages, nil
		}
		token = page.NextPageToken
	}
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	tok, err := c.tokens.Token()
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.cfg.DeveloperToken)
	if c.cfg.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.cfg.LoginCustomerID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env errorEnvelope
	if err := json.Unmarshal(b, &env); err == nil && env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

func errorStatus(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return strconv.Itoa(apiErr.Status)
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// ValidateCampaignID reports whether id can be embedded in a GAQL predicate.
func ValidateCampaignID(id string) error {
	if n, err := strconv.ParseUint(id, 10, 64); err != nil || n == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidCampaignID, id)
	}
	return nil
}
