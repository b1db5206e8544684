package blossom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/json"
	"github.com/disgoorg/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL       = "https://grafeas.org/api/"
	DefaultTokenLifetime = 5 * time.Minute
)

type Config struct {
	BaseURL       string
	Email         string
	Password      string
	APIKey        string
	TokenLifetime time.Duration
	Timeout       time.Duration
}

func New(logger log.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.TokenLifetime <= 0 {
		cfg.TokenLifetime = DefaultTokenLifetime
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		logger: logger,
		cfg:    cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type Client struct {
	logger log.Logger
	cfg    Config
	client *http.Client

	counter metric.Int64Counter

	token *oauth2.Token
	mu    sync.Mutex
}

func (c *Client) InitMetrics(meter metric.Meter) error {
	var err error
	c.counter, err = meter.Int64Counter("buttercup_blossom_requests",
		metric.WithDescription("The number of requests made to the Blossom API"),
	)
	return err
}

func (c *Client) getToken(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("error logging in to blossom: %w", err)
	}
	c.token = token

	return token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}

func (c *Client) login(ctx context.Context) (*oauth2.Token, error) {
	form := url.Values{
		"email":    {c.cfg.Email},
		"password": {c.cfg.Password},
	}
	rq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"auth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	rq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rq.Header.Set("X-Api-Key", c.cfg.APIKey)

	now := time.Now()
	rs, err := c.client.Do(rq)
	if err != nil {
		return nil, err
	}
	defer rs.Body.Close()

	if rs.StatusCode != http.StatusOK {
		return nil, newError(rs)
	}

	var response tokenResponse
	if err = json.NewDecoder(rs.Body).Decode(&response); err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken:  response.Access,
		RefreshToken: response.Refresh,
		TokenType:    "Bearer",
		Expiry:       now.Add(c.cfg.TokenLifetime),
	}, nil
}

func (c *Client) request(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	c.logger.Debugf("blossom request: GET %s", endpoint)

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	rq.Header.Set("X-Api-Key", c.cfg.APIKey)
	token.SetAuthHeader(rq)

	rs, err := c.client.Do(rq)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}

	if c.counter != nil {
		c.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("path", path),
			attribute.String("method", rq.Method),
			attribute.Int("status", rs.StatusCode),
		))
	}
	return rs, nil
}

// get requests path relative to the base URL and decodes the response into rsBody.
// An expired session is renewed once.
func (c *Client) get(ctx context.Context, path string, query url.Values, rsBody any) error {
	rs, err := c.request(ctx, path, query)
	if err != nil {
		return err
	}
	if rs.StatusCode == http.StatusUnauthorized {
		_ = rs.Body.Close()
		c.invalidateToken()
		if rs, err = c.request(ctx, path, query); err != nil {
			return err
		}
	}
	defer rs.Body.Close()

	if rs.StatusCode < 200 || rs.StatusCode > 299 {
		return newError(rs)
	}

	if err = json.NewDecoder(rs.Body).Decode(rsBody); err != nil {
		return fmt.Errorf("error decoding response of %s: %w", path, err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*Volunteer, error) {
	var page Page[Volunteer]
	if err := c.get(ctx, "volunteer/", url.Values{"username": {username}}, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, ErrUserNotFound
	}
	return &page.Results[0], nil
}

// TotalGamma returns the number of completed submissions of all volunteers.
func (c *Client) TotalGamma(ctx context.Context) (int, error) {
	var page struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "submission/", url.Values{
		"page_size":            {"1"},
		"completed_by__isnull": {"false"},
	}, &page); err != nil {
		return 0, err
	}
	return page.Count, nil
}

func (c *Client) SearchTranscriptions(ctx context.Context, q TranscriptionQuery) (*Page[Transcription], error) {
	query := url.Values{
		"text__icontains": {q.Text},
		"url__isnull":     {"false"},
		"ordering":        {"-create_time"},
		"page_size":       {strconv.Itoa(q.PageSize)},
		"page":            {strconv.Itoa(q.Page)},
	}
	if q.AuthorID != nil {
		query.Set("author", strconv.Itoa(*q.AuthorID))
	}

	var page Page[Transcription]
	if err := c.get(ctx, "transcription/", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Heatmap(ctx context.Context, q HeatmapQuery) ([]HeatmapEntry, error) {
	query := url.Values{
		"utc_offset": {strconv.Itoa(q.UTCOffset)},
	}
	if q.CompletedBy != nil {
		query.Set("completed_by", strconv.Itoa(*q.CompletedBy))
	}
	if q.After != nil {
		query.Set("complete_time__gte", q.After.Format(time.RFC3339))
	}
	if q.Before != nil {
		query.Set("complete_time__lte", q.Before.Format(time.RFC3339))
	}

	var entries []HeatmapEntry
	if err := c.get(ctx, "submission/heatmap/", query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func newError(rs *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(rs.Body, 1024))
	return &Error{
		StatusCode: rs.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
