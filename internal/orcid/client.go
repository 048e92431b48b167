// Package orcid reads works from the ORCID v3.0 public API.
package orcid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/matsen/works/internal/work"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the ORCID public API base URL.
	BaseURL = "https://pub.orcid.org/v3.0"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit and Burst follow the public API's documented quota.
	RateLimit = 24.0
	Burst     = 40

	// MaxBulkPutCodes is the most put-codes one bulk request may carry.
	MaxBulkPutCodes = 100

	mediaType = "application/vnd.orcid+json"
)

// Client is a rate-limited HTTP client for the ORCID public API.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	logger     zerolog.Logger
	requests   atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing or the sandbox).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit replaces the default request rate.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new ORCID API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), Burst),
		baseURL:    BaseURL,
		logger:     zerolog.Nop(),
	}

	if token := os.Getenv("ORCID_TOKEN"); token != "" {
		c.token = token
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Requests returns the number of HTTP requests the client has sent.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

var orcidPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

// ValidateID checks the format and ISO 7064 11,2 check digit of an ORCID iD.
func ValidateID(id string) error {
	if !orcidPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	digits := strings.ReplaceAll(id, "-", "")
	total := 0
	for _, r := range digits[:15] {
		total = (total + int(r-'0')) * 2
	}
	check := (12 - total%11) % 11
	want := byte('0' + check)
	if check == 10 {
		want = 'X'
	}
	if digits[15] != want {
		return fmt.Errorf("%w: bad check digit in %q", ErrInvalidID, id)
	}
	return nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var body bulkError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(data, &body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body.DeveloperMessage)
	}
	msg := body.DeveloperMessage
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &APIError{
		StatusCode:       resp.StatusCode,
		ErrorCode:        body.ErrorCode,
		DeveloperMessage: msg,
	}
}

// get performs a rate-limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", mediaType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.requests.Add(1)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("orcid request")

	if err := checkHTTPErrors(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// FetchByOwner returns every work summary on an ORCID record, flattened
// from ORCID's own grouping in response order. Summaries carry no
// contributors or description.
func (c *Client) FetchByOwner(ctx context.Context, ownerID string) ([]work.Work, error) {
	if err := ValidateID(ownerID); err != nil {
		return nil, err
	}

	var resp worksResponse
	if err := c.get(ctx, "/"+ownerID+"/works", &resp); err != nil {
		return nil, fmt.Errorf("fetching works for %s: %w", ownerID, err)
	}

	var works []work.Work
	for _, g := range resp.Group {
		for i := range g.WorkSummary {
			works = append(works, g.WorkSummary[i].toWork(ownerID))
		}
	}
	return works, nil
}

// FetchByID returns one full work. A missing work yields an error that
// matches both ErrNotFound and work.ErrNotFound.
func (c *Client) FetchByID(ctx context.Context, ownerID string, workID int64) (*work.Work, error) {
	if err := ValidateID(ownerID); err != nil {
		return nil, err
	}

	var fw fullWork
	err := c.get(ctx, "/"+ownerID+"/work/"+strconv.FormatInt(workID, 10), &fw)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("work %s/%d: %w: %w", ownerID, workID, work.ErrNotFound, err)
		}
		return nil, fmt.Errorf("fetching work %s/%d: %w", ownerID, workID, err)
	}

	w := fw.toWork(ownerID)
	return &w, nil
}

// FetchByIDs returns the full works among ids that exist, using the bulk
// endpoint in chunks of MaxBulkPutCodes. Per-item errors in a bulk
// response are skipped, so missing works are simply absent.
func (c *Client) FetchByIDs(ctx context.Context, ownerID string, ids []int64) ([]work.Work, error) {
	if err := ValidateID(ownerID); err != nil {
		return nil, err
	}

	var works []work.Work
	for start := 0; start < len(ids); start += MaxBulkPutCodes {
		end := min(start+MaxBulkPutCodes, len(ids))
		codes := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			codes = append(codes, strconv.FormatInt(id, 10))
		}

		var resp bulkResponse
		if err := c.get(ctx, "/"+ownerID+"/works/"+strings.Join(codes, ","), &resp); err != nil {
			return nil, fmt.Errorf("fetching works for %s: %w", ownerID, err)
		}

		for _, item := range resp.Bulk {
			if item.Work == nil {
				if item.Error != nil {
					c.logger.Debug().
						Int("code", item.Error.ErrorCode).
						Str("message", item.Error.DeveloperMessage).
						Msg("bulk item error")
				}
				continue
			}
			works = append(works, item.Work.toWork(ownerID))
		}
	}
	return works, nil
}
