// Package sisu is the client for the curriculum catalog service.
package sisu

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sisu-catalog/internal/cache"
	"sisu-catalog/internal/httpx"
)

const acceptJSON = "application/json"

type Config struct {
	BaseURL            string
	UniversityID       string
	CurriculumPeriodID string
	SearchLimit        int
	Timeout            time.Duration
	RetryAttempts      int
}

// Client performs catalog queries. Get reads through the response cache,
// so a URL reaches the network at most once per process.
type Client struct {
	cfg    Config
	HTTP   *http.Client
	cache  *cache.Responses
	logger *slog.Logger
	retry  httpx.RetryConfig
}

func New(cfg Config, responses *cache.Responses, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 1000
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if responses == nil {
		responses = cache.New()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		cfg: cfg,
		HTTP: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: tr,
		},
		cache:  responses,
		logger: logger,
		retry:  httpx.AttemptsConfig(cfg.RetryAttempts),
	}
}

/* -------- URLs -------- */

func (c *Client) ProgrammeSearchURL() string {
	q := url.Values{}
	q.Set("curriculumPeriodId", c.cfg.CurriculumPeriodID)
	q.Set("universityId", c.cfg.UniversityID)
	q.Set("moduleType", "DegreeProgramme")
	q.Set("limit", strconv.Itoa(c.cfg.SearchLimit))
	return c.cfg.BaseURL + "/module-search?" + q.Encode()
}

func (c *Client) ModulesByGroupIDURL(groupIDs []string) string {
	return c.byGroupIDURL("/modules/by-group-id", groupIDs)
}

func (c *Client) CourseUnitsByGroupIDURL(groupIDs []string) string {
	return c.byGroupIDURL("/course-units/by-group-id", groupIDs)
}

// byGroupIDURL escapes each id on its own; the separating commas stay
// literal because the service splits on them.
func (c *Client) byGroupIDURL(path string, groupIDs []string) string {
	escaped := make([]string, len(groupIDs))
	for i, id := range groupIDs {
		escaped[i] = url.QueryEscape(id)
	}
	return fmt.Sprintf("%s%s?groupId=%s&universityId=%s",
		c.cfg.BaseURL, path, strings.Join(escaped, ","), url.QueryEscape(c.cfg.UniversityID))
}

/* -------- API -------- */

// Fetch performs one request for urlStr and decodes the JSON body. It
// bypasses the cache.
func (c *Client) Fetch(ctx context.Context, urlStr string) (any, error) {
	var out any
	err := httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
			if err != nil {
				return nil, err
			}
			r.Header.Set("Accept", acceptJSON)
			r.Header.Set("Accept-Encoding", "br, gzip")
			return r, nil
		},
		&out,
		c.retry,
	)
	if err != nil {
		return nil, fmt.Errorf("sisu: fetch %s: %w", urlStr, err)
	}
	return out, nil
}

// Get returns the cached or freshly fetched response for urlStr, or nil
// when the request fails. Failures are logged and not cached.
func (c *Client) Get(ctx context.Context, urlStr string) any {
	v, err := c.cache.GetOrFetch(ctx, urlStr, func(ctx context.Context) (any, error) {
		c.logger.Debug("catalog request", "url", urlStr)
		return c.Fetch(ctx, urlStr)
	})
	if err != nil {
		c.logger.Warn("catalog fetch failed", "url", urlStr, "error", err)
		return nil
	}
	return v
}

func (c *Client) SearchProgrammes(ctx context.Context) any {
	return c.Get(ctx, c.ProgrammeSearchURL())
}

func (c *Client) ModulesByGroupID(ctx context.Context, groupIDs []string) any {
	return c.Get(ctx, c.ModulesByGroupIDURL(groupIDs))
}

func (c *Client) CourseUnitsByGroupID(ctx context.Context, groupIDs []string) any {
	return c.Get(ctx, c.CourseUnitsByGroupIDURL(groupIDs))
}
