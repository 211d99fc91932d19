package crawler

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amosWeiskopf/harvester/internal/models"
)

// PageHandler is called once per fetched page, in fetch order, before the
// crawl moves on to the next page
type PageHandler func(page *models.Page)

// Option configures a Crawler
type Option func(*Crawler)

// WithMaxVisits sets the visit cap: the maximum number of pages fetched in one crawl
func WithMaxVisits(n int) Option {
	return func(c *Crawler) {
		c.maxVisits = n
	}
}

// WithRateLimit sets the requests per second limit. Zero or less disables it.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Crawler) {
		c.requestsPerSec = requestsPerSecond
	}
}

// WithUserAgent sets the user agent string
func WithUserAgent(userAgent string) Option {
	return func(c *Crawler) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		c.timeout = d
	}
}

// WithMaxBodySize caps how much of each response body is read
func WithMaxBodySize(size int64) Option {
	return func(c *Crawler) {
		c.maxBodySize = size
	}
}

// WithRobots enables robots.txt checks
func WithRobots(enabled bool) Option {
	return func(c *Crawler) {
		c.followRobots = enabled
	}
}

// WithPageHandler registers a callback for every fetched page
func WithPageHandler(h PageHandler) Option {
	return func(c *Crawler) {
		c.onPage = h
	}
}

// WithLogger sets the logger used for crawl diagnostics
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithClient replaces the HTTP client. The timeout option is ignored when set.
func WithClient(client *http.Client) Option {
	return func(c *Crawler) {
		c.client = client
	}
}
