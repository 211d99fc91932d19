package crawler

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/amosWeiskopf/harvester/internal/logging"
	"github.com/amosWeiskopf/harvester/internal/models"
	"github.com/amosWeiskopf/harvester/pkg/extractor"
	"github.com/amosWeiskopf/harvester/pkg/utils"
)

const excerptLength = 280

// ErrUnexpectedStatus is returned by FetchPage for non-2xx responses
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Crawler walks a single site breadth-first from a seed URL, collecting the
// email addresses it finds on the way. It fetches one page at a time.
type Crawler struct {
	mainHost       string
	seed           string
	client         *http.Client
	extractor      *extractor.Extractor
	logger         logrus.FieldLogger
	onPage         PageHandler
	maxVisits      int
	requestsPerSec float64
	userAgent      string
	timeout        time.Duration
	maxBodySize    int64
	followRobots   bool
}

// session holds the mutable state of one crawl run
type session struct {
	frontier *list.List
	visited  map[string]bool
	emails   map[string]bool
	limiter  *rate.Limiter
	robots   *robotstxt.RobotsData
	fetched  int
	result   *models.CrawlResult
}

// New creates a crawler for the site the seed URL belongs to
func New(seedURL string, opts ...Option) (*Crawler, error) {
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", seedURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", seedURL)
	}

	mainHost := u.Scheme + "://" + u.Host
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	c := &Crawler{
		mainHost:       mainHost,
		seed:           extractor.Resolve(mainHost, path),
		extractor:      extractor.New(),
		logger:         logging.Discard(),
		maxVisits:      11,
		requestsPerSec: 0,
		userAgent:      "Harvester/1.0",
		timeout:        30 * time.Second,
		maxBodySize:    10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.maxVisits <= 0 {
		return nil, fmt.Errorf("visit cap must be positive, got %d", c.maxVisits)
	}
	if c.client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.client = &http.Client{Timeout: c.timeout, Jar: jar}
	}
	return c, nil
}

// MainHost returns the scheme and host every root-relative link is resolved against
func (c *Crawler) MainHost() string {
	return c.mainHost
}

// Seed returns the normalized seed URL
func (c *Crawler) Seed() string {
	return c.seed
}

// Crawl fetches pages from the seed outwards until the visit cap is reached,
// the frontier is empty, or ctx is cancelled. A page that fails to fetch is
// recorded and skipped. On cancellation the partial result is returned along
// with the context error.
func (c *Crawler) Crawl(ctx context.Context) (*models.CrawlResult, error) {
	s := c.newSession()
	s.enqueue(c.seed)

	if c.followRobots {
		s.robots = c.loadRobots(ctx)
	}

	for s.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			s.result.FinishedAt = time.Now()
			return s.result, err
		}
		if s.fetched >= c.maxVisits {
			c.logger.WithField("max_visits", c.maxVisits).
				WithField("frontier", s.frontier.Len()).
				Info("Visit cap reached")
			break
		}

		elem := s.frontier.Front()
		s.frontier.Remove(elem)
		pageURL := elem.Value.(string)

		if !c.isAllowedByRobots(s.robots, pageURL) {
			c.logger.WithField("url", pageURL).Info("Skipped (disallowed by robots.txt)")
			continue
		}

		page, sameSite := c.visit(ctx, s, pageURL)
		s.fetched++
		if page.Failed() {
			s.result.ErrorCount++
		}
		s.result.Pages = append(s.result.Pages, *page)
		s.addEmails(page.Emails)

		if c.onPage != nil {
			c.onPage(page)
		}

		for _, link := range sameSite {
			if !extractor.IsRootRelative(link) {
				continue
			}
			absLink := extractor.Resolve(c.mainHost, link)
			if s.enqueue(absLink) {
				c.logger.WithField("url", absLink).Debug("Queued link")
			}
		}
	}

	s.result.FinishedAt = time.Now()
	c.logger.WithFields(logrus.Fields{
		"pages":  len(s.result.Pages),
		"errors": s.result.ErrorCount,
		"emails": len(s.result.Emails),
	}).Info("Crawl finished")
	return s.result, nil
}

func (c *Crawler) newSession() *session {
	limit := rate.Inf
	if c.requestsPerSec > 0 {
		limit = rate.Limit(c.requestsPerSec)
	}
	return &session{
		frontier: list.New(),
		visited:  make(map[string]bool),
		emails:   make(map[string]bool),
		limiter:  rate.NewLimiter(limit, 1),
		result: &models.CrawlResult{
			Seed:      c.seed,
			Pages:     []models.Page{},
			Emails:    []string{},
			Visited:   []string{},
			StartedAt: time.Now(),
		},
	}
}

// enqueue adds pageURL to the frontier unless it was seen before
func (s *session) enqueue(pageURL string) bool {
	if s.visited[pageURL] {
		return false
	}
	s.visited[pageURL] = true
	s.result.Visited = append(s.result.Visited, pageURL)
	s.frontier.PushBack(pageURL)
	return true
}

func (s *session) addEmails(emails []string) {
	for _, email := range emails {
		if !s.emails[email] {
			s.emails[email] = true
			s.result.Emails = append(s.result.Emails, email)
		}
	}
}

// visit fetches and extracts a single page. It returns the page record and
// the same-site links found on it.
func (c *Crawler) visit(ctx context.Context, s *session, pageURL string) (*models.Page, []string) {
	page := &models.Page{
		URL:       pageURL,
		Links:     []string{},
		Emails:    []string{},
		FetchedAt: time.Now(),
	}
	log := c.logger.WithField("url", pageURL)

	if err := s.limiter.Wait(ctx); err != nil {
		page.Err = err.Error()
		log.WithError(err).Warn("Rate limiter error")
		return page, nil
	}

	body, status, err := c.FetchPage(ctx, pageURL)
	page.StatusCode = status
	if err != nil {
		page.Err = err.Error()
		log.WithError(err).Warn("Fetch failed, skipping page")
		return page, nil
	}

	links := c.extractor.ExtractLinks(body)
	page.Links = extractor.FilterLinks(links)
	page.Emails = c.extractor.ExtractEmails(body)

	if title, desc, err := c.extractor.ExtractMetadata(body); err == nil {
		page.Title = title
		page.Description = desc
	}
	page.Excerpt = utils.TruncateText(utils.CleanText(c.extractor.ExtractText(body)), excerptLength)

	log.WithFields(logrus.Fields{
		"status": status,
		"links":  len(page.Links),
		"emails": len(page.Emails),
	}).Debug("Crawled page")

	return page, extractor.SameSiteLinks(page.Links, c.mainHost)
}

// FetchPage performs a blocking GET of pageURL and returns its body
func (c *Crawler) FetchPage(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("request error: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("body read error: %w", err)
	}
	return string(body), resp.StatusCode, nil
}

func (c *Crawler) loadRobots(ctx context.Context) *robotstxt.RobotsData {
	robotsURL := c.mainHost + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("robots.txt unavailable, allowing all")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		c.logger.WithError(err).Debug("robots.txt unparsable, allowing all")
		return nil
	}
	return robots
}

func (c *Crawler) isAllowedByRobots(robots *robotstxt.RobotsData, pageURL string) bool {
	if robots == nil {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, c.userAgent)
}
