package models

import "time"

// Page represents a single fetched page of the crawl
type Page struct {
	URL         string    `json:"url" csv:"url"`
	Title       string    `json:"title" csv:"title"`
	Description string    `json:"description" csv:"description"`
	Excerpt     string    `json:"excerpt" csv:"-"`
	Links       []string  `json:"links" csv:"-"`
	Emails      []string  `json:"emails" csv:"-"`
	StatusCode  int       `json:"status_code" csv:"status_code"`
	FetchedAt   time.Time `json:"fetched_at" csv:"fetched_at"`
	Err         string    `json:"error,omitempty" csv:"error"`
}

// Failed reports whether the page could not be fetched
func (p *Page) Failed() bool {
	return p.Err != ""
}

// CrawlResult contains the results of a crawl operation
type CrawlResult struct {
	Seed       string    `json:"seed"`
	Pages      []Page    `json:"pages"`
	Emails     []string  `json:"emails"`
	Visited    []string  `json:"visited"`
	ErrorCount int       `json:"error_count"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// FetchedPages returns the number of pages that were fetched successfully
func (r *CrawlResult) FetchedPages() int {
	n := 0
	for i := range r.Pages {
		if !r.Pages[i].Failed() {
			n++
		}
	}
	return n
}

// CrawlSummary aggregates a crawl for reports
type CrawlSummary struct {
	Seed          string        `json:"seed"`
	PagesVisited  int           `json:"pages_visited"`
	PagesFailed   int           `json:"pages_failed"`
	EmailsFound   int           `json:"emails_found"`
	OnSiteEmails  int           `json:"on_site_emails"`
	EmailDomains  []DomainCount `json:"email_domains"`
	CrawlDuration time.Duration `json:"crawl_duration"`
}

// DomainCount is the number of harvested addresses on one mail domain
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}
