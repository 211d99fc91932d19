package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amosWeiskopf/harvester/internal/models"
)

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	result := &models.CrawlResult{
		Seed: "http://mosigra.ru/",
		Pages: []models.Page{
			{URL: "http://mosigra.ru/"},
			{URL: "http://mosigra.ru/broken", Err: "boom"},
			{URL: "http://mosigra.ru/contacts"},
		},
		Emails: []string{
			"shop@mosigra.ru",
			"opt@Mosigra.ru",
			"hr@spb.mosigra.ru",
			"someone@gmail.com",
			"other@gmail.com",
			"x@yandex.ru",
		},
		ErrorCount: 1,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}

	summary := New().Summarize(result)

	assert.Equal(t, 3, summary.PagesVisited)
	assert.Equal(t, 1, summary.PagesFailed)
	assert.Equal(t, 6, summary.EmailsFound)
	assert.Equal(t, 3, summary.OnSiteEmails)
	assert.Equal(t, 3*time.Second, summary.CrawlDuration)
	assert.Equal(t, []models.DomainCount{
		{Domain: "gmail.com", Count: 2},
		{Domain: "mosigra.ru", Count: 2},
		{Domain: "spb.mosigra.ru", Count: 1},
		{Domain: "yandex.ru", Count: 1},
	}, summary.EmailDomains)
}

func TestSummarizeTopDomains(t *testing.T) {
	a := &Analyzer{TopDomains: 1}
	summary := a.Summarize(&models.CrawlResult{Emails: []string{"a@x.com", "b@x.com", "c@y.com"}})
	assert.Equal(t, []models.DomainCount{{Domain: "x.com", Count: 2}}, summary.EmailDomains)
	assert.Zero(t, summary.OnSiteEmails)
}

func TestSummarizeEmptyCrawl(t *testing.T) {
	summary := New().Summarize(&models.CrawlResult{Seed: "http://example.com/"})
	assert.Zero(t, summary.EmailsFound)
	assert.Empty(t, summary.EmailDomains)
	assert.Zero(t, summary.CrawlDuration)
}
