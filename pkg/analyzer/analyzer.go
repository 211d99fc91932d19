package analyzer

import (
	"net/url"
	"sort"

	"github.com/amosWeiskopf/harvester/internal/models"
	"github.com/amosWeiskopf/harvester/pkg/extractor"
	"github.com/amosWeiskopf/harvester/pkg/utils"
)

// Analyzer turns a crawl result into the summary shown in reports
type Analyzer struct {
	// TopDomains caps the number of mail domains listed; zero lists all
	TopDomains int
}

// New creates a new Analyzer instance
func New() *Analyzer {
	return &Analyzer{}
}

// Summarize aggregates page and email statistics for a crawl
func (a *Analyzer) Summarize(result *models.CrawlResult) *models.CrawlSummary {
	summary := &models.CrawlSummary{
		Seed:         result.Seed,
		PagesVisited: len(result.Pages),
		PagesFailed:  result.ErrorCount,
		EmailsFound:  len(result.Emails),
		EmailDomains: []models.DomainCount{},
	}
	if !result.FinishedAt.IsZero() {
		summary.CrawlDuration = result.FinishedAt.Sub(result.StartedAt)
	}

	var seedHost string
	if u, err := url.Parse(result.Seed); err == nil {
		seedHost = u.Hostname()
	}

	counts := make(map[string]int)
	for _, email := range result.Emails {
		domain := utils.EmailDomain(email)
		if domain == "" {
			continue
		}
		counts[domain]++
		if seedHost != "" && extractor.SameSite(domain, seedHost) {
			summary.OnSiteEmails++
		}
	}

	summary.EmailDomains = a.rankDomains(counts)
	return summary
}

// rankDomains orders domains by count, then by name
func (a *Analyzer) rankDomains(counts map[string]int) []models.DomainCount {
	ranked := make([]models.DomainCount, 0, len(counts))
	for domain, n := range counts {
		ranked = append(ranked, models.DomainCount{Domain: domain, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count == ranked[j].Count {
			return ranked[i].Domain < ranked[j].Domain
		}
		return ranked[i].Count > ranked[j].Count
	})
	if a.TopDomains > 0 && len(ranked) > a.TopDomains {
		ranked = ranked[:a.TopDomains]
	}
	return ranked
}
