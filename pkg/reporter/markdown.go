package reporter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/amosWeiskopf/harvester/internal/models"
	"github.com/amosWeiskopf/harvester/pkg/utils"
)

// crawlMarkdown creates a Markdown formatted crawl report
func (r *Reporter) crawlMarkdown(result *models.CrawlResult, summary *models.CrawlSummary) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(fmt.Sprintf("Email harvest for %s", result.Seed))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages visited", strconv.Itoa(summary.PagesVisited)},
			{"Pages failed", strconv.Itoa(summary.PagesFailed)},
			{"Emails found", strconv.Itoa(summary.EmailsFound)},
			{"On-site emails", strconv.Itoa(summary.OnSiteEmails)},
			{"Duration", summary.CrawlDuration.String()},
		},
	})
	md.PlainText("")

	md.H2("All emails")
	md.PlainText("")
	if len(result.Emails) == 0 {
		md.PlainText("No email addresses found.")
	} else {
		md.BulletList(result.Emails...)
	}
	md.PlainText("")

	if len(summary.EmailDomains) > 0 {
		rows := make([][]string, 0, len(summary.EmailDomains))
		for _, d := range summary.EmailDomains {
			rows = append(rows, []string{d.Domain, strconv.Itoa(d.Count)})
		}
		md.H2("Mail domains")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Domain", "Addresses"}, Rows: rows})
		md.PlainText("")
	}

	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, 0, len(result.Pages))
	for _, p := range result.Pages {
		status := strconv.Itoa(p.StatusCode)
		if p.Failed() {
			status = utils.SanitizeField(p.Err)
		}
		rows = append(rows, []string{
			p.URL,
			utils.SanitizeField(p.Title),
			status,
			strconv.Itoa(len(p.Links)),
			strconv.Itoa(len(p.Emails)),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"URL", "Title", "Status", "Links", "Emails"}, Rows: rows})

	if err := md.Build(); err != nil {
		return "", fmt.Errorf("failed to build markdown: %w", err)
	}
	return buf.String(), nil
}

// tallyMarkdown creates a Markdown formatted tally report
func (r *Reporter) tallyMarkdown(report *models.TallyReport) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(fmt.Sprintf("Subnet tally for %s", report.Source))
	md.PlainText("")
	md.PlainTextf("%d lines read, %d addresses, grouped by %s.", report.LinesRead, report.AddressesSeen, report.GroupBy)
	md.PlainText("")

	for _, g := range report.Groups {
		md.H2(fmt.Sprintf("Subnet %s", g.Key))
		md.PlainText("")
		rows := make([][]string, 0, len(g.Entries))
		for _, e := range g.Entries {
			rows = append(rows, []string{e.IP, strconv.Itoa(e.Count)})
		}
		md.Table(markdown.TableSet{Header: []string{"IP", "Count"}, Rows: rows})
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return "", fmt.Errorf("failed to build markdown: %w", err)
	}
	return buf.String(), nil
}
