package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/gocarina/gocsv"

	"github.com/amosWeiskopf/harvester/internal/models"
)

// ErrUnsupportedFormat is returned for an unknown report format
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats lists the export formats understood by the Reporter
var Formats = []string{"json", "csv", "markdown", "html"}

// Reporter handles report generation in various formats
type Reporter struct{}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{}
}

// crawlReport is the document exported for a crawl
type crawlReport struct {
	Summary *models.CrawlSummary `json:"summary"`
	Result  *models.CrawlResult  `json:"result"`
}

// EmailRow is the CSV form of one harvested address
type EmailRow struct {
	Email   string `csv:"email"`
	FoundOn string `csv:"found_on"`
}

// CheckFormat returns ErrUnsupportedFormat unless format is one of Formats
func CheckFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Extension returns the file extension used for format
func Extension(format string) string {
	if format == "markdown" {
		return "md"
	}
	return format
}

// GenerateCrawlReport renders a crawl in the specified format
func (r *Reporter) GenerateCrawlReport(result *models.CrawlResult, summary *models.CrawlSummary, format string) (string, error) {
	switch format {
	case "json":
		return r.generateJSON(crawlReport{Summary: summary, Result: result})
	case "csv":
		return r.generateCSV(emailRows(result))
	case "markdown":
		return r.crawlMarkdown(result, summary)
	case "html":
		return r.generateHTML(crawlTemplate, crawlReport{Summary: summary, Result: result})
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// GenerateTallyReport renders a tally in the specified format
func (r *Reporter) GenerateTallyReport(report *models.TallyReport, format string) (string, error) {
	switch format {
	case "json":
		return r.generateJSON(report)
	case "csv":
		return r.generateCSV(report.Rows())
	case "markdown":
		return r.tallyMarkdown(report)
	case "html":
		return r.generateHTML(tallyTemplate, report)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// emailRows pairs each address with the first page it was found on
func emailRows(result *models.CrawlResult) []EmailRow {
	firstSeen := make(map[string]string, len(result.Emails))
	for _, page := range result.Pages {
		for _, email := range page.Emails {
			if _, ok := firstSeen[email]; !ok {
				firstSeen[email] = page.URL
			}
		}
	}
	rows := make([]EmailRow, 0, len(result.Emails))
	for _, email := range result.Emails {
		rows = append(rows, EmailRow{Email: email, FoundOn: firstSeen[email]})
	}
	return rows
}

// generateJSON creates a JSON formatted report
func (r *Reporter) generateJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// generateCSV creates a CSV formatted report
func (r *Reporter) generateCSV(rows any) (string, error) {
	out, err := gocsv.MarshalString(rows)
	if err != nil {
		return "", fmt.Errorf("failed to marshal csv: %w", err)
	}
	return out, nil
}

// generateHTML renders one of the HTML templates
func (r *Reporter) generateHTML(tmpl string, data any) (string, error) {
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

const pageStyle = `
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 2rem;
            border-radius: 10px;
            margin-bottom: 2rem;
        }
        .card {
            background: white;
            border-radius: 10px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .failed {
            border-left: 4px solid #dc3545;
        }
        table {
            border-collapse: collapse;
        }
        td, th {
            padding: 0.25rem 0.75rem;
            text-align: left;
        }
    </style>`

const crawlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Email harvest - {{.Result.Seed}}</title>` + pageStyle + `
</head>
<body>
    <div class="header">
        <h1>Email harvest for {{.Result.Seed}}</h1>
        <p>{{.Summary.PagesVisited}} pages visited, {{.Summary.PagesFailed}} failed, {{.Summary.EmailsFound}} emails found</p>
    </div>

    <div class="card">
        <h2>All emails</h2>
        <ul>
            {{range .Result.Emails}}<li>{{.}}</li>
            {{end}}
        </ul>
    </div>

    {{if .Summary.EmailDomains}}
    <div class="card">
        <h2>Mail domains</h2>
        <table>
            <tr><th>Domain</th><th>Addresses</th></tr>
            {{range .Summary.EmailDomains}}<tr><td>{{.Domain}}</td><td>{{.Count}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}

    {{range .Result.Pages}}
    <div class="card{{if .Err}} failed{{end}}">
        <h3>{{.URL}}</h3>
        {{if .Err}}<p>{{.Err}}</p>{{else}}
        {{if .Title}}<p><strong>{{.Title}}</strong></p>{{end}}
        <p>{{len .Links}} links, {{len .Emails}} emails</p>
        {{if .Emails}}<ul>{{range .Emails}}<li>{{.}}</li>{{end}}</ul>{{end}}
        {{end}}
    </div>
    {{end}}
</body>
</html>
`

const tallyTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Subnet tally - {{.Source}}</title>` + pageStyle + `
</head>
<body>
    <div class="header">
        <h1>Subnet tally for {{.Source}}</h1>
        <p>{{.LinesRead}} lines read, {{.AddressesSeen}} addresses, grouped by {{.GroupBy}}</p>
    </div>
    {{range .Groups}}
    <div class="card">
        <h2>{{.Key}}</h2>
        <table>
            <tr><th>IP</th><th>Count</th></tr>
            {{range .Entries}}<tr><td>{{.IP}}</td><td>{{.Count}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}
</body>
</html>
`
