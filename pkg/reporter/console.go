package reporter

import (
	"fmt"
	"io"

	"github.com/rodaine/table"

	"github.com/amosWeiskopf/harvester/internal/models"
)

// Console prints crawl and tally results as plain text as they arrive
type Console struct {
	w      io.Writer
	hidden map[string]bool
}

// NewConsole creates a Console writing to w. Links equal to any of the
// hidden URLs (typically the seed and its host) are left out of page listings.
func NewConsole(w io.Writer, hidden ...string) *Console {
	h := make(map[string]bool, len(hidden))
	for _, u := range hidden {
		h[u] = true
	}
	return &Console{w: w, hidden: h}
}

// WritePage prints one crawled page: its link list and its emails
func (c *Console) WritePage(page *models.Page) {
	fmt.Fprintln(c.w, "Now on page:", page.URL)
	if page.Failed() {
		fmt.Fprintln(c.w, "Could not fetch this page:", page.Err)
		fmt.Fprintln(c.w)
		return
	}

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, "All links on this page")
	for _, link := range page.Links {
		if !c.hidden[link] {
			fmt.Fprintln(c.w, link)
		}
	}
	fmt.Fprintln(c.w)

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, "All emails on this page")
	for _, email := range page.Emails {
		fmt.Fprintln(c.w, email)
	}
	fmt.Fprintln(c.w)
}

// WriteEmails prints the final, deduplicated email list of a crawl
func (c *Console) WriteEmails(emails []string) {
	fmt.Fprintln(c.w, "All emails")
	for _, email := range emails {
		fmt.Fprintln(c.w, email)
	}
}

// WriteTally prints a tally report. layout is "text" or "table".
func (c *Console) WriteTally(report *models.TallyReport, layout string) error {
	switch layout {
	case "", "text":
		for _, g := range report.Groups {
			fmt.Fprintf(c.w, "%s subnetwork has the following ip addresses\n", g.Key)
			for _, e := range g.Entries {
				fmt.Fprintf(c.w, "%s = %d\n", e.IP, e.Count)
			}
			fmt.Fprintln(c.w)
		}
		return nil
	case "table":
		tbl := table.New("Subnet", "IP", "Count").WithWriter(c.w)
		for _, g := range report.Groups {
			for i, e := range g.Entries {
				if i == 0 {
					tbl.AddRow(g.Key, e.IP, e.Count)
				} else {
					tbl.AddRow("", e.IP, e.Count)
				}
			}
		}
		tbl.Print()
		return nil
	default:
		return fmt.Errorf("%w: layout %s", ErrUnsupportedFormat, layout)
	}
}
