package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amosWeiskopf/harvester/internal/models"
	"github.com/amosWeiskopf/harvester/pkg/reporter"
)

// FileSink writes each result as a report file in a directory
type FileSink struct {
	dir      string
	format   string
	reporter *reporter.Reporter
}

// NewFileSink creates dir if needed and returns a sink writing format files into it
func NewFileSink(dir, format string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage path must be set for file storage")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir failed: %w", err)
	}
	return &FileSink{dir: dir, format: format, reporter: reporter.New()}, nil
}

// SaveCrawl writes the crawl report to <dir>/crawl.<ext>
func (s *FileSink) SaveCrawl(_ context.Context, result *models.CrawlResult, summary *models.CrawlSummary) error {
	out, err := s.reporter.GenerateCrawlReport(result, summary, s.format)
	if err != nil {
		return err
	}
	return s.write("crawl", out)
}

// SaveTally writes the tally report to <dir>/tally.<ext>
func (s *FileSink) SaveTally(_ context.Context, report *models.TallyReport) error {
	out, err := s.reporter.GenerateTallyReport(report, s.format)
	if err != nil {
		return err
	}
	return s.write("tally", out)
}

// Close is a no-op; every file is closed once written
func (s *FileSink) Close() error {
	return nil
}

func (s *FileSink) write(name, content string) error {
	path := filepath.Join(s.dir, name+"."+reporter.Extension(s.format))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
