package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/harvester/internal/config"
	"github.com/amosWeiskopf/harvester/internal/models"
)

func sampleCrawl() *models.CrawlResult {
	return &models.CrawlResult{
		Seed: "http://mosigra.ru/",
		Pages: []models.Page{
			{URL: "http://mosigra.ru/", Title: "Home", StatusCode: 200, Emails: []string{"shop@mosigra.ru"}},
			{URL: "http://mosigra.ru/contacts", StatusCode: 200, Emails: []string{"opt@mosigra.ru", "shop@mosigra.ru"}},
		},
		Emails: []string{"shop@mosigra.ru", "opt@mosigra.ru"},
	}
}

func sampleTally() *models.TallyReport {
	return &models.TallyReport{
		Source:  "access.log",
		GroupBy: "octet",
		Groups: []models.SubnetGroup{
			{Key: "5", Entries: []models.IPCount{{IP: "10.0.0.5", Count: 3}}},
			{Key: "6", Entries: []models.IPCount{{IP: "10.0.0.6", Count: 1}}},
		},
	}
}

func TestOpen(t *testing.T) {
	sink, err := Open(config.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.NoError(t, sink.SaveCrawl(context.Background(), sampleCrawl(), nil))
	assert.NoError(t, sink.Close())

	_, err = Open(config.StorageConfig{Type: "s3"})
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := Open(config.StorageConfig{Type: "file", Path: dir, Format: "csv"})
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.SaveCrawl(context.Background(), sampleCrawl(), &models.CrawlSummary{}))
	require.NoError(t, sink.SaveTally(context.Background(), sampleTally()))

	crawl, err := os.ReadFile(filepath.Join(dir, "crawl.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(crawl), "opt@mosigra.ru,http://mosigra.ru/contacts")

	tally, err := os.ReadFile(filepath.Join(dir, "tally.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(tally), "5,10.0.0.5,3")
}

func TestSQLiteSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := OpenSQLite(dir)
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.SaveCrawl(ctx, sampleCrawl(), nil))
	require.NoError(t, sink.SaveTally(ctx, sampleTally()))

	emails, err := sink.CrawlEmails(ctx, "http://mosigra.ru/")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop@mosigra.ru", "opt@mosigra.ru"}, emails)

	counts, err := sink.TallyCounts(ctx, "access.log")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"10.0.0.5": 3, "10.0.0.6": 1}, counts)

	assert.Equal(t, filepath.Join(dir, "harvester.db"), sink.Path())
	assert.FileExists(t, sink.Path())
}

func TestSQLiteSinkKeepsRunsApart(t *testing.T) {
	sink, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.SaveCrawl(ctx, sampleCrawl(), nil))

	second := sampleCrawl()
	second.Emails = []string{"new@mosigra.ru"}
	second.Pages[0].Emails = []string{"new@mosigra.ru"}
	require.NoError(t, sink.SaveCrawl(ctx, second, nil))

	emails, err := sink.CrawlEmails(ctx, "http://mosigra.ru/")
	require.NoError(t, err)
	assert.Equal(t, []string{"new@mosigra.ru"}, emails)
}
