// Package storage persists crawl and tally results beyond the process
// lifetime. Persistence is opt-in; the default sink discards everything.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/amosWeiskopf/harvester/internal/config"
	"github.com/amosWeiskopf/harvester/internal/models"
)

// ErrUnknownStorage is returned for an unsupported storage type
var ErrUnknownStorage = errors.New("unknown storage type")

// Sink receives finished results
type Sink interface {
	SaveCrawl(ctx context.Context, result *models.CrawlResult, summary *models.CrawlSummary) error
	SaveTally(ctx context.Context, report *models.TallyReport) error
	Close() error
}

// Open returns the sink selected by cfg.Type
func Open(cfg config.StorageConfig) (Sink, error) {
	switch cfg.Type {
	case "", "none":
		return nopSink{}, nil
	case "file":
		return NewFileSink(cfg.Path, cfg.Format)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStorage, cfg.Type)
	}
}

type nopSink struct{}

func (nopSink) SaveCrawl(context.Context, *models.CrawlResult, *models.CrawlSummary) error {
	return nil
}

func (nopSink) SaveTally(context.Context, *models.TallyReport) error { return nil }

func (nopSink) Close() error { return nil }
