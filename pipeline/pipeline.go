// Package pipeline orchestrates fetch, validation, statistics, and export.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
	"github.com/aluiziolira/go-scrape-products/stats"
)

// OutputWriter defines the interface for data output sinks.
// Close promotes the output into place; Abort discards it.
type OutputWriter interface {
	Write(products []*models.Product) error
	Close() error
	Abort() error
	Validate() error
}

// Fetcher obtains the raw record list, returning the number of attempts made.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.RawRecord, int, error)
}

// ProgressFunc reports per-record progress: (processed, total).
type ProgressFunc func(processed, total int)

// Pipeline wires the fetcher, validator, statistics, and output sink together.
// Runs are synchronous: one fetch, one ordered pass over the records, one write.
type Pipeline struct {
	cfg      *config.Config
	fetcher  Fetcher
	writer   OutputWriter
	stats    *stats.Collector
	progress ProgressFunc
	seen     *lru.Cache[string, struct{}]
}

// NewPipeline builds a pipeline around an already-constructed sink.
func NewPipeline(cfg *config.Config, fetcher Fetcher, writer OutputWriter) (*Pipeline, error) {
	p := &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		stats:   stats.NewCollector(),
	}
	if cfg.DedupeMaxSize > 0 {
		cache, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
		if err != nil {
			return nil, fmt.Errorf("create dedupe cache: %w", err)
		}
		p.seen = cache
	}
	return p, nil
}

// SetProgress installs a callback invoked once per processed record.
func (p *Pipeline) SetProgress(fn ProgressFunc) {
	p.progress = fn
}

// Run executes one fetch-validate-export cycle. A fetch failure or an export
// failure terminates the run; per-record rejections are counted and logged
// but never abort it. Accepted rows keep the API response order and are
// handed to the sink in a single Write.
func (p *Pipeline) Run(ctx context.Context) (*models.RunReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	report := &models.RunReport{
		StartTime:          time.Now(),
		RejectionsByReason: make(map[string]int),
		OutputFile:         p.cfg.OutputFile,
	}

	records, attempts, err := p.fetcher.Fetch(ctx)
	report.FetchAttempts = attempts
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	report.TotalFetched = len(records)

	accepted := make([]*models.Product, 0, len(records))
	for i, raw := range records {
		product, err := parser.ValidateProduct(raw)
		switch {
		case err != nil:
			reason := parser.ReasonLabel(err)
			report.RejectedCount++
			report.RejectionsByReason[reason]++
			slog.Warn("record rejected",
				slog.Int("index", i),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
		case p.isDuplicate(raw, product):
			report.DuplicateCount++
			slog.Debug("duplicate record skipped",
				slog.Int("index", i),
				slog.String("title", product.Title),
			)
		default:
			accepted = append(accepted, product)
			p.stats.Observe(product)
		}

		if p.progress != nil {
			p.progress(i+1, len(records))
		}
	}
	report.AcceptedCount = len(accepted)

	if err := p.writer.Write(accepted); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	report.Statistics = p.stats.Finalize()
	report.EndTime = time.Now()
	slog.Info("run complete",
		slog.Int("fetched", report.TotalFetched),
		slog.Int("accepted", report.AcceptedCount),
		slog.Int("rejected", report.RejectedCount),
		slog.Int("duplicates", report.DuplicateCount),
	)
	return report, nil
}

func (p *Pipeline) isDuplicate(raw models.RawRecord, product *models.Product) bool {
	if p.seen == nil {
		return false
	}
	key := dedupeKey(raw, product)
	if _, ok := p.seen.Get(key); ok {
		return true
	}
	p.seen.Add(key, struct{}{})
	return false
}

// dedupeKey prefers the source record id; title is the fallback for sources
// that do not carry one.
func dedupeKey(raw models.RawRecord, product *models.Product) string {
	switch id := raw["id"].(type) {
	case float64:
		return "id:" + strconv.FormatFloat(id, 'f', -1, 64)
	case string:
		if s := strings.TrimSpace(id); s != "" {
			return "id:" + s
		}
	}
	return "title:" + product.Title
}
