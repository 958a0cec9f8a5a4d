package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/fetcher"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/pipeline"
)

func main() {
	defaultCfg := config.DefaultConfig()
	urlDefault := defaultCfg.APIURL
	if value, ok := config.EnvString("SCRAPER_URL"); ok {
		urlDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	retriesDefault := defaultCfg.MaxRetries
	if value, ok, err := config.EnvInt("SCRAPER_RETRIES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_RETRIES: %v\n", err)
		os.Exit(1)
	} else if ok {
		retriesDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	apiURL := flag.String("url", urlDefault, "Product API endpoint")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Request timeout (seconds)")
	maxRetries := flag.Int("max-retries", retriesDefault, "Retry attempts after the first request")
	retryDelaySec := flag.Float64("retry-delay", defaultCfg.RetryDelay.Seconds(), "Base delay between retries (seconds)")
	noStats := flag.Bool("no-stats", false, "Disable statistics display")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := buildConfigFromFlags(*apiURL, *outputFile, *outputFormat, *timeoutSec, *maxRetries, *retryDelaySec, *noStats, *verbose, *metricsAddr)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting export",
		slog.String("url", cfg.APIURL),
		slog.String("output", cfg.OutputFile),
		slog.Duration("timeout", cfg.Timeout),
		slog.Int("max_retries", cfg.MaxRetries),
	)

	f := fetcher.New(cfg)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && f.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(f.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p, err := pipeline.NewPipeline(cfg, f, writer)
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	if isTerminal(os.Stderr) {
		p.SetProgress(renderProgress)
	}

	report, err := p.Run(ctx)
	if err != nil {
		if abortErr := writer.Abort(); abortErr != nil {
			slog.Error("discarding output", slog.Any("error", abortErr))
		}
		slog.Error("export failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Close(); err != nil {
		writer.Abort()
		slog.Error("finalising output", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(report, cfg)
}

func buildConfigFromFlags(apiURL, outputFile, outputFormat string, timeoutSec, maxRetries int, retryDelaySec float64, noStats, verbose bool, metricsAddr string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.APIURL = apiURL
	cfg.OutputFile = outputFile
	cfg.OutputFormat = strings.ToLower(outputFormat)
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.MaxRetries = maxRetries
	cfg.RetryDelay = time.Duration(retryDelaySec * float64(time.Second))
	cfg.ShowStats = !noStats
	cfg.Verbose = verbose
	cfg.MetricsAddr = metricsAddr
	return cfg
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".jsonl"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func renderProgress(processed, total int) {
	if total <= 0 {
		return
	}
	const width = 40
	filled := width * processed / total
	bar := strings.Repeat("=", filled) + strings.Repeat("-", width-filled)
	fmt.Fprintf(os.Stderr, "\rProgress: |%s| %d/%d (%.1f%%)", bar, processed, total, float64(processed)/float64(total)*100)
	if processed == total {
		fmt.Fprintln(os.Stderr)
	}
}

func printSummary(report *models.RunReport, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Export complete")
	fmt.Printf("  Fetched:       %d\n", report.TotalFetched)
	fmt.Printf("  Accepted:      %d\n", report.AcceptedCount)
	fmt.Printf("  Rejected:      %d\n", report.RejectedCount)
	if report.DuplicateCount > 0 {
		fmt.Printf("  Duplicates:    %d\n", report.DuplicateCount)
	}
	if len(report.RejectionsByReason) > 0 {
		fmt.Printf("  Rejections:    %v\n", report.RejectionsByReason)
	}
	fmt.Printf("  Attempts:      %d\n", report.FetchAttempts)
	fmt.Printf("  Duration:      %v\n", report.EndTime.Sub(report.StartTime))
	fmt.Printf("  Output file:   %s\n", cfg.OutputFile)

	if cfg.ShowStats && report.Statistics.Count > 0 {
		s := report.Statistics
		fmt.Println(separator)
		fmt.Println("Statistics")
		fmt.Printf("  Price range:   %.2f - %.2f\n", s.MinPrice, s.MaxPrice)
		fmt.Printf("  Average price: %.2f\n", s.AveragePrice())
		fmt.Println("  Categories:")
		categories := make([]string, 0, len(s.CategoryCounts))
		for category := range s.CategoryCounts {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("    %-20s %d\n", category, s.CategoryCounts[category])
		}
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
