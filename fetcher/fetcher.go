// Package fetcher performs the single product-list request with bounded retries.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
)

// Fetcher issues the GET request against the configured API and retries
// retryable failures with linear backoff. It is safe to reuse across runs.
type Fetcher struct {
	cfg     *config.Config
	client  *http.Client
	Metrics *Metrics

	// sleep overrides the backoff wait; tests inject it to avoid real delays.
	sleep func(time.Duration)
}

// New builds a fetcher configured from cfg.
func New(cfg *config.Config) *Fetcher {
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &Fetcher{
		cfg:     cfg,
		client:  client,
		Metrics: NewMetrics(),
	}
}

// Fetch performs at most MaxRetries+1 attempts and returns the decoded
// records along with the number of attempts made. Fatal failures (client
// errors other than 429, malformed payloads) return immediately without
// consuming the remaining attempts.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.RawRecord, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	total := f.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= total; attempt++ {
		slog.Info("fetching products",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", total),
			slog.String("url", f.cfg.APIURL),
		)

		start := time.Now()
		records, err := f.attempt(ctx)
		f.Metrics.ObserveDuration(time.Since(start))

		if err == nil {
			f.Metrics.IncRequest("success")
			slog.Info("fetch succeeded",
				slog.Int("attempt", attempt),
				slog.Int("records", len(records)),
			)
			return records, attempt, nil
		}

		classified := Classify(err)
		lastErr = classified
		f.Metrics.IncRequest("failure")
		f.Metrics.IncError(errorTypeLabel(classified))
		slog.Warn("fetch attempt failed",
			slog.Int("attempt", attempt),
			slog.String("category", errorTypeLabel(classified)),
			slog.Any("error", classified),
		)

		if !Retryable(classified) {
			return nil, attempt, classified
		}
		if attempt == total {
			break
		}

		wait := f.backoff(attempt)
		f.Metrics.IncRetries()
		slog.Info("waiting before retry", slog.Duration("wait", wait))
		if err := f.wait(ctx, wait); err != nil {
			return nil, attempt, err
		}
	}

	return nil, total, fmt.Errorf("all %d attempts failed: %w", total, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context) ([]models.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var records []models.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, ErrMalformedPayload{Err: err}
	}
	return records, nil
}

// backoff implements the linear policy: wait = delay * attempt number.
func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	return f.cfg.RetryDelay * time.Duration(attempt)
}

func (f *Fetcher) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if f.sleep != nil {
		f.sleep(d)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func statusError(code int) error {
	err := fmt.Errorf("http status %d", code)
	if code >= 400 && code <= 499 && code != http.StatusTooManyRequests {
		return ErrFatalStatus{Code: code, Err: err}
	}
	return ErrHTTPStatus{Code: code, Err: err}
}

// Classify wraps transport-level errors into the fetcher taxonomy. Errors
// already produced by the taxonomy pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var status ErrHTTPStatus
	var fatal ErrFatalStatus
	var malformed ErrMalformedPayload
	if errors.As(err, &status) || errors.As(err, &fatal) || errors.As(err, &malformed) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrConnection{Err: err}
	}

	return err
}
