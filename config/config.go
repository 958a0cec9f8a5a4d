package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds exporter configuration.
type Config struct {
	APIURL        string
	OutputFile    string
	OutputFormat  string // csv, json, or dual
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	UserAgent     string
	ShowStats     bool
	Verbose       bool
	MetricsAddr   string
	DedupeMaxSize int // 0 disables duplicate suppression
}

// DefaultConfig returns conservative defaults for the public demo API.
func DefaultConfig() *Config {
	return &Config{
		APIURL:        "https://fakestoreapi.com/products",
		OutputFile:    "output/products.csv",
		OutputFormat:  "csv",
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		UserAgent:     "go-scrape-products/1.0",
		ShowStats:     true,
		Verbose:       false,
		MetricsAddr:   "",
		DedupeMaxSize: 2048,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("API URL must include a host")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}

	return nil
}
