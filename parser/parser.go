// Package parser validates and normalizes raw API records.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-products/models"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 200

	// DefaultCategory is substituted when the source record has none.
	DefaultCategory = "unknown"
)

var (
	// ErrMissingTitle rejects records without a usable title.
	ErrMissingTitle = errors.New("missing title")
	// ErrInvalidPrice rejects records whose price is absent, non-numeric, or negative.
	ErrInvalidPrice = errors.New("invalid price")
)

// ValidateProduct turns one raw record into a normalized product row.
// Title and price are mandatory; category, description, and image fall back
// to defaults, and out-of-range rating sub-fields are dropped individually
// rather than rejecting the whole record.
func ValidateProduct(raw models.RawRecord) (*models.Product, error) {
	title := strings.TrimSpace(stringField(raw, "title"))
	if title == "" {
		return nil, ErrMissingTitle
	}
	title = truncate(title, maxTitleLen)

	price, ok := numeric(raw["price"])
	if !ok || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("%w for %q", ErrInvalidPrice, title)
	}

	product := &models.Product{
		Title:       title,
		Price:       price,
		Category:    DefaultCategory,
		Description: truncate(strings.TrimSpace(stringField(raw, "description")), maxDescriptionLen),
		ImageURL:    strings.TrimSpace(stringField(raw, "image")),
	}
	if category := strings.TrimSpace(stringField(raw, "category")); category != "" {
		product.Category = category
	}

	if rating, ok := raw["rating"].(map[string]any); ok {
		if rate, ok := numeric(rating["rate"]); ok && rate >= 0 && rate <= 5 {
			product.Rating = &rate
		}
		if count, ok := numeric(rating["count"]); ok && count >= 0 && count == math.Trunc(count) {
			n := int(count)
			product.RatingCount = &n
		}
	}

	return product, nil
}

// ReasonLabel maps a rejection error to its summary counter label.
func ReasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingTitle):
		return "missing_title"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	default:
		return "other"
	}
}

func stringField(raw models.RawRecord, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

// numeric coerces JSON numbers and numeric-looking strings.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		parsed, err := n.Float64()
		return parsed, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
