package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-products/models"
)

func TestValidateProductMandatoryFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     models.RawRecord
		wantErr error
	}{
		{
			name:    "valid minimal record",
			raw:     models.RawRecord{"title": "Laptop", "price": 999.99},
			wantErr: nil,
		},
		{
			name:    "missing title",
			raw:     models.RawRecord{"price": 10.0},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "whitespace title",
			raw:     models.RawRecord{"title": "   ", "price": 10.0},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "non-string title",
			raw:     models.RawRecord{"title": 42.0, "price": 10.0},
			wantErr: ErrMissingTitle,
		},
		{
			name:    "missing price",
			raw:     models.RawRecord{"title": "Laptop"},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "non-numeric price",
			raw:     models.RawRecord{"title": "Laptop", "price": "cheap"},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "negative price",
			raw:     models.RawRecord{"title": "Laptop", "price": -1.0},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "nil record",
			raw:     nil,
			wantErr: ErrMissingTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := ValidateProduct(tt.raw)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateProduct() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateProduct() error = %v, want %v", err, tt.wantErr)
			}
			if product != nil {
				t.Fatalf("rejected record must not produce a row, got %+v", product)
			}
		})
	}
}

func TestValidateProductPreservesTitleAndPrice(t *testing.T) {
	product, err := ValidateProduct(models.RawRecord{"title": "  Mechanical Keyboard  ", "price": 79.5})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if product.Title != "Mechanical Keyboard" {
		t.Fatalf("title = %q, want trimmed original", product.Title)
	}
	if product.Price != 79.5 {
		t.Fatalf("price = %v, want 79.5", product.Price)
	}
}

func TestValidateProductCoercesStringPrice(t *testing.T) {
	product, err := ValidateProduct(models.RawRecord{"title": "Monitor", "price": "149.90"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if product.Price != 149.90 {
		t.Fatalf("price = %v, want 149.90", product.Price)
	}
}

func TestValidateProductOptionalFieldDefaults(t *testing.T) {
	product, err := ValidateProduct(models.RawRecord{"title": "Cable", "price": 4.99})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if product.Category != DefaultCategory {
		t.Fatalf("category = %q, want %q", product.Category, DefaultCategory)
	}
	if product.Description != "" {
		t.Fatalf("description = %q, want empty", product.Description)
	}
	if product.ImageURL != "" {
		t.Fatalf("image url = %q, want empty", product.ImageURL)
	}
	if product.Rating != nil || product.RatingCount != nil {
		t.Fatalf("absent rating must stay absent, got %v/%v", product.Rating, product.RatingCount)
	}
}

func TestValidateProductRatingSubFields(t *testing.T) {
	tests := []struct {
		name      string
		rating    any
		wantRate  *float64
		wantCount *int
	}{
		{
			name:      "both valid",
			rating:    map[string]any{"rate": 4.5, "count": 120.0},
			wantRate:  ptrFloat(4.5),
			wantCount: ptrInt(120),
		},
		{
			name:      "rate out of range dropped, count kept",
			rating:    map[string]any{"rate": 7.2, "count": 10.0},
			wantRate:  nil,
			wantCount: ptrInt(10),
		},
		{
			name:      "negative count dropped, rate kept",
			rating:    map[string]any{"rate": 3.0, "count": -5.0},
			wantRate:  ptrFloat(3.0),
			wantCount: nil,
		},
		{
			name:      "non-integer count dropped",
			rating:    map[string]any{"rate": 2.0, "count": 3.7},
			wantRate:  ptrFloat(2.0),
			wantCount: nil,
		},
		{
			name:      "rating not an object",
			rating:    "excellent",
			wantRate:  nil,
			wantCount: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := models.RawRecord{"title": "Chair", "price": 55.0, "rating": tt.rating}
			product, err := ValidateProduct(raw)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if !equalFloatPtr(product.Rating, tt.wantRate) {
				t.Fatalf("rating = %v, want %v", deref(product.Rating), deref(tt.wantRate))
			}
			if !equalIntPtr(product.RatingCount, tt.wantCount) {
				t.Fatalf("rating count = %v, want %v", derefInt(product.RatingCount), derefInt(tt.wantCount))
			}
		})
	}
}

func TestValidateProductTruncatesLongFields(t *testing.T) {
	longTitle := strings.Repeat("a", 150)
	longDescription := strings.Repeat("b", 300)
	product, err := ValidateProduct(models.RawRecord{
		"title":       longTitle,
		"price":       1.0,
		"description": longDescription,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(product.Title) != maxTitleLen {
		t.Fatalf("title length = %d, want %d", len(product.Title), maxTitleLen)
	}
	if len(product.Description) != maxDescriptionLen {
		t.Fatalf("description length = %d, want %d", len(product.Description), maxDescriptionLen)
	}
}

func TestReasonLabel(t *testing.T) {
	if got := ReasonLabel(ErrMissingTitle); got != "missing_title" {
		t.Fatalf("ReasonLabel(ErrMissingTitle) = %q", got)
	}
	_, err := ValidateProduct(models.RawRecord{"title": "X", "price": "free"})
	if got := ReasonLabel(err); got != "invalid_price" {
		t.Fatalf("ReasonLabel(wrapped invalid price) = %q", got)
	}
	if got := ReasonLabel(errors.New("boom")); got != "other" {
		t.Fatalf("ReasonLabel(other) = %q", got)
	}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
