// Package models defines data structures for the product exporter.
package models

import "time"

// RawRecord is one untyped record as decoded from the API response.
type RawRecord map[string]any

// Product is a validated, normalized product row ready for export.
// Rating and RatingCount are nil when the source record lacked them or
// carried out-of-range values.
type Product struct {
	Title       string   `csv:"title" json:"title"`
	Price       float64  `csv:"price" json:"price"`
	Category    string   `csv:"category" json:"category"`
	Description string   `csv:"description" json:"description"`
	ImageURL    string   `csv:"image_url" json:"image_url"`
	Rating      *float64 `csv:"rating" json:"rating,omitempty"`
	RatingCount *int     `csv:"rating_count" json:"rating_count,omitempty"`
}

// Statistics aggregates accepted product rows.
type Statistics struct {
	Count          int
	MinPrice       float64
	MaxPrice       float64
	TotalPrice     float64
	CategoryCounts map[string]int
}

// AveragePrice returns the mean price over observed rows.
func (s Statistics) AveragePrice() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.TotalPrice / float64(s.Count)
}

// RunReport holds the overall result of one pipeline run.
type RunReport struct {
	StartTime          time.Time
	EndTime            time.Time
	TotalFetched       int
	AcceptedCount      int
	RejectedCount      int
	DuplicateCount     int
	RejectionsByReason map[string]int
	FetchAttempts      int
	Statistics         Statistics
	OutputFile         string
}
