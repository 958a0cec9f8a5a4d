package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-scrape-products/models"
)

var csvHeader = []string{"Title", "Price", "Category", "Description", "Image URL", "Rating", "Rating Count"}

// CSVWriter writes product rows to CSV. Output goes to a temporary sibling
// file; Close renames it into place so a failed run never leaves a
// half-written file at the final path.
type CSVWriter struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *csv.Writer
	mu      sync.Mutex
	done    bool
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	tmpPath := filename + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		path:    filename,
		tmpPath: tmpPath,
		file:    f,
		writer:  writer,
	}, nil
}

// Write appends product rows to the CSV output. Absent rating fields
// produce empty columns.
func (cw *CSVWriter) Write(products []*models.Product) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, p := range products {
		record := []string{
			p.Title,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			p.Category,
			p.Description,
			p.ImageURL,
			formatRating(p.Rating),
			formatRatingCount(p.RatingCount),
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and promotes the temp file to its final path.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.done {
		return nil
	}

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	if err := cw.file.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	if err := os.Rename(cw.tmpPath, cw.path); err != nil {
		return fmt.Errorf("promote csv file: %w", err)
	}
	cw.done = true
	return nil
}

// Abort discards the temp file without promoting it.
func (cw *CSVWriter) Abort() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.done {
		return nil
	}
	cw.done = true
	cw.file.Close()
	if err := os.Remove(cw.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp csv file: %w", err)
	}
	return nil
}

// Validate ensures the promoted file exists and has content.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.path)
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records, with the same temp-file
// promotion discipline as CSVWriter.
type JSONWriter struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
	done    bool
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	tmpPath := filename + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		path:    filename,
		tmpPath: tmpPath,
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends product rows in JSONL format.
func (jw *JSONWriter) Write(products []*models.Product) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, p := range products {
		if err := jw.encoder.Encode(p); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes and promotes the temp file to its final path.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.done {
		return nil
	}

	if err := jw.writer.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	if err := jw.file.Close(); err != nil {
		return fmt.Errorf("close json file: %w", err)
	}
	if err := os.Rename(jw.tmpPath, jw.path); err != nil {
		return fmt.Errorf("promote json file: %w", err)
	}
	jw.done = true
	return nil
}

// Abort discards the temp file without promoting it.
func (jw *JSONWriter) Abort() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.done {
		return nil
	}
	jw.done = true
	jw.file.Close()
	if err := os.Remove(jw.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp json file: %w", err)
	}
	return nil
}

// Validate ensures the promoted JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.path)
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func formatRating(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

func formatRatingCount(c *int) string {
	if c == nil {
		return ""
	}
	return strconv.Itoa(*c)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
