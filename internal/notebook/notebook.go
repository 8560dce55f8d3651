// Package notebook pulls executable code out of Jupyter notebook documents.
package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// CellSeparator joins the sources of consecutive code cells
const CellSeparator = "\n\n"

var ErrNotNotebook = errors.New("document has no notebook cells")

// source accepts both encodings nbformat allows: a string or a list of lines
type source string

func (s *source) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = source(text)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source must be a string or a list of strings: %w", err)
	}
	*s = source(strings.Join(lines, ""))
	return nil
}

type cell struct {
	CellType string  `json:"cell_type"`
	Source   *source `json:"source"`
	// nbformat 3 kept code cell text under "input"
	Input *source `json:"input"`
}

type document struct {
	Cells      []cell `json:"cells"`
	Worksheets []struct {
		Cells []cell `json:"cells"`
	} `json:"worksheets"`
}

func (d *document) allCells() ([]cell, bool) {
	if d.Cells != nil {
		return d.Cells, true
	}
	if d.Worksheets != nil {
		cells := make([]cell, 0)
		for _, ws := range d.Worksheets {
			cells = append(cells, ws.Cells...)
		}
		return cells, true
	}
	return nil, false
}

// Extract parses a notebook and returns the source of its code cells in
// document order, joined by a blank line. Markdown, raw cells and outputs are ignored.
func Extract(r io.Reader) (string, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to decode notebook: %w", err)
	}

	cells, ok := doc.allCells()
	if !ok {
		return "", ErrNotNotebook
	}

	code := make([]string, 0, len(cells))
	for _, c := range cells {
		if c.CellType != "code" {
			continue
		}
		switch {
		case c.Source != nil:
			code = append(code, string(*c.Source))
		case c.Input != nil:
			code = append(code, string(*c.Input))
		default:
			code = append(code, "")
		}
	}

	return strings.Join(code, CellSeparator), nil
}

// Source resolves a submission location to notebook bytes
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// FileSource opens locations as local file paths
type FileSource struct{}

func (FileSource) Open(_ context.Context, location string) (io.ReadCloser, error) {
	return os.Open(location)
}

// Extractor fails soft: unreadable or malformed notebooks are logged and
// yield empty code so one corrupt submission never blocks a batch.
type Extractor struct {
	src Source
}

func NewExtractor(src Source) *Extractor {
	if src == nil {
		src = FileSource{}
	}
	return &Extractor{src: src}
}

// Code returns the extracted code for location, or "" on any failure
func (e *Extractor) Code(ctx context.Context, location string) string {
	code, err := e.Extract(ctx, location)
	if err != nil {
		log.Warn().
			Err(err).
			Str("location", location).
			Msg("Failed to extract notebook code, treating submission as empty")
		return ""
	}
	return code
}

// Extract is the strict variant of Code that reports the failure
func (e *Extractor) Extract(ctx context.Context, location string) (string, error) {
	rc, err := e.src.Open(ctx, location)
	if err != nil {
		return "", fmt.Errorf("failed to open notebook: %w", err)
	}
	defer rc.Close()

	return Extract(rc)
}
