// Package table reads uploaded tables as a lazy, single-pass stream of records.
package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

// Format identifies the encoding of an uploaded table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrMissingColumn is returned when the table header lacks the image column.
var ErrMissingColumn = fmt.Errorf("missing required column %q", model.ImageColumn)

// ErrUnknownFormat is returned by Open for formats it cannot read.
var ErrUnknownFormat = errors.New("unknown table format")

// Reader yields table records one at a time.
// Next returns io.EOF once the table is exhausted.
type Reader interface {
	Next() (model.Record, error)
	Close() error
}

// FormatFor picks the table format from the upload content type and filename.
// Anything that is not a spreadsheetml workbook is read as CSV, since browsers
// commonly label .csv files as application/vnd.ms-excel.
func FormatFor(contentType, filename string) Format {
	if strings.HasPrefix(contentType, xlsxContentType) {
		return FormatXLSX
	}
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return FormatXLSX
	}

	return FormatCSV
}

// ParseFormat converts a user supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// Open opens the table stored at path.
// The header is read and validated before Open returns.
func Open(path string, format Format) (Reader, error) {
	var (
		r   Reader
		err error
	)

	switch format {
	case FormatCSV, "":
		r, err = openCSV(path)
	case FormatXLSX:
		r, err = openXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return r, nil
}

// header maps column positions to trimmed header names.
type header []string

func newHeader(cells []string) (header, error) {
	h := make(header, len(cells))
	found := false
	for i, c := range cells {
		h[i] = strings.TrimSpace(c)
		if h[i] == model.ImageColumn {
			found = true
		}
	}

	if !found {
		return nil, ErrMissingColumn
	}

	return h, nil
}

// record builds a Record from row cells. Missing cells become empty strings
// and cells beyond the header are dropped.
func (h header) record(cells []string) model.Record {
	rec := make(model.Record, len(h))
	for i, name := range h {
		if name == "" {
			continue
		}
		if i < len(cells) {
			rec[name] = cells[i]
		} else {
			rec[name] = ""
		}
	}

	return rec
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
