package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvReader struct {
	file   *os.File
	reader *csv.Reader
	header header
	done   bool
}

func openCSV(path string) (*csvReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}

	br := bufio.NewReader(f)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	// A stray quote inside a cell is kept as part of the value.
	r.LazyQuotes = true

	cr := &csvReader{file: f, reader: r}

	cells, err := r.Read()
	if errors.Is(err, io.EOF) {
		// An empty file is a table with no rows.
		cr.done = true
		return cr, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cr.header, err = newHeader(cells)
	if err != nil {
		f.Close()
		return nil, err
	}

	return cr, nil
}

// Next returns the next record, or io.EOF when the table is exhausted.
func (c *csvReader) Next() (model.Record, error) {
	if c.done {
		return nil, io.EOF
	}

	cells, err := c.reader.Read()
	if errors.Is(err, io.EOF) {
		c.done = true
		return nil, io.EOF
	}
	if err != nil {
		c.done = true
		return nil, fmt.Errorf("failed to read csv record: %w", err)
	}

	return c.header.record(cells), nil
}

func (c *csvReader) Close() error {
	return c.file.Close()
}
