package table

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

// xlsxReader streams rows of the first worksheet of a workbook.
type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header header
	done   bool
}

func openXLSX(path string) (*xlsxReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}

	xr := &xlsxReader{file: f}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		xr.done = true
		return xr, nil
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	xr.rows = rows

	cells, err := xr.nextCells()
	if errors.Is(err, io.EOF) {
		xr.done = true
		return xr, nil
	}
	if err != nil {
		xr.Close()
		return nil, fmt.Errorf("failed to read workbook header: %w", err)
	}

	xr.header, err = newHeader(cells)
	if err != nil {
		xr.Close()
		return nil, err
	}

	return xr, nil
}

// nextCells returns the cells of the next non-blank row.
func (x *xlsxReader) nextCells() ([]string, error) {
	for x.rows.Next() {
		cells, err := x.rows.Columns()
		if err != nil {
			return nil, err
		}
		if blank(cells) {
			continue
		}
		return cells, nil
	}

	if err := x.rows.Error(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

// Next returns the next record, or io.EOF when the sheet is exhausted.
func (x *xlsxReader) Next() (model.Record, error) {
	if x.done {
		return nil, io.EOF
	}

	cells, err := x.nextCells()
	if errors.Is(err, io.EOF) {
		x.done = true
		return nil, io.EOF
	}
	if err != nil {
		x.done = true
		return nil, fmt.Errorf("failed to read workbook row: %w", err)
	}

	return x.header.record(cells), nil
}

func (x *xlsxReader) Close() error {
	if x.rows != nil {
		_ = x.rows.Close()
	}

	return x.file.Close()
}
