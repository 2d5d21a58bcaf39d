package table

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/image-reconciler/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func readAll(t *testing.T, r Reader) []model.Record {
	t.Helper()

	var out []model.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFor(xlsxContentType, "images.bin"))
	assert.Equal(t, FormatXLSX, FormatFor("application/vnd.ms-excel", "Images.XLSX"))
	assert.Equal(t, FormatCSV, FormatFor("application/vnd.ms-excel", "images.csv"))
	assert.Equal(t, FormatCSV, FormatFor("text/csv", "images"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("ods")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestOpenCSV(t *testing.T) {
	path := writeFile(t, "t.csv", "\uFEFFid, Front side Image ,note\n1,/x/a.jpg,first\n2,b.jpg\n\n3,\"c d.jpg\",x,extra\n")

	r, err := Open(path, FormatCSV)
	require.NoError(t, err)
	defer r.Close()

	recs := readAll(t, r)
	require.Len(t, recs, 3)
	assert.Equal(t, "/x/a.jpg", recs[0][model.ImageColumn])
	assert.Equal(t, "first", recs[0]["note"])
	assert.Equal(t, "b.jpg", recs[1][model.ImageColumn])
	assert.Equal(t, "", recs[1]["note"])
	assert.Equal(t, "c d.jpg", recs[2][model.ImageColumn])

	// The stream is single pass.
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenCSVEmpty(t *testing.T) {
	for name, content := range map[string]string{
		"no bytes":    "",
		"header only": "Front side Image\n",
	} {
		t.Run(name, func(t *testing.T) {
			r, err := Open(writeFile(t, "t.csv", content), FormatCSV)
			require.NoError(t, err)
			defer r.Close()

			assert.Empty(t, readAll(t, r))
		})
	}
}

func TestOpenCSVMissingColumn(t *testing.T) {
	_, err := Open(writeFile(t, "t.csv", "Back side Image\na.jpg\n"), FormatCSV)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestOpenCSVStrayQuotes(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		// The unterminated quote swallows the rest of the file into one cell.
		_, err := Open(writeFile(t, "t.csv", "\"Front side Image\na.jpg\n"), FormatCSV)
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("row", func(t *testing.T) {
		r, err := Open(writeFile(t, "t.csv", "Front side Image\na.jpg\nb\"x.jpg\nc.jpg\n"), FormatCSV)
		require.NoError(t, err)
		defer r.Close()

		var got []string
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			got = append(got, rec[model.ImageColumn])
		}

		assert.Equal(t, []string{"a.jpg", "b\"x.jpg", "c.jpg"}, got)
	})
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), FormatCSV)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"SKU", "Front side Image"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1", `C:\photos\a.jpg`}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"2", "b.jpg"}))

	path := filepath.Join(t.TempDir(), "t.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	r, err := Open(path, FormatXLSX)
	require.NoError(t, err)
	defer r.Close()

	recs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, `C:\photos\a.jpg`, recs[0][model.ImageColumn])
	assert.Equal(t, "b.jpg", recs[1][model.ImageColumn])
	assert.Equal(t, "2", recs[1]["SKU"])
}

func TestOpenXLSXMissingColumn(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"SKU"}))

	path := filepath.Join(t.TempDir(), "t.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Open(path, FormatXLSX)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestOpenXLSXEmptySheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "t.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	r, err := Open(path, FormatXLSX)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenXLSXNotAWorkbook(t *testing.T) {
	_, err := Open(writeFile(t, "t.xlsx", "Front side Image\na.jpg\n"), FormatXLSX)
	assert.Error(t, err)
}
