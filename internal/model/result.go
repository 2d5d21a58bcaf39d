package model

// ImageColumn is the table header holding the image path of each row.
const ImageColumn = "Front side Image"

// Record is a single table row keyed by column header.
type Record map[string]string

// Result partitions the rows of a table by outcome.
// Every processed row lands in exactly one of the three lists, in row order.
type Result struct {
	CopiedImages   []string     `json:"copied_images"`
	NotFoundImages []string     `json:"not_found_images"`
	SkippedRows    []SkippedRow `json:"skipped_rows"`
}

// SkippedRow describes a row that could not be classified as copied or not found.
type SkippedRow struct {
	Row    int    `json:"row"` // 1-based data row, header excluded
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// NewResult returns a Result with non-nil lists, so it always encodes as arrays.
func NewResult() Result {
	return Result{
		CopiedImages:   []string{},
		NotFoundImages: []string{},
		SkippedRows:    []SkippedRow{},
	}
}
