package model

// ReconcileRequest asks for a job over a table already stored on the server,
// as received from the request topic.
type ReconcileRequest struct {
	TablePath       string `json:"table_path"`
	SourceDirectory string `json:"source_directory"`
	Format          string `json:"format,omitempty"` // csv / xlsx, by extension when empty
}
