package importer

// Row classification values shared by preview and execute.
const (
	RowStatusNew    = "new"
	RowStatusUpdate = "update"
	RowStatusError  = "error"
)

// Import modes.
const (
	ModeCreateOnly     = "create_only"
	ModeUpdateOrCreate = "update_or_create"
)

// IsValidMode reports whether mode is a recognized import mode.
func IsValidMode(mode string) bool {
	return mode == ModeCreateOnly || mode == ModeUpdateOrCreate
}

// PreviewRow is the transient classification of a single spreadsheet row.
type PreviewRow struct {
	RowNumber   int     `json:"row_number"`
	Reference   *string `json:"reference,omitempty"`
	Customer    *string `json:"customer,omitempty"`
	OrderNumber *string `json:"order_number,omitempty"`
	PlannedETD  *string `json:"planned_etd,omitempty"`
	Status      string  `json:"status"` // new | update | error
	Error       *string `json:"error,omitempty"`
}

// PreviewResult aggregates a dry-run classification of the whole file.
type PreviewResult struct {
	Rows         []PreviewRow `json:"rows"`
	ColumnsFound []string     `json:"columns_found"`
	TotalRows    int          `json:"total_rows"`
	NewCount     int          `json:"new_count"`
	UpdateCount  int          `json:"update_count"`
	ErrorCount   int          `json:"error_count"`
}

// RowError describes one failed row of an executed import.
type RowError struct {
	Row       int     `json:"row"`
	Reference *string `json:"reference,omitempty"`
	Error     string  `json:"error"`
}

// Result is the outcome of an executed import batch.
// Invariant: TotalProcessed == Created + Updated + Skipped + len(Errors).
type Result struct {
	Created        int        `json:"created"`
	Updated        int        `json:"updated"`
	Skipped        int        `json:"skipped"`
	Errors         []RowError `json:"errors"`
	TotalProcessed int        `json:"total_processed"`
}
