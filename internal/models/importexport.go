package models

// Severity levels for import errors.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ImportError describes a row- or file-level problem found during import.
// Row is 1-based; row 0 means the error applies to the whole file.
type ImportError struct {
	Row      int    `json:"row"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Code     string `json:"error_code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ImportWarning describes a non-fatal issue found during import.
type ImportWarning struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Code    string `json:"warning_code"`
	Message string `json:"message"`
}

// ImportSummary aggregates the outcome of one import run. Partial results
// are always reported: Success is false if any row-level error occurred,
// but imported/updated counts still reflect the rows that went through.
type ImportSummary struct {
	Success     bool            `json:"success"`
	TotalRows   int             `json:"total_rows"`
	Processed   int             `json:"processed"`
	Imported    int             `json:"imported"`
	Updated     int             `json:"updated"`
	Skipped     int             `json:"skipped"`
	Errors      []ImportError   `json:"errors"`
	Warnings    []ImportWarning `json:"warnings"`
	ExecutionMS int64           `json:"execution_ms"`
}
