// Package importexport implements the bulk CSV/XLSX engine: tabular codecs,
// per-row validation, file structure checks, template generation, and the
// import/export orchestrator that ties them to the store.
package importexport

import "strings"

// Kind identifies the record type a tabular file carries.
type Kind string

const (
	KindTransactions Kind = "transactions"
	KindCategories   Kind = "categories"
	KindBudgets      Kind = "budgets"
	KindFull         Kind = "full"
)

// Format identifies a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Field maps one canonical domain property to its tabular column header.
type Field struct {
	Canonical string
	Header    string
	Required  bool
}

// Column mapping tables, in canonical order. The writer walks these to
// produce rows; the reader reverse-maps headers (case-insensitively)
// through them. Unmapped headers are ignored on read.
var (
	transactionFields = []Field{
		{Canonical: "type", Header: "Type", Required: true},
		{Canonical: "amount", Header: "Amount", Required: true},
		{Canonical: "description", Header: "Description", Required: true},
		{Canonical: "category", Header: "Category", Required: true},
		{Canonical: "date", Header: "Date", Required: true},
	}

	categoryFields = []Field{
		{Canonical: "name", Header: "Name", Required: true},
		{Canonical: "type", Header: "Type", Required: true},
		{Canonical: "color", Header: "Color", Required: true},
		{Canonical: "icon", Header: "Icon", Required: true},
		{Canonical: "description", Header: "Description"},
		{Canonical: "parent_category", Header: "Parent Category"},
	}

	budgetFields = []Field{
		{Canonical: "category", Header: "Category", Required: true},
		{Canonical: "amount", Header: "Amount", Required: true},
		{Canonical: "period", Header: "Period", Required: true},
		{Canonical: "start_date", Header: "Start Date", Required: true},
		{Canonical: "end_date", Header: "End Date"},
	}
)

// FieldsFor returns the column mapping table for a record kind.
func FieldsFor(kind Kind) []Field {
	switch kind {
	case KindCategories:
		return categoryFields
	case KindBudgets:
		return budgetFields
	default:
		return transactionFields
	}
}

// Headers returns the display headers for a record kind in canonical order.
func Headers(kind Kind) []string {
	fields := FieldsFor(kind)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Header
	}
	return headers
}

// canonicalize reverse-maps a raw header-keyed row to canonical field names.
// Header matching is case-insensitive; unmapped columns are dropped and
// values are trimmed.
func canonicalize(kind Kind, raw map[string]string) map[string]string {
	byHeader := make(map[string]string)
	for _, f := range FieldsFor(kind) {
		byHeader[strings.ToLower(f.Header)] = f.Canonical
	}

	row := make(map[string]string, len(raw))
	for header, value := range raw {
		canonical, ok := byHeader[strings.ToLower(strings.TrimSpace(header))]
		if !ok {
			continue
		}
		row[canonical] = strings.TrimSpace(value)
	}
	return row
}
