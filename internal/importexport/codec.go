package importexport

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	apperrors "budgetly/internal/errors"
)

// DetectFormat resolves the file format from the declared format option,
// falling back to the file extension.
func DetectFormat(declared, filename string) (Format, error) {
	switch strings.ToLower(declared) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "":
	default:
		return "", apperrors.ErrUnsupportedFormat
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", apperrors.ErrUnsupportedFormat
}

// readRows parses file bytes into the header row plus raw header-keyed data
// rows. Headers and values come back trimmed. A row map omits keys for cells
// the parser never saw (trailing blanks), so structure checks must use the
// returned headers, not a data row's keys. Exceeding the per-format row cap
// is a file-level error.
func readRows(r io.Reader, format Format, delimiter rune, maxRows int) ([]string, []map[string]string, error) {
	var headers []string
	var rows []map[string]string
	var err error

	switch format {
	case FormatCSV:
		headers, rows, err = readCSV(r, delimiter)
	case FormatXLSX:
		headers, rows, err = readXLSX(r)
	default:
		return nil, nil, apperrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}
	if len(rows) > maxRows {
		return nil, nil, apperrors.ErrTooManyRows
	}
	return headers, rows, nil
}

// readCSV parses CSV into the header row plus header-keyed data rows. The
// default comma-delimited path goes through gocsv; custom delimiters use a
// plain csv.Reader with the same trimming semantics.
func readCSV(r io.Reader, delimiter rune) ([]string, []map[string]string, error) {
	if delimiter == 0 || delimiter == ',' {
		// gocsv does not expose the header record, so read it separately
		// from a buffered copy of the input.
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrUnsupportedFormat, err)
		}
		headers, err := csv.NewReader(bytes.NewReader(data)).Read()
		if err == io.EOF {
			return nil, nil, apperrors.ErrEmptyFile
		}
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrUnsupportedFormat, err)
		}
		rows, err := gocsv.CSVToMaps(bytes.NewReader(data))
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrUnsupportedFormat, err)
		}
		return trimHeaders(headers), trimRows(rows), nil
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrUnsupportedFormat, err)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}

	headers := records[0]
	return trimHeaders(headers), trimRows(mapRecords(headers, records[1:])), nil
}

// readXLSX parses the first sheet of a workbook into the header row plus
// header-keyed data rows. GetRows drops trailing empty cells, so individual
// row maps may lack keys its header row declares.
func readXLSX(r io.Reader) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrUnsupportedFormat, err)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}

	headers := records[0]
	return trimHeaders(headers), trimRows(mapRecords(headers, records[1:])), nil
}

// mapRecords zips positional records into header-keyed row maps. Cells the
// record does not cover are omitted rather than set to "".
func mapRecords(headers []string, records [][]string) []map[string]string {
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func trimHeaders(headers []string) []string {
	trimmed := make([]string, 0, len(headers))
	for _, h := range headers {
		trimmed = append(trimmed, strings.TrimSpace(h))
	}
	return trimmed
}

func trimRows(rows []map[string]string) []map[string]string {
	trimmed := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out := make(map[string]string, len(row))
		for k, v := range row {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		trimmed = append(trimmed, out)
	}
	return trimmed
}

// writeCSV serializes header + data rows as CSV bytes.
func writeCSV(headers []string, rows [][]string, includeHeaders bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if includeHeaders {
		if err := w.Write(headers); err != nil {
			return nil, err
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// newXLSX builds a single-sheet workbook from header + data rows.
func newXLSX(sheet string, headers []string, rows [][]string, includeHeaders bool) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, err
	}
	if err := appendSheet(f, sheet, headers, rows, includeHeaders); err != nil {
		return nil, err
	}
	return f, nil
}

// appendSheet writes header + data rows onto an existing or new sheet.
func appendSheet(f *excelize.File, sheet string, headers []string, rows [][]string, includeHeaders bool) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	rowIdx := 1
	if includeHeaders {
		if err := setStringRow(f, sheet, rowIdx, headers); err != nil {
			return err
		}
		rowIdx++
	}
	for _, row := range rows {
		if err := setStringRow(f, sheet, rowIdx, row); err != nil {
			return err
		}
		rowIdx++
	}
	return nil
}

func setStringRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
