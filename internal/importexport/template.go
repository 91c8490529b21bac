package importexport

import (
	"bytes"
	"fmt"

	"github.com/gocarina/gocsv"

	apperrors "budgetly/internal/errors"
)

// Template row structs. Their csv tags mirror the column mapping tables;
// gocsv walks them in declaration order when marshalling.
type transactionTemplateRow struct {
	Type        string `csv:"Type"`
	Amount      string `csv:"Amount"`
	Description string `csv:"Description"`
	Category    string `csv:"Category"`
	Date        string `csv:"Date"`
}

type categoryTemplateRow struct {
	Name        string `csv:"Name"`
	Type        string `csv:"Type"`
	Color       string `csv:"Color"`
	Icon        string `csv:"Icon"`
	Description string `csv:"Description"`
	Parent      string `csv:"Parent Category"`
}

type budgetTemplateRow struct {
	Category  string `csv:"Category"`
	Amount    string `csv:"Amount"`
	Period    string `csv:"Period"`
	StartDate string `csv:"Start Date"`
	EndDate   string `csv:"End Date"`
}

// Fixed literal sample rows per record kind; never generated from live data.
var (
	transactionExamples = []transactionTemplateRow{
		{Type: "expense", Amount: "42.50", Description: "Weekly groceries", Category: "Groceries", Date: "2024-01-15"},
		{Type: "income", Amount: "2500.00", Description: "Monthly salary", Category: "Salary", Date: "2024-01-01"},
	}
	categoryExamples = []categoryTemplateRow{
		{Name: "Groceries", Type: "expense", Color: "#4CAF50", Icon: "shopping-cart", Description: "Food and household supplies"},
		{Name: "Restaurants", Type: "expense", Color: "#FF9800", Icon: "utensils", Description: "Eating out", Parent: "Groceries"},
	}
	budgetExamples = []budgetTemplateRow{
		{Category: "Groceries", Amount: "500.00", Period: "monthly", StartDate: "2024-01-01"},
		{Category: "Restaurants", Amount: "150.00", Period: "weekly", StartDate: "2024-01-01", EndDate: "2024-01-07"},
	}
)

var templateInstructions = map[Kind][]string{
	KindTransactions: {
		"Type must be income or expense and must match the category's type.",
		"Amount must be a positive number; currency symbols and thousands separators are stripped.",
		"Category may be a category name (case-insensitive) or a category id.",
		"Date accepts YYYY-MM-DD, MM/DD/YYYY, DD/MM/YYYY, YYYY/MM/DD, MM-DD-YYYY, or DD-MM-YYYY.",
	},
	KindCategories: {
		"Name must be unique (case-insensitive) within the same type, 50 characters maximum.",
		"Type must be income or expense; a parent category must have the same type.",
		"Color must be a 3- or 6-digit hex value such as #4CAF50.",
	},
	KindBudgets: {
		"Category must name an existing expense category.",
		"Period must be weekly, monthly, or yearly.",
		"End Date is optional; when omitted it is derived from the period.",
		"Date ranges for the same category must not overlap existing active budgets.",
	},
}

// Template generates a downloadable starter file for a record kind,
// optionally with fixed example rows and a human-readable instructions
// block (CSV comment lines, or a second sheet for XLSX).
func Template(kind Kind, format Format, withExamples, withInstructions bool) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		data, err := csvTemplate(kind, withExamples, withInstructions)
		if err != nil {
			return nil, "", err
		}
		return data, fmt.Sprintf("%s_template.csv", kind), nil
	case FormatXLSX:
		data, err := xlsxTemplate(kind, withExamples, withInstructions)
		if err != nil {
			return nil, "", err
		}
		return data, fmt.Sprintf("%s_template.xlsx", kind), nil
	}
	return nil, "", apperrors.ErrUnsupportedFormat
}

func csvTemplate(kind Kind, withExamples, withInstructions bool) ([]byte, error) {
	var buf bytes.Buffer

	if withInstructions {
		for _, line := range templateInstructions[kind] {
			fmt.Fprintf(&buf, "# %s\n", line)
		}
	}

	body, err := marshalTemplateRows(kind, withExamples)
	if err != nil {
		return nil, err
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

func marshalTemplateRows(kind Kind, withExamples bool) ([]byte, error) {
	var out string
	var err error

	switch kind {
	case KindCategories:
		rows := []categoryTemplateRow{}
		if withExamples {
			rows = categoryExamples
		}
		out, err = gocsv.MarshalString(&rows)
	case KindBudgets:
		rows := []budgetTemplateRow{}
		if withExamples {
			rows = budgetExamples
		}
		out, err = gocsv.MarshalString(&rows)
	case KindTransactions:
		rows := []transactionTemplateRow{}
		if withExamples {
			rows = transactionExamples
		}
		out, err = gocsv.MarshalString(&rows)
	default:
		return nil, apperrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func xlsxTemplate(kind Kind, withExamples, withInstructions bool) ([]byte, error) {
	rows := [][]string{}
	if withExamples {
		rows = exampleRows(kind)
	}

	f, err := newXLSX(string(kind), Headers(kind), rows, true)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if withInstructions {
		lines := templateInstructions[kind]
		instructionRows := make([][]string, len(lines))
		for i, line := range lines {
			instructionRows[i] = []string{line}
		}
		if err := appendSheet(f, "Instructions", []string{"Instructions"}, instructionRows, true); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exampleRows(kind Kind) [][]string {
	switch kind {
	case KindCategories:
		rows := make([][]string, len(categoryExamples))
		for i, r := range categoryExamples {
			rows[i] = []string{r.Name, r.Type, r.Color, r.Icon, r.Description, r.Parent}
		}
		return rows
	case KindBudgets:
		rows := make([][]string, len(budgetExamples))
		for i, r := range budgetExamples {
			rows[i] = []string{r.Category, r.Amount, r.Period, r.StartDate, r.EndDate}
		}
		return rows
	default:
		rows := make([][]string, len(transactionExamples))
		for i, r := range transactionExamples {
			rows[i] = []string{r.Type, r.Amount, r.Description, r.Category, r.Date}
		}
		return rows
	}
}
