package importexport

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"budgetly/internal/models"
	"budgetly/internal/periods"
)

// Error and warning codes produced by row validation.
const (
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeInvalidType          = "INVALID_TYPE"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidDateFormat    = "INVALID_DATE_FORMAT"
	CodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	CodeInvalidCategoryType  = "INVALID_CATEGORY_TYPE"
	CodeCategoryInactive     = "CATEGORY_INACTIVE"
	CodeNameTooLong          = "NAME_TOO_LONG"
	CodeDuplicateName        = "DUPLICATE_NAME"
	CodeInvalidColor         = "INVALID_COLOR"
	CodeInvalidPeriod        = "INVALID_PERIOD"
	CodeInvalidEndDate       = "INVALID_END_DATE"
	CodeOverlappingBudget    = "OVERLAPPING_BUDGET"
	CodeDuplicateEntry       = "DUPLICATE_ENTRY"

	WarnFutureDate           = "FUTURE_DATE"
	WarnDescriptionTruncated = "DESCRIPTION_TRUNCATED"
	WarnRowSkipped           = "ROW_SKIPPED"
)

// dateLayouts are tried in order when parsing tabular date values; a value
// that matches none of them falls back to a generic parse attempt.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
}

var currencyJunk = regexp.MustCompile(`[^\d.\-]`)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RowReport carries the outcome of validating a single row. It is a plain
// value returned from each validation call, so independent files can be
// validated concurrently with no shared state.
type RowReport struct {
	Valid    bool
	Errors   []models.ImportError
	Warnings []models.ImportWarning
}

func (r *RowReport) fail(row int, field, value, code, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, models.ImportError{
		Row:      row,
		Field:    field,
		Value:    value,
		Code:     code,
		Message:  message,
		Severity: models.SeverityError,
	})
}

func (r *RowReport) warn(row int, field, value, code, message string) {
	r.Warnings = append(r.Warnings, models.ImportWarning{
		Row:     row,
		Field:   field,
		Value:   value,
		Code:    code,
		Message: message,
	})
}

// dateRange is an inclusive budget interval used for overlap tracking.
type dateRange struct {
	start, end time.Time
}

// RowContext is the point-in-time snapshot of known categories and budgets
// rows are validated against. It grows as rows are accepted, so later rows
// in the same file see earlier ones (intra-file duplicate detection).
type RowContext struct {
	byID        map[string]models.Category
	byName      map[string][]models.Category
	namesByType map[models.CategoryType]map[string]bool
	budgets     map[string][]dateRange

	// txIDByKey maps a transaction's composite duplicate key to its stored
	// ID, for update-in-place on duplicate rows.
	txIDByKey map[string]string
}

// NewRowContext builds a context from snapshots fetched once per import.
func NewRowContext(categories []models.Category, budgets []models.Budget) *RowContext {
	ctx := &RowContext{
		byID:   make(map[string]models.Category, len(categories)),
		byName: make(map[string][]models.Category),
		namesByType: map[models.CategoryType]map[string]bool{
			models.CategoryTypeIncome:  {},
			models.CategoryTypeExpense: {},
		},
		budgets: make(map[string][]dateRange),
	}
	for _, c := range categories {
		ctx.AddCategory(c)
	}
	for _, b := range budgets {
		ctx.AddBudgetRange(b.CategoryID, b.StartDate, b.EndDate)
	}
	return ctx
}

// AddCategory registers a category for reference resolution and name
// uniqueness checks.
func (ctx *RowContext) AddCategory(c models.Category) {
	lower := strings.ToLower(c.Name)
	if c.ID != "" {
		ctx.byID[c.ID] = c
		// Persisted categories take priority over same-named placeholders
		// from earlier rows in the file.
		ctx.byName[lower] = append([]models.Category{c}, ctx.byName[lower]...)
	} else {
		ctx.byName[lower] = append(ctx.byName[lower], c)
	}
	ctx.namesByType[c.Type][lower] = true
}

// AddBudgetRange registers an accepted budget interval for a category.
func (ctx *RowContext) AddBudgetRange(categoryID string, start, end time.Time) {
	ctx.budgets[categoryID] = append(ctx.budgets[categoryID], dateRange{start: start, end: end})
}

// ResolveCategory looks a reference up by ID first, then by
// case-insensitive name.
func (ctx *RowContext) ResolveCategory(ref string) (models.Category, bool) {
	if c, ok := ctx.byID[ref]; ok {
		return c, true
	}
	if cs, ok := ctx.byName[strings.ToLower(ref)]; ok && len(cs) > 0 {
		return cs[0], true
	}
	return models.Category{}, false
}

// hasName reports whether a category name is already taken within a type.
func (ctx *RowContext) hasName(name string, t models.CategoryType) bool {
	return ctx.namesByType[t][strings.ToLower(name)]
}

// overlapsBudget reports whether [start, end] overlaps any known interval
// for the category.
func (ctx *RowContext) overlapsBudget(categoryID string, start, end time.Time) bool {
	for _, r := range ctx.budgets[categoryID] {
		if periods.Overlaps(start, end, r.start, r.end) {
			return true
		}
	}
	return false
}

// ParseDate parses a tabular date value, trying each configured layout
// before falling back to generic parses.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return periods.Truncate(t), nil
		}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return periods.Truncate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

// truncateRunes shortens s to at most n runes, never splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ParseAmount parses a monetary value after stripping currency symbols,
// thousands separators, and whitespace.
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := currencyJunk.ReplaceAllString(strings.TrimSpace(value), "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric value in %q", value)
	}
	return decimal.NewFromString(cleaned)
}

// TransactionRecord is a fully parsed, valid transaction row.
type TransactionRecord struct {
	Type        models.TransactionType
	Amount      decimal.Decimal
	Description string
	Category    models.Category
	Date        time.Time
}

// CategoryRecord is a fully parsed, valid category row.
type CategoryRecord struct {
	Name        string
	Type        models.CategoryType
	Color       string
	Icon        string
	Description string
	Parent      *models.Category
}

// BudgetRecord is a fully parsed, valid budget row.
type BudgetRecord struct {
	Category models.Category
	Amount   decimal.Decimal
	Period   models.BudgetPeriod
	Start    time.Time
	End      time.Time
}

// ValidateTransactionRow validates one canonical transaction row. index is
// the 1-based data row number. The returned record is meaningful only when
// the report is valid.
func ValidateTransactionRow(row map[string]string, index int, ctx *RowContext, now time.Time) (TransactionRecord, RowReport) {
	report := RowReport{Valid: true}
	var rec TransactionRecord

	switch v := row["type"]; v {
	case "":
		report.fail(index, "type", "", CodeMissingRequiredField, "type is required")
	case "income", "expense":
		rec.Type = models.TransactionType(v)
	default:
		report.fail(index, "type", v, CodeInvalidType, "type must be income or expense")
	}

	if v := row["amount"]; v == "" {
		report.fail(index, "amount", "", CodeMissingRequiredField, "amount is required")
	} else if amount, err := ParseAmount(v); err != nil {
		report.fail(index, "amount", v, CodeInvalidAmount, "amount is not a number")
	} else if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(models.MaxTransactionAmount) {
		report.fail(index, "amount", v, CodeInvalidAmount, "amount must be greater than zero and at most 999999999.99")
	} else {
		rec.Amount = amount
	}

	if v := row["description"]; v == "" {
		report.fail(index, "description", "", CodeMissingRequiredField, "description is required")
	} else {
		if utf8.RuneCountInString(v) > 200 {
			report.warn(index, "description", v, WarnDescriptionTruncated, "description truncated to 200 characters")
			v = truncateRunes(v, 200)
		}
		rec.Description = v
	}

	if v := row["category"]; v == "" {
		report.fail(index, "category", "", CodeMissingRequiredField, "category is required")
	} else if category, ok := ctx.ResolveCategory(v); !ok {
		report.fail(index, "category", v, CodeCategoryNotFound, fmt.Sprintf("category %q not found", v))
	} else if rec.Type != "" && category.Type != models.CategoryType(rec.Type) {
		report.fail(index, "category", v, CodeInvalidCategoryType,
			fmt.Sprintf("category %q is a %s category and cannot hold a %s transaction", category.Name, category.Type, rec.Type))
	} else if !category.IsActive {
		report.fail(index, "category", v, CodeCategoryInactive, fmt.Sprintf("category %q is inactive", category.Name))
	} else {
		rec.Category = category
	}

	if v := row["date"]; v == "" {
		report.fail(index, "date", "", CodeMissingRequiredField, "date is required")
	} else if date, err := ParseDate(v); err != nil {
		report.fail(index, "date", v, CodeInvalidDateFormat, "date could not be parsed")
	} else {
		if date.After(now.AddDate(0, 0, 7)) {
			report.warn(index, "date", v, WarnFutureDate, "date is more than 7 days in the future")
		}
		rec.Date = date
	}

	return rec, report
}

// ValidateCategoryRow validates one canonical category row.
func ValidateCategoryRow(row map[string]string, index int, ctx *RowContext) (CategoryRecord, RowReport) {
	return validateCategoryRow(row, index, ctx, false)
}

// allowDuplicate suppresses the name-uniqueness check, for rows being
// applied as updates to an existing category.
func validateCategoryRow(row map[string]string, index int, ctx *RowContext, allowDuplicate bool) (CategoryRecord, RowReport) {
	report := RowReport{Valid: true}
	var rec CategoryRecord

	switch v := row["type"]; v {
	case "":
		report.fail(index, "type", "", CodeMissingRequiredField, "type is required")
	case "income", "expense":
		rec.Type = models.CategoryType(v)
	default:
		report.fail(index, "type", v, CodeInvalidType, "type must be income or expense")
	}

	if v := row["name"]; v == "" {
		report.fail(index, "name", "", CodeMissingRequiredField, "name is required")
	} else if len(v) > 50 {
		report.fail(index, "name", v, CodeNameTooLong, "name must be at most 50 characters")
	} else if !allowDuplicate && rec.Type != "" && ctx.hasName(v, rec.Type) {
		report.fail(index, "name", v, CodeDuplicateName, fmt.Sprintf("a %s category named %q already exists", rec.Type, v))
	} else {
		rec.Name = v
	}

	if v := row["color"]; v == "" {
		report.fail(index, "color", "", CodeMissingRequiredField, "color is required")
	} else if !hexColor.MatchString(v) {
		report.fail(index, "color", v, CodeInvalidColor, "color must be a 3- or 6-digit hex value")
	} else {
		rec.Color = v
	}

	if v := row["icon"]; v == "" {
		report.fail(index, "icon", "", CodeMissingRequiredField, "icon is required")
	} else {
		rec.Icon = v
	}

	if v := row["description"]; v != "" {
		if utf8.RuneCountInString(v) > 200 {
			report.warn(index, "description", v, WarnDescriptionTruncated, "description truncated to 200 characters")
			v = truncateRunes(v, 200)
		}
		rec.Description = v
	}

	if v := row["parent_category"]; v != "" {
		if parent, ok := ctx.ResolveCategory(v); ok {
			rec.Parent = &parent
		} else {
			report.fail(index, "parent_category", v, CodeCategoryNotFound, fmt.Sprintf("parent category %q not found", v))
		}
	}

	return rec, report
}

// ValidateBudgetRow validates one canonical budget row, including the
// overlap check against the context's known budget intervals.
func ValidateBudgetRow(row map[string]string, index int, ctx *RowContext) (BudgetRecord, RowReport) {
	return validateBudgetRow(row, index, ctx, true)
}

// checkOverlap can be disabled for rows being applied as updates to the
// overlapping budget itself.
func validateBudgetRow(row map[string]string, index int, ctx *RowContext, checkOverlap bool) (BudgetRecord, RowReport) {
	report := RowReport{Valid: true}
	var rec BudgetRecord

	if v := row["category"]; v == "" {
		report.fail(index, "category", "", CodeMissingRequiredField, "category is required")
	} else if category, ok := ctx.ResolveCategory(v); !ok {
		report.fail(index, "category", v, CodeCategoryNotFound, fmt.Sprintf("category %q not found", v))
	} else if category.Type != models.CategoryTypeExpense {
		report.fail(index, "category", v, CodeInvalidCategoryType, "budgets require an expense category")
	} else if !category.IsActive {
		report.fail(index, "category", v, CodeCategoryInactive, fmt.Sprintf("category %q is inactive", category.Name))
	} else {
		rec.Category = category
	}

	if v := row["amount"]; v == "" {
		report.fail(index, "amount", "", CodeMissingRequiredField, "amount is required")
	} else if amount, err := ParseAmount(v); err != nil {
		report.fail(index, "amount", v, CodeInvalidAmount, "amount is not a number")
	} else if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(models.MaxTransactionAmount) {
		report.fail(index, "amount", v, CodeInvalidAmount, "amount must be greater than zero and at most 999999999.99")
	} else {
		rec.Amount = amount
	}

	switch v := row["period"]; v {
	case "":
		report.fail(index, "period", "", CodeMissingRequiredField, "period is required")
	case "weekly", "monthly", "yearly":
		rec.Period = models.BudgetPeriod(v)
	default:
		report.fail(index, "period", v, CodeInvalidPeriod, "period must be weekly, monthly, or yearly")
	}

	if v := row["start_date"]; v == "" {
		report.fail(index, "start_date", "", CodeMissingRequiredField, "start_date is required")
	} else if start, err := ParseDate(v); err != nil {
		report.fail(index, "start_date", v, CodeInvalidDateFormat, "start_date could not be parsed")
	} else {
		rec.Start = start
	}

	if v := row["end_date"]; v != "" {
		end, err := ParseDate(v)
		switch {
		case err != nil:
			report.fail(index, "end_date", v, CodeInvalidDateFormat, "end_date could not be parsed")
		case !rec.Start.IsZero() && !end.After(rec.Start):
			report.fail(index, "end_date", v, CodeInvalidEndDate, "end_date must be after start_date")
		default:
			rec.End = end
		}
	}

	// Derive the end date and run the overlap check only once the row is
	// otherwise valid.
	if report.Valid {
		if rec.End.IsZero() {
			rec.End = periods.EndDateFor(rec.Start, rec.Period)
		}
		if checkOverlap && ctx.overlapsBudget(rec.Category.ID, rec.Start, rec.End) {
			report.fail(index, "start_date", row["start_date"], CodeOverlappingBudget,
				fmt.Sprintf("an active budget for %q already covers part of this range", rec.Category.Name))
		}
	}

	return rec, report
}

// effectiveEnd resolves a budget row's end date: the explicit end_date when
// present, otherwise derived from the row's period. The boolean is false
// when neither yields a usable date.
func effectiveEnd(row map[string]string, start time.Time) (time.Time, bool) {
	if v := row["end_date"]; v != "" {
		end, err := ParseDate(v)
		if err != nil || !end.After(start) {
			return time.Time{}, false
		}
		return end, true
	}
	switch p := models.BudgetPeriod(row["period"]); p {
	case models.BudgetPeriodWeekly, models.BudgetPeriodMonthly, models.BudgetPeriodYearly:
		return periods.EndDateFor(start, p), true
	}
	return time.Time{}, false
}
