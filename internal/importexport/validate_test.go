package importexport

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetly/internal/models"
)

func testContext() *RowContext {
	return NewRowContext([]models.Category{
		{Base: models.Base{ID: "cat-groceries"}, Name: "Groceries", Type: models.CategoryTypeExpense, IsActive: true},
		{Base: models.Base{ID: "cat-salary"}, Name: "Salary", Type: models.CategoryTypeIncome, IsActive: true},
		{Base: models.Base{ID: "cat-dormant"}, Name: "Dormant", Type: models.CategoryTypeExpense, IsActive: false},
	}, nil)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, value := range []string{"2025-03-15", "03/15/2025", "2025/03/15", "03-15-2025"} {
		got, err := ParseDate(value)
		require.NoError(t, err, value)
		assert.True(t, got.Equal(want), "%s parsed to %s", value, got)
	}

	_, err := ParseDate("not a date")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42.50", "42.5"},
		{"$1,234.56", "1234.56"},
		{"  99 ", "99"},
		{"-12.30", "-12.3"},
	}
	for _, tc := range tests {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s parsed to %s", tc.in, got)
	}

	_, err := ParseAmount("abc")
	assert.Error(t, err)
}

func TestValidateTransactionRow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := testContext()

	t.Run("valid row", func(t *testing.T) {
		rec, report := ValidateTransactionRow(map[string]string{
			"type":        "expense",
			"amount":      "50.25",
			"description": "Weekly shop",
			"category":    "groceries",
			"date":        "2025-05-20",
		}, 1, ctx, now)

		require.True(t, report.Valid)
		assert.Empty(t, report.Errors)
		assert.Equal(t, "cat-groceries", rec.Category.ID)
		assert.True(t, rec.Amount.Equal(decimal.RequireFromString("50.25")))
	})

	t.Run("missing amount yields one error on the amount field", func(t *testing.T) {
		_, report := ValidateTransactionRow(map[string]string{
			"type":        "expense",
			"description": "Weekly shop",
			"category":    "Groceries",
			"date":        "2025-05-20",
		}, 3, ctx, now)

		require.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "amount", report.Errors[0].Field)
		assert.Equal(t, CodeMissingRequiredField, report.Errors[0].Code)
		assert.Equal(t, 3, report.Errors[0].Row)
	})

	t.Run("each invalid field reported separately", func(t *testing.T) {
		_, report := ValidateTransactionRow(map[string]string{
			"type":        "transfer",
			"amount":      "-5",
			"description": "x",
			"category":    "Unknown",
			"date":        "13/45/2025",
		}, 2, ctx, now)

		require.False(t, report.Valid)
		codes := make(map[string]bool)
		for _, e := range report.Errors {
			codes[e.Code] = true
		}
		assert.True(t, codes[CodeInvalidType])
		assert.True(t, codes[CodeInvalidAmount])
		assert.True(t, codes[CodeCategoryNotFound])
		assert.True(t, codes[CodeInvalidDateFormat])
	})

	t.Run("amount over maximum rejected", func(t *testing.T) {
		_, report := ValidateTransactionRow(map[string]string{
			"type":        "expense",
			"amount":      "1000000000.00",
			"description": "too big",
			"category":    "Groceries",
			"date":        "2025-05-20",
		}, 1, ctx, now)

		require.False(t, report.Valid)
		assert.Equal(t, CodeInvalidAmount, report.Errors[0].Code)
	})

	t.Run("category of the other type rejected", func(t *testing.T) {
		_, report := ValidateTransactionRow(map[string]string{
			"type":        "income",
			"amount":      "50",
			"description": "Weekly shop",
			"category":    "Groceries",
			"date":        "2025-05-20",
		}, 1, ctx, now)

		require.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "category", report.Errors[0].Field)
		assert.Equal(t, CodeInvalidCategoryType, report.Errors[0].Code)
	})

	t.Run("inactive category rejected", func(t *testing.T) {
		_, report := ValidateTransactionRow(map[string]string{
			"type":        "expense",
			"amount":      "50",
			"description": "Old bucket",
			"category":    "Dormant",
			"date":        "2025-05-20",
		}, 1, ctx, now)

		require.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, CodeCategoryInactive, report.Errors[0].Code)
	})

	t.Run("far future date accepted with warning", func(t *testing.T) {
		rec, report := ValidateTransactionRow(map[string]string{
			"type":        "income",
			"amount":      "100",
			"description": "Advance",
			"category":    "Salary",
			"date":        "2025-07-01",
		}, 1, ctx, now)

		require.True(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, WarnFutureDate, report.Warnings[0].Code)
		assert.False(t, rec.Date.IsZero())
	})

	t.Run("long description truncated with warning", func(t *testing.T) {
		long := make([]byte, 250)
		for i := range long {
			long[i] = 'a'
		}
		rec, report := ValidateTransactionRow(map[string]string{
			"type":        "expense",
			"amount":      "10",
			"description": string(long),
			"category":    "Groceries",
			"date":        "2025-05-20",
		}, 1, ctx, now)

		require.True(t, report.Valid)
		assert.Len(t, rec.Description, 200)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, WarnDescriptionTruncated, report.Warnings[0].Code)
	})

	t.Run("multi-byte description truncated on a rune boundary", func(t *testing.T) {
		rec, report := ValidateTransactionRow(map[string]string{
			"type":        "expense",
			"amount":      "10",
			"description": strings.Repeat("é", 250),
			"category":    "Groceries",
			"date":        "2025-05-20",
		}, 1, ctx, now)

		require.True(t, report.Valid)
		assert.True(t, utf8.ValidString(rec.Description))
		assert.Equal(t, 200, utf8.RuneCountInString(rec.Description))
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, WarnDescriptionTruncated, report.Warnings[0].Code)
	})
}

func TestValidateCategoryRow(t *testing.T) {
	ctx := testContext()

	t.Run("valid row with parent", func(t *testing.T) {
		rec, report := ValidateCategoryRow(map[string]string{
			"name":            "Produce",
			"type":            "expense",
			"color":           "#FF5722",
			"icon":            "leaf",
			"parent_category": "Groceries",
		}, 1, ctx)

		require.True(t, report.Valid)
		require.NotNil(t, rec.Parent)
		assert.Equal(t, "cat-groceries", rec.Parent.ID)
	})

	t.Run("duplicate name within type rejected", func(t *testing.T) {
		_, report := ValidateCategoryRow(map[string]string{
			"name":  "groceries",
			"type":  "expense",
			"color": "#FF5722",
			"icon":  "cart",
		}, 1, ctx)

		require.False(t, report.Valid)
		assert.Equal(t, CodeDuplicateName, report.Errors[0].Code)
	})

	t.Run("same name allowed across types", func(t *testing.T) {
		_, report := ValidateCategoryRow(map[string]string{
			"name":  "Groceries",
			"type":  "income",
			"color": "#FF5722",
			"icon":  "cart",
		}, 1, ctx)

		assert.True(t, report.Valid)
	})

	t.Run("invalid color rejected", func(t *testing.T) {
		_, report := ValidateCategoryRow(map[string]string{
			"name":  "Fuel",
			"type":  "expense",
			"color": "red",
			"icon":  "pump",
		}, 1, ctx)

		require.False(t, report.Valid)
		assert.Equal(t, CodeInvalidColor, report.Errors[0].Code)
	})

	t.Run("later rows see earlier accepted names", func(t *testing.T) {
		local := testContext()
		local.AddCategory(models.Category{Name: "Fuel", Type: models.CategoryTypeExpense})

		_, report := ValidateCategoryRow(map[string]string{
			"name":  "Fuel",
			"type":  "expense",
			"color": "#000000",
			"icon":  "pump",
		}, 2, local)

		require.False(t, report.Valid)
		assert.Equal(t, CodeDuplicateName, report.Errors[0].Code)
	})
}

func TestValidateBudgetRow(t *testing.T) {
	t.Run("end date derived from period", func(t *testing.T) {
		rec, report := ValidateBudgetRow(map[string]string{
			"category":   "Groceries",
			"amount":     "500",
			"period":     "monthly",
			"start_date": "2025-01-01",
		}, 1, testContext())

		require.True(t, report.Valid)
		assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), rec.End)
	})

	t.Run("income category rejected", func(t *testing.T) {
		_, report := ValidateBudgetRow(map[string]string{
			"category":   "Salary",
			"amount":     "500",
			"period":     "monthly",
			"start_date": "2025-01-01",
		}, 1, testContext())

		require.False(t, report.Valid)
		assert.Equal(t, CodeInvalidCategoryType, report.Errors[0].Code)
	})

	t.Run("inactive category rejected", func(t *testing.T) {
		_, report := ValidateBudgetRow(map[string]string{
			"category":   "Dormant",
			"amount":     "500",
			"period":     "monthly",
			"start_date": "2025-01-01",
		}, 1, testContext())

		require.False(t, report.Valid)
		assert.Equal(t, CodeCategoryInactive, report.Errors[0].Code)
	})

	t.Run("amount over maximum rejected", func(t *testing.T) {
		_, report := ValidateBudgetRow(map[string]string{
			"category":   "Groceries",
			"amount":     "1000000000.00",
			"period":     "monthly",
			"start_date": "2025-01-01",
		}, 1, testContext())

		require.False(t, report.Valid)
		assert.Equal(t, CodeInvalidAmount, report.Errors[0].Code)
	})

	t.Run("explicit end date must follow start", func(t *testing.T) {
		_, report := ValidateBudgetRow(map[string]string{
			"category":   "Groceries",
			"amount":     "500",
			"period":     "monthly",
			"start_date": "2025-01-15",
			"end_date":   "2025-01-15",
		}, 1, testContext())

		require.False(t, report.Valid)
		assert.Equal(t, CodeInvalidEndDate, report.Errors[0].Code)
	})

	t.Run("overlap with earlier accepted row rejected", func(t *testing.T) {
		ctx := testContext()

		first, report := ValidateBudgetRow(map[string]string{
			"category":   "Groceries",
			"amount":     "500",
			"period":     "monthly",
			"start_date": "2025-01-01",
		}, 1, ctx)
		require.True(t, report.Valid)
		ctx.AddBudgetRange(first.Category.ID, first.Start, first.End)

		_, report = ValidateBudgetRow(map[string]string{
			"category":   "Groceries",
			"amount":     "300",
			"period":     "weekly",
			"start_date": "2025-01-31",
		}, 2, ctx)

		require.False(t, report.Valid)
		assert.Equal(t, CodeOverlappingBudget, report.Errors[0].Code)
	})

	t.Run("overlap check skipped while other fields invalid", func(t *testing.T) {
		ctx := testContext()
		ctx.AddBudgetRange("cat-groceries",
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))

		_, report := ValidateBudgetRow(map[string]string{
			"category":   "Groceries",
			"amount":     "oops",
			"period":     "monthly",
			"start_date": "2025-01-01",
		}, 1, ctx)

		require.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, CodeInvalidAmount, report.Errors[0].Code)
	})
}
