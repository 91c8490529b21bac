package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetly/internal/models"
	"budgetly/internal/periods"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestCategory creates an active category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, fmt.Sprintf("Test Category %d", nextID()), categoryType)
}

// CreateTestCategoryWithName creates an active category with the given name.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     name,
		Type:     categoryType,
		Color:    "#4CAF50",
		Icon:     "wallet",
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount,
// dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, categoryID string, txType models.TransactionType, amount string) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, categoryID, txType, amount, time.Now())
}

// CreateTestTransactionOn creates a transaction on a specific date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, categoryID string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		CategoryID:  categoryID,
		Date:        periods.Truncate(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active monthly budget starting today.
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID string, amount string) *models.Budget {
	t.Helper()
	return CreateTestBudgetFor(t, db, categoryID, amount, models.BudgetPeriodMonthly, time.Now())
}

// CreateTestBudgetFor creates an active budget with the given period and
// start date; the end date is derived from the period.
func CreateTestBudgetFor(t *testing.T, db *gorm.DB, categoryID string, amount string, period models.BudgetPeriod, start time.Time) *models.Budget {
	t.Helper()

	startDate := periods.Truncate(start)
	budget := &models.Budget{
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		Period:     period,
		StartDate:  startDate,
		EndDate:    periods.EndDateFor(startDate, period),
		IsActive:   true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
