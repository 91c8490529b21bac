package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/periods"
	"budgetly/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateBudget(t *testing.T) {
	t.Run("derives end date from period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		budget, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected non-empty budget ID")
		}
		if !budget.EndDate.Equal(date(2025, 1, 31)) {
			t.Errorf("expected end date 2025-01-31, got %s", budget.EndDate)
		}
		if !budget.IsActive {
			t.Error("expected budget to be active")
		}
	})

	t.Run("explicit end date kept", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		end := date(2025, 6, 30)
		budget, err := svc.CreateBudget(cat.ID, dec("3000.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), &end)
		testutil.AssertNoError(t, err)

		if !budget.EndDate.Equal(end) {
			t.Errorf("expected end date %s, got %s", end, budget.EndDate)
		}
	})

	t.Run("amount over maximum rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(cat.ID, dec("1000000000.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("end date not after start rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		end := date(2025, 1, 1)
		_, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), &end)
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		_, err := svc.CreateBudget("0195f1c0-5e3a-7000-8000-00000000ffff", dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("income category rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		_, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertAppError(t, err, "NOT_EXPENSE_CATEGORY")
	})

	t.Run("overlapping active budget rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		// Starts on the existing budget's last day; overlap is inclusive.
		_, err = svc.CreateBudget(cat.ID, dec("300.00"), models.BudgetPeriodWeekly, date(2025, 1, 31), nil)
		testutil.AssertAppError(t, err, "OVERLAPPING_BUDGET")
	})

	t.Run("adjacent ranges allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 2, 1), nil)
		testutil.AssertNoError(t, err)
	})

	t.Run("inactive budgets do not block", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		first, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		inactive := false
		_, err = svc.UpdateBudget(first.ID, BudgetUpdate{IsActive: &inactive})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(cat.ID, dec("600.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)
	})
}

func TestGetBudgets(t *testing.T) {
	t.Run("filters by period and active flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat1 := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		cat2 := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		testutil.CreateTestBudgetFor(t, db, cat1.ID, "500.00", models.BudgetPeriodMonthly, date(2025, 1, 1))
		testutil.CreateTestBudgetFor(t, db, cat2.ID, "100.00", models.BudgetPeriodWeekly, date(2025, 1, 1))

		weekly := models.BudgetPeriodWeekly
		page := pagination.PageRequest{}
		result, err := svc.GetBudgets(page, nil, &weekly)
		testutil.AssertNoError(t, err)

		if len(result.Data) != 1 {
			t.Fatalf("expected 1 weekly budget, got %d", len(result.Data))
		}
		if result.Data[0].Period != models.BudgetPeriodWeekly {
			t.Errorf("expected weekly, got %s", result.Data[0].Period)
		}
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("period change re-derives end date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		budget, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		weekly := models.BudgetPeriodWeekly
		updated, err := svc.UpdateBudget(budget.ID, BudgetUpdate{Period: &weekly})
		testutil.AssertNoError(t, err)

		if !updated.EndDate.Equal(date(2025, 1, 7)) {
			t.Errorf("expected end date 2025-01-07, got %s", updated.EndDate)
		}
	})

	t.Run("reactivation re-checks overlap", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		first, err := svc.CreateBudget(cat.ID, dec("500.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		inactive := false
		_, err = svc.UpdateBudget(first.ID, BudgetUpdate{IsActive: &inactive})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(cat.ID, dec("600.00"), models.BudgetPeriodMonthly, date(2025, 1, 1), nil)
		testutil.AssertNoError(t, err)

		active := true
		_, err = svc.UpdateBudget(first.ID, BudgetUpdate{IsActive: &active})
		testutil.AssertAppError(t, err, "OVERLAPPING_BUDGET")
	})
}

func TestDeleteBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

	budget := testutil.CreateTestBudget(t, db, cat.ID, "500.00")
	testutil.AssertNoError(t, svc.DeleteBudget(budget.ID))

	_, err := svc.GetBudgetByID(budget.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestGetBudgetProgress(t *testing.T) {
	t.Run("sums expenses in range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		start := periods.Truncate(time.Now().UTC().AddDate(0, 0, -5))
		budget := testutil.CreateTestBudgetFor(t, db, cat.ID, "500.00", models.BudgetPeriodMonthly, start)

		testutil.CreateTestTransactionOn(t, db, cat.ID, models.TransactionTypeExpense, "100.00", start)
		testutil.CreateTestTransactionOn(t, db, cat.ID, models.TransactionTypeExpense, "150.00", start.AddDate(0, 0, 1))
		testutil.CreateTestTransactionOn(t, db, cat.ID, models.TransactionTypeExpense, "50.00", start.AddDate(0, 0, 2))
		// Outside the budget range; must not count.
		testutil.CreateTestTransactionOn(t, db, cat.ID, models.TransactionTypeExpense, "999.00", start.AddDate(0, 0, -1))

		progress, err := svc.GetBudgetProgress(budget.ID)
		testutil.AssertNoError(t, err)

		if !progress.SpentAmount.Equal(dec("300.00")) {
			t.Errorf("expected spent 300.00, got %s", progress.SpentAmount)
		}
		if !progress.RemainingAmount.Equal(dec("200.00")) {
			t.Errorf("expected remaining 200.00, got %s", progress.RemainingAmount)
		}
		if progress.ProgressPercentage != 60 {
			t.Errorf("expected 60%%, got %v", progress.ProgressPercentage)
		}
		if progress.IsOverspent {
			t.Error("expected not overspent")
		}
	})
}

func TestComputeProgress(t *testing.T) {
	budget := models.Budget{
		Amount:    dec("500.00"),
		Period:    models.BudgetPeriodMonthly,
		StartDate: date(2025, 1, 1),
		EndDate:   date(2025, 1, 31),
		IsActive:  true,
	}

	expense := func(amount string, day int) models.Transaction {
		return models.Transaction{
			Type:   models.TransactionTypeExpense,
			Amount: dec(amount),
			Date:   date(2025, 1, day),
		}
	}

	t.Run("spent, remaining, percentage", func(t *testing.T) {
		now := date(2025, 1, 16)
		p := ComputeProgress(budget, []models.Transaction{
			expense("100.00", 2),
			expense("150.00", 5),
			expense("50.00", 10),
		}, now)

		if !p.SpentAmount.Equal(dec("300.00")) {
			t.Errorf("expected spent 300.00, got %s", p.SpentAmount)
		}
		if p.ProgressPercentage != 60 {
			t.Errorf("expected 60%%, got %v", p.ProgressPercentage)
		}
	})

	t.Run("income and out-of-range rows ignored", func(t *testing.T) {
		now := date(2025, 1, 16)
		income := models.Transaction{Type: models.TransactionTypeIncome, Amount: dec("1000.00"), Date: date(2025, 1, 5)}
		outside := expense("400.00", 1)
		outside.Date = date(2025, 2, 1)

		p := ComputeProgress(budget, []models.Transaction{expense("100.00", 2), income, outside}, now)

		if !p.SpentAmount.Equal(dec("100.00")) {
			t.Errorf("expected spent 100.00, got %s", p.SpentAmount)
		}
	})

	t.Run("overspent flag", func(t *testing.T) {
		now := date(2025, 1, 16)
		p := ComputeProgress(budget, []models.Transaction{expense("600.00", 2)}, now)

		if !p.IsOverspent {
			t.Error("expected overspent")
		}
		if p.RemainingAmount.IsPositive() {
			t.Errorf("expected non-positive remaining, got %s", p.RemainingAmount)
		}
	})

	t.Run("projection from average daily spending", func(t *testing.T) {
		// 10 days elapsed of 30, 100 spent: 10/day avg projects 300.
		now := date(2025, 1, 11)
		p := ComputeProgress(budget, []models.Transaction{expense("100.00", 2)}, now)

		if p.DaysRemaining != 20 {
			t.Errorf("expected 20 days remaining, got %d", p.DaysRemaining)
		}
		if !p.AverageDailySpending.Equal(dec("10.00")) {
			t.Errorf("expected 10.00/day, got %s", p.AverageDailySpending)
		}
		if !p.ProjectedTotal.Equal(dec("300.00")) {
			t.Errorf("expected projection 300.00, got %s", p.ProjectedTotal)
		}
	})

	t.Run("zero-amount budget yields zero percentage", func(t *testing.T) {
		zero := budget
		zero.Amount = decimal.Zero
		p := ComputeProgress(zero, []models.Transaction{expense("10.00", 2)}, date(2025, 1, 16))

		if p.ProgressPercentage != 0 {
			t.Errorf("expected 0%%, got %v", p.ProgressPercentage)
		}
	})

	t.Run("expired budget clamps days remaining", func(t *testing.T) {
		p := ComputeProgress(budget, nil, date(2025, 3, 1))

		if p.DaysRemaining != 0 {
			t.Errorf("expected 0 days remaining, got %d", p.DaysRemaining)
		}
	})
}
