package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/periods"
	"budgetly/internal/repository"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction creates a new transaction. The category must exist, be
// active, and have the same type as the transaction. Dates more than one
// day in the future are rejected.
func (s *transactionService) CreateTransaction(
	transactionType models.TransactionType,
	amount decimal.Decimal,
	description string,
	categoryID string,
	date time.Time,
) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if len(description) > 200 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 200 characters")
	}

	if date.IsZero() {
		date = time.Now()
	}
	if date.After(time.Now().AddDate(0, 0, 1)) {
		return nil, apperrors.ErrFutureDate
	}

	category, err := s.lookupCategory(categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperrors.ErrCategoryInactive
	}
	if models.TransactionType(category.Type) != transactionType {
		return nil, apperrors.ErrTypeMismatch
	}

	transaction := &models.Transaction{
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		CategoryID:  categoryID,
		Date:        periods.Truncate(date),
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// GetTransactions retrieves a paginated, filtered list of transactions.
func (s *transactionService) GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Scopes(repository.Apply(transactionFilters(filter)))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Order("date DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// transactionFilters converts a TransactionFilter to tagged repository filters.
func transactionFilters(f TransactionFilter) repository.Filters {
	var filters repository.Filters
	if f.Type != nil {
		filters = filters.Where("type", *f.Type)
	}
	if f.CategoryID != nil {
		filters = filters.Where("category_id", *f.CategoryID)
	}
	if f.FromDate != nil {
		filters = filters.From("date", periods.Truncate(*f.FromDate))
	}
	if f.ToDate != nil {
		filters = filters.To("date", periods.Truncate(*f.ToDate))
	}
	return filters
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates an existing transaction, re-checking the
// category/type pairing when either side changes.
func (s *transactionService) UpdateTransaction(transactionID string, upd TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	newType := transaction.Type
	if upd.Type != nil {
		newType = *upd.Type
	}
	newCategoryID := transaction.CategoryID
	if upd.CategoryID != nil {
		newCategoryID = *upd.CategoryID
	}

	updates := make(map[string]interface{})

	if upd.Type != nil || upd.CategoryID != nil {
		category, err := s.lookupCategory(newCategoryID)
		if err != nil {
			return nil, err
		}
		if !category.IsActive {
			return nil, apperrors.ErrCategoryInactive
		}
		if models.TransactionType(category.Type) != newType {
			return nil, apperrors.ErrTypeMismatch
		}
		updates["type"] = newType
		updates["category_id"] = newCategoryID
	}

	if upd.Amount != nil {
		if err := validateAmount(*upd.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Description != nil {
		if *upd.Description == "" || len(*upd.Description) > 200 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be 1-200 characters")
		}
		updates["description"] = *upd.Description
	}
	if upd.Date != nil {
		if upd.Date.After(time.Now().AddDate(0, 0, 1)) {
			return nil, apperrors.ErrFutureDate
		}
		updates["date"] = periods.Truncate(*upd.Date)
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return transaction, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *transactionService) DeleteTransaction(transactionID string) error {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *transactionService) lookupCategory(categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// validateAmount checks the (0, 999999999.99] amount bound shared by
// transactions and budgets.
func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(models.MaxTransactionAmount) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}
