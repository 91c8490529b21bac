// Package errors provides custom error types for the Budgetly API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Category errors.
var (
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse        = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
	ErrCategoryHasChildren  = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "Category has child categories", StatusCode: http.StatusConflict}
	ErrCategoryCycle        = &AppError{Code: "CATEGORY_CYCLE", Message: "Parent assignment would create a cycle", StatusCode: http.StatusBadRequest}
	ErrDuplicateName        = &AppError{Code: "DUPLICATE_NAME", Message: "A category with this name and type already exists", StatusCode: http.StatusConflict}
	ErrParentTypeMismatch   = &AppError{Code: "PARENT_TYPE_MISMATCH", Message: "Parent category must have the same type", StatusCode: http.StatusBadRequest}
	ErrDefaultCategoryFixed = &AppError{Code: "DEFAULT_CATEGORY_IMMUTABLE", Message: "Structural fields of a default category cannot be changed", StatusCode: http.StatusBadRequest}
	ErrCategoryInactive     = &AppError{Code: "CATEGORY_INACTIVE", Message: "Category is not active", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrTypeMismatch        = &AppError{Code: "TYPE_MISMATCH", Message: "Transaction type must match the category type", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount       = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero and at most 999999999.99", StatusCode: http.StatusBadRequest}
	ErrFutureDate          = &AppError{Code: "FUTURE_DATE", Message: "Date cannot be more than one day in the future", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound     = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrOverlappingBudget  = &AppError{Code: "OVERLAPPING_BUDGET", Message: "An active budget for this category already covers part of this date range", StatusCode: http.StatusConflict}
	ErrNotExpenseCategory = &AppError{Code: "NOT_EXPENSE_CATEGORY", Message: "Budgets require an active expense category", StatusCode: http.StatusBadRequest}
	ErrInvalidDateRange   = &AppError{Code: "INVALID_DATE_RANGE", Message: "End date must be after start date", StatusCode: http.StatusBadRequest}
)

// Import/export errors.
var (
	ErrFileTooLarge      = &AppError{Code: "FILE_TOO_LARGE", Message: "Uploaded file exceeds the maximum allowed size", StatusCode: http.StatusRequestEntityTooLarge}
	ErrUnsupportedFormat = &AppError{Code: "UNSUPPORTED_FORMAT", Message: "Only csv and xlsx files are supported", StatusCode: http.StatusBadRequest}
	ErrTooManyRows       = &AppError{Code: "TOO_MANY_ROWS", Message: "File exceeds the maximum row count for its format", StatusCode: http.StatusBadRequest}
	ErrEmptyFile         = &AppError{Code: "EMPTY_FILE", Message: "File contains no data rows", StatusCode: http.StatusBadRequest}
)
