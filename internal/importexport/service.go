package importexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"budgetly/internal/config"
	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
)

// Service orchestrates bulk imports and exports over the store.
type Service struct {
	db     *gorm.DB
	limits config.Limits
}

// NewService creates a new import/export Service.
func NewService(db *gorm.DB, limits config.Limits) *Service {
	return &Service{db: db, limits: limits}
}

// ImportOptions configures one import run.
type ImportOptions struct {
	Format         Format
	Kind           Kind
	ValidateData   bool // abort without persisting if any row is invalid
	SkipDuplicates bool
	UpdateExisting bool
	Delimiter      rune // CSV only; 0 means comma
}

// Import runs the full pipeline for one uploaded file: decode, per-row
// validation against a point-in-time snapshot, duplicate/overlap detection,
// and batched persistence. One invalid row does not abort the others
// (unless ValidateData is set); the summary always reports both successes
// and failures.
func (s *Service) Import(r io.Reader, opts ImportOptions) (*models.ImportSummary, error) {
	started := time.Now()

	switch opts.Kind {
	case KindTransactions, KindCategories, KindBudgets:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "import type must be transactions, categories, or budgets")
	}

	maxRows := s.limits.MaxRowsCSV
	if opts.Format == FormatXLSX {
		maxRows = s.limits.MaxRowsXLSX
	}

	headers, rawRows, err := readRows(r, opts.Format, opts.Delimiter, maxRows)
	if err != nil {
		return nil, err
	}

	structure := ValidateStructure(headers, opts.Kind)
	if !structure.Valid {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"missing required columns: "+strings.Join(structure.Missing, ", "))
	}

	ctx, budgets, seenTx, err := s.snapshot(opts.Kind)
	if err != nil {
		return nil, err
	}

	run := &importRun{
		service: s,
		opts:    opts,
		ctx:     ctx,
		budgets: budgets,
		seenTx:  seenTx,
		summary: &models.ImportSummary{Errors: []models.ImportError{}, Warnings: []models.ImportWarning{}},
	}

	for i, raw := range rawRows {
		row := canonicalize(opts.Kind, raw)
		index := i + 1
		run.summary.Processed++

		switch opts.Kind {
		case KindTransactions:
			run.processTransaction(row, index)
		case KindCategories:
			run.processCategory(row, index)
		case KindBudgets:
			run.processBudget(row, index)
		}
	}

	run.summary.TotalRows = len(rawRows)

	if opts.ValidateData && len(run.summary.Errors) > 0 {
		// Strict mode: report everything, persist nothing.
		run.summary.Success = false
		run.summary.Imported = 0
		run.summary.Updated = 0
		run.summary.ExecutionMS = time.Since(started).Milliseconds()
		return run.summary, nil
	}

	run.persist()

	run.summary.Success = len(run.summary.Errors) == 0
	run.summary.ExecutionMS = time.Since(started).Milliseconds()
	return run.summary, nil
}

// snapshot fetches the existing records an import validates against, once
// per run. Duplicate detection within the run does not re-read the store.
func (s *Service) snapshot(kind Kind) (*RowContext, []models.Budget, map[string]bool, error) {
	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if kind == KindBudgets {
		if err := s.db.Where("is_active = ?", true).Find(&budgets).Error; err != nil {
			return nil, nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	seenTx := make(map[string]bool)
	txByKey := make(map[string]string)
	if kind == KindTransactions {
		var transactions []models.Transaction
		if err := s.db.Find(&transactions).Error; err != nil {
			return nil, nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, tx := range transactions {
			key := transactionKey(tx.Type, tx.Amount.StringFixed(2), tx.Description, tx.CategoryID, tx.Date)
			seenTx[key] = true
			txByKey[key] = tx.ID
		}
	}

	ctx := NewRowContext(categories, budgets)
	ctx.txIDByKey = txByKey
	return ctx, budgets, seenTx, nil
}

func transactionKey(t models.TransactionType, amount, description, categoryID string, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", t, amount, strings.ToLower(description), categoryID, date.Format("2006-01-02"))
}

// importRun carries the mutable state of one import call.
type importRun struct {
	service *Service
	opts    ImportOptions
	ctx     *RowContext
	budgets []models.Budget
	seenTx  map[string]bool
	summary *models.ImportSummary

	pendingTransactions []models.Transaction
	pendingCategories   []CategoryRecord
	pendingBudgets      []models.Budget
}

func (r *importRun) addReport(report RowReport) {
	r.summary.Errors = append(r.summary.Errors, report.Errors...)
	r.summary.Warnings = append(r.summary.Warnings, report.Warnings...)
}

func (r *importRun) skip(index int, message string) {
	r.summary.Skipped++
	r.summary.Warnings = append(r.summary.Warnings, models.ImportWarning{
		Row:     index,
		Code:    WarnRowSkipped,
		Message: message,
	})
}

func (r *importRun) duplicateError(index int, field, value string) {
	r.summary.Errors = append(r.summary.Errors, models.ImportError{
		Row:      index,
		Field:    field,
		Value:    value,
		Code:     CodeDuplicateEntry,
		Message:  "row matches an existing record",
		Severity: models.SeverityError,
	})
}

func (r *importRun) processTransaction(row map[string]string, index int) {
	rec, report := ValidateTransactionRow(row, index, r.ctx, time.Now())
	r.addReport(report)
	if !report.Valid {
		return
	}

	key := transactionKey(rec.Type, rec.Amount.StringFixed(2), rec.Description, rec.Category.ID, rec.Date)
	if r.seenTx[key] {
		switch {
		case r.opts.SkipDuplicates:
			r.skip(index, "duplicate transaction skipped")
		case r.opts.UpdateExisting:
			if _, ok := r.ctx.txIDByKey[key]; ok {
				// Every imported field is part of the duplicate key, so the
				// stored row already matches; count it without a write.
				r.summary.Updated++
			} else {
				// Duplicate of a row earlier in this file.
				r.skip(index, "duplicate of an earlier row in this file")
			}
		default:
			r.duplicateError(index, "description", rec.Description)
		}
		return
	}
	r.seenTx[key] = true

	r.pendingTransactions = append(r.pendingTransactions, models.Transaction{
		Type:        rec.Type,
		Amount:      rec.Amount,
		Description: rec.Description,
		CategoryID:  rec.Category.ID,
		Date:        rec.Date,
	})
}

func (r *importRun) processCategory(row map[string]string, index int) {
	name, ctype := row["name"], models.CategoryType(row["type"])

	// Duplicate detection (name+type) runs before validation so the
	// skip/update flags can take effect instead of a DUPLICATE_NAME error.
	if name != "" && (ctype == models.CategoryTypeIncome || ctype == models.CategoryTypeExpense) && r.ctx.hasName(name, ctype) {
		switch {
		case r.opts.SkipDuplicates:
			r.skip(index, "duplicate category skipped")
			return
		case r.opts.UpdateExisting:
			rec, report := validateCategoryRow(row, index, r.ctx, true)
			r.addReport(report)
			if !report.Valid {
				return
			}
			existing, ok := r.ctx.ResolveCategory(rec.Name)
			if !ok || existing.ID == "" {
				r.skip(index, "duplicate of an earlier row in this file")
				return
			}
			updates := map[string]interface{}{"color": rec.Color, "icon": rec.Icon, "description": rec.Description}
			if err := r.service.db.Model(&models.Category{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				r.storageError(index, err)
				return
			}
			r.summary.Updated++
			return
		}
	}

	rec, report := ValidateCategoryRow(row, index, r.ctx)
	r.addReport(report)
	if !report.Valid {
		return
	}

	// Register the accepted row so later rows in the file see it.
	r.ctx.AddCategory(models.Category{Name: rec.Name, Type: rec.Type})
	r.pendingCategories = append(r.pendingCategories, rec)
}

func (r *importRun) processBudget(row map[string]string, index int) {
	// Overlap-driven duplicate handling runs before validation so the
	// skip/update flags can take effect instead of an OVERLAPPING_BUDGET
	// error.
	if category, start, end, ok := r.parseBudgetRange(row); ok && r.ctx.overlapsBudget(category.ID, start, end) {
		switch {
		case r.opts.SkipDuplicates:
			r.skip(index, "budget overlapping an existing one skipped")
			return
		case r.opts.UpdateExisting:
			rec, report := validateBudgetRow(row, index, r.ctx, false)
			r.addReport(report)
			if !report.Valid {
				return
			}
			if existing := r.findOverlapping(category.ID, start, end); existing != nil {
				updates := map[string]interface{}{
					"amount":     rec.Amount,
					"period":     rec.Period,
					"start_date": rec.Start,
					"end_date":   rec.End,
				}
				if err := r.service.db.Model(&models.Budget{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
					r.storageError(index, err)
					return
				}
				r.summary.Updated++
				return
			}
			// Overlap came from an earlier row in this file.
			r.skip(index, "overlaps a budget accepted earlier in this file")
			return
		}
	}

	rec, report := ValidateBudgetRow(row, index, r.ctx)
	r.addReport(report)
	if !report.Valid {
		return
	}

	r.ctx.AddBudgetRange(rec.Category.ID, rec.Start, rec.End)
	r.pendingBudgets = append(r.pendingBudgets, models.Budget{
		CategoryID: rec.Category.ID,
		Amount:     rec.Amount,
		Period:     rec.Period,
		StartDate:  rec.Start,
		EndDate:    rec.End,
		IsActive:   true,
	})
}

// parseBudgetRange extracts just enough of a budget row to run the overlap
// pre-check: resolved category plus the effective [start, end] range.
func (r *importRun) parseBudgetRange(row map[string]string) (models.Category, time.Time, time.Time, bool) {
	category, ok := r.ctx.ResolveCategory(row["category"])
	if !ok {
		return models.Category{}, time.Time{}, time.Time{}, false
	}
	start, err := ParseDate(row["start_date"])
	if err != nil {
		return models.Category{}, time.Time{}, time.Time{}, false
	}
	end, derived := effectiveEnd(row, start)
	if !derived {
		return models.Category{}, time.Time{}, time.Time{}, false
	}
	return category, start, end, true
}

func (r *importRun) findOverlapping(categoryID string, start, end time.Time) *models.Budget {
	for i := range r.budgets {
		b := &r.budgets[i]
		if b.CategoryID != categoryID {
			continue
		}
		if !start.After(b.EndDate) && !end.Before(b.StartDate) {
			return b
		}
	}
	return nil
}

func (r *importRun) storageError(index int, err error) {
	r.summary.Errors = append(r.summary.Errors, models.ImportError{
		Row:      index,
		Code:     apperrors.ErrInternalServer.Code,
		Message:  err.Error(),
		Severity: models.SeverityError,
	})
}

// persist writes staged rows. Transactions and budgets go through an
// all-or-nothing batched create; categories are created one at a time so a
// single bad row does not abort its siblings.
func (r *importRun) persist() {
	batchSize := r.service.limits.MaxBatchSize

	if len(r.pendingTransactions) > 0 {
		if err := r.service.db.CreateInBatches(&r.pendingTransactions, batchSize).Error; err != nil {
			r.summary.Errors = append(r.summary.Errors, models.ImportError{
				Row:      0,
				Code:     apperrors.ErrInternalServer.Code,
				Message:  "transaction batch create failed: " + err.Error(),
				Severity: models.SeverityError,
			})
		} else {
			r.summary.Imported += len(r.pendingTransactions)
		}
	}

	if len(r.pendingBudgets) > 0 {
		if err := r.service.db.CreateInBatches(&r.pendingBudgets, batchSize).Error; err != nil {
			r.summary.Errors = append(r.summary.Errors, models.ImportError{
				Row:      0,
				Code:     apperrors.ErrInternalServer.Code,
				Message:  "budget batch create failed: " + err.Error(),
				Severity: models.SeverityError,
			})
		} else {
			r.summary.Imported += len(r.pendingBudgets)
		}
	}

	// Categories insert sequentially in row order so in-file parents exist
	// before their children; each created category re-registers with its
	// real ID for later parent resolution.
	for _, rec := range r.pendingCategories {
		category := models.Category{
			Name:        rec.Name,
			Type:        rec.Type,
			Color:       rec.Color,
			Icon:        rec.Icon,
			Description: rec.Description,
			IsActive:    true,
		}
		if rec.Parent != nil {
			parentID := rec.Parent.ID
			if parentID == "" {
				if resolved, ok := r.ctx.ResolveCategory(rec.Parent.Name); ok && resolved.ID != "" {
					parentID = resolved.ID
				}
			}
			if parentID != "" {
				category.ParentID = &parentID
			}
		}
		if err := r.service.db.Create(&category).Error; err != nil {
			r.summary.Errors = append(r.summary.Errors, models.ImportError{
				Row:      0,
				Field:    "name",
				Value:    rec.Name,
				Code:     apperrors.ErrInternalServer.Code,
				Message:  err.Error(),
				Severity: models.SeverityError,
			})
			continue
		}
		r.ctx.AddCategory(category)
		r.summary.Imported++
	}
}
