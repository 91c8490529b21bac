package importexport

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/repository"
)

// ExportOptions configures one export run.
type ExportOptions struct {
	Format         Format
	Kind           Kind
	StartDate      *time.Time
	EndDate        *time.Time
	CategoryIDs    []string
	Type           string // transaction type filter: income or expense
	Period         string // budget period filter
	IncludeHeaders bool
	Delimiter      rune // CSV only; 0 means comma
}

// ExportResult describes a generated export file on disk.
type ExportResult struct {
	FileName string       `json:"file_name"`
	FilePath string       `json:"-"`
	Format   Format       `json:"format"`
	Size     int64        `json:"size_bytes"`
	Counts   map[Kind]int `json:"counts"`
	Total    int          `json:"total_records"`
}

// Export fetches the requested records, renders them in the canonical
// column order, and writes the result to a temporary file. KindFull
// combines all three record kinds: one sheet per kind for XLSX, titled
// sections for CSV.
func (s *Service) Export(opts ExportOptions) (*ExportResult, error) {
	switch opts.Kind {
	case KindTransactions, KindCategories, KindBudgets, KindFull:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "export type must be transactions, categories, budgets, or full")
	}

	kinds := []Kind{opts.Kind}
	if opts.Kind == KindFull {
		kinds = []Kind{KindTransactions, KindCategories, KindBudgets}
	}

	sections := make([]exportSection, 0, len(kinds))
	counts := make(map[Kind]int, len(kinds))
	total := 0
	for _, kind := range kinds {
		section, err := s.buildSection(kind, opts)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
		counts[kind] = len(section.rows)
		total += len(section.rows)
	}

	var data []byte
	var err error
	switch opts.Format {
	case FormatXLSX:
		data, err = renderXLSX(sections, opts.IncludeHeaders)
	default:
		data, err = renderCSV(sections, opts.IncludeHeaders)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	name := fmt.Sprintf("%s_export_%s.%s", opts.Kind, time.Now().Format("20060102_150405"), opts.Format)
	f, err := os.CreateTemp("", "budgetly_export_*."+string(opts.Format))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &ExportResult{
		FileName: name,
		FilePath: f.Name(),
		Format:   opts.Format,
		Size:     int64(len(data)),
		Counts:   counts,
		Total:    total,
	}, nil
}

// exportSection is one kind's worth of rendered rows.
type exportSection struct {
	kind    Kind
	headers []string
	rows    [][]string
}

func (s *Service) buildSection(kind Kind, opts ExportOptions) (exportSection, error) {
	section := exportSection{kind: kind, headers: Headers(kind)}

	switch kind {
	case KindTransactions:
		filters := repository.Filters{}
		if opts.StartDate != nil {
			filters = filters.From("date", *opts.StartDate)
		}
		if opts.EndDate != nil {
			filters = filters.To("date", *opts.EndDate)
		}
		if opts.Type != "" {
			filters = filters.Where("type", opts.Type)
		}
		query := s.db.Preload("Category").Scopes(repository.Apply(filters))
		if len(opts.CategoryIDs) > 0 {
			query = query.Where("category_id IN ?", opts.CategoryIDs)
		}
		var transactions []models.Transaction
		if err := query.Order("date ASC, created_at ASC").Find(&transactions).Error; err != nil {
			return section, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, tx := range transactions {
			section.rows = append(section.rows, []string{
				string(tx.Type),
				tx.Amount.StringFixed(2),
				tx.Description,
				categoryRef(tx.Category.Name, tx.CategoryID),
				tx.Date.Format("2006-01-02"),
			})
		}

	case KindCategories:
		query := s.db.Preload("Parent").Order("type ASC, name ASC")
		if len(opts.CategoryIDs) > 0 {
			query = query.Where("id IN ?", opts.CategoryIDs)
		}
		var categories []models.Category
		if err := query.Find(&categories).Error; err != nil {
			return section, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, c := range categories {
			parent := ""
			if c.Parent != nil {
				parent = categoryRef(c.Parent.Name, c.Parent.ID)
			} else if c.ParentID != nil {
				parent = *c.ParentID
			}
			section.rows = append(section.rows, []string{
				c.Name,
				string(c.Type),
				c.Color,
				c.Icon,
				c.Description,
				parent,
			})
		}

	case KindBudgets:
		filters := repository.Filters{}
		if opts.StartDate != nil {
			filters = filters.From("start_date", *opts.StartDate)
		}
		if opts.EndDate != nil {
			filters = filters.To("end_date", *opts.EndDate)
		}
		if opts.Period != "" {
			filters = filters.Where("period", opts.Period)
		}
		query := s.db.Preload("Category").Scopes(repository.Apply(filters))
		if len(opts.CategoryIDs) > 0 {
			query = query.Where("category_id IN ?", opts.CategoryIDs)
		}
		var budgets []models.Budget
		if err := query.Order("start_date ASC").Find(&budgets).Error; err != nil {
			return section, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, b := range budgets {
			section.rows = append(section.rows, []string{
				categoryRef(b.Category.Name, b.CategoryID),
				b.Amount.StringFixed(2),
				string(b.Period),
				b.StartDate.Format("2006-01-02"),
				b.EndDate.Format("2006-01-02"),
			})
		}
	}

	return section, nil
}

// categoryRef renders a category reference cell: the preloaded name when the
// relation resolved, otherwise the raw id (e.g. when the category was
// soft-deleted after the record was written).
func categoryRef(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func renderCSV(sections []exportSection, includeHeaders bool) ([]byte, error) {
	if len(sections) == 1 {
		return writeCSV(sections[0].headers, sections[0].rows, includeHeaders)
	}

	var sb strings.Builder
	for i, section := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("# " + sectionTitle(section.kind) + "\n")
		data, err := writeCSV(section.headers, section.rows, includeHeaders)
		if err != nil {
			return nil, err
		}
		sb.Write(data)
	}
	return []byte(sb.String()), nil
}

func renderXLSX(sections []exportSection, includeHeaders bool) ([]byte, error) {
	var f *excelize.File
	for i, section := range sections {
		if i == 0 {
			var err error
			f, err = newXLSX(sectionTitle(section.kind), section.headers, section.rows, includeHeaders)
			if err != nil {
				return nil, err
			}
			continue
		}
		if err := appendSheet(f, sectionTitle(section.kind), section.headers, section.rows, includeHeaders); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sectionTitle(kind Kind) string {
	switch kind {
	case KindTransactions:
		return "Transactions"
	case KindCategories:
		return "Categories"
	case KindBudgets:
		return "Budgets"
	default:
		return "Data"
	}
}
