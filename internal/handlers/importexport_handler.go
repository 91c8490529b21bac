package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"budgetly/internal/config"
	apperrors "budgetly/internal/errors"
	"budgetly/internal/importexport"
	"budgetly/internal/logger"
	"budgetly/internal/services"
)

// ImportExportHandler handles bulk file requests.
type ImportExportHandler struct {
	service      *importexport.Service
	auditService services.AuditServicer
	limits       config.Limits
}

// NewImportExportHandler creates a new ImportExportHandler.
func NewImportExportHandler(service *importexport.Service, auditService services.AuditServicer, limits config.Limits) *ImportExportHandler {
	return &ImportExportHandler{service: service, auditService: auditService, limits: limits}
}

// ExportRequest represents the request payload for an export.
type ExportRequest struct {
	Format         string     `json:"format" binding:"required,export_format"`
	Type           string     `json:"type" binding:"required,export_type"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	CategoryIDs    []string   `json:"category_ids" binding:"omitempty,dive,uuid"`
	Transaction    string     `json:"transaction_type" binding:"omitempty,transaction_type"`
	Period         string     `json:"period" binding:"omitempty,budget_period"`
	IncludeHeaders *bool      `json:"include_headers"`
}

// Import handles a bulk file upload.
// @Summary     Import records from a file
// @Description Import transactions, categories, or budgets from a CSV or XLSX upload
// @Tags        import-export
// @Accept      multipart/form-data
// @Produce     json
// @Param       file            formData file   true  "CSV or XLSX file (10 MB max)"
// @Param       type            formData string true  "Record type (transactions/categories/budgets)"
// @Param       format          formData string false "File format; inferred from the filename when omitted"
// @Param       validate_data   formData bool   false "Abort without persisting if any row is invalid"
// @Param       skip_duplicates formData bool   false "Skip rows matching existing records"
// @Param       update_existing formData bool   false "Update existing records from matching rows"
// @Param       delimiter       formData string false "CSV delimiter (default comma)"
// @Success     200 {object} models.ImportSummary "Import summary"
// @Failure     400 {object} ErrorResponse "Invalid input or file"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /import [post]
func (h *ImportExportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	if fileHeader.Size > h.limits.MaxFileSizeBytes {
		respondWithError(c, apperrors.ErrFileTooLarge)
		return
	}

	format, err := importexport.DetectFormat(c.PostForm("format"), fileHeader.Filename)
	if err != nil {
		respondWithError(c, err)
		return
	}

	opts := importexport.ImportOptions{
		Format:         format,
		Kind:           importexport.Kind(c.PostForm("type")),
		ValidateData:   c.PostForm("validate_data") == "true",
		SkipDuplicates: c.PostForm("skip_duplicates") == "true",
		UpdateExisting: c.PostForm("update_existing") == "true",
	}
	if d := c.PostForm("delimiter"); d != "" {
		opts.Delimiter = rune(d[0])
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	summary, err := h.service.Import(file, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("IMPORT", string(opts.Kind), "", c.ClientIP(),
		map[string]interface{}{
			"file":     fileHeader.Filename,
			"imported": summary.Imported,
			"updated":  summary.Updated,
			"skipped":  summary.Skipped,
			"errors":   len(summary.Errors),
		})

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Export handles generating and streaming a bulk file download.
// @Summary     Export records to a file
// @Description Export transactions, categories, budgets, or all three to CSV or XLSX
// @Tags        import-export
// @Accept      json
// @Produce     application/octet-stream
// @Param       request body ExportRequest true "Export options"
// @Success     200 {file} file "Generated file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /export [post]
func (h *ImportExportHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must not precede start_date"))
		return
	}

	includeHeaders := true
	if req.IncludeHeaders != nil {
		includeHeaders = *req.IncludeHeaders
	}

	result, err := h.service.Export(importexport.ExportOptions{
		Format:         importexport.Format(req.Format),
		Kind:           importexport.Kind(req.Type),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CategoryIDs:    req.CategoryIDs,
		Type:           req.Transaction,
		Period:         req.Period,
		IncludeHeaders: includeHeaders,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("EXPORT", req.Type, "", c.ClientIP(),
		map[string]interface{}{"format": req.Format, "records": result.Total})

	c.FileAttachment(result.FilePath, result.FileName)

	// The temp file only needs to outlive this response.
	cleanupExport(result.FilePath)
}

// cleanupExport removes a temp export file after a short delay; failures are
// logged, never escalated.
func cleanupExport(path string) {
	time.AfterFunc(time.Minute, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Get().Warnw("failed to remove export temp file", "path", path, "error", err.Error())
		}
	})
}

// GetTemplate handles downloading a starter file for bulk imports.
// @Summary     Download an import template
// @Description Download a CSV or XLSX template for a record type, optionally with example rows and instructions
// @Tags        import-export
// @Accept      json
// @Produce     application/octet-stream
// @Param       type         path  string true  "Record type (transactions/categories/budgets)"
// @Param       format       query string false "File format (csv/xlsx, default csv)"
// @Param       examples     query bool   false "Include example rows"
// @Param       instructions query bool   false "Include an instructions block"
// @Success     200 {file} file "Template file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /templates/{type} [get]
func (h *ImportExportHandler) GetTemplate(c *gin.Context) {
	kind := importexport.Kind(c.Param("type"))
	switch kind {
	case importexport.KindTransactions, importexport.KindCategories, importexport.KindBudgets:
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be transactions, categories, or budgets"))
		return
	}

	format := importexport.FormatCSV
	if v := c.Query("format"); v != "" {
		f, err := importexport.DetectFormat(v, "")
		if err != nil {
			respondWithError(c, err)
			return
		}
		format = f
	}

	data, name, err := importexport.Template(kind, format,
		c.Query("examples") == "true", c.Query("instructions") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	contentType := "text/csv"
	if format == importexport.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// GetLimits handles retrieving the server's import/export limits.
// @Summary     Get import limits
// @Description Get file size, row, and batch limits plus accepted formats
// @Tags        config
// @Produce     json
// @Success     200 {object} config.Limits "Limits"
// @Router      /config/limits [get]
func (h *ImportExportHandler) GetLimits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"limits": h.limits})
}
