package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"biblio-app/middleware"
	"biblio-app/models"
	"biblio-app/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ShelvingController struct {
	Hierarchy *repositories.HierarchyRepository
	Log       logrus.FieldLogger
}

func NewShelvingController(hierarchy *repositories.HierarchyRepository, log logrus.FieldLogger) *ShelvingController {
	return &ShelvingController{Hierarchy: hierarchy, Log: log}
}

type CreateUnitRequest struct {
	Code      string `json:"code" validate:"required,alphanum,max=16"`
	Name      string `json:"name" validate:"max=100"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

func (c *ShelvingController) CreateUnit(ctx *fiber.Ctx) error {
	var req CreateUnitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request payload", err)
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  validationErrors(err),
		})
	}

	userID := middleware.UserID(ctx)
	unit := models.ShelfUnit{
		Code:      req.Code,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
	if err := c.Hierarchy.CreateUnit(ctx.UserContext(), &unit); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Shelf unit code already exists"})
		}
		return internalError(ctx, "Failed to create shelf unit", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Shelf unit created", "data": unit})
}

type CreateLevelRequest struct {
	ShelfUnitID uint `json:"shelf_unit_id" validate:"required"`
	Number      int  `json:"number" validate:"required,gte=1"`
	SortOrder   int  `json:"sort_order" validate:"gte=0"`
	SlotCount   int  `json:"slot_count" validate:"gte=0,lte=500"`
}

func (c *ShelvingController) CreateLevel(ctx *fiber.Ctx) error {
	var req CreateLevelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request payload", err)
	}
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  validationErrors(err),
		})
	}

	userID := middleware.UserID(ctx)
	level := models.ShelfLevel{
		ShelfUnitID: req.ShelfUnitID,
		Number:      req.Number,
		SortOrder:   req.SortOrder,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if err := c.Hierarchy.CreateLevel(ctx.UserContext(), &level, req.SlotCount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Shelf unit not found"})
		}
		return internalError(ctx, "Failed to create shelf level", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Shelf level created", "data": level})
}

//====================================================================
// BEGIN IMPORT HIERARCHY FROM EXCEL
//====================================================================

type ExcelHierarchyUploadResponse struct {
	Success          bool                        `json:"success"`
	Message          string                      `json:"message"`
	TotalRows        int                         `json:"total_rows"`
	Summary          *repositories.ImportSummary `json:"summary,omitempty"`
	Errors           []ExcelRowError             `json:"errors,omitempty"`
	ValidationErrors []ValidationError           `json:"validation_errors,omitempty"`
}

const maxUploadSize = 10 * 1024 * 1024

// ImportFromExcel reads the first sheet of an .xlsx upload with the columns
// unit code, unit name, level number and slot count.
func (c *ShelvingController) ImportFromExcel(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "No file uploaded or invalid file",
			Errors:  []ExcelRowError{{Row: 0, Message: "File Error", Detail: err.Error()}},
		})
	}

	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xlsx") {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Invalid file format. Only .xlsx files are allowed",
		})
	}

	if file.Size > maxUploadSize {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "File size exceeds maximum limit of 10MB",
		})
	}

	fh, err := file.Open()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Failed to open uploaded file",
			Errors:  []ExcelRowError{{Row: 0, Message: "File Processing Error", Detail: err.Error()}},
		})
	}
	defer fh.Close()

	book, err := excelize.OpenReader(fh)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Failed to read Excel file. Please ensure the file is not corrupted",
			Errors:  []ExcelRowError{{Row: 0, Message: "Excel Read Error", Detail: err.Error()}},
		})
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Excel file contains no sheets",
		})
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Failed to read rows from Excel",
			Errors:  []ExcelRowError{{Row: 0, Message: "Sheet Read Error", Detail: err.Error()}},
		})
	}
	if len(rows) < 2 {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Excel file must contain at least header row and one data row",
		})
	}

	parsed, validationErrs := parseHierarchyRows(rows)
	validationErrs = append(validationErrs, duplicateHierarchyRows(parsed)...)
	if len(validationErrs) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success:          false,
			Message:          fmt.Sprintf("Validation failed with %d errors", len(validationErrs)),
			TotalRows:        len(rows) - 1,
			ValidationErrors: validationErrs,
		})
	}
	if len(parsed) == 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(ExcelHierarchyUploadResponse{
			Success:   false,
			Message:   "No valid rows found in Excel file",
			TotalRows: len(rows) - 1,
		})
	}

	summary, err := c.Hierarchy.ImportRows(ctx.UserContext(), parsed, middleware.UserID(ctx))
	if err != nil {
		c.Log.WithError(err).Error("hierarchy import failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(ExcelHierarchyUploadResponse{
			Success: false,
			Message: "Failed to import hierarchy",
			Errors:  []ExcelRowError{{Row: 0, Message: "Database Error", Detail: err.Error()}},
		})
	}

	c.Log.WithFields(logrus.Fields{
		"units_created":  summary.UnitsCreated,
		"levels_created": summary.LevelsCreated,
		"slots_total":    summary.SlotsTotal,
	}).Info("hierarchy imported")

	return ctx.JSON(ExcelHierarchyUploadResponse{
		Success:   true,
		Message:   fmt.Sprintf("Imported %d rows", len(parsed)),
		TotalRows: len(parsed),
		Summary:   &summary,
	})
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseHierarchyRows(rows [][]string) ([]repositories.HierarchyRow, []ValidationError) {
	var out []repositories.HierarchyRow
	var errs []ValidationError

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1

		if cell(row, 0) == "" && cell(row, 2) == "" {
			continue
		}

		code := repositories.NormalizeUnitCode(cell(row, 0))
		if code == "" {
			errs = append(errs, ValidationError{Field: "UnitCode", Message: "Unit code cannot be empty", Row: rowNum})
			continue
		}
		if len(code) > 16 || !isAlphanumeric(code) {
			errs = append(errs, ValidationError{Field: "UnitCode", Message: fmt.Sprintf("Unit code must be 1-16 letters or digits (%s)", code), Row: rowNum})
			continue
		}

		level, err := strconv.Atoi(cell(row, 2))
		if err != nil || level < 1 {
			errs = append(errs, ValidationError{Field: "LevelNumber", Message: fmt.Sprintf("Level number must be a positive integer (%s)", cell(row, 2)), Row: rowNum})
			continue
		}

		slots := 0
		if raw := cell(row, 3); raw != "" {
			slots, err = strconv.Atoi(raw)
			if err != nil || slots < 0 {
				errs = append(errs, ValidationError{Field: "SlotCount", Message: fmt.Sprintf("Slot count must be zero or a positive integer (%s)", raw), Row: rowNum})
				continue
			}
		}

		out = append(out, repositories.HierarchyRow{
			Row:         rowNum,
			UnitCode:    code,
			UnitName:    cell(row, 1),
			LevelNumber: level,
			SlotCount:   slots,
		})
	}
	return out, errs
}

func duplicateHierarchyRows(rows []repositories.HierarchyRow) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for _, r := range rows {
		key := fmt.Sprintf("%s/%d", r.UnitCode, r.LevelNumber)
		if first, ok := seen[key]; ok {
			errs = append(errs, ValidationError{
				Field:   "Duplicate",
				Message: fmt.Sprintf("Duplicate level found (same as row %d): %s level %d", first, r.UnitCode, r.LevelNumber),
				Row:     r.Row,
			})
			continue
		}
		seen[key] = r.Row
	}
	return errs
}

func isAlphanumeric(s string) bool {
	for _, ch := range s {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')) {
			return false
		}
	}
	return true
}
