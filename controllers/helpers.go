package controllers

import (
	"strconv"

	"biblio-app/types"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidationError reports a field-level problem, optionally tied to an
// uploaded spreadsheet row.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Row     int    `json:"row,omitempty"`
}

type ExcelRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func validationErrors(err error) []ValidationError {
	var out []ValidationError
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: "failed on the '" + fe.Tag() + "' rule",
			})
		}
		return out
	}
	return []ValidationError{{Message: err.Error()}}
}

func badRequest(ctx *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return ctx.Status(fiber.StatusBadRequest).JSON(body)
}

func internalError(ctx *fiber.Ctx, message string, err error) error {
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

// queryUint reads an optional non-negative integer query parameter.
func queryUint(ctx *fiber.Ctx, key string) (uint, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return uint(v), nil
}

func queryItemID(ctx *fiber.Ctx, key string) (types.SnowflakeID, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	id, err := types.ParseSnowflakeID(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return id, nil
}
