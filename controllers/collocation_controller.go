package controllers

import (
	"biblio-app/collocation"
	"biblio-app/middleware"
	"biblio-app/models"
	"biblio-app/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CollocationController struct {
	Service     *collocation.Service
	Suggestions *repositories.PlacementRepository
	Log         logrus.FieldLogger
}

func NewCollocationController(service *collocation.Service, suggestions *repositories.PlacementRepository, log logrus.FieldLogger) *CollocationController {
	return &CollocationController{Service: service, Suggestions: suggestions, Log: log}
}

func (c *CollocationController) GetUnits(ctx *fiber.Ctx) error {
	units, err := c.Service.Units(ctx.UserContext())
	if err != nil {
		return internalError(ctx, "Failed to load shelf units", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": units})
}

func (c *CollocationController) GetLevels(ctx *fiber.Ctx) error {
	unitID, err := queryUint(ctx, "unit_id")
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}
	levels, err := c.Service.Levels(ctx.UserContext(), unitID)
	if err != nil {
		return internalError(ctx, "Failed to load shelf levels", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": levels})
}

func (c *CollocationController) GetSlots(ctx *fiber.Ctx) error {
	unitID, err := queryUint(ctx, "unit_id")
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}
	levelID, err := queryUint(ctx, "level_id")
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}
	slots, err := c.Service.Slots(ctx.UserContext(), unitID, levelID)
	if err != nil {
		return internalError(ctx, "Failed to load slots", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": slots})
}

type positionQuery struct {
	UnitID  uint
	LevelID uint
	Ordinal int
}

func parsePosition(ctx *fiber.Ctx) (positionQuery, error) {
	var q positionQuery
	var err error
	if q.UnitID, err = queryUint(ctx, "unit_id"); err != nil {
		return q, err
	}
	if q.LevelID, err = queryUint(ctx, "level_id"); err != nil {
		return q, err
	}
	ordinal, err := queryUint(ctx, "ordinal")
	q.Ordinal = int(ordinal)
	return q, err
}

// GetNextOrdinal returns the ordinal a new item would receive and the code
// it would produce. Nothing is reserved.
func (c *CollocationController) GetNextOrdinal(ctx *fiber.Ctx) error {
	pos, err := parsePosition(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}
	exclude, err := queryItemID(ctx, "exclude_item_id")
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}

	next, err := c.Service.NextOrdinal(ctx.UserContext(), pos.UnitID, pos.LevelID, exclude)
	if err != nil {
		return internalError(ctx, "Failed to compute next ordinal", err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"ordinal": next,
			"code":    c.Service.Encode(ctx.UserContext(), pos.UnitID, pos.LevelID, next),
		},
	})
}

func (c *CollocationController) GetOccupied(ctx *fiber.Ctx) error {
	pos, err := parsePosition(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}
	exclude, err := queryItemID(ctx, "exclude_item_id")
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}

	occupied, err := c.Service.IsOrdinalOccupied(ctx.UserContext(), pos.UnitID, pos.LevelID, pos.Ordinal, exclude)
	if err != nil {
		return internalError(ctx, "Failed to check ordinal", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": fiber.Map{"occupied": occupied}})
}

func (c *CollocationController) GetEncode(ctx *fiber.Ctx) error {
	pos, err := parsePosition(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid query", err)
	}
	code := c.Service.Encode(ctx.UserContext(), pos.UnitID, pos.LevelID, pos.Ordinal)
	return ctx.JSON(fiber.Map{"success": true, "data": fiber.Map{"code": code}})
}

type SuggestRequest struct {
	GenreID    *uint `json:"genre_id"`
	SubgenreID *uint `json:"subgenre_id"`
}

func (c *CollocationController) Suggest(ctx *fiber.Ctx) error {
	var req SuggestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, "Invalid request payload", err)
	}

	suggestion := c.Service.Suggest(ctx.UserContext(), req.GenreID, req.SubgenreID)

	if c.Suggestions != nil {
		placement := suggestion.Placement()
		entry := models.SuggestionLog{
			GenreID:     req.GenreID,
			SubgenreID:  req.SubgenreID,
			UnitID:      placement.UnitID,
			LevelID:     placement.LevelID,
			SlotID:      placement.SlotID,
			Code:        placement.Code,
			RequestedBy: middleware.UserID(ctx),
		}
		if suggestion.Reason != nil {
			entry.Reason = *suggestion.Reason
		}
		if err := c.Suggestions.LogSuggestion(ctx.UserContext(), &entry); err != nil {
			c.Log.WithError(err).Warn("suggestion log not written")
		}
	}

	return ctx.JSON(fiber.Map{"success": true, "data": suggestion})
}

type ReorderRequest struct {
	Kind string `json:"kind" validate:"required"`
	IDs  []uint `json:"ids"`
}

// Reorder renumbers units, levels or slots. An unsupported kind answers 422
// without writing anything.
func (c *CollocationController) Reorder(ctx *fiber.Ctx) error {
	var req ReorderRequest
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

	result, err := c.Service.Reorder(ctx.UserContext(), req.Kind, req.IDs)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Reorder interrupted",
			"error":   err.Error(),
			"data":    result,
		})
	}
	if !result.Accepted {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Unsupported kind: " + req.Kind,
			"data":    result,
		})
	}
	return ctx.JSON(fiber.Map{"success": true, "message": "Order updated", "data": result})
}
