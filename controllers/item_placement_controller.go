package controllers

import (
	"biblio-app/collocation"
	"biblio-app/middleware"
	"biblio-app/repositories"
	"biblio-app/types"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ItemPlacementController struct {
	Service    *collocation.Service
	Placements *repositories.PlacementRepository
}

func NewItemPlacementController(service *collocation.Service, placements *repositories.PlacementRepository) *ItemPlacementController {
	return &ItemPlacementController{Service: service, Placements: placements}
}

func (c *ItemPlacementController) GetPlacement(ctx *fiber.Ctx) error {
	id, err := types.ParseSnowflakeID(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "Invalid item ID", err)
	}
	item, err := c.Placements.FindItem(ctx.UserContext(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Item not found"})
	}
	if err != nil {
		return internalError(ctx, "Failed to load item", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "data": collocation.PlacementOf(*item)})
}

// UpdatePlacement places an item. Ordinal 0 claims the next free ordinal of
// the level; any other value is a manual assignment.
func (c *ItemPlacementController) UpdatePlacement(ctx *fiber.Ctx) error {
	id, err := types.ParseSnowflakeID(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "Invalid item ID", err)
	}

	var req collocation.PlacementRequest
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
	req.ItemID = id
	req.UserID = middleware.UserID(ctx)

	item, err := c.Service.Place(ctx.UserContext(), req)
	if err != nil {
		return placementError(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Placement saved",
		"data":    collocation.PlacementOf(*item),
	})
}

func (c *ItemPlacementController) DeletePlacement(ctx *fiber.Ctx) error {
	id, err := types.ParseSnowflakeID(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "Invalid item ID", err)
	}
	if err := c.Placements.ClearPlacement(ctx.UserContext(), id, middleware.UserID(ctx)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Item not found"})
		}
		return internalError(ctx, "Failed to clear placement", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "message": "Placement removed"})
}

// DeleteItem soft deletes an item; its ordinal becomes free for others.
func (c *ItemPlacementController) DeleteItem(ctx *fiber.Ctx) error {
	return c.release(ctx, repositories.ReleaseSoftDelete, "Item deleted")
}

// DeactivateItem keeps the item and its cached code but frees its ordinal.
func (c *ItemPlacementController) DeactivateItem(ctx *fiber.Ctx) error {
	return c.release(ctx, repositories.ReleaseDeactivate, "Item deactivated")
}

func (c *ItemPlacementController) release(ctx *fiber.Ctx, mode repositories.ReleaseMode, message string) error {
	id, err := types.ParseSnowflakeID(ctx.Params("id"))
	if err != nil {
		return badRequest(ctx, "Invalid item ID", err)
	}
	if err := c.Placements.Release(ctx.UserContext(), id, middleware.UserID(ctx), mode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Item not found"})
		}
		return internalError(ctx, "Failed to release item", err)
	}
	return ctx.JSON(fiber.Map{"success": true, "message": message})
}

func placementError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Failed to save placement"
	switch {
	case errors.Is(err, collocation.ErrOrdinalOccupied):
		status, message = fiber.StatusConflict, "Ordinal already taken on this level"
	case errors.Is(err, collocation.ErrOrdinalConflict), errors.Is(err, collocation.ErrStalePlacement):
		status, message = fiber.StatusConflict, "Placement changed concurrently, retry"
	case errors.Is(err, collocation.ErrUnknownUnit), errors.Is(err, collocation.ErrUnknownLevel):
		status, message = fiber.StatusUnprocessableEntity, "Unknown shelf unit or level"
	case errors.Is(err, collocation.ErrItemNotFound):
		status, message = fiber.StatusNotFound, "Item not found"
	}
	return ctx.Status(status).JSON(fiber.Map{"success": false, "message": message, "error": err.Error()})
}
