package collocation

import (
	"context"
	"time"

	"biblio-app/models"
	"biblio-app/repositories"
	"biblio-app/types"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NextOrdinal returns one past the highest ordinal held at (unit, level) by
// active items other than exclude, or 1 when there are none. The value is
// not reserved; use ClaimNextOrdinal to persist it safely.
func (s *Service) NextOrdinal(ctx context.Context, unitID, levelID uint, exclude types.SnowflakeID) (int, error) {
	if unitID == 0 || levelID == 0 {
		return 1, nil
	}
	highest, err := s.placements.MaxOrdinal(ctx, unitID, levelID, exclude)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// IsOrdinalOccupied reports whether an active item other than exclude holds
// exactly (unit, level, ordinal).
func (s *Service) IsOrdinalOccupied(ctx context.Context, unitID, levelID uint, ordinal int, exclude types.SnowflakeID) (bool, error) {
	if unitID == 0 || levelID == 0 || ordinal <= 0 {
		return false, nil
	}
	n, err := s.placements.CountHolding(ctx, unitID, levelID, ordinal, exclude)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PlacementRequest asks to place an item at (UnitID, LevelID). Ordinal 0
// claims the next free ordinal.
type PlacementRequest struct {
	ItemID  types.SnowflakeID `json:"-"`
	UnitID  uint              `json:"unit_id" validate:"required"`
	LevelID uint              `json:"level_id" validate:"required"`
	Ordinal int               `json:"ordinal" validate:"gte=0"`
	SlotID  *uint             `json:"slot_id"`
	UserID  int               `json:"-"`
}

// ClaimNextOrdinal computes and persists the next ordinal inside one
// transaction, retrying when a concurrent writer wins the same value.
func (s *Service) ClaimNextOrdinal(ctx context.Context, itemID types.SnowflakeID, unitID, levelID uint, userID int) (*models.Item, error) {
	return s.Place(ctx, PlacementRequest{ItemID: itemID, UnitID: unitID, LevelID: levelID, UserID: userID})
}

// Place validates the target, rejects an occupied manual ordinal and
// writes the placement and its cached code atomically.
func (s *Service) Place(ctx context.Context, req PlacementRequest) (*models.Item, error) {
	log := s.log.WithFields(logrus.Fields{
		"item_id":  req.ItemID.String(),
		"unit_id":  req.UnitID,
		"level_id": req.LevelID,
		"ordinal":  req.Ordinal,
	})

	unit, err := s.hierarchy.FindUnit(ctx, req.UnitID)
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownUnit, "unit %d", req.UnitID)
	}
	level, err := s.hierarchy.FindLevel(ctx, req.LevelID)
	if err != nil || level.ShelfUnitID != unit.ID {
		return nil, errors.Wrapf(ErrUnknownLevel, "level %d in unit %d", req.LevelID, req.UnitID)
	}

	outcome := "claimed"
	if req.Ordinal > 0 {
		outcome = "assigned"
		occupied, err := s.IsOrdinalOccupied(ctx, unit.ID, level.ID, req.Ordinal, req.ItemID)
		if err != nil {
			s.metrics.ObserveClaim("failed")
			return nil, err
		}
		if occupied {
			s.metrics.ObserveClaim("occupied")
			return nil, ErrOrdinalOccupied
		}
	}

	write := repositories.PlacementWrite{
		ItemID:    req.ItemID,
		UnitID:    unit.ID,
		LevelID:   level.ID,
		Ordinal:   req.Ordinal,
		SlotID:    req.SlotID,
		UpdatedBy: req.UserID,
		Encode: func(ordinal int) string {
			return FormatCode(unit.Code, level.Number, ordinal)
		},
	}

	var placed *models.Item
	attempt := func() error {
		item, err := s.placements.ApplyPlacement(ctx, write)
		switch {
		case err == nil:
			placed = item
			return nil
		case errors.Is(err, ErrOrdinalConflict), errors.Is(err, ErrStalePlacement):
			s.metrics.ObserveClaim("conflict")
			log.WithError(err).Warn("placement conflict, retrying")
			return err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return backoff.Permanent(errors.Wrapf(ErrItemNotFound, "item %s", req.ItemID))
		default:
			return backoff.Permanent(err)
		}
	}

	if err := backoff.Retry(attempt, s.claimPolicy(ctx)); err != nil {
		if errors.Is(err, ErrOrdinalOccupied) {
			s.metrics.ObserveClaim("occupied")
		} else {
			s.metrics.ObserveClaim("failed")
		}
		return nil, err
	}

	s.metrics.ObserveClaim(outcome)
	log.WithField("code", placed.CollocationCode).Info("item placed")
	return placed, nil
}

func (s *Service) claimPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.claimBackoff
	exp.MaxInterval = 10 * s.claimBackoff
	exp.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.claimRetries)), ctx)
}
