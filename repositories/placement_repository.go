package repositories

import (
	"context"

	"biblio-app/models"
	"biblio-app/types"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrOrdinalTaken is returned when a manually chosen ordinal is held by
	// another active item.
	ErrOrdinalTaken = errors.New("ordinal already taken")
	// ErrOrdinalConflict is returned when a computed ordinal was claimed by
	// a concurrent writer between the read and the write.
	ErrOrdinalConflict = errors.New("ordinal claimed concurrently")
	// ErrStaleVersion is returned when the item row changed since it was
	// loaded inside the claim.
	ErrStaleVersion = errors.New("item placement changed concurrently")
)

// activeItems restricts a query to items that are active and not soft
// deleted. Soft deletion is applied by gorm through DeletedAt.
func activeItems(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Item{}).Where("is_active = ?", true)
}

// PlacementRepository reads and writes the placement cached on item rows.
type PlacementRepository struct {
	DB *gorm.DB
}

func NewPlacementRepository(DB *gorm.DB) *PlacementRepository {
	return &PlacementRepository{DB: DB}
}

// MaxOrdinal returns the highest ordinal held at (unit, level) by active
// items other than exclude, or 0.
func (r *PlacementRepository) MaxOrdinal(ctx context.Context, unitID, levelID uint, exclude types.SnowflakeID) (int, error) {
	return maxOrdinal(r.DB.WithContext(ctx), unitID, levelID, exclude)
}

func maxOrdinal(db *gorm.DB, unitID, levelID uint, exclude types.SnowflakeID) (int, error) {
	var result struct{ MaxOrdinal int }
	q := activeItems(db).
		Select("COALESCE(MAX(ordinal), 0) AS max_ordinal").
		Where("shelf_unit_id = ? AND shelf_level_id = ?", unitID, levelID)
	if exclude != 0 {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Scan(&result).Error; err != nil {
		return 0, errors.Wrapf(err, "max ordinal at %d/%d", unitID, levelID)
	}
	return result.MaxOrdinal, nil
}

// CountHolding counts active items other than exclude that hold the exact
// (unit, level, ordinal) triple.
func (r *PlacementRepository) CountHolding(ctx context.Context, unitID, levelID uint, ordinal int, exclude types.SnowflakeID) (int64, error) {
	return countHolding(r.DB.WithContext(ctx), unitID, levelID, ordinal, exclude)
}

func countHolding(db *gorm.DB, unitID, levelID uint, ordinal int, exclude types.SnowflakeID) (int64, error) {
	var count int64
	q := activeItems(db).Where("shelf_unit_id = ? AND shelf_level_id = ? AND ordinal = ?", unitID, levelID, ordinal)
	if exclude != 0 {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, errors.Wrapf(err, "count holders of %d/%d/%d", unitID, levelID, ordinal)
	}
	return count, nil
}

// MostUsedUnit groups active placements by unit, filtered by subgenre when
// given and by genre otherwise, and returns the busiest unit. Ties go to
// the lowest unit id. ok is false when nothing matches.
func (r *PlacementRepository) MostUsedUnit(ctx context.Context, genreID, subgenreID *uint) (unitID uint, ok bool, err error) {
	if genreID == nil && subgenreID == nil {
		return 0, false, nil
	}

	q := r.DB.WithContext(ctx).
		Table("items").
		Select("items.shelf_unit_id AS unit_id, COUNT(*) AS used").
		Joins("JOIN shelf_units ON shelf_units.id = items.shelf_unit_id AND shelf_units.deleted_at IS NULL").
		Where("items.is_active = ? AND items.deleted_at IS NULL", true)
	if subgenreID != nil {
		q = q.Where("items.subgenre_id = ?", *subgenreID)
	} else {
		q = q.Where("items.genre_id = ?", *genreID)
	}

	var rows []struct {
		UnitID uint
		Used   int64
	}
	err = q.Group("items.shelf_unit_id").
		Order("COUNT(*) DESC, items.shelf_unit_id ASC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return 0, false, errors.Wrap(err, "most used unit")
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].UnitID, true, nil
}

func (r *PlacementRepository) FindItem(ctx context.Context, id types.SnowflakeID) (*models.Item, error) {
	var item models.Item
	if err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, errors.Wrapf(err, "find item %s", id)
	}
	return &item, nil
}

// PlacementWrite is one attempt to place an item at (unit, level).
type PlacementWrite struct {
	ItemID  types.SnowflakeID
	UnitID  uint
	LevelID uint
	// Ordinal 0 asks for the next free ordinal, computed inside the
	// transaction.
	Ordinal   int
	SlotID    *uint
	Encode    func(ordinal int) string
	UpdatedBy int
}

// ApplyPlacement runs one transactional attempt. The item's version guards
// against concurrent edits of the same item and the unique placement key
// guards against two items claiming the same triple. Callers retry on
// ErrOrdinalConflict and ErrStaleVersion.
func (r *PlacementRepository) ApplyPlacement(ctx context.Context, w PlacementWrite) (*models.Item, error) {
	var placed models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&placed, "id = ?", w.ItemID).Error; err != nil {
			return errors.Wrapf(err, "find item %s", w.ItemID)
		}

		ordinal := w.Ordinal
		taken := ErrOrdinalTaken
		if ordinal <= 0 {
			highest, err := maxOrdinal(tx, w.UnitID, w.LevelID, w.ItemID)
			if err != nil {
				return err
			}
			ordinal = highest + 1
			taken = ErrOrdinalConflict
		} else {
			holders, err := countHolding(tx, w.UnitID, w.LevelID, ordinal, w.ItemID)
			if err != nil {
				return err
			}
			if holders > 0 {
				return ErrOrdinalTaken
			}
		}

		code := ""
		if w.Encode != nil {
			code = w.Encode(ordinal)
		}
		key := models.FreePlacementKey(placed.ID)
		if placed.IsActive {
			key = models.PlacementKeyFor(w.UnitID, w.LevelID, ordinal)
			if err := models.ReleaseStalePlacementKey(tx, key, placed.ID); err != nil {
				return err
			}
		}

		res := tx.Model(&models.Item{}).
			Where("id = ? AND version = ?", placed.ID, placed.Version).
			Updates(map[string]interface{}{
				"shelf_unit_id":    w.UnitID,
				"shelf_level_id":   w.LevelID,
				"ordinal":          ordinal,
				"slot_id":          w.SlotID,
				"collocation_code": code,
				"placement_key":    key,
				"version":          placed.Version + 1,
				"updated_by":       w.UpdatedBy,
			})
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return taken
		}
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update placement of item %s", placed.ID)
		}
		if res.RowsAffected == 0 {
			return ErrStaleVersion
		}

		holders, err := countHolding(tx, w.UnitID, w.LevelID, ordinal, placed.ID)
		if err != nil {
			return err
		}
		if holders > 0 {
			return taken
		}

		return tx.First(&placed, "id = ?", placed.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &placed, nil
}

// ClearPlacement removes the raw and slot placement from an item.
func (r *PlacementRepository) ClearPlacement(ctx context.Context, id types.SnowflakeID, userID int) error {
	res := r.DB.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(map[string]interface{}{
		"shelf_unit_id":    nil,
		"shelf_level_id":   nil,
		"ordinal":          0,
		"slot_id":          nil,
		"collocation_code": "",
		"placement_key":    models.FreePlacementKey(id),
		"version":          gorm.Expr("version + 1"),
		"updated_by":       userID,
	})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "clear placement of item %s", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(gorm.ErrRecordNotFound, "item %s", id)
	}
	return nil
}

// ReleaseMode selects how an item stops occupying its placement.
type ReleaseMode int

const (
	ReleaseSoftDelete ReleaseMode = iota
	ReleaseDeactivate
)

// Release frees the item's placement key and either soft deletes or
// deactivates it. The cached placement stays on the row; its ordinal stops
// counting as occupied.
func (r *PlacementRepository) Release(ctx context.Context, id types.SnowflakeID, userID int, mode ReleaseMode) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "find item %s", id)
		}

		updates := map[string]interface{}{
			"placement_key": models.FreePlacementKey(id),
			"version":       item.Version + 1,
			"updated_by":    userID,
		}
		if mode == ReleaseDeactivate {
			updates["is_active"] = false
		} else {
			updates["deleted_by"] = userID
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "release item %s", id)
		}

		if mode == ReleaseDeactivate {
			return nil
		}
		return errors.Wrapf(tx.Delete(&item).Error, "delete item %s", id)
	})
}

// LogSuggestion stores an advisory suggestion for auditing.
func (r *PlacementRepository) LogSuggestion(ctx context.Context, entry *models.SuggestionLog) error {
	return errors.Wrap(r.DB.WithContext(ctx).Create(entry).Error, "log suggestion")
}
