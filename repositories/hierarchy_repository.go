package repositories

import (
	"context"
	"strings"

	"biblio-app/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// HierarchyRepository reads and maintains the shelf-unit / level / slot
// hierarchy.
type HierarchyRepository struct {
	DB *gorm.DB
}

func NewHierarchyRepository(DB *gorm.DB) *HierarchyRepository {
	return &HierarchyRepository{DB: DB}
}

// Units returns every unit in display order.
func (r *HierarchyRepository) Units(ctx context.Context) ([]models.ShelfUnit, error) {
	var units []models.ShelfUnit
	err := r.DB.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&units).Error
	return units, errors.Wrap(err, "list shelf units")
}

// UnitsInStoreOrder returns every unit ordered by primary key.
func (r *HierarchyRepository) UnitsInStoreOrder(ctx context.Context) ([]models.ShelfUnit, error) {
	var units []models.ShelfUnit
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&units).Error
	return units, errors.Wrap(err, "list shelf units")
}

// Levels returns the levels of one unit, or of all units when unitID is 0.
func (r *HierarchyRepository) Levels(ctx context.Context, unitID uint) ([]models.ShelfLevel, error) {
	q := r.DB.WithContext(ctx).Order("shelf_unit_id ASC, sort_order ASC, number ASC, id ASC")
	if unitID != 0 {
		q = q.Where("shelf_unit_id = ?", unitID)
	}
	var levels []models.ShelfLevel
	return levels, errors.Wrap(q.Find(&levels).Error, "list shelf levels")
}

// Slots returns slots filtered by unit and level; a zero id disables the
// filter.
func (r *HierarchyRepository) Slots(ctx context.Context, unitID, levelID uint) ([]models.Slot, error) {
	q := r.DB.WithContext(ctx).Order("shelf_unit_id ASC, shelf_level_id ASC, sort_order ASC, id ASC")
	if unitID != 0 {
		q = q.Where("shelf_unit_id = ?", unitID)
	}
	if levelID != 0 {
		q = q.Where("shelf_level_id = ?", levelID)
	}
	var slots []models.Slot
	return slots, errors.Wrap(q.Find(&slots).Error, "list slots")
}

func (r *HierarchyRepository) FindUnit(ctx context.Context, id uint) (*models.ShelfUnit, error) {
	var unit models.ShelfUnit
	if err := r.DB.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, errors.Wrapf(err, "find shelf unit %d", id)
	}
	return &unit, nil
}

func (r *HierarchyRepository) FindLevel(ctx context.Context, id uint) (*models.ShelfLevel, error) {
	var level models.ShelfLevel
	if err := r.DB.WithContext(ctx).First(&level, id).Error; err != nil {
		return nil, errors.Wrapf(err, "find shelf level %d", id)
	}
	return &level, nil
}

// FirstUnitBySortOrder returns nil when the hierarchy is empty.
func (r *HierarchyRepository) FirstUnitBySortOrder(ctx context.Context) (*models.ShelfUnit, error) {
	var unit models.ShelfUnit
	err := r.DB.WithContext(ctx).Order("sort_order ASC, id ASC").Take(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "first shelf unit")
	}
	return &unit, nil
}

// LeastOccupiedLevel counts active items per level through their slots and
// returns the emptiest one, breaking ties by level number then id. Nil when
// the unit has no levels.
func (r *HierarchyRepository) LeastOccupiedLevel(ctx context.Context, unitID uint) (*models.ShelfLevel, error) {
	var rows []struct {
		ID     uint
		Number int
		Used   int64
	}
	err := r.DB.WithContext(ctx).
		Table("shelf_levels AS l").
		Select("l.id AS id, l.number AS number, COUNT(i.id) AS used").
		Joins("LEFT JOIN slots s ON s.shelf_level_id = l.id AND s.deleted_at IS NULL").
		Joins("LEFT JOIN items i ON i.slot_id = s.id AND i.is_active = ? AND i.deleted_at IS NULL", true).
		Where("l.shelf_unit_id = ? AND l.deleted_at IS NULL", unitID).
		Group("l.id, l.number").
		Order("COUNT(i.id) ASC, l.number ASC, l.id ASC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "least occupied level of unit %d", unitID)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return r.FindLevel(ctx, rows[0].ID)
}

// FirstFreeSlot returns the first slot of (unit, level) that no active item
// references, or nil when every slot is taken.
func (r *HierarchyRepository) FirstFreeSlot(ctx context.Context, unitID, levelID uint) (*models.Slot, error) {
	var slot models.Slot
	err := r.DB.WithContext(ctx).
		Where("shelf_unit_id = ? AND shelf_level_id = ?", unitID, levelID).
		Where("NOT EXISTS (SELECT 1 FROM items i WHERE i.slot_id = slots.id AND i.is_active = ? AND i.deleted_at IS NULL)", true).
		Order("sort_order ASC, id ASC").
		Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "first free slot of %d/%d", unitID, levelID)
	}
	return &slot, nil
}

// SetSortOrder writes one sort order. model selects the table
// (&models.ShelfUnit{}, &models.ShelfLevel{} or &models.Slot{}). It reports
// whether a row was changed.
func (r *HierarchyRepository) SetSortOrder(ctx context.Context, model interface{}, id uint, order int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(model).Where("id = ?", id).Update("sort_order", order)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "set sort order of %d", id)
	}
	return res.RowsAffected > 0, nil
}

// CreateUnit normalises the code and appends the unit after the existing
// ones when no sort order is given.
func (r *HierarchyRepository) CreateUnit(ctx context.Context, unit *models.ShelfUnit) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createUnit(tx, unit)
	})
}

func createUnit(tx *gorm.DB, unit *models.ShelfUnit) error {
	unit.Code = NormalizeUnitCode(unit.Code)
	if unit.SortOrder == 0 {
		next, err := nextSortOrder(tx, &models.ShelfUnit{}, "")
		if err != nil {
			return err
		}
		unit.SortOrder = next
	}
	return errors.Wrapf(tx.Create(unit).Error, "create shelf unit %s", unit.Code)
}

// CreateLevel creates a level together with slotCount pre-declared slots
// numbered 1..slotCount.
func (r *HierarchyRepository) CreateLevel(ctx context.Context, level *models.ShelfLevel, slotCount int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.ShelfUnit{}, level.ShelfUnitID).Error; err != nil {
			return errors.Wrapf(err, "find shelf unit %d", level.ShelfUnitID)
		}
		return createLevel(tx, level, slotCount)
	})
}

func createLevel(tx *gorm.DB, level *models.ShelfLevel, slotCount int) error {
	if level.SortOrder == 0 {
		level.SortOrder = level.Number
	}
	if err := tx.Create(level).Error; err != nil {
		return errors.Wrapf(err, "create level %d", level.Number)
	}
	return ensureSlots(tx, level, slotCount)
}

func ensureSlots(tx *gorm.DB, level *models.ShelfLevel, slotCount int) error {
	var existing int64
	if err := tx.Model(&models.Slot{}).Where("shelf_level_id = ?", level.ID).Count(&existing).Error; err != nil {
		return errors.Wrap(err, "count slots")
	}
	for n := int(existing) + 1; n <= slotCount; n++ {
		slot := models.Slot{
			ShelfUnitID:  level.ShelfUnitID,
			ShelfLevelID: level.ID,
			SortOrder:    n,
			CreatedBy:    level.CreatedBy,
			UpdatedBy:    level.CreatedBy,
		}
		if err := tx.Create(&slot).Error; err != nil {
			return errors.Wrapf(err, "create slot %d of level %d", n, level.ID)
		}
	}
	return nil
}

func nextSortOrder(tx *gorm.DB, model interface{}, where string, args ...interface{}) (int, error) {
	var result struct{ MaxOrder int }
	q := tx.Model(model).Select("COALESCE(MAX(sort_order), 0) AS max_order")
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Scan(&result).Error; err != nil {
		return 0, errors.Wrap(err, "max sort order")
	}
	return result.MaxOrder + 1, nil
}

// HierarchyRow is one line of a bulk hierarchy import.
type HierarchyRow struct {
	Row         int
	UnitCode    string
	UnitName    string
	LevelNumber int
	SlotCount   int
}

type ImportSummary struct {
	UnitsCreated  int `json:"units_created"`
	LevelsCreated int `json:"levels_created"`
	SlotsTotal    int `json:"slots_total"`
}

// ImportRows creates missing units, levels and slots in one transaction.
// Existing rows are reused; slot counts only ever grow.
func (r *HierarchyRepository) ImportRows(ctx context.Context, rows []HierarchyRow, userID int) (ImportSummary, error) {
	var summary ImportSummary
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			code := NormalizeUnitCode(row.UnitCode)

			var unit models.ShelfUnit
			err := tx.Where("code = ?", code).First(&unit).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unit = models.ShelfUnit{Code: code, Name: row.UnitName, CreatedBy: userID, UpdatedBy: userID}
				if err := createUnit(tx, &unit); err != nil {
					return errors.Wrapf(err, "row %d", row.Row)
				}
				summary.UnitsCreated++
			} else if err != nil {
				return errors.Wrapf(err, "row %d", row.Row)
			}

			var level models.ShelfLevel
			err = tx.Where("shelf_unit_id = ? AND number = ?", unit.ID, row.LevelNumber).First(&level).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				level = models.ShelfLevel{ShelfUnitID: unit.ID, Number: row.LevelNumber, CreatedBy: userID, UpdatedBy: userID}
				if err := createLevel(tx, &level, row.SlotCount); err != nil {
					return errors.Wrapf(err, "row %d", row.Row)
				}
				summary.LevelsCreated++
			} else if err != nil {
				return errors.Wrapf(err, "row %d", row.Row)
			} else if err := ensureSlots(tx, &level, row.SlotCount); err != nil {
				return errors.Wrapf(err, "row %d", row.Row)
			}
		}

		var slots int64
		if err := tx.Model(&models.Slot{}).Count(&slots).Error; err != nil {
			return errors.Wrap(err, "count slots")
		}
		summary.SlotsTotal = int(slots)
		return nil
	})
	return summary, err
}

// NormalizeUnitCode upper-cases and trims a unit code.
func NormalizeUnitCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
