package models

import (
	"fmt"
	"time"

	"biblio-app/idgen"
	"biblio-app/types"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Item is a catalog item together with the placement cached on its row.
type Item struct {
	ID         types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title      string            `json:"title"`
	GenreID    *uint             `json:"genre_id" gorm:"index"`
	SubgenreID *uint             `json:"subgenre_id" gorm:"index"`
	IsActive   bool              `json:"is_active" gorm:"not null"`

	ShelfUnitID     *uint  `json:"shelf_unit_id" gorm:"index:idx_items_unit_level"`
	ShelfLevelID    *uint  `json:"shelf_level_id" gorm:"index:idx_items_unit_level"`
	Ordinal         int    `json:"ordinal" gorm:"default:0"`
	SlotID          *uint  `json:"slot_id" gorm:"index"`
	CollocationCode string `json:"collocation_code" gorm:"size:32"`
	PlacementKey    string `json:"-" gorm:"size:64;uniqueIndex;not null"`
	Version         int    `json:"version" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	CreatedBy int            `json:"-"`
	UpdatedBy int            `json:"-"`
	DeletedBy int            `json:"-"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == 0 {
		i.ID = types.SnowflakeID(idgen.GenerateID())
	}
	if i.PlacementKey == "" {
		i.PlacementKey = i.placementKey()
	}
	if i.PlacementKey != FreePlacementKey(i.ID) {
		return ReleaseStalePlacementKey(tx.Session(&gorm.Session{NewDB: true}), i.PlacementKey, i.ID)
	}
	return nil
}

// ReleaseStalePlacementKey frees key when a soft-deleted or inactive item
// still holds it, so only active items compete for a placement key.
func ReleaseStalePlacementKey(db *gorm.DB, key string, except types.SnowflakeID) error {
	var stale []Item
	err := db.Unscoped().Select("id").
		Where("placement_key = ? AND id <> ?", key, except).
		Where("(is_active = ? OR deleted_at IS NOT NULL)", false).
		Find(&stale).Error
	if err != nil {
		return errors.Wrapf(err, "find stale holders of %s", key)
	}
	for _, item := range stale {
		err := db.Unscoped().Model(&Item{}).
			Where("id = ?", item.ID).
			Update("placement_key", FreePlacementKey(item.ID)).Error
		if err != nil {
			return errors.Wrapf(err, "release placement key of item %s", item.ID)
		}
	}
	return nil
}

// PlacementKeyFor returns the unique key an active item holds for a raw
// (unit, level, ordinal) placement.
func PlacementKeyFor(unitID, levelID uint, ordinal int) string {
	return fmt.Sprintf("%d:%d:%d", unitID, levelID, ordinal)
}

// FreePlacementKey is held by items without an active raw placement.
func FreePlacementKey(id types.SnowflakeID) string {
	return "free:" + id.String()
}

func (i *Item) placementKey() string {
	if i.IsActive && i.ShelfUnitID != nil && i.ShelfLevelID != nil && i.Ordinal > 0 {
		return PlacementKeyFor(*i.ShelfUnitID, *i.ShelfLevelID, i.Ordinal)
	}
	return FreePlacementKey(i.ID)
}
