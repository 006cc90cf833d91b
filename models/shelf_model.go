package models

import (
	"gorm.io/gorm"
)

// ShelfUnit is the top-level physical shelving structure, identified by a
// short code such as "A".
type ShelfUnit struct {
	gorm.Model
	Code      string       `json:"code" gorm:"size:16;uniqueIndex;not null"`
	Name      string       `json:"name"`
	SortOrder int          `json:"sort_order" gorm:"default:0"`
	Levels    []ShelfLevel `json:"levels,omitempty" gorm:"foreignKey:ShelfUnitID"`
	CreatedBy int          `json:"-"`
	UpdatedBy int          `json:"-"`
	DeletedBy int          `json:"-"`
}

// ShelfLevel is a numbered horizontal level inside a ShelfUnit.
type ShelfLevel struct {
	gorm.Model
	ShelfUnitID uint   `json:"shelf_unit_id" gorm:"index;not null"`
	Number      int    `json:"number" gorm:"not null"`
	SortOrder   int    `json:"sort_order" gorm:"default:0"`
	Slots       []Slot `json:"slots,omitempty" gorm:"foreignKey:ShelfLevelID"`
	CreatedBy   int    `json:"-"`
	UpdatedBy   int    `json:"-"`
	DeletedBy   int    `json:"-"`
}

// Slot is a pre-declared position inside a level. Its SortOrder doubles as
// the ordinal printed in the collocation code.
type Slot struct {
	gorm.Model
	ShelfUnitID  uint   `json:"shelf_unit_id" gorm:"index;not null"`
	ShelfLevelID uint   `json:"shelf_level_id" gorm:"index;not null"`
	SortOrder    int    `json:"sort_order" gorm:"default:0"`
	Label        string `json:"label"`
	CreatedBy    int    `json:"-"`
	UpdatedBy    int    `json:"-"`
	DeletedBy    int    `json:"-"`
}
