package repositories

import (
	"testing"

	"biblio-app/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint { return &v }

func mustUnit(t *testing.T, db *gorm.DB, code string, sortOrder int) models.ShelfUnit {
	t.Helper()
	unit := models.ShelfUnit{Code: code, Name: "Unit " + code, SortOrder: sortOrder}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func mustLevel(t *testing.T, db *gorm.DB, unitID uint, number, slots int) models.ShelfLevel {
	t.Helper()
	level := models.ShelfLevel{ShelfUnitID: unitID, Number: number, SortOrder: number}
	require.NoError(t, db.Create(&level).Error)
	for n := 1; n <= slots; n++ {
		require.NoError(t, db.Create(&models.Slot{ShelfUnitID: unitID, ShelfLevelID: level.ID, SortOrder: n}).Error)
	}
	return level
}

func mustItem(t *testing.T, db *gorm.DB, unitID, levelID uint, ordinal int) models.Item {
	t.Helper()
	item := models.Item{
		Title:        "item",
		IsActive:     true,
		ShelfUnitID:  uintPtr(unitID),
		ShelfLevelID: uintPtr(levelID),
		Ordinal:      ordinal,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}
