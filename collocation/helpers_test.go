package collocation

import (
	"io"
	"testing"

	"biblio-app/database/dbtest"
	"biblio-app/models"
	"biblio-app/repositories"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc := NewService(
		repositories.NewHierarchyRepository(db),
		repositories.NewPlacementRepository(db),
		repositories.NewGenreRepository(db),
		WithLogger(quietLogger()),
	)
	return svc, db
}

func uintPtr(v uint) *uint { return &v }

func createUnit(t *testing.T, db *gorm.DB, code string, sortOrder int) models.ShelfUnit {
	t.Helper()
	unit := models.ShelfUnit{Code: code, SortOrder: sortOrder}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func createLevel(t *testing.T, db *gorm.DB, unitID uint, number, slots int) (models.ShelfLevel, []models.Slot) {
	t.Helper()
	level := models.ShelfLevel{ShelfUnitID: unitID, Number: number, SortOrder: number}
	require.NoError(t, db.Create(&level).Error)
	out := make([]models.Slot, 0, slots)
	for n := 1; n <= slots; n++ {
		slot := models.Slot{ShelfUnitID: unitID, ShelfLevelID: level.ID, SortOrder: n}
		require.NoError(t, db.Create(&slot).Error)
		out = append(out, slot)
	}
	return level, out
}

func createGenre(t *testing.T, db *gorm.DB, name string, parent *uint) models.Genre {
	t.Helper()
	g := models.Genre{Name: name, ParentID: parent}
	require.NoError(t, db.Create(&g).Error)
	return g
}

type itemSpec struct {
	unitID, levelID uint
	ordinal         int
	slotID          *uint
	genreID         *uint
	subgenreID      *uint
}

func createItem(t *testing.T, db *gorm.DB, spec itemSpec) models.Item {
	t.Helper()
	item := models.Item{
		Title:      "book",
		IsActive:   true,
		GenreID:    spec.genreID,
		SubgenreID: spec.subgenreID,
		Ordinal:    spec.ordinal,
		SlotID:     spec.slotID,
	}
	if spec.unitID != 0 {
		item.ShelfUnitID = uintPtr(spec.unitID)
	}
	if spec.levelID != 0 {
		item.ShelfLevelID = uintPtr(spec.levelID)
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}
