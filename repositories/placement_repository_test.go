package repositories

import (
	"context"
	"fmt"
	"testing"

	"biblio-app/database/dbtest"
	"biblio-app/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPlacementRepository_MaxOrdinalExcludesItemBeforeTakingMax(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)
	ctx := context.Background()

	unit := mustUnit(t, db, "A", 1)
	level := mustLevel(t, db, unit.ID, 1, 0)

	highest, err := repo.MaxOrdinal(ctx, unit.ID, level.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 0, highest)

	mustItem(t, db, unit.ID, level.ID, 2)
	mustItem(t, db, unit.ID, level.ID, 5)
	top := mustItem(t, db, unit.ID, level.ID, 7)

	highest, err = repo.MaxOrdinal(ctx, unit.ID, level.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 7, highest)

	highest, err = repo.MaxOrdinal(ctx, unit.ID, level.ID, top.ID)
	require.NoError(t, err)
	require.Equal(t, 5, highest)
}

func TestPlacementRepository_CountHoldingSkipsSoftDeleted(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)
	ctx := context.Background()

	unit := mustUnit(t, db, "A", 1)
	level := mustLevel(t, db, unit.ID, 1, 0)
	item := mustItem(t, db, unit.ID, level.ID, 5)

	n, err := repo.CountHolding(ctx, unit.ID, level.ID, 5, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = repo.CountHolding(ctx, unit.ID, level.ID, 5, item.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	require.NoError(t, repo.Release(ctx, item.ID, 1, ReleaseSoftDelete))

	n, err = repo.CountHolding(ctx, unit.ID, level.ID, 5, 0)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	// The released key lets another item take the same triple.
	mustItem(t, db, unit.ID, level.ID, 5)
}

func TestPlacementRepository_MostUsedUnitTieBreaksOnLowestID(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)
	ctx := context.Background()

	genre := models.Genre{Name: "Narrativa"}
	require.NoError(t, db.Create(&genre).Error)
	sub := models.Genre{Name: "Giallo", ParentID: &genre.ID}
	require.NoError(t, db.Create(&sub).Error)

	a := mustUnit(t, db, "A", 1)
	b := mustUnit(t, db, "B", 2)
	la := mustLevel(t, db, a.ID, 1, 0)
	lb := mustLevel(t, db, b.ID, 1, 0)

	_, ok, err := repo.MostUsedUnit(ctx, nil, nil)
	require.NoError(t, err)
	require.False(t, ok)

	for i, target := range []struct{ unit, level uint }{{b.ID, lb.ID}, {a.ID, la.ID}} {
		item := models.Item{
			Title: fmt.Sprintf("book %d", i), IsActive: true, GenreID: &genre.ID,
			ShelfUnitID: uintPtr(target.unit), ShelfLevelID: uintPtr(target.level), Ordinal: 1,
		}
		require.NoError(t, db.Create(&item).Error)
	}

	unitID, ok, err := repo.MostUsedUnit(ctx, &genre.ID, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a.ID, unitID)

	withSub := models.Item{
		Title: "noir", IsActive: true, GenreID: &genre.ID, SubgenreID: &sub.ID,
		ShelfUnitID: uintPtr(b.ID), ShelfLevelID: uintPtr(lb.ID), Ordinal: 2,
	}
	require.NoError(t, db.Create(&withSub).Error)

	unitID, ok, err = repo.MostUsedUnit(ctx, &genre.ID, &sub.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b.ID, unitID)
}

func TestPlacementRepository_ApplyPlacement(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)
	ctx := context.Background()

	unit := mustUnit(t, db, "A", 1)
	level := mustLevel(t, db, unit.ID, 2, 0)
	mustItem(t, db, unit.ID, level.ID, 3)

	item := models.Item{Title: "new", IsActive: true}
	require.NoError(t, db.Create(&item).Error)

	encode := func(ordinal int) string { return fmt.Sprintf("A-2-%02d", ordinal) }

	placed, err := repo.ApplyPlacement(ctx, PlacementWrite{ItemID: item.ID, UnitID: unit.ID, LevelID: level.ID, Encode: encode})
	require.NoError(t, err)
	require.Equal(t, 4, placed.Ordinal)
	require.Equal(t, "A-2-04", placed.CollocationCode)
	require.Equal(t, 1, placed.Version)

	_, err = repo.ApplyPlacement(ctx, PlacementWrite{ItemID: item.ID, UnitID: unit.ID, LevelID: level.ID, Ordinal: 3, Encode: encode})
	require.ErrorIs(t, err, ErrOrdinalTaken)

	placed, err = repo.ApplyPlacement(ctx, PlacementWrite{ItemID: item.ID, UnitID: unit.ID, LevelID: level.ID, Ordinal: 9, Encode: encode})
	require.NoError(t, err)
	require.Equal(t, 9, placed.Ordinal)
	require.Equal(t, 2, placed.Version)

	require.NoError(t, repo.ClearPlacement(ctx, item.ID, 1))
	cleared, err := repo.FindItem(ctx, item.ID)
	require.NoError(t, err)
	require.Nil(t, cleared.ShelfUnitID)
	require.Empty(t, cleared.CollocationCode)
	require.Equal(t, models.FreePlacementKey(item.ID), cleared.PlacementKey)
}

func TestPlacementRepository_LogSuggestion(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)

	entry := models.SuggestionLog{Reason: "first_unit", Code: "A-1-01"}
	require.NoError(t, repo.LogSuggestion(context.Background(), &entry))
	require.NotZero(t, entry.ID)
}

func TestPlacementRepository_ReleaseDeactivateFreesOrdinal(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)
	ctx := context.Background()

	unit := mustUnit(t, db, "A", 1)
	level := mustLevel(t, db, unit.ID, 1, 0)
	item := mustItem(t, db, unit.ID, level.ID, 4)

	require.NoError(t, repo.Release(ctx, item.ID, 7, ReleaseDeactivate))

	released, err := repo.FindItem(ctx, item.ID)
	require.NoError(t, err)
	require.False(t, released.IsActive)
	require.Equal(t, models.FreePlacementKey(item.ID), released.PlacementKey)
	require.Equal(t, 4, released.Ordinal)

	n, err := repo.CountHolding(ctx, unit.ID, level.ID, 4, 0)
	require.NoError(t, err)
	require.Zero(t, n)

	err = repo.Release(ctx, 12345, 7, ReleaseSoftDelete)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPlacementRepository_StaleKeysOfItemsRemovedElsewhere(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewPlacementRepository(db)
	ctx := context.Background()

	unit := mustUnit(t, db, "A", 1)
	level := mustLevel(t, db, unit.ID, 1, 0)
	deleted := mustItem(t, db, unit.ID, level.ID, 1)
	inactive := mustItem(t, db, unit.ID, level.ID, 2)

	// Removed without going through Release: the rows keep their keys.
	require.NoError(t, db.Delete(&models.Item{}, "id = ?", deleted.ID).Error)
	require.NoError(t, db.Model(&models.Item{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	claimer := models.Item{Title: "claimer", IsActive: true}
	require.NoError(t, db.Create(&claimer).Error)
	manual := models.Item{Title: "manual", IsActive: true}
	require.NoError(t, db.Create(&manual).Error)

	placed, err := repo.ApplyPlacement(ctx, PlacementWrite{ItemID: claimer.ID, UnitID: unit.ID, LevelID: level.ID})
	require.NoError(t, err)
	require.Equal(t, 1, placed.Ordinal)

	placed, err = repo.ApplyPlacement(ctx, PlacementWrite{ItemID: manual.ID, UnitID: unit.ID, LevelID: level.ID, Ordinal: 2})
	require.NoError(t, err)
	require.Equal(t, 2, placed.Ordinal)

	var old models.Item
	require.NoError(t, db.Unscoped().First(&old, "id = ?", deleted.ID).Error)
	require.Equal(t, models.FreePlacementKey(deleted.ID), old.PlacementKey)

	// Creating an item straight onto a stale triple works too.
	require.NoError(t, db.Model(&models.Item{}).Where("id = ?", manual.ID).Update("is_active", false).Error)
	mustItem(t, db, unit.ID, level.ID, 2)
}
