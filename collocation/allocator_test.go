package collocation

import (
	"context"
	"testing"

	"biblio-app/models"
	"biblio-app/repositories"

	"github.com/stretchr/testify/require"
)

func TestService_NextOrdinal(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "A", 1)
	level, _ := createLevel(t, db, unit.ID, 1, 0)

	next, err := svc.NextOrdinal(ctx, unit.ID, level.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, next)

	createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 2})
	createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 5})
	top := createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 7})

	next, err = svc.NextOrdinal(ctx, unit.ID, level.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 8, next)

	// The excluded item is removed first, then the max of {2, 5} is taken.
	next, err = svc.NextOrdinal(ctx, unit.ID, level.ID, top.ID)
	require.NoError(t, err)
	require.Equal(t, 6, next)
}

func TestService_NextOrdinalIgnoresInactiveAndOtherLevels(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "A", 1)
	level1, _ := createLevel(t, db, unit.ID, 1, 0)
	level2, _ := createLevel(t, db, unit.ID, 2, 0)

	createItem(t, db, itemSpec{unitID: unit.ID, levelID: level2.ID, ordinal: 9})
	withdrawn := models.Item{Title: "withdrawn", ShelfUnitID: &unit.ID, ShelfLevelID: &level1.ID, Ordinal: 4}
	require.NoError(t, db.Create(&withdrawn).Error)

	next, err := svc.NextOrdinal(ctx, unit.ID, level1.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, next)
}

func TestService_IsOrdinalOccupied(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "A", 1)
	level, _ := createLevel(t, db, unit.ID, 1, 0)
	item := createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 5})

	occupied, err := svc.IsOrdinalOccupied(ctx, unit.ID, level.ID, 5, 0)
	require.NoError(t, err)
	require.True(t, occupied)

	occupied, err = svc.IsOrdinalOccupied(ctx, unit.ID, level.ID, 5, item.ID)
	require.NoError(t, err)
	require.False(t, occupied)

	occupied, err = svc.IsOrdinalOccupied(ctx, unit.ID, level.ID, 0, 0)
	require.NoError(t, err)
	require.False(t, occupied)

	require.NoError(t, repositories.NewPlacementRepository(db).Release(ctx, item.ID, 1, repositories.ReleaseSoftDelete))

	occupied, err = svc.IsOrdinalOccupied(ctx, unit.ID, level.ID, 5, 0)
	require.NoError(t, err)
	require.False(t, occupied)
}

func TestService_ClaimNextOrdinalThenNeighboursStayFree(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "a", 1)
	level, _ := createLevel(t, db, unit.ID, 2, 0)
	createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 4})
	item := createItem(t, db, itemSpec{})

	placed, err := svc.ClaimNextOrdinal(ctx, item.ID, unit.ID, level.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 5, placed.Ordinal)
	require.Equal(t, "A-2-05", placed.CollocationCode)
	require.Equal(t, svc.Encode(ctx, unit.ID, level.ID, placed.Ordinal), placed.CollocationCode)

	for ordinal, want := range map[int]bool{4: true, 5: true, 6: false} {
		occupied, err := svc.IsOrdinalOccupied(ctx, unit.ID, level.ID, ordinal, 0)
		require.NoError(t, err)
		require.Equal(t, want, occupied, "ordinal %d", ordinal)
	}

	// Claiming again for the same item keeps it at the top of the pair.
	again, err := svc.ClaimNextOrdinal(ctx, item.ID, unit.ID, level.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 5, again.Ordinal)
}

func TestService_ClaimAfterItemRemovedOutsideService(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "A", 1)
	level, _ := createLevel(t, db, unit.ID, 1, 0)
	first := createItem(t, db, itemSpec{})

	placed, err := svc.ClaimNextOrdinal(ctx, first.ID, unit.ID, level.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, placed.Ordinal)

	require.NoError(t, db.Delete(&models.Item{}, "id = ?", first.ID).Error)

	occupied, err := svc.IsOrdinalOccupied(ctx, unit.ID, level.ID, 1, 0)
	require.NoError(t, err)
	require.False(t, occupied)

	second := createItem(t, db, itemSpec{})
	placed, err = svc.ClaimNextOrdinal(ctx, second.ID, unit.ID, level.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, placed.Ordinal)

	third := createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 2})
	require.NoError(t, db.Model(&models.Item{}).Where("id = ?", third.ID).Update("is_active", false).Error)

	fourth := createItem(t, db, itemSpec{})
	placed, err = svc.Place(ctx, PlacementRequest{ItemID: fourth.ID, UnitID: unit.ID, LevelID: level.ID, Ordinal: 2})
	require.NoError(t, err)
	require.Equal(t, "A-1-02", placed.CollocationCode)
}

func TestService_PlaceManualOrdinal(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "A", 1)
	level, slots := createLevel(t, db, unit.ID, 1, 3)
	createItem(t, db, itemSpec{unitID: unit.ID, levelID: level.ID, ordinal: 2})
	item := createItem(t, db, itemSpec{})

	_, err := svc.Place(ctx, PlacementRequest{ItemID: item.ID, UnitID: unit.ID, LevelID: level.ID, Ordinal: 2})
	require.ErrorIs(t, err, ErrOrdinalOccupied)

	placed, err := svc.Place(ctx, PlacementRequest{ItemID: item.ID, UnitID: unit.ID, LevelID: level.ID, Ordinal: 3, SlotID: &slots[2].ID})
	require.NoError(t, err)
	require.Equal(t, "A-1-03", placed.CollocationCode)
	require.Equal(t, slots[2].ID, *placed.SlotID)
	require.Equal(t, SlotOrdinal(slots[2]), PlacementOf(*placed).Ordinal)
}

func TestService_PlaceRejectsUnknownTargets(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	a := createUnit(t, db, "A", 1)
	b := createUnit(t, db, "B", 2)
	levelB, _ := createLevel(t, db, b.ID, 1, 0)
	item := createItem(t, db, itemSpec{})

	_, err := svc.Place(ctx, PlacementRequest{ItemID: item.ID, UnitID: 99, LevelID: levelB.ID})
	require.ErrorIs(t, err, ErrUnknownUnit)

	_, err = svc.Place(ctx, PlacementRequest{ItemID: item.ID, UnitID: a.ID, LevelID: levelB.ID})
	require.ErrorIs(t, err, ErrUnknownLevel)

	_, err = svc.Place(ctx, PlacementRequest{ItemID: 12345, UnitID: b.ID, LevelID: levelB.ID})
	require.ErrorIs(t, err, ErrItemNotFound)
}

// conflictingStore loses the first claims to a simulated concurrent writer.
type conflictingStore struct {
	PlacementStore
	conflicts int
	calls     int
}

func (c *conflictingStore) ApplyPlacement(ctx context.Context, w repositories.PlacementWrite) (*models.Item, error) {
	c.calls++
	if c.calls <= c.conflicts {
		return nil, repositories.ErrOrdinalConflict
	}
	return c.PlacementStore.ApplyPlacement(ctx, w)
}

func TestService_ClaimRetriesOnConflict(t *testing.T) {
	_, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "A", 1)
	level, _ := createLevel(t, db, unit.ID, 1, 0)
	item := createItem(t, db, itemSpec{})

	store := &conflictingStore{PlacementStore: repositories.NewPlacementRepository(db), conflicts: 2}
	svc := NewService(repositories.NewHierarchyRepository(db), store, repositories.NewGenreRepository(db),
		WithLogger(quietLogger()), WithClaimRetries(3))
	svc.claimBackoff = 0

	placed, err := svc.ClaimNextOrdinal(ctx, item.ID, unit.ID, level.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, placed.Ordinal)
	require.Equal(t, 3, store.calls)

	store.calls, store.conflicts = 0, 10
	_, err = svc.ClaimNextOrdinal(ctx, item.ID, unit.ID, level.ID, 1)
	require.ErrorIs(t, err, ErrOrdinalConflict)
	require.Equal(t, 4, store.calls)
}
