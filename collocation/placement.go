package collocation

import (
	"biblio-app/models"
)

// Placement is the single value describing where an item sits. Ordinal is
// the raw sequence number within (UnitID, LevelID); SlotID optionally points
// at the pre-declared slot carrying the same ordinal.
type Placement struct {
	UnitID  *uint  `json:"unit_id"`
	LevelID *uint  `json:"level_id"`
	Ordinal int    `json:"ordinal"`
	SlotID  *uint  `json:"slot_id"`
	Code    string `json:"code"`
}

// SlotOrdinal maps a pre-declared slot onto the raw ordinal scheme: a
// slot's sort order is its ordinal.
func SlotOrdinal(slot models.Slot) int {
	return slot.SortOrder
}

// PlacementOf reads the placement cached on an item row.
func PlacementOf(item models.Item) Placement {
	return Placement{
		UnitID:  item.ShelfUnitID,
		LevelID: item.ShelfLevelID,
		Ordinal: item.Ordinal,
		SlotID:  item.SlotID,
		Code:    item.CollocationCode,
	}
}
