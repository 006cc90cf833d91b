package models

import (
	"time"

	"biblio-app/idgen"
	"biblio-app/types"

	"gorm.io/gorm"
)

// SuggestionLog records every advisory placement proposal shown to an admin.
type SuggestionLog struct {
	ID          types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	GenreID     *uint             `json:"genre_id"`
	SubgenreID  *uint             `json:"subgenre_id"`
	UnitID      *uint             `json:"unit_id"`
	LevelID     *uint             `json:"level_id"`
	SlotID      *uint             `json:"slot_id"`
	Code        string            `json:"code" gorm:"size:32"`
	Reason      string            `json:"reason" gorm:"size:32"`
	RequestedBy int               `json:"requested_by"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (s *SuggestionLog) BeforeCreate(tx *gorm.DB) error {
	if s.ID == 0 {
		s.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return nil
}
