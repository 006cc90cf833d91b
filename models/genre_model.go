package models

import "gorm.io/gorm"

// Genre is a taxonomy node. Root genres have no parent.
type Genre struct {
	gorm.Model
	Name     string `json:"name" gorm:"not null"`
	ParentID *uint  `json:"parent_id" gorm:"index"`
}
