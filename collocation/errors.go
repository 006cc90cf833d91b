package collocation

import (
	"biblio-app/repositories"

	"github.com/pkg/errors"
)

var (
	ErrOrdinalOccupied = repositories.ErrOrdinalTaken
	ErrOrdinalConflict = repositories.ErrOrdinalConflict
	ErrStalePlacement  = repositories.ErrStaleVersion

	ErrUnknownUnit  = errors.New("unknown shelf unit")
	ErrUnknownLevel = errors.New("unknown shelf level")
	ErrItemNotFound = errors.New("item not found")
)
