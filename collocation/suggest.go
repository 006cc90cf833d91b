package collocation

import (
	"context"
	"strings"

	"biblio-app/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Reasons identify which tier produced a suggestion.
const (
	ReasonTaxonomyUsage  = "taxonomy_usage"
	ReasonRootGenreRange = "root_genre_range"
	ReasonFirstUnit      = "first_unit"
)

// codeRange is an inclusive range of unit-code initials.
type codeRange struct {
	from, to byte
}

func (r codeRange) contains(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code != "" && code[0] >= r.from && code[0] <= r.to
}

// rootGenreRanges maps literary root genres onto thirds of the alphabet.
var rootGenreRanges = map[string]codeRange{
	"narrativa":  {'A', 'I'},
	"poesia":     {'J', 'R'},
	"teatro":     {'J', 'R'},
	"saggistica": {'S', 'Z'},
}

// Suggestion is an advisory placement. Nothing is reserved: a concurrent
// edit may take the proposed slot before the caller applies it. Every field
// is nil when the hierarchy has no units.
type Suggestion struct {
	UnitID  *uint   `json:"unit_id"`
	LevelID *uint   `json:"level_id"`
	SlotID  *uint   `json:"slot_id"`
	Ordinal *int    `json:"ordinal"`
	Code    *string `json:"code"`
	Reason  *string `json:"reason"`
}

// Placement converts the suggestion to the canonical placement value.
func (s Suggestion) Placement() Placement {
	p := Placement{UnitID: s.UnitID, LevelID: s.LevelID, SlotID: s.SlotID}
	if s.Ordinal != nil {
		p.Ordinal = *s.Ordinal
	}
	if s.Code != nil {
		p.Code = *s.Code
	}
	return p
}

// Suggest proposes a unit, level and slot for a genre or subgenre. The unit
// comes from the first tier that yields one: most used unit for the
// taxonomy node, the alphabetic range of the root genre, then the first unit
// by sort order. The level is the least occupied one inside the unit and
// the slot the first free one inside the level. Store failures are logged
// and leave the affected fields nil.
func (s *Service) Suggest(ctx context.Context, genreID, subgenreID *uint) Suggestion {
	var out Suggestion

	unit, reason := s.pickUnit(ctx, genreID, subgenreID)
	if unit == nil {
		s.metrics.ObserveSuggestion("")
		return out
	}
	out.UnitID = &unit.ID
	out.Reason = &reason
	s.metrics.ObserveSuggestion(reason)

	log := s.log.WithFields(logrus.Fields{"unit_id": unit.ID, "tier": reason})

	level, err := s.hierarchy.LeastOccupiedLevel(ctx, unit.ID)
	if err != nil {
		log.WithError(err).Warn("suggest: level lookup failed")
		return out
	}
	if level == nil {
		return out
	}
	out.LevelID = &level.ID

	slot, err := s.hierarchy.FirstFreeSlot(ctx, unit.ID, level.ID)
	if err != nil {
		log.WithError(err).WithField("level_id", level.ID).Warn("suggest: slot lookup failed")
		return out
	}
	if slot == nil {
		return out
	}
	out.SlotID = &slot.ID

	ordinal := SlotOrdinal(*slot)
	out.Ordinal = &ordinal
	if code := s.Encode(ctx, unit.ID, level.ID, ordinal); code != "" {
		out.Code = &code
	}
	return out
}

func (s *Service) pickUnit(ctx context.Context, genreID, subgenreID *uint) (*models.ShelfUnit, string) {
	if unit := s.mostUsedUnit(ctx, genreID, subgenreID); unit != nil {
		return unit, ReasonTaxonomyUsage
	}
	if genreID != nil {
		if unit := s.rootGenreUnit(ctx, *genreID); unit != nil {
			return unit, ReasonRootGenreRange
		}
	}
	unit, err := s.hierarchy.FirstUnitBySortOrder(ctx)
	if err != nil {
		s.log.WithError(err).Warn("suggest: first unit lookup failed")
		return nil, ""
	}
	if unit == nil {
		return nil, ""
	}
	return unit, ReasonFirstUnit
}

func (s *Service) mostUsedUnit(ctx context.Context, genreID, subgenreID *uint) *models.ShelfUnit {
	unitID, ok, err := s.placements.MostUsedUnit(ctx, genreID, subgenreID)
	if err != nil {
		s.log.WithError(err).Warn("suggest: usage count failed")
		return nil
	}
	if !ok {
		return nil
	}
	unit, err := s.hierarchy.FindUnit(ctx, unitID)
	if err != nil {
		s.log.WithError(err).WithField("unit_id", unitID).Debug("suggest: most used unit vanished")
		return nil
	}
	return unit
}

func (s *Service) rootGenreUnit(ctx context.Context, genreID uint) *models.ShelfUnit {
	chain, err := s.taxonomy.Ancestors(ctx, genreID)
	if err != nil || len(chain) == 0 {
		if err != nil {
			s.log.WithError(err).WithField("genre_id", genreID).Debug("suggest: ancestor lookup failed")
		}
		return nil
	}

	root := chain[len(chain)-1]
	r, ok := rootGenreRanges[strings.ToLower(strings.TrimSpace(root.Name))]
	if !ok {
		return nil
	}

	units, err := s.hierarchy.UnitsInStoreOrder(ctx)
	if err != nil {
		s.log.WithError(err).Warn("suggest: unit listing failed")
		return nil
	}
	i := slices.IndexFunc(units, func(u models.ShelfUnit) bool { return r.contains(u.Code) })
	if i < 0 {
		return nil
	}
	return &units[i]
}
