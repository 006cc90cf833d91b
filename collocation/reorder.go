package collocation

import (
	"context"

	"biblio-app/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Kind names one level of the shelving hierarchy in reorder requests.
type Kind string

const (
	KindUnits  Kind = "scaffali"
	KindLevels Kind = "ripiani"
	KindSlots  Kind = "posizioni"
)

var kinds = []Kind{KindUnits, KindLevels, KindSlots}

func (k Kind) Valid() bool {
	return slices.Contains(kinds, k)
}

func (k Kind) model() interface{} {
	switch k {
	case KindUnits:
		return &models.ShelfUnit{}
	case KindLevels:
		return &models.ShelfLevel{}
	case KindSlots:
		return &models.Slot{}
	}
	return nil
}

// ReorderResult tells an unknown kind (Accepted false, nothing written)
// apart from a successful renumbering.
type ReorderResult struct {
	Kind     string `json:"kind"`
	Accepted bool   `json:"accepted"`
	Updated  int    `json:"updated"`
}

// Reorder assigns sort orders 1..N to ids in the given order; a repeated id
// keeps its first position. Each id is
// written on its own; when a write fails the ids before it keep their new
// order and the error is returned with the partial count.
func (s *Service) Reorder(ctx context.Context, kind string, ids []uint) (ReorderResult, error) {
	k := Kind(kind)
	result := ReorderResult{Kind: kind}
	if !k.Valid() {
		s.metrics.ObserveReorder("invalid", "rejected")
		s.log.WithField("kind", kind).Info("reorder: unsupported kind ignored")
		return result, nil
	}
	result.Accepted = true

	for i, id := range uniqueIDs(ids) {
		changed, err := s.hierarchy.SetSortOrder(ctx, k.model(), id, i+1)
		if err != nil {
			s.metrics.ObserveReorder(kind, "partial")
			s.log.WithError(err).WithFields(logrus.Fields{"kind": kind, "id": id, "updated": result.Updated}).
				Error("reorder: write failed")
			return result, err
		}
		if changed {
			result.Updated++
		}
	}

	s.metrics.ObserveReorder(kind, "accepted")
	return result, nil
}

func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
