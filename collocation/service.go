// Package collocation decides and encodes where a catalog item physically
// sits: shelf-unit, shelf-level and ordinal, with an optional pre-declared
// slot.
package collocation

import (
	"context"
	"time"

	"biblio-app/metrics"
	"biblio-app/models"
	"biblio-app/repositories"
	"biblio-app/types"

	"github.com/sirupsen/logrus"
)

// HierarchyStore is read access to units, levels and slots plus the
// sort-order writes used by reordering.
type HierarchyStore interface {
	Units(ctx context.Context) ([]models.ShelfUnit, error)
	UnitsInStoreOrder(ctx context.Context) ([]models.ShelfUnit, error)
	Levels(ctx context.Context, unitID uint) ([]models.ShelfLevel, error)
	Slots(ctx context.Context, unitID, levelID uint) ([]models.Slot, error)
	FindUnit(ctx context.Context, id uint) (*models.ShelfUnit, error)
	FindLevel(ctx context.Context, id uint) (*models.ShelfLevel, error)
	FirstUnitBySortOrder(ctx context.Context) (*models.ShelfUnit, error)
	LeastOccupiedLevel(ctx context.Context, unitID uint) (*models.ShelfLevel, error)
	FirstFreeSlot(ctx context.Context, unitID, levelID uint) (*models.Slot, error)
	SetSortOrder(ctx context.Context, model interface{}, id uint, order int) (bool, error)
}

// PlacementStore reads active item placements and applies new ones.
type PlacementStore interface {
	MaxOrdinal(ctx context.Context, unitID, levelID uint, exclude types.SnowflakeID) (int, error)
	CountHolding(ctx context.Context, unitID, levelID uint, ordinal int, exclude types.SnowflakeID) (int64, error)
	MostUsedUnit(ctx context.Context, genreID, subgenreID *uint) (uint, bool, error)
	ApplyPlacement(ctx context.Context, w repositories.PlacementWrite) (*models.Item, error)
}

// Taxonomy supplies genre ancestor chains, genre first and root last.
type Taxonomy interface {
	Ancestors(ctx context.Context, genreID uint) ([]models.Genre, error)
}

type Service struct {
	hierarchy  HierarchyStore
	placements PlacementStore
	taxonomy   Taxonomy

	log          logrus.FieldLogger
	metrics      *metrics.Collocation
	claimRetries uint
	claimBackoff time.Duration
}

type Option func(*Service)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(m *metrics.Collocation) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClaimRetries sets how many times a conflicting ordinal claim is
// retried.
func WithClaimRetries(n uint) Option {
	return func(s *Service) { s.claimRetries = n }
}

func NewService(hierarchy HierarchyStore, placements PlacementStore, taxonomy Taxonomy, opts ...Option) *Service {
	s := &Service{
		hierarchy:    hierarchy,
		placements:   placements,
		taxonomy:     taxonomy,
		log:          logrus.StandardLogger(),
		claimRetries: 3,
		claimBackoff: 20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Units, Levels and Slots feed the admin pickers.
func (s *Service) Units(ctx context.Context) ([]models.ShelfUnit, error) {
	return s.hierarchy.Units(ctx)
}

func (s *Service) Levels(ctx context.Context, unitID uint) ([]models.ShelfLevel, error) {
	return s.hierarchy.Levels(ctx, unitID)
}

func (s *Service) Slots(ctx context.Context, unitID, levelID uint) ([]models.Slot, error) {
	return s.hierarchy.Slots(ctx, unitID, levelID)
}
