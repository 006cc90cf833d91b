package repositories

import (
	"context"

	"biblio-app/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// maxGenreDepth bounds the ancestor walk on corrupted trees.
const maxGenreDepth = 64

type GenreRepository struct {
	DB *gorm.DB
}

func NewGenreRepository(DB *gorm.DB) *GenreRepository {
	return &GenreRepository{DB: DB}
}

// Ancestors returns the chain from the genre itself up to its root. A
// parent cycle ends the walk at the last unvisited node.
func (r *GenreRepository) Ancestors(ctx context.Context, genreID uint) ([]models.Genre, error) {
	var chain []models.Genre
	seen := make(map[uint]bool)

	next := &genreID
	for next != nil && !seen[*next] && len(chain) < maxGenreDepth {
		var g models.Genre
		if err := r.DB.WithContext(ctx).First(&g, *next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) && len(chain) > 0 {
				break
			}
			return nil, errors.Wrapf(err, "find genre %d", *next)
		}
		seen[g.ID] = true
		chain = append(chain, g)
		next = g.ParentID
	}
	return chain, nil
}
