package seed

import (
	"context"
	_ "embed"
	"os"
	"strings"

	"biblio-app/models"
	"biblio-app/repositories"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed default.yaml
var defaultSeed []byte

type GenreSeed struct {
	Name     string      `yaml:"name"`
	Children []GenreSeed `yaml:"children"`
}

type LevelSeed struct {
	Number int `yaml:"number"`
	Slots  int `yaml:"slots"`
}

type UnitSeed struct {
	Code          string      `yaml:"code"`
	Name          string      `yaml:"name"`
	Levels        []LevelSeed `yaml:"levels"`
	LevelCount    int         `yaml:"level_count"`
	SlotsPerLevel int         `yaml:"slots_per_level"`
}

// Data is the seed document: the genre taxonomy and the shelving hierarchy.
type Data struct {
	Genres []GenreSeed `yaml:"genres"`
	Units  []UnitSeed  `yaml:"units"`
}

// Load parses the seed file at path, or the built-in seed when path is
// empty.
func Load(path string) (*Data, error) {
	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read seed file %s", path)
		}
		raw = b
	}
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "parse seed data")
	}
	return &data, nil
}

// levels expands LevelCount/SlotsPerLevel shorthand into explicit levels.
func (u UnitSeed) levels() []LevelSeed {
	if len(u.Levels) > 0 {
		return u.Levels
	}
	out := make([]LevelSeed, 0, u.LevelCount)
	for n := 1; n <= u.LevelCount; n++ {
		out = append(out, LevelSeed{Number: n, Slots: u.SlotsPerLevel})
	}
	return out
}

// Apply inserts whatever part of data is missing. Running it twice changes
// nothing.
func Apply(ctx context.Context, db *gorm.DB, data *Data, log logrus.FieldLogger) error {
	for _, g := range data.Genres {
		if err := seedGenre(db.WithContext(ctx), g, nil); err != nil {
			return err
		}
	}

	var rows []repositories.HierarchyRow
	for _, u := range data.Units {
		for _, l := range u.levels() {
			rows = append(rows, repositories.HierarchyRow{
				UnitCode:    u.Code,
				UnitName:    u.Name,
				LevelNumber: l.Number,
				SlotCount:   l.Slots,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	summary, err := repositories.NewHierarchyRepository(db).ImportRows(ctx, rows, 0)
	if err != nil {
		return errors.Wrap(err, "seed shelving hierarchy")
	}
	log.WithFields(logrus.Fields{
		"units_created":  summary.UnitsCreated,
		"levels_created": summary.LevelsCreated,
		"slots_total":    summary.SlotsTotal,
	}).Info("seed applied")
	return nil
}

func seedGenre(db *gorm.DB, g GenreSeed, parentID *uint) error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return errors.New("seed genre without name")
	}

	q := db.Where("name = ?", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	var existing models.Genre
	err := q.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing = models.Genre{Name: name, ParentID: parentID}
		if err := db.Create(&existing).Error; err != nil {
			return errors.Wrapf(err, "create genre %s", name)
		}
	} else if err != nil {
		return errors.Wrapf(err, "find genre %s", name)
	}

	for _, child := range g.Children {
		if err := seedGenre(db, child, &existing.ID); err != nil {
			return err
		}
	}
	return nil
}
