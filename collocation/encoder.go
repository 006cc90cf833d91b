package collocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// FormatCode renders UNIT-LEVEL-ORDINAL, e.g. "A-2-07". Any missing part
// yields the empty string.
func FormatCode(unitCode string, levelNumber, ordinal int) string {
	code := strings.ToUpper(strings.TrimSpace(unitCode))
	if code == "" || levelNumber <= 0 || ordinal <= 0 {
		return ""
	}
	return fmt.Sprintf("%s-%d-%02d", code, levelNumber, ordinal)
}

// Encode resolves the unit code and level number and formats the
// collocation code. Lookup failures degrade to "".
func (s *Service) Encode(ctx context.Context, unitID, levelID uint, ordinal int) string {
	if unitID == 0 || levelID == 0 || ordinal <= 0 {
		return ""
	}

	unit, err := s.hierarchy.FindUnit(ctx, unitID)
	if err != nil {
		s.log.WithError(err).WithField("unit_id", unitID).Debug("encode: unit lookup failed")
		return ""
	}
	level, err := s.hierarchy.FindLevel(ctx, levelID)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"level_id": levelID}).Debug("encode: level lookup failed")
		return ""
	}
	return FormatCode(unit.Code, level.Number, ordinal)
}
