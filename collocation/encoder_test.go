package collocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCode(t *testing.T) {
	cases := []struct {
		name    string
		unit    string
		level   int
		ordinal int
		want    string
	}{
		{"pads ordinal", "A", 2, 7, "A-2-07"},
		{"upper-cases and trims code", "  b ", 3, 7, "B-3-07"},
		{"wide ordinal kept", "C", 1, 123, "C-1-123"},
		{"missing code", "  ", 1, 1, ""},
		{"zero level", "A", 0, 1, ""},
		{"zero ordinal", "A", 1, 0, ""},
		{"negative ordinal", "A", 1, -4, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatCode(tc.unit, tc.level, tc.ordinal))
		})
	}
}

func TestService_Encode(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	unit := createUnit(t, db, "b", 1)
	level, _ := createLevel(t, db, unit.ID, 3, 0)

	require.Equal(t, "B-3-07", svc.Encode(ctx, unit.ID, level.ID, 7))

	require.Empty(t, svc.Encode(ctx, 0, level.ID, 7))
	require.Empty(t, svc.Encode(ctx, unit.ID, 0, 7))
	require.Empty(t, svc.Encode(ctx, unit.ID, level.ID, 0))
	require.Empty(t, svc.Encode(ctx, unit.ID, level.ID, -1))
	require.Empty(t, svc.Encode(ctx, unit.ID+40, level.ID, 7))
	require.Empty(t, svc.Encode(ctx, unit.ID, level.ID+40, 7))
}
