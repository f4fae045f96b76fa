package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIsTotalForDefinedKeys(t *testing.T) {
	for _, k := range Keys() {
		cfg := Get(k)
		assert.Equal(t, k, cfg.Key)
		assert.NotEmpty(t, cfg.DisplayName)
		assert.NotEmpty(t, cfg.Roles)
		assert.NotEmpty(t, cfg.Rooms)
	}
}

func TestShapesDifferBetweenKeys(t *testing.T) {
	main := Get(Main)
	emergency := Get(Emergency)
	weekend := Get(Weekend)

	assert.Equal(t, 23, len(main.Roles))
	assert.Equal(t, 20, len(main.Rooms))
	assert.Equal(t, 7, len(emergency.Roles))
	assert.Equal(t, 3, len(emergency.Rooms))
	assert.Equal(t, 4, len(weekend.Roles))
	assert.Equal(t, 4, len(weekend.Rooms))
}

func TestBlankRolesAreDistinctRows(t *testing.T) {
	// Positional identity: repeated blank labels still count as rows.
	main := Get(Main)
	blanks := 0
	for _, r := range main.Roles {
		if r == "" {
			blanks++
		}
	}
	assert.Greater(t, blanks, 1)
}

func TestUnknownKeyFallsBackToMain(t *testing.T) {
	assert.False(t, Key("night").Valid())
	assert.Equal(t, Main, Get(Key("night")).Key)
}
