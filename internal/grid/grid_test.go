package grid

import (
	"testing"

	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(id int64, name string) *models.Person {
	return &models.Person{ID: id, Name: name, Initials: models.DeriveInitials(name)}
}

func TestCellKeyRoundTrip(t *testing.T) {
	key := CellKey{Table: tables.Main, Role: 3, Room: 17}
	assert.Equal(t, "main-3-17", key.String())

	parsed, err := ParseCellKey("main-3-17")
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseCellKeyMalformed(t *testing.T) {
	for _, s := range []string{"", "main", "main-3", "main-x-1", "main-1-y", "main--1--2"} {
		_, err := ParseCellKey(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestDropIntoMultipleCells(t *testing.T) {
	m := NewAssignmentMap()
	p := person(1, "Lisa Müller")
	cellA := CellKey{Table: tables.Main, Role: 4, Room: 0}
	cellB := CellKey{Table: tables.Main, Role: 4, Room: 5}

	assert.True(t, m.Drop(cellA, p))
	assert.True(t, m.Drop(cellB, p))

	// Multi-placement: the drop touches no other cell.
	assert.True(t, m.Contains(cellA, 1))
	assert.True(t, m.Contains(cellB, 1))
}

func TestDropIsIdempotentPerCell(t *testing.T) {
	m := NewAssignmentMap()
	p := person(1, "Lisa Müller")
	cell := CellKey{Table: tables.Main, Role: 4, Room: 0}

	assert.True(t, m.Drop(cell, p))
	assert.False(t, m.Drop(cell, p))
	assert.Len(t, m.Persons(cell), 1)
}

func TestDropNilPersonIsRejected(t *testing.T) {
	m := NewAssignmentMap()
	cell := CellKey{Table: tables.Main, Role: 0, Room: 0}
	assert.False(t, m.Drop(cell, nil))
	assert.Empty(t, m)
}

func TestDropPreservesOrderAndCopies(t *testing.T) {
	m := NewAssignmentMap()
	a := person(1, "Anna Becker")
	b := person(2, "Max Hoffmann")
	cell := CellKey{Table: tables.Emergency, Role: 1, Room: 2}

	m.Drop(cell, a)
	m.Drop(cell, b)

	got := m.Persons(cell)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	// The map holds a value copy, later mutation of the source is invisible.
	a.Name = "changed"
	assert.Equal(t, "Anna Becker", m.Persons(cell)[0].Name)
}

func TestRemovePrunesEmptyCells(t *testing.T) {
	m := NewAssignmentMap()
	p := person(1, "Lisa Müller")
	cell := CellKey{Table: tables.Main, Role: 4, Room: 0}

	m.Drop(cell, p)
	assert.True(t, m.Remove(cell, 1))

	_, exists := m[cell.String()]
	assert.False(t, exists, "empty cell must be deleted, not kept as an empty list")
}

func TestRemoveOnlyTouchesGivenCell(t *testing.T) {
	m := NewAssignmentMap()
	p := person(1, "Lisa Müller")
	cellA := CellKey{Table: tables.Main, Role: 4, Room: 0}
	cellB := CellKey{Table: tables.Main, Role: 4, Room: 1}

	m.Drop(cellA, p)
	m.Drop(cellB, p)
	m.Remove(cellA, 1)

	assert.False(t, m.Contains(cellA, 1))
	assert.True(t, m.Contains(cellB, 1))
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	m := NewAssignmentMap()
	cell := CellKey{Table: tables.Main, Role: 0, Room: 0}
	assert.False(t, m.Remove(cell, 99))

	m.Drop(cell, person(1, "Anna Becker"))
	assert.False(t, m.Remove(cell, 99))
	assert.Len(t, m.Persons(cell), 1)
}

func TestPurgeRemovesPersonEverywhere(t *testing.T) {
	m := NewAssignmentMap()
	p := person(1, "Lisa Müller")
	other := person(2, "Max Hoffmann")

	m.Drop(CellKey{Table: tables.Main, Role: 0, Room: 0}, p)
	m.Drop(CellKey{Table: tables.Main, Role: 3, Room: 7}, p)
	m.Drop(CellKey{Table: tables.Weekend, Role: 1, Room: 1}, p)
	m.Drop(CellKey{Table: tables.Main, Role: 0, Room: 0}, other)

	assert.Equal(t, 3, m.Purge(1))
	for ck, entries := range m {
		for _, e := range entries {
			assert.NotEqual(t, int64(1), e.ID, "person 1 still present in %s", ck)
		}
	}
	assert.True(t, m.Contains(CellKey{Table: tables.Main, Role: 0, Room: 0}, 2))
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewAssignmentMap()
	cell := CellKey{Table: tables.Main, Role: 2, Room: 2}
	m.Drop(cell, person(1, "Anna Becker"))

	clone := m.Clone()
	clone.Drop(cell, person(2, "Max Hoffmann"))

	assert.Len(t, m.Persons(cell), 1)
	assert.Len(t, clone.Persons(cell), 2)
}

func TestDecodeRoundTrip(t *testing.T) {
	m := NewAssignmentMap()
	m.Drop(CellKey{Table: tables.Main, Role: 4, Room: 2}, person(7, "Julia Wagner"))

	data, err := m.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.Contains(CellKey{Table: tables.Main, Role: 4, Room: 2}, 7))
}

func TestDecodeEmptyAndNull(t *testing.T) {
	m, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = Decode([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestDecodeCorruptData(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"main-0-0": "not a list"}`))
	assert.Error(t, err)
}
