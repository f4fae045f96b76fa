// Package grid implements the assignment-grid data model: a sparse mapping
// of grid cells to the ordered list of persons dropped into them, plus the
// span computation used to merge adjacent cells occupied by the same person.
// Everything here is pure state manipulation; persistence and date handling
// live in the service layer.
package grid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/tables"
)

// CellKey addresses one (role row, room column) intersection within one
// table configuration.
type CellKey struct {
	Table tables.Key `json:"table"`
	Role  int        `json:"role"`
	Room  int        `json:"room"`
}

// String serializes the key in the "<table>-<role>-<room>" form used as the
// assignment map key and in persisted snapshots.
func (k CellKey) String() string {
	return fmt.Sprintf("%s-%d-%d", k.Table, k.Role, k.Room)
}

// ParseCellKey parses the serialized form produced by CellKey.String
func ParseCellKey(s string) (CellKey, error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return CellKey{}, fmt.Errorf("malformed cell key %q", s)
	}
	role, err := strconv.Atoi(parts[1])
	if err != nil {
		return CellKey{}, fmt.Errorf("malformed role index in cell key %q", s)
	}
	room, err := strconv.Atoi(parts[2])
	if err != nil {
		return CellKey{}, fmt.Errorf("malformed room index in cell key %q", s)
	}
	if role < 0 || room < 0 {
		return CellKey{}, fmt.Errorf("negative index in cell key %q", s)
	}
	return CellKey{Table: tables.Key(parts[0]), Role: role, Room: room}, nil
}

// AssignmentMap maps serialized cell keys to the persons assigned to that
// cell, in drop order. Cells with no persons are absent, never empty lists,
// so "has this cell ever been touched" and "is this cell empty" coincide.
type AssignmentMap map[string][]models.Person

// NewAssignmentMap returns an empty map
func NewAssignmentMap() AssignmentMap {
	return make(AssignmentMap)
}

// Drop appends a value copy of p to the target cell. Dropping the same
// person twice onto the same cell is a no-op; no other cell is touched, so
// one person may occupy several cells at once (split shifts).
func (m AssignmentMap) Drop(key CellKey, p *models.Person) bool {
	if p == nil {
		return false
	}
	ck := key.String()
	for _, existing := range m[ck] {
		if existing.ID == p.ID {
			return false
		}
	}
	m[ck] = append(m[ck], *p)
	return true
}

// Remove filters personID out of the given cell only. Empty cells are
// pruned from the map. Returns true if an entry was removed.
func (m AssignmentMap) Remove(key CellKey, personID int64) bool {
	ck := key.String()
	entries, ok := m[ck]
	if !ok {
		return false
	}
	kept := entries[:0]
	removed := false
	for _, p := range entries {
		if p.ID == personID {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return false
	}
	if len(kept) == 0 {
		delete(m, ck)
	} else {
		m[ck] = kept
	}
	return true
}

// Purge removes personID from every cell of the map and prunes emptied
// cells. Returns the number of entries removed. Used when a person is
// deleted from the directory.
func (m AssignmentMap) Purge(personID int64) int {
	removed := 0
	for ck, entries := range m {
		kept := entries[:0]
		for _, p := range entries {
			if p.ID == personID {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(m, ck)
		} else {
			m[ck] = kept
		}
	}
	return removed
}

// Persons returns the entries of one cell in drop order
func (m AssignmentMap) Persons(key CellKey) []models.Person {
	return m[key.String()]
}

// Contains reports whether personID is assigned to the given cell
func (m AssignmentMap) Contains(key CellKey, personID int64) bool {
	for _, p := range m[key.String()] {
		if p.ID == personID {
			return true
		}
	}
	return false
}

// Clone returns a deep-enough copy: entry slices are copied, Person values
// are value types already.
func (m AssignmentMap) Clone() AssignmentMap {
	out := make(AssignmentMap, len(m))
	for ck, entries := range m {
		out[ck] = append([]models.Person(nil), entries...)
	}
	return out
}

// Encode serializes the map for persistence
func (m AssignmentMap) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a persisted snapshot. Callers decide how a decode failure
// degrades; the repository treats it as an empty map.
func Decode(data []byte) (AssignmentMap, error) {
	if len(data) == 0 {
		return NewAssignmentMap(), nil
	}
	var m AssignmentMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode assignment snapshot: %w", err)
	}
	if m == nil {
		m = NewAssignmentMap()
	}
	return m, nil
}
