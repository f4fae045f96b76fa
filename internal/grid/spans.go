package grid

import (
	"sort"

	"github.com/or-planner-api/internal/tables"
)

// SpanGroup is a maximal run of consecutive room columns in one role row
// occupied by the same person. Derived on demand, never stored.
type SpanGroup struct {
	PersonID int64 `json:"person_id"`
	Rooms    []int `json:"rooms"`
}

// CellRender is the presentation hint for one room column of a row: the
// column width of the block anchored there and whether the cell is skipped
// because an earlier block spans across it. Suppression is a rendering
// decision only; the underlying map entries are untouched.
type CellRender struct {
	Room       int  `json:"room"`
	Span       int  `json:"span"`
	Suppressed bool `json:"suppressed,omitempty"`
}

// ConsecutiveAssignments returns the span groups of one person in one role
// row: the room indices where the person appears, grouped into maximal runs
// of consecutive integers. Rooms {2,3,4} and {7} yield [[2,3,4],[7]].
func ConsecutiveAssignments(m AssignmentMap, table tables.Key, role int, personID int64, roomCount int) [][]int {
	var runs [][]int
	var current []int
	for room := 0; room < roomCount; room++ {
		key := CellKey{Table: table, Role: role, Room: room}
		if !m.Contains(key, personID) {
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		if len(current) > 0 && current[len(current)-1] != room-1 {
			runs = append(runs, current)
			current = nil
		}
		current = append(current, room)
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// ComputeSpans derives the span groups of every person present in one role
// row, ordered by first room then person id. Pure: one call per row per
// render, no hidden accumulator.
func ComputeSpans(m AssignmentMap, table tables.Key, role int, roomCount int) []SpanGroup {
	seen := make(map[int64]bool)
	var ids []int64
	for room := 0; room < roomCount; room++ {
		key := CellKey{Table: table, Role: role, Room: room}
		for _, p := range m.Persons(key) {
			if !seen[p.ID] {
				seen[p.ID] = true
				ids = append(ids, p.ID)
			}
		}
	}

	var groups []SpanGroup
	for _, id := range ids {
		for _, run := range ConsecutiveAssignments(m, table, role, id, roomCount) {
			groups = append(groups, SpanGroup{PersonID: id, Rooms: run})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Rooms[0] != groups[j].Rooms[0] {
			return groups[i].Rooms[0] < groups[j].Rooms[0]
		}
		return groups[i].PersonID < groups[j].PersonID
	})
	return groups
}

// RowLayout turns a row's span groups into per-cell render hints. A cell's
// width is the maximum span width among the groups anchored at it; a cell
// interior to a longer run is suppressed unless another group anchors there.
// Display heuristic only, it never changes assignment contents.
func RowLayout(groups []SpanGroup, roomCount int) []CellRender {
	width := make([]int, roomCount)
	covered := make([]bool, roomCount)
	anchored := make([]bool, roomCount)

	for _, g := range groups {
		anchor := g.Rooms[0]
		if anchor < 0 || anchor >= roomCount {
			continue
		}
		anchored[anchor] = true
		if len(g.Rooms) > width[anchor] {
			width[anchor] = len(g.Rooms)
		}
		for _, room := range g.Rooms[1:] {
			if room >= 0 && room < roomCount {
				covered[room] = true
			}
		}
	}

	cells := make([]CellRender, roomCount)
	for room := 0; room < roomCount; room++ {
		span := width[room]
		if span == 0 {
			span = 1
		}
		cells[room] = CellRender{
			Room:       room,
			Span:       span,
			Suppressed: covered[room] && !anchored[room],
		}
	}
	return cells
}
