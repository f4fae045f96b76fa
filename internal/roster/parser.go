// Package roster parses spreadsheet-based shift rosters into normalized
// shift assignments. Header names vary between hospitals and planning
// periods, so columns are located by case-insensitive substring matching
// against known synonyms; cells may list several people, one per line, in
// the "Nachname, Vorname (Abteilung) (Code)" form.
package roster

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/or-planner-api/internal/models"
	"github.com/xuri/excelize/v2"
)

// shiftColumn pairs one availability category with the header fragments
// that identify its column. Match order is fixed.
type shiftColumn struct {
	Category string
	Synonyms []string
}

var shiftColumns = []shiftColumn{
	{models.AvailabilityBD, []string{"bereitschaften", "bd", "bereitschaft"}},
	{models.AvailabilityRD, []string{"rufdienste", "rd", "rufdienst", "ruf"}},
	{models.AvailabilityFrueh, []string{"frühdienste", "früh", "fruh", "frühdienst", "early"}},
	{models.AvailabilityMittel, []string{"zwischendienste", "mitteldienste", "mittel", "zwischen", "middle"}},
	{models.AvailabilitySpaet, []string{"spätdienste", "spät", "spaet", "spätdienst", "late", "späte"}},
}

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ParseWorkbook reads an xlsx roster and returns the normalized result.
// Per-sheet problems are collected as errors and parsing continues; only an
// unreadable workbook fails the call.
func ParseWorkbook(r io.Reader, filename string) (*models.RosterParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster workbook: %w", err)
	}
	defer f.Close()

	result := &models.RosterParseResult{
		Summary: models.RosterSummary{
			ShiftDate: datePattern.FindString(filename),
		},
	}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Sheet %q: %v", sheet, err))
			continue
		}
		assignments, errs := ParseSheet(rows, sheet)
		result.Assignments = append(result.Assignments, assignments...)
		result.Errors = append(result.Errors, errs...)
		result.Summary.SheetsProcessed = append(result.Summary.SheetsProcessed, sheet)
	}

	result.Summary.TotalAssignments = len(result.Assignments)
	result.Summary.AssignedPersonnel = countUniqueNames(result.Assignments)
	return result, nil
}

// ParseSheet extracts shift assignments from one sheet's cell matrix.
// Row 0 is the header row; every other row may hold multi-name cells under
// the located shift columns.
func ParseSheet(rows [][]string, sheetName string) ([]models.ShiftAssignment, []string) {
	if len(rows) < 2 {
		return nil, []string{fmt.Sprintf("Sheet %q: no data found", sheetName)}
	}

	columns := FindShiftColumns(rows[0])
	if len(columns) == 0 {
		known := make([]string, 0, len(shiftColumns))
		for _, c := range shiftColumns {
			known = append(known, c.Category)
		}
		return nil, []string{fmt.Sprintf("Sheet %q: no shift columns found, expected headers like: %s",
			sheetName, strings.Join(known, ", "))}
	}

	var assignments []models.ShiftAssignment
	for _, col := range shiftColumns {
		idx, ok := columns[col.Category]
		if !ok {
			continue
		}
		for _, row := range rows[1:] {
			if idx >= len(row) {
				continue
			}
			for _, a := range ParseNamesFromCell(row[idx]) {
				a.ShiftType = col.Category
				a.Availability = col.Category
				assignments = append(assignments, a)
			}
		}
	}
	return assignments, nil
}

// FindShiftColumns maps availability categories to header column indices.
// The first header containing any synonym wins; categories without a match
// are absent.
func FindShiftColumns(headers []string) map[string]int {
	found := make(map[string]int)
	for _, col := range shiftColumns {
		for i, header := range headers {
			h := strings.ToLower(strings.TrimSpace(header))
			if h == "" {
				continue
			}
			if containsAny(h, col.Synonyms) {
				found[col.Category] = i
				break
			}
		}
	}
	return found
}

// ParseNamesFromCell splits a multi-line roster cell into one assignment
// per person. Shift type and availability are filled in by the caller.
func ParseNamesFromCell(cell string) []models.ShiftAssignment {
	var assignments []models.ShiftAssignment
	for _, line := range strings.Split(cell, "\n") {
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if a, ok := parseNameLine(line); ok {
			assignments = append(assignments, a)
		}
	}
	return assignments
}

// parseNameLine parses "Nachname, Vorname (Abteilung) (Code)". Lines
// without a comma fall back to "Vorname Nachname" word order.
func parseNameLine(line string) (models.ShiftAssignment, bool) {
	namePart := line
	if i := strings.Index(line, "("); i >= 0 {
		namePart = line[:i]
	}
	namePart = strings.TrimSpace(namePart)
	if namePart == "" {
		return models.ShiftAssignment{}, false
	}

	if strings.Contains(namePart, ",") {
		parts := strings.SplitN(namePart, ",", 2)
		lastName := strings.TrimSpace(parts[0])
		firstName := strings.TrimSpace(parts[1])
		if lastName == "" || firstName == "" {
			return models.ShiftAssignment{}, false
		}
		return models.ShiftAssignment{
			Name:         firstName + " " + lastName,
			LastName:     lastName,
			FirstName:    firstName,
			OriginalText: line,
		}, true
	}

	words := strings.Fields(namePart)
	if len(words) < 2 {
		return models.ShiftAssignment{}, false
	}
	firstName := words[0]
	lastName := strings.Join(words[1:], " ")
	return models.ShiftAssignment{
		Name:         firstName + " " + lastName,
		LastName:     lastName,
		FirstName:    firstName,
		OriginalText: line,
	}, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func countUniqueNames(assignments []models.ShiftAssignment) int {
	seen := make(map[string]bool)
	for _, a := range assignments {
		seen[models.NormalizeName(a.Name)] = true
	}
	return len(seen)
}
