package validation

import (
	"fmt"
	"strings"

	"github.com/or-planner-api/internal/models"
)

// MinNameLength is the shortest full name accepted from a roster cell
const MinNameLength = 3

// Validator checks parsed roster assignments before they reach the
// personnel directory. It carries per-batch state, so use a fresh instance
// per import run.
type Validator struct {
	seen map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		seen: make(map[string]bool),
	}
}

// ValidateAssignment checks a single assignment and records it for
// duplicate detection. A non-empty return value is the rejection reason,
// phrased for the import report.
func (v *Validator) ValidateAssignment(a models.ShiftAssignment) string {
	name := strings.TrimSpace(a.Name)
	if len([]rune(name)) < MinNameLength {
		return "Name zu kurz oder fehlt"
	}
	if strings.TrimSpace(a.ShiftType) == "" {
		return fmt.Sprintf("Schichttyp fehlt für %s", name)
	}

	// The same person may appear under several shift columns, but only once
	// per column within one batch.
	key := models.NormalizeName(name) + "|" + strings.ToLower(a.ShiftType)
	if v.seen[key] {
		return fmt.Sprintf("Doppelte Zuordnung für %s in %s", name, a.ShiftType)
	}
	v.seen[key] = true
	return ""
}

// ValidateBatch splits a parsed batch into valid assignments and rejected
// ones with reasons. Order is preserved.
func (v *Validator) ValidateBatch(assignments []models.ShiftAssignment) ([]models.ShiftAssignment, []models.InvalidAssignment) {
	valid := make([]models.ShiftAssignment, 0, len(assignments))
	var invalid []models.InvalidAssignment
	for _, a := range assignments {
		if reason := v.ValidateAssignment(a); reason != "" {
			invalid = append(invalid, models.InvalidAssignment{Assignment: a, Reason: reason})
			continue
		}
		valid = append(valid, a)
	}
	return valid, invalid
}
