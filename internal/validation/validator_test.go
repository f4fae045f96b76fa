package validation

import (
	"strings"
	"testing"

	"github.com/or-planner-api/internal/models"
)

func TestValidateAssignment_Valid(t *testing.T) {
	v := NewValidator()
	reason := v.ValidateAssignment(models.ShiftAssignment{
		Name:      "Anna Schmidt",
		ShiftType: models.AvailabilityBD,
	})
	if reason != "" {
		t.Errorf("expected valid assignment, got reason %q", reason)
	}
}

func TestValidateAssignment_NameTooShort(t *testing.T) {
	v := NewValidator()
	cases := []string{"", "  ", "Al", " A "}
	for _, name := range cases {
		reason := v.ValidateAssignment(models.ShiftAssignment{
			Name:      name,
			ShiftType: models.AvailabilityRD,
		})
		if reason != "Name zu kurz oder fehlt" {
			t.Errorf("name %q: expected short-name rejection, got %q", name, reason)
		}
	}
}

func TestValidateAssignment_MissingShiftType(t *testing.T) {
	v := NewValidator()
	reason := v.ValidateAssignment(models.ShiftAssignment{Name: "Anna Schmidt"})
	if !strings.Contains(reason, "Schichttyp fehlt") {
		t.Errorf("expected missing-shift-type rejection, got %q", reason)
	}
}

func TestValidateAssignment_DuplicateWithinBatch(t *testing.T) {
	v := NewValidator()
	a := models.ShiftAssignment{Name: "Anna Schmidt", ShiftType: models.AvailabilityBD}

	if reason := v.ValidateAssignment(a); reason != "" {
		t.Fatalf("first occurrence rejected: %q", reason)
	}
	if reason := v.ValidateAssignment(a); !strings.Contains(reason, "Doppelte Zuordnung") {
		t.Errorf("expected duplicate rejection, got %q", reason)
	}

	// Same name under a different shift column is fine.
	other := models.ShiftAssignment{Name: "Anna Schmidt", ShiftType: models.AvailabilityFrueh}
	if reason := v.ValidateAssignment(other); reason != "" {
		t.Errorf("different shift type rejected: %q", reason)
	}
}

func TestValidateAssignment_DuplicateIsCaseInsensitive(t *testing.T) {
	v := NewValidator()
	v.ValidateAssignment(models.ShiftAssignment{Name: "Anna Schmidt", ShiftType: models.AvailabilityBD})
	reason := v.ValidateAssignment(models.ShiftAssignment{Name: "  ANNA SCHMIDT ", ShiftType: models.AvailabilityBD})
	if !strings.Contains(reason, "Doppelte Zuordnung") {
		t.Errorf("expected case-insensitive duplicate rejection, got %q", reason)
	}
}

func TestValidateBatch(t *testing.T) {
	v := NewValidator()
	batch := []models.ShiftAssignment{
		{Name: "Anna Schmidt", ShiftType: models.AvailabilityBD},
		{Name: "Al", ShiftType: models.AvailabilityBD},
		{Name: "Ben Weber", ShiftType: models.AvailabilitySpaet},
		{Name: "Anna Schmidt", ShiftType: models.AvailabilityBD},
	}

	valid, invalid := v.ValidateBatch(batch)
	if len(valid) != 2 {
		t.Errorf("expected 2 valid assignments, got %d", len(valid))
	}
	if len(invalid) != 2 {
		t.Fatalf("expected 2 invalid assignments, got %d", len(invalid))
	}
	if invalid[0].Reason != "Name zu kurz oder fehlt" {
		t.Errorf("unexpected first reason %q", invalid[0].Reason)
	}
	if !strings.Contains(invalid[1].Reason, "Doppelte Zuordnung") {
		t.Errorf("unexpected second reason %q", invalid[1].Reason)
	}
	if valid[0].Name != "Anna Schmidt" || valid[1].Name != "Ben Weber" {
		t.Errorf("valid assignments out of order: %+v", valid)
	}
}
