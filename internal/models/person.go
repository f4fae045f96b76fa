package models

import (
	"strings"
	"time"
)

// Personnel group categories as used on the planning board.
const (
	GroupOPPflege              = "OP-Pflege"
	GroupAnaesthesiePflege     = "Anästhesie Pflege"
	GroupOPPraktikant          = "OP-Praktikant"
	GroupAnaesthesiePraktikant = "Anästhesie Praktikant"
	GroupMFA                   = "MFA"
	GroupATASchueler           = "ATA Schüler"
	GroupOTASchueler           = "OTA Schüler"
)

// ValidGroups defines allowed personnel groups
var ValidGroups = map[string]bool{
	GroupOPPflege:              true,
	GroupAnaesthesiePflege:     true,
	GroupOPPraktikant:          true,
	GroupAnaesthesiePraktikant: true,
	GroupMFA:                   true,
	GroupATASchueler:           true,
	GroupOTASchueler:           true,
}

// Shift availability categories. A person's AvailabilityState is either a
// comma-joined list of these or AvailabilityNone.
const (
	AvailabilityBD     = "Bereitschaften (BD)"
	AvailabilityRD     = "Rufdienste (RD)"
	AvailabilityFrueh  = "Frühdienste (Früh)"
	AvailabilityMittel = "Zwischendienste/Mitteldienste (Mittel)"
	AvailabilitySpaet  = "Spätdienste (Spät)"
	AvailabilityNone   = "nicht verfügbar"
)

// Pending-sync markers for the remote directory. A non-empty marker means
// the record has local changes the directory has not seen yet.
const (
	SyncStateNone   = ""
	SyncStateAdd    = "add"
	SyncStateUpdate = "update"
)

// Person represents one staff member in the local directory
type Person struct {
	ID                   int64     `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Group                string    `json:"group" db:"group_name"`
	Department           string    `json:"department" db:"department"`
	Comment              string    `json:"comment" db:"comment"`
	AvailabilityState    string    `json:"availability_state" db:"availability_state"`
	Initials             string    `json:"initials" db:"initials"`
	IsActive             bool      `json:"is_active" db:"is_active"`
	ShiftAssignment      string    `json:"shift_assignment,omitempty" db:"shift_assignment"`
	AvailabilityTags     []string  `json:"availability_tags,omitempty" db:"-"` // Stored as JSON string in DB
	AvailabilityTagsJSON string    `json:"-" db:"availability_tags"`           // For DB storage
	ShiftTags            []string  `json:"shift_tags,omitempty" db:"-"`
	ShiftTagsJSON        string    `json:"-" db:"shift_tags"`
	IsAvailable          *bool     `json:"is_available,omitempty" db:"is_available"`
	SyncState            string    `json:"sync_state,omitempty" db:"sync_state"`
	RemoteID             string    `json:"-" db:"remote_id"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// PersonUpdate carries a partial update. Only non-nil fields are merged, so
// unknown or extra input can never leak into persisted state.
type PersonUpdate struct {
	Name              *string `json:"name"`
	Group             *string `json:"group"`
	Department        *string `json:"department"`
	Comment           *string `json:"comment"`
	AvailabilityState *string `json:"availability_state"`
	Initials          *string `json:"initials"`
	IsActive          *bool   `json:"is_active"`
	ShiftAssignment   *string `json:"shift_assignment"`
}

// DeriveInitials computes the short label shown on person cards:
// "Anna Müller" -> "AM", "Cher" -> "CH", "" -> "XX".
func DeriveInitials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "XX"
	}
	if len(parts) == 1 {
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	first := []rune(parts[0])
	last := []rune(parts[len(parts)-1])
	return strings.ToUpper(string(first[0]) + string(last[0]))
}

// NormalizeName is the secondary join key used when reconciling roster and
// directory data: external identifiers are not stable across syncs, names
// (case-insensitive, trimmed) are.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AvailabilityTagSet maps a person id to the availability categories derived
// from the most recent roster import.
type AvailabilityTagSet map[int64][]string
