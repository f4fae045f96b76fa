package models

// ShiftAssignment is one normalized entry from a parsed shift roster:
// one person listed under one shift-type column.
type ShiftAssignment struct {
	Name         string `json:"name"`
	LastName     string `json:"last_name"`
	FirstName    string `json:"first_name"`
	ShiftType    string `json:"shift_type"`
	Availability string `json:"availability"`
	OriginalText string `json:"original_text,omitempty"`
}

// RosterSummary describes what a parse run covered
type RosterSummary struct {
	TotalAssignments    int      `json:"total_assignments"`
	AssignedPersonnel   int      `json:"assigned_personnel"`
	UnassignedPersonnel int      `json:"unassigned_personnel"`
	SheetsProcessed     []string `json:"sheets_processed"`
	ShiftDate           string   `json:"shift_date,omitempty"`
}

// RosterParseResult is the importer's normalized output. Parse errors are
// collected as strings; a partially readable workbook still yields results.
type RosterParseResult struct {
	Assignments []ShiftAssignment `json:"assignments"`
	Errors      []string          `json:"errors"`
	Summary     RosterSummary     `json:"summary"`
}

// InvalidAssignment is a roster entry rejected by the validation pass,
// reported with a human-readable reason rather than silently dropped.
type InvalidAssignment struct {
	Assignment ShiftAssignment `json:"assignment"`
	Reason     string          `json:"reason"`
}

// ImportResult is the API response for a completed roster import run
type ImportResult struct {
	RunID            string              `json:"run_id"`
	Summary          RosterSummary       `json:"summary"`
	Errors           []string            `json:"errors,omitempty"`
	Invalid          []InvalidAssignment `json:"invalid,omitempty"`
	ValidCount       int                 `json:"valid_count"`
	MatchedPersonnel int                 `json:"matched_personnel"`
	DurationMs       int64               `json:"duration_ms"`
}
