package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/or-planner-api/internal/config"
	"github.com/or-planner-api/internal/mocks"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/repository"
	"github.com/or-planner-api/internal/service"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

func TestPersonnelService_AddDerivesInitials(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())

	person, err := svcs.Personnel.Add(context.Background(), &models.Person{
		Name:              "Anna Schmidt",
		Group:             models.GroupOPPflege,
		AvailabilityState: models.AvailabilityBD,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if person.ID == 0 {
		t.Error("expected assigned id")
	}
	if person.Initials != "AS" {
		t.Errorf("initials = %q, want AS", person.Initials)
	}
	if !person.IsActive {
		t.Error("available person should default to active")
	}
	if person.SyncState != models.SyncStateAdd {
		t.Errorf("sync state = %q, want add", person.SyncState)
	}
}

func TestPersonnelService_UpdateRederivesInitials(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())
	ctx := context.Background()

	person := addTestPerson(t, svcs, "Anna Schmidt")

	newName := "Anna Becker"
	ok, err := svcs.Personnel.Update(ctx, person.ID, &models.PersonUpdate{Name: &newName})
	if err != nil || !ok {
		t.Fatalf("Update: ok=%v err=%v", ok, err)
	}

	updated, _ := svcs.Personnel.Get(ctx, person.ID)
	if updated.Initials != "AB" {
		t.Errorf("initials = %q, want AB", updated.Initials)
	}
	if updated.SyncState != models.SyncStateAdd {
		t.Errorf("unsynced add should stay add, got %q", updated.SyncState)
	}
}

func TestPersonnelService_UpdateUnknownID(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())

	name := "Niemand"
	ok, err := svcs.Personnel.Update(context.Background(), 404, &models.PersonUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if ok {
		t.Error("update of unknown id should report false")
	}
}

func TestPersonnelService_Eligible(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())
	ctx := context.Background()

	addTestPerson(t, svcs, "Anna Schmidt")
	svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Ben Weber",
		Group:             models.GroupAnaesthesiePflege,
		AvailabilityState: models.AvailabilitySpaet,
	})
	svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Clara Fischer",
		Group:             models.GroupOPPflege,
		AvailabilityState: models.AvailabilityNone,
	})

	all, err := svcs.Personnel.Eligible(ctx, "", "all")
	if err != nil {
		t.Fatalf("Eligible failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 eligible, got %d", len(all))
	}

	opOnly, _ := svcs.Personnel.Eligible(ctx, "", models.GroupOPPflege)
	if len(opOnly) != 1 || opOnly[0].Name != "Anna Schmidt" {
		t.Errorf("group filter returned %+v", opOnly)
	}

	bySearch, _ := svcs.Personnel.Eligible(ctx, "web", "")
	if len(bySearch) != 1 || bySearch[0].Name != "Ben Weber" {
		t.Errorf("search filter returned %+v", bySearch)
	}
}

func TestPersonnelService_ApplyAvailabilityUpdate(t *testing.T) {
	repo := mocks.NewMockPersonnelRepository()
	svcs := newTestServices(repo, mocks.NewMockPlanRepository())
	ctx := context.Background()

	matchedPerson := addTestPerson(t, svcs, "Anna Schmidt")
	unmatchedPerson := addTestPerson(t, svcs, "Ben Weber")

	matched, err := svcs.Personnel.ApplyAvailabilityUpdate(ctx, []models.ShiftAssignment{
		{Name: "anna schmidt", ShiftType: models.AvailabilityBD, Availability: models.AvailabilityBD},
		{Name: "Anna Schmidt", ShiftType: models.AvailabilitySpaet, Availability: models.AvailabilitySpaet},
		{Name: "Doris Unbekannt", ShiftType: models.AvailabilityRD, Availability: models.AvailabilityRD},
	})
	if err != nil {
		t.Fatalf("ApplyAvailabilityUpdate failed: %v", err)
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}

	anna, _ := svcs.Personnel.Get(ctx, matchedPerson.ID)
	wantState := models.AvailabilityBD + ", " + models.AvailabilitySpaet
	if anna.AvailabilityState != wantState {
		t.Errorf("availability = %q, want %q", anna.AvailabilityState, wantState)
	}
	if anna.IsAvailable == nil || !*anna.IsAvailable {
		t.Error("matched person should be available")
	}

	ben, _ := svcs.Personnel.Get(ctx, unmatchedPerson.ID)
	if ben.AvailabilityState != models.AvailabilityNone {
		t.Errorf("unmatched availability = %q, want %q", ben.AvailabilityState, models.AvailabilityNone)
	}
	if ben.IsAvailable == nil || *ben.IsAvailable {
		t.Error("unmatched person should be unavailable")
	}

	// Full replace: tag set holds exactly the current import's state, and
	// the read path reports the same set the import stored.
	tags, err := svcs.Personnel.AvailabilityTags(ctx)
	if err != nil {
		t.Fatalf("AvailabilityTags failed: %v", err)
	}
	if got := tags[matchedPerson.ID]; len(got) != 2 || got[0] != models.AvailabilityBD {
		t.Errorf("tags for matched person = %v", got)
	}
	if got := tags[unmatchedPerson.ID]; len(got) != 0 {
		t.Errorf("tags for unmatched person = %v", got)
	}
	if got := repo.Tags[matchedPerson.ID]; len(got) != 2 {
		t.Errorf("stored tags for matched person = %v", got)
	}
}

func TestPersonnelService_HasUnsyncedChanges(t *testing.T) {
	repo := mocks.NewMockPersonnelRepository()
	svcs := newTestServices(repo, mocks.NewMockPlanRepository())
	ctx := context.Background()

	unsynced, err := svcs.Personnel.HasUnsyncedChanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if unsynced {
		t.Error("empty directory should have no unsynced changes")
	}

	person := addTestPerson(t, svcs, "Anna Schmidt")
	if unsynced, _ = svcs.Personnel.HasUnsyncedChanges(ctx); !unsynced {
		t.Error("new person should count as unsynced")
	}

	repo.ClearSyncState(ctx, person.ID, "remote-1")
	if unsynced, _ = svcs.Personnel.HasUnsyncedChanges(ctx); unsynced {
		t.Error("cleared marker should count as synced")
	}
}

func TestExportService_StreamPersonnelCSV(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())
	ctx := context.Background()

	svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Anna Schmidt",
		Group:             models.GroupOPPflege,
		Department:        "Anästhesie",
		Comment:           "Springer, nur vormittags",
		AvailabilityState: models.AvailabilityBD,
	})

	var buf bytes.Buffer
	count, err := svcs.Export.StreamPersonnelCSV(ctx, &buf)
	if err != nil {
		t.Fatalf("StreamPersonnelCSV failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 record, got %d lines", len(lines))
	}
	if lines[0] != "Name,Gruppe,Abteilung,Verfügbarkeit,Schichtzuweisung,Kürzel,Kommentar" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "Anna Schmidt") || !strings.Contains(lines[1], `"Springer, nur vormittags"`) {
		t.Errorf("unexpected record %q", lines[1])
	}
}

func writeTestRoster(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]interface{}{"Datum", "Bereitschaften (BD)", "Spätdienste"})
	f.SetSheetRow(sheet, "A2", &[]interface{}{"Mo", "Schmidt, Anna (AS)\nWeber, Ben (BW)", "Fischer, Clara"})

	path := filepath.Join(dir, "dienstplan-2026-08-31.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to write roster fixture: %v", err)
	}
	return path
}

func TestImportService_ImportRoster(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())
	ctx := context.Background()

	person := addTestPerson(t, svcs, "Anna Schmidt")
	addTestPerson(t, svcs, "Doris Meyer")
	path := writeTestRoster(t, t.TempDir())

	result, err := svcs.Import.ImportRoster(ctx, path)
	if err != nil {
		t.Fatalf("ImportRoster failed: %v", err)
	}
	if result.RunID == "" {
		t.Error("expected run id")
	}
	if result.Summary.TotalAssignments != 3 {
		t.Errorf("total assignments = %d, want 3", result.Summary.TotalAssignments)
	}
	if result.ValidCount != 3 {
		t.Errorf("valid = %d, want 3", result.ValidCount)
	}
	if result.MatchedPersonnel != 1 {
		t.Errorf("matched = %d, want 1", result.MatchedPersonnel)
	}
	if result.Summary.UnassignedPersonnel != 1 {
		t.Errorf("unassigned = %d, want 1", result.Summary.UnassignedPersonnel)
	}
	if result.Summary.ShiftDate != "2026-08-31" {
		t.Errorf("shift date = %q, want 2026-08-31", result.Summary.ShiftDate)
	}

	anna, _ := svcs.Personnel.Get(ctx, person.ID)
	if anna.AvailabilityState != models.AvailabilityBD {
		t.Errorf("availability = %q, want %q", anna.AvailabilityState, models.AvailabilityBD)
	}
}

func TestImportService_MissingFile(t *testing.T) {
	svcs := newTestServices(mocks.NewMockPersonnelRepository(), mocks.NewMockPlanRepository())
	_, err := svcs.Import.ImportRoster(context.Background(), filepath.Join(t.TempDir(), "fehlt.xlsx"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSyncService_TriggerSync(t *testing.T) {
	repo := mocks.NewMockPersonnelRepository()

	var createdPayloads []map[string]interface{}
	var patchedPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		switch r.Method {
		case http.MethodPost:
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			createdPayloads = append(createdPayloads, payload)
			json.NewEncoder(w).Encode(map[string]string{"id": "remote-42"})
		case http.MethodPatch:
			patchedPaths = append(patchedPaths, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer server.Close()

	repos := &repository.Repositories{Personnel: repo, Plan: mocks.NewMockPlanRepository()}
	cfg := &config.Config{
		Directory: config.DirectoryConfig{
			Enabled:      true,
			BaseURL:      server.URL,
			SiteID:       "op-site",
			ListID:       "personnel",
			BearerToken:  "test-token",
			Timeout:      5 * time.Second,
			SyncInterval: time.Hour,
		},
	}
	svcs := service.NewServices(repos, cfg, zerolog.Nop())
	ctx := context.Background()

	added, _ := svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Anna Schmidt",
		Group:             models.GroupOPPflege,
		AvailabilityState: models.AvailabilityBD,
	})

	status, err := svcs.Sync.TriggerSync(ctx)
	if err != nil {
		t.Fatalf("TriggerSync failed: %v", err)
	}
	if status.Pending != 0 {
		t.Errorf("pending = %d, want 0", status.Pending)
	}
	if len(createdPayloads) != 1 {
		t.Fatalf("expected 1 create, got %d", len(createdPayloads))
	}
	fields, _ := createdPayloads[0]["fields"].(map[string]interface{})
	if fields["Title"] != "Anna Schmidt" {
		t.Errorf("unexpected create payload %v", createdPayloads[0])
	}

	synced, _ := repo.GetByID(ctx, added.ID)
	if synced.SyncState != models.SyncStateNone {
		t.Errorf("sync state = %q, want cleared", synced.SyncState)
	}
	if synced.RemoteID != "remote-42" {
		t.Errorf("remote id = %q, want remote-42", synced.RemoteID)
	}

	// A later edit goes out as a PATCH against the stored remote id.
	comment := "Neu im Team"
	svcs.Personnel.Update(ctx, added.ID, &models.PersonUpdate{Comment: &comment})
	if _, err := svcs.Sync.TriggerSync(ctx); err != nil {
		t.Fatalf("second TriggerSync failed: %v", err)
	}
	if len(patchedPaths) != 1 || !strings.HasSuffix(patchedPaths[0], "/items/remote-42") {
		t.Errorf("unexpected patch calls %v", patchedPaths)
	}
}

func TestSyncService_FailedPushKeepsMarker(t *testing.T) {
	repo := mocks.NewMockPersonnelRepository()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	repos := &repository.Repositories{Personnel: repo, Plan: mocks.NewMockPlanRepository()}
	cfg := &config.Config{
		Directory: config.DirectoryConfig{
			Enabled:      true,
			BaseURL:      server.URL,
			SiteID:       "op-site",
			ListID:       "personnel",
			Timeout:      5 * time.Second,
			SyncInterval: time.Hour,
		},
	}
	svcs := service.NewServices(repos, cfg, zerolog.Nop())
	ctx := context.Background()

	added, _ := svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Anna Schmidt",
		Group:             models.GroupOPPflege,
		AvailabilityState: models.AvailabilityBD,
	})

	status, err := svcs.Sync.TriggerSync(ctx)
	if err == nil {
		t.Fatal("expected sync error")
	}
	if status == nil || status.LastError == "" {
		t.Error("status should carry the last error")
	}

	person, _ := repo.GetByID(ctx, added.ID)
	if person.SyncState != models.SyncStateAdd {
		t.Errorf("failed push must keep the pending marker, got %q", person.SyncState)
	}
}

func TestSyncService_RejectedRecordDoesNotBlockQueue(t *testing.T) {
	repo := mocks.NewMockPersonnelRepository()

	// The remote list permanently rejects one record; the rest of the
	// pending queue must still go out on the same pass.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields struct {
				Title string `json:"Title"`
			} `json:"fields"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Fields.Title == "Doris Defekt" {
			http.Error(w, "field validation failed", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "remote-" + payload.Fields.Title})
	}))
	defer server.Close()

	repos := &repository.Repositories{Personnel: repo, Plan: mocks.NewMockPlanRepository()}
	cfg := &config.Config{
		Directory: config.DirectoryConfig{
			Enabled:      true,
			BaseURL:      server.URL,
			SiteID:       "op-site",
			ListID:       "personnel",
			Timeout:      5 * time.Second,
			SyncInterval: time.Hour,
		},
	}
	svcs := service.NewServices(repos, cfg, zerolog.Nop())
	ctx := context.Background()

	rejected, _ := svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Doris Defekt",
		Group:             models.GroupOPPflege,
		AvailabilityState: models.AvailabilityBD,
	})
	accepted, _ := svcs.Personnel.Add(ctx, &models.Person{
		Name:              "Emil Wagner",
		Group:             models.GroupAnaesthesiePflege,
		AvailabilityState: models.AvailabilitySpaet,
	})

	status, err := svcs.Sync.TriggerSync(ctx)
	if err == nil {
		t.Fatal("expected aggregate sync error")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error should report the partial failure, got %v", err)
	}

	// The record behind the rejected one still synced.
	synced, _ := repo.GetByID(ctx, accepted.ID)
	if synced.SyncState != models.SyncStateNone {
		t.Errorf("record after the rejected one should sync, marker = %q", synced.SyncState)
	}
	if synced.RemoteID == "" {
		t.Error("synced record should carry its remote id")
	}

	kept, _ := repo.GetByID(ctx, rejected.ID)
	if kept.SyncState != models.SyncStateAdd {
		t.Errorf("rejected record must keep its marker, got %q", kept.SyncState)
	}
	if status.Pending != 1 {
		t.Errorf("pending = %d, want 1", status.Pending)
	}
}

func TestSyncService_QueueDelete(t *testing.T) {
	repo := mocks.NewMockPersonnelRepository()
	var deletedPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletedPaths = append(deletedPaths, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	repos := &repository.Repositories{Personnel: repo, Plan: mocks.NewMockPlanRepository()}
	cfg := &config.Config{
		Directory: config.DirectoryConfig{
			Enabled:      true,
			BaseURL:      server.URL,
			SiteID:       "op-site",
			ListID:       "personnel",
			Timeout:      5 * time.Second,
			SyncInterval: time.Hour,
		},
	}
	svcs := service.NewServices(repos, cfg, zerolog.Nop())

	svcs.Sync.QueueDelete("remote-7")
	status, err := svcs.Sync.TriggerSync(context.Background())
	if err != nil {
		t.Fatalf("TriggerSync failed: %v", err)
	}
	if status.PendingDeletes != 0 {
		t.Errorf("pending deletes = %d, want 0", status.PendingDeletes)
	}
	if len(deletedPaths) != 1 || !strings.HasSuffix(deletedPaths[0], "/items/remote-7") {
		t.Errorf("unexpected delete calls %v", deletedPaths)
	}
}
