package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/or-planner-api/internal/config"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/repository"
	"github.com/rs/zerolog"
)

// SyncStatus describes the remote-directory synchronization state
type SyncStatus struct {
	Enabled        bool       `json:"enabled"`
	Syncing        bool       `json:"syncing"`
	Pending        int        `json:"pending"`
	PendingDeletes int        `json:"pending_deletes"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// directoryItem is the remote list item payload. Field names follow the
// remote list's internal column names.
type directoryItem struct {
	Fields directoryFields `json:"fields"`
}

type directoryFields struct {
	Title            string `json:"Title"`
	Gruppe           string `json:"Gruppe"`
	Abteilung        string `json:"Abteilung,omitempty"`
	Verfuegbarkeit   string `json:"Verfuegbarkeit,omitempty"`
	Schichtzuweisung string `json:"Schichtzuweisung,omitempty"`
	Kuerzel          string `json:"Kuerzel,omitempty"`
	Kommentar        string `json:"Kommentar,omitempty"`
	Aktiv            bool   `json:"Aktiv"`
}

type directoryItemResponse struct {
	ID string `json:"id"`
}

// syncService pushes locally changed personnel records to the remote
// directory list. The local directory stays authoritative: records are
// marked pending on change and the marker is cleared only after the remote
// write succeeds, so failed runs retry on the next tick.
type syncService struct {
	repo   repository.PersonnelRepository
	cfg    *config.DirectoryConfig
	client *http.Client
	log    zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	mu            sync.Mutex
	syncing       bool
	pendingDelete []string
	lastSyncAt    *time.Time
	lastError     string
}

// newSyncService creates a new SyncService
func newSyncService(repo repository.PersonnelRepository, cfg *config.DirectoryConfig, log zerolog.Logger) *syncService {
	return &syncService{
		repo:   repo,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("service", "sync").Logger(),
	}
}

// StartProcessor runs the periodic sync loop until the context is cancelled
func (s *syncService) StartProcessor(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info().Dur("interval", s.cfg.SyncInterval).Msg("Directory sync processor started")

	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Directory sync processor stopping")
			return
		case <-ticker.C:
			if _, err := s.TriggerSync(s.ctx); err != nil {
				s.log.Error().Err(err).Msg("Scheduled sync failed")
			}
		}
	}
}

// StopProcessor stops the periodic sync loop and waits for a running pass
func (s *syncService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Directory sync processor stopped")
}

// QueueDelete records a remote item id for deletion on the next sync pass.
// The local record is already gone at this point.
func (s *syncService) QueueDelete(remoteID string) {
	if remoteID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDelete = append(s.pendingDelete, remoteID)
}

// TriggerSync runs one sync pass. A pass already in flight is not doubled;
// the caller gets the current status instead.
func (s *syncService) TriggerSync(ctx context.Context) (*SyncStatus, error) {
	if !s.cfg.Enabled {
		return s.Status(ctx)
	}

	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return s.Status(ctx)
	}
	s.syncing = true
	s.mu.Unlock()

	s.wg.Add(1)
	err := func() error {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("Sync pass panicked - recovered")
			}
			s.mu.Lock()
			s.syncing = false
			s.mu.Unlock()
		}()
		return s.runPass(ctx)
	}()

	now := time.Now()
	s.mu.Lock()
	s.lastSyncAt = &now
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	status, statusErr := s.Status(ctx)
	if err != nil {
		return status, err
	}
	return status, statusErr
}

// Status reports pending work and the outcome of the last pass
func (s *syncService) Status(ctx context.Context) (*SyncStatus, error) {
	pending, err := s.repo.ListPendingSync(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &SyncStatus{
		Enabled:        s.cfg.Enabled,
		Syncing:        s.syncing,
		Pending:        len(pending),
		PendingDeletes: len(s.pendingDelete),
		LastSyncAt:     s.lastSyncAt,
		LastError:      s.lastError,
	}, nil
}

// runPass pushes every pending record, then works the delete queue. Push
// failures are contained per record: the failed record keeps its marker and
// retries next pass, the rest of the queue still goes out. The pass reports
// failure only in aggregate.
func (s *syncService) runPass(ctx context.Context) error {
	pending, err := s.repo.ListPendingSync(ctx)
	if err != nil {
		return err
	}

	synced := 0
	failed := 0
	var firstErr error
	for i := range pending {
		person := &pending[i]
		remoteID, err := s.pushPerson(ctx, person)
		if err != nil {
			s.log.Error().Err(err).
				Int64("person_id", person.ID).
				Str("name", person.Name).
				Msg("Record push failed, marker kept for retry")
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := s.repo.ClearSyncState(ctx, person.ID, remoteID); err != nil {
			s.log.Error().Err(err).Int64("person_id", person.ID).Msg("Failed to clear sync marker")
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		synced++
	}

	deleted := s.processDeletes(ctx)

	if synced > 0 || deleted > 0 {
		s.log.Info().Int("synced", synced).Int("deleted", deleted).Msg("Sync pass completed")
	}
	if failed > 0 {
		return fmt.Errorf("failed to sync %d of %d records: %w", failed, len(pending), firstErr)
	}
	return nil
}

// pushPerson creates or updates the remote list item and returns its id
func (s *syncService) pushPerson(ctx context.Context, person *models.Person) (string, error) {
	item := directoryItem{Fields: directoryFields{
		Title:            person.Name,
		Gruppe:           person.Group,
		Abteilung:        person.Department,
		Verfuegbarkeit:   person.AvailabilityState,
		Schichtzuweisung: person.ShiftAssignment,
		Kuerzel:          person.Initials,
		Kommentar:        person.Comment,
		Aktiv:            person.IsActive,
	}}

	// A pending update without a remote id falls back to a create, which
	// covers records imported before sync was enabled.
	if person.SyncState == models.SyncStateUpdate && person.RemoteID != "" {
		url := s.itemsURL() + "/" + person.RemoteID
		if err := s.doJSON(ctx, http.MethodPatch, url, item, nil); err != nil {
			return "", err
		}
		return person.RemoteID, nil
	}

	var created directoryItemResponse
	if err := s.doJSON(ctx, http.MethodPost, s.itemsURL(), item, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// processDeletes works the queue front to back; failures stay queued
func (s *syncService) processDeletes(ctx context.Context) int {
	s.mu.Lock()
	queue := s.pendingDelete
	s.pendingDelete = nil
	s.mu.Unlock()

	deleted := 0
	var remaining []string
	for _, remoteID := range queue {
		url := s.itemsURL() + "/" + remoteID
		if err := s.doJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
			s.log.Error().Err(err).Str("remote_id", remoteID).Msg("Remote delete failed, requeued")
			remaining = append(remaining, remoteID)
			continue
		}
		deleted++
	}

	if len(remaining) > 0 {
		s.mu.Lock()
		s.pendingDelete = append(remaining, s.pendingDelete...)
		s.mu.Unlock()
	}
	return deleted
}

func (s *syncService) itemsURL() string {
	return fmt.Sprintf("%s/sites/%s/lists/%s/items", s.cfg.BaseURL, s.cfg.SiteID, s.cfg.ListID)
}

// doJSON issues one authenticated request and decodes the response into out
func (s *syncService) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.BearerToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("directory request %s %s: status %d: %s", method, url, resp.StatusCode, snippet)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
