package state

import (
	"context"
	"sync"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/recordings"
)

// RecordingsService is what RecordingStore needs from *recordings.Service.
type RecordingsService interface {
	Info(ctx context.Context, uuid string) (recordings.InfoResponse, error)
	Files(ctx context.Context, uuid string) (recordings.FilesResponse, error)
}

// RecordingSnapshot is a copy of the recording being viewed.
type RecordingSnapshot struct {
	Status
	UUID  string
	Info  api.Record
	Files []api.Record
}

// RecordingStore holds metadata for the recording screen.
type RecordingStore struct {
	svc RecordingsService

	mu   sync.RWMutex
	snap RecordingSnapshot
}

func NewRecordingStore(svc RecordingsService) *RecordingStore {
	return &RecordingStore{svc: svc}
}

// Load fetches info then files for uuid, stopping at the first failure.
func (s *RecordingStore) Load(ctx context.Context, uuid string) error {
	if _, err := s.FetchInfo(ctx, uuid); err != nil {
		return err
	}
	_, err := s.FetchFiles(ctx, uuid)
	return err
}

// FetchInfo loads the recording metadata. Switching to another recording
// drops what was held for the previous one.
func (s *RecordingStore) FetchInfo(ctx context.Context, uuid string) (recordings.InfoResponse, error) {
	s.begin(uuid)
	resp, err := s.svc.Info(ctx, uuid)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.finish(err, "failed to fetch recording info")
	if err != nil || s.snap.UUID != uuid {
		return resp, err
	}
	s.snap.Info = resp.Data.Clone()
	return resp, nil
}

// FetchFiles loads the file list of the recording.
func (s *RecordingStore) FetchFiles(ctx context.Context, uuid string) (recordings.FilesResponse, error) {
	s.begin(uuid)
	resp, err := s.svc.Files(ctx, uuid)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.finish(err, "failed to fetch recording files")
	if err != nil || s.snap.UUID != uuid {
		return resp, err
	}
	s.snap.Files = api.CloneRecords(resp.List())
	return resp, nil
}

func (s *RecordingStore) begin(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.UUID != uuid {
		s.snap = RecordingSnapshot{UUID: uuid}
	}
	s.snap.begin()
}

// ClearError drops the last error message.
func (s *RecordingStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Error = ""
}

// Snapshot returns a copy of the current state.
func (s *RecordingStore) Snapshot() RecordingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Info = s.snap.Info.Clone()
	snap.Files = api.CloneRecords(s.snap.Files)
	return snap
}
