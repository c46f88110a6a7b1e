package state

import (
	"context"
	"sync"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/connections"
)

// ConnectionsService is what ConnectionsStore needs from *connections.Service.
type ConnectionsService interface {
	List(ctx context.Context, page, perPage int, search string) (connections.ListResponse, error)
	Detail(ctx context.Context, id string) (connections.DetailResponse, error)
	History(ctx context.Context, id string, page, perPage int) (connections.HistoryResponse, error)
}

// ConnectionsSnapshot is a copy of the catalogue state.
type ConnectionsSnapshot struct {
	Status
	Connections       []api.Record
	Pagination        api.Pagination
	SearchQuery       string
	Current           api.Record
	History           []api.Record
	HistoryPagination api.Pagination
	HistoryConnection string
}

// HasConnections reports whether the current page holds any connection.
func (s ConnectionsSnapshot) HasConnections() bool {
	return len(s.Connections) > 0
}

// TotalConnections is the backend total across all pages.
func (s ConnectionsSnapshot) TotalConnections() int {
	return s.Pagination.Total
}

// ConnectionsStore holds the connection list, the selected connection and its
// history. Each fetch replaces its own slice and pagination wholesale, so with
// overlapping fetches the last response wins.
type ConnectionsStore struct {
	svc ConnectionsService

	mu   sync.RWMutex
	snap ConnectionsSnapshot
}

func NewConnectionsStore(svc ConnectionsService) *ConnectionsStore {
	return &ConnectionsStore{
		svc: svc,
		snap: ConnectionsSnapshot{
			Pagination:        api.Pagination{Page: 1, PerPage: connections.DefaultPerPage},
			HistoryPagination: api.Pagination{Page: 1, PerPage: connections.DefaultPerPage},
		},
	}
}

// FetchConnections loads one page of connections and remembers the search.
func (s *ConnectionsStore) FetchConnections(ctx context.Context, page, perPage int, search string) (connections.ListResponse, error) {
	s.begin()
	resp, err := s.svc.List(ctx, page, perPage, search)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.finish(err, "failed to fetch connections")
	if err != nil {
		return resp, err
	}
	s.snap.Connections = api.CloneRecords(resp.Data)
	s.snap.Pagination = resp.Pagination
	s.snap.SearchQuery = search
	return resp, nil
}

// FetchConnectionDetail loads the selected connection.
func (s *ConnectionsStore) FetchConnectionDetail(ctx context.Context, id string) (connections.DetailResponse, error) {
	s.begin()
	resp, err := s.svc.Detail(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.finish(err, "failed to fetch connection details")
	if err != nil {
		return resp, err
	}
	s.snap.Current = resp.Data.Clone()
	return resp, nil
}

// FetchConnectionHistory loads one page of a connection's history. History
// pagination is tracked apart from the list pagination.
func (s *ConnectionsStore) FetchConnectionHistory(ctx context.Context, id string, page, perPage int) (connections.HistoryResponse, error) {
	s.begin()
	resp, err := s.svc.History(ctx, id, page, perPage)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.finish(err, "failed to fetch history")
	if err != nil {
		return resp, err
	}
	s.snap.History = api.CloneRecords(resp.Data)
	s.snap.HistoryPagination = resp.Pagination
	s.snap.HistoryConnection = resp.ConnectionName
	return resp, nil
}

// ClearError drops the last error message.
func (s *ConnectionsStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Error = ""
}

// ResetCurrentConnection forgets the selected connection.
func (s *ConnectionsStore) ResetCurrentConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Current = nil
}

// Snapshot returns a copy of the current state.
func (s *ConnectionsStore) Snapshot() ConnectionsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Connections = api.CloneRecords(s.snap.Connections)
	snap.Current = s.snap.Current.Clone()
	snap.History = api.CloneRecords(s.snap.History)
	return snap
}

func (s *ConnectionsStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.begin()
}
