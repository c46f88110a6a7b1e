// Package connections reads the proxied connection catalogue and its session
// history.
package connections

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/guacplayer/guacplayer/internal/api"
)

// Getter is the subset of *api.Client the service needs.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, dest any) error
}

const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

// ListResponse is the body of GET /connections.
type ListResponse struct {
	Data       []api.Record   `json:"data"`
	Pagination api.Pagination `json:"pagination"`
}

// DetailResponse is the body of GET /connections/{id}.
type DetailResponse struct {
	Data api.Record `json:"data"`
}

// HistoryResponse is the body of GET /connections/{id}/history.
type HistoryResponse struct {
	Data           []api.Record   `json:"data"`
	Pagination     api.Pagination `json:"pagination"`
	ConnectionID   api.Record     `json:"connection_id,omitempty"`
	ConnectionName string         `json:"connection_name,omitempty"`
}

// Service is stateless; every call goes to the backend.
type Service struct {
	client Getter
}

func NewService(client Getter) *Service {
	return &Service{client: client}
}

// List fetches one page of connections. An empty search sends no search
// parameter at all.
func (s *Service) List(ctx context.Context, page, perPage int, search string) (ListResponse, error) {
	q := pageQuery(page, perPage)
	if search != "" {
		q.Set("search", search)
	}
	var resp ListResponse
	if err := s.client.Get(ctx, "/connections", q, &resp); err != nil {
		return ListResponse{}, api.WithFallback(err, "failed to fetch connections")
	}
	return resp, nil
}

// Detail fetches a single connection.
func (s *Service) Detail(ctx context.Context, id string) (DetailResponse, error) {
	path, err := connectionPath(id)
	if err != nil {
		return DetailResponse{}, err
	}
	var resp DetailResponse
	if err := s.client.Get(ctx, path, nil, &resp); err != nil {
		return DetailResponse{}, api.WithFallback(err, "failed to fetch connection details")
	}
	return resp, nil
}

// History fetches one page of a connection's session history.
func (s *Service) History(ctx context.Context, id string, page, perPage int) (HistoryResponse, error) {
	path, err := connectionPath(id)
	if err != nil {
		return HistoryResponse{}, err
	}
	var resp HistoryResponse
	if err := s.client.Get(ctx, path+"/history", pageQuery(page, perPage), &resp); err != nil {
		return HistoryResponse{}, api.WithFallback(err, "failed to fetch connection history")
	}
	return resp, nil
}

func pageQuery(page, perPage int) url.Values {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
}

func connectionPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("connection id is required")
	}
	return "/connections/" + url.PathEscape(id), nil
}
