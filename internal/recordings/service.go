// Package recordings reads recording metadata and hands recording videos to a
// download target or an external player.
package recordings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	"github.com/guacplayer/guacplayer/internal/api"
)

// Transport is the subset of *api.Client the service needs.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, dest any) error
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
	BaseURL() string
	Token() string
}

// InfoResponse is the body of GET /recordings/{uuid}.
type InfoResponse struct {
	Success bool       `json:"success"`
	Data    api.Record `json:"data"`
}

// FilesResponse is the body of GET /recordings/{uuid}/files. The backend
// names the list "files"; "data" is accepted as well and wins when present.
type FilesResponse struct {
	Success bool         `json:"success"`
	UUID    string       `json:"uuid,omitempty"`
	Data    []api.Record `json:"data,omitempty"`
	Files   []api.Record `json:"files,omitempty"`
}

// List returns the file entries regardless of which key carried them.
func (r FilesResponse) List() []api.Record {
	if r.Data != nil {
		return r.Data
	}
	return r.Files
}

// Downloaded describes a finished download.
type Downloaded struct {
	Path  string `json:"path" yaml:"path"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

func (d Downloaded) String() string {
	return fmt.Sprintf("%s (%s)", d.Path, humanize.Bytes(uint64(d.Bytes)))
}

// Opener launches something able to play a URL.
type Opener func(rawURL string) error

// ErrMissingUUID is returned when a recording identifier is empty.
var ErrMissingUUID = errors.New("recording uuid is required")

// Service is stateless apart from its player configuration.
type Service struct {
	client Transport
	open   Opener
	log    zerolog.Logger
}

// Options configure a Service.
type Options struct {
	// Player is a command line that receives the stream URL as its last
	// argument, e.g. "mpv --force-window". Empty uses the system URL opener.
	Player string
	Logger zerolog.Logger
}

func NewService(client Transport, opts Options) *Service {
	log := opts.Logger.With().Str("component", "recordings").Logger()
	return &Service{client: client, open: playerOpener(opts.Player, log), log: log}
}

// WithOpener replaces the player launcher.
func (s *Service) WithOpener(open Opener) *Service {
	s.open = open
	return s
}

// Info fetches recording metadata.
func (s *Service) Info(ctx context.Context, uuid string) (InfoResponse, error) {
	path, err := recordingPath(uuid)
	if err != nil {
		return InfoResponse{}, err
	}
	var resp InfoResponse
	if err := s.client.Get(ctx, path, nil, &resp); err != nil {
		return InfoResponse{}, api.WithFallback(err, "failed to fetch recording info")
	}
	return resp, nil
}

// Files lists the files stored with a recording.
func (s *Service) Files(ctx context.Context, uuid string) (FilesResponse, error) {
	path, err := recordingPath(uuid)
	if err != nil {
		return FilesResponse{}, err
	}
	var resp FilesResponse
	if err := s.client.Get(ctx, path+"/files", nil, &resp); err != nil {
		return FilesResponse{}, api.WithFallback(err, "failed to fetch recording files")
	}
	return resp, nil
}

// StreamURL builds the URL an external player fetches to stream the video.
// No request is made.
func (s *Service) StreamURL(uuid string) string {
	return s.mediaURL(uuid, "stream")
}

// DownloadURL builds the URL serving the video as an attachment. No request is
// made.
func (s *Service) DownloadURL(uuid string) string {
	return s.mediaURL(uuid, "download")
}

// The token travels in the query string because players cannot send headers.
// An empty uuid yields "".
func (s *Service) mediaURL(uuid, kind string) string {
	path, err := recordingPath(uuid)
	if err != nil {
		return ""
	}
	u := s.client.BaseURL() + path + "/" + kind
	if token := s.client.Token(); token != "" {
		u += "?" + url.Values{"token": {token}}.Encode()
	}
	return u
}

// FileName is the name a downloaded recording is saved under.
func FileName(uuid string) string {
	return "recording_" + uuid + ".mp4"
}

// Download saves the video into dir as recording_<uuid>.mp4. The body is
// written to a temporary file first, so a failed transfer leaves nothing
// behind.
func (s *Service) Download(ctx context.Context, uuid, dir string) (Downloaded, error) {
	if strings.TrimSpace(uuid) == "" {
		return Downloaded{}, ErrMissingUUID
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Downloaded{}, fmt.Errorf("create download dir: %w", err)
	}

	target := filepath.Join(dir, FileName(uuid))
	tmp, err := os.CreateTemp(dir, FileName(uuid)+".*.part")
	if err != nil {
		return Downloaded{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	n, err := s.client.Download(ctx, s.DownloadURL(uuid), tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err != nil {
		cleanup()
		return Downloaded{}, api.WithFallback(err, "failed to download recording")
	}
	if err := os.Rename(tmpPath, target); err != nil {
		cleanup()
		return Downloaded{}, fmt.Errorf("move download into place: %w", err)
	}

	s.log.Info().Str("uuid", uuid).Str("path", target).Int64("bytes", n).Msg("recording downloaded")
	return Downloaded{Path: target, Bytes: n}, nil
}

// Play hands the stream URL to the configured player and returns the URL.
func (s *Service) Play(uuid string) (string, error) {
	if strings.TrimSpace(uuid) == "" {
		return "", ErrMissingUUID
	}
	streamURL := s.StreamURL(uuid)
	if err := s.open(streamURL); err != nil {
		return streamURL, fmt.Errorf("start player: %w", err)
	}
	return streamURL, nil
}

func recordingPath(uuid string) (string, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return "", ErrMissingUUID
	}
	return "/recordings/" + url.PathEscape(uuid), nil
}

func playerOpener(player string, log zerolog.Logger) Opener {
	fields := strings.Fields(player)
	if len(fields) == 0 {
		return func(rawURL string) error {
			browser.Stdout = io.Discard
			browser.Stderr = io.Discard
			return browser.OpenURL(rawURL)
		}
	}
	return func(rawURL string) error {
		args := append(append([]string(nil), fields[1:]...), rawURL)
		cmd := exec.Command(fields[0], args...)
		if err := cmd.Start(); err != nil {
			return err
		}
		log.Debug().Str("player", fields[0]).Int("pid", cmd.Process.Pid).Msg("player started")
		go func() { _ = cmd.Wait() }()
		return nil
	}
}
