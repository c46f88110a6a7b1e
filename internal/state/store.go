package state

import (
	"time"

	"github.com/guacplayer/guacplayer/internal/api"
)

// Status is the loading/error pair every store exposes. Error holds a
// user-facing message and stays set until ClearError or the next action.
type Status struct {
	IsLoading   bool
	Error       string
	LastUpdated time.Time
}

// begin marks the start of an action. Callers hold the store's write lock.
func (s *Status) begin() {
	s.IsLoading = true
	s.Error = ""
}

// finish records the outcome of an action. Callers hold the write lock.
func (s *Status) finish(err error, fallback string) {
	s.IsLoading = false
	s.LastUpdated = time.Now()
	if err != nil {
		s.Error = api.Message(err, fallback)
	}
}
