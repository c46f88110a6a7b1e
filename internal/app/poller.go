package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Verifier is the part of the AuthStore the session watch needs.
type Verifier interface {
	IsAuthenticated() bool
	VerifyToken(ctx context.Context) bool
}

// StartSessionWatch launches a background goroutine that re-verifies the
// session every interval while authenticated. A non-positive interval disables
// the watch. It returns immediately.
//
// The watch never tears the session down itself. A rejected token answers 401,
// and the client's unauthorized handlers own that path; any other failure
// leaves the persisted session alone.
func StartSessionWatch(ctx context.Context, v Verifier, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 || v == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if sessionAlive(ctx, v) || ctx.Err() != nil {
				continue
			}
			log.Warn().Msg("session verification failed")
		}
	}()
}

// sessionAlive reports false only for an authenticated session that failed
// verification. Anonymous sessions have nothing to verify.
func sessionAlive(ctx context.Context, v Verifier) bool {
	if !v.IsAuthenticated() {
		return true
	}
	return v.VerifyToken(ctx)
}
