package router

import (
	"context"
	"fmt"
)

// Authenticator is the session view the guard consults.
type Authenticator interface {
	IsAuthenticated() bool
	VerifyToken(ctx context.Context) bool
}

// Guard decides where a navigation actually lands.
type Guard struct {
	auth     Authenticator
	setTitle func(string)
}

// NewGuard builds a guard. setTitle receives the title of every navigation
// target before any redirect decision and may be nil.
func NewGuard(auth Authenticator, setTitle func(string)) *Guard {
	if setTitle == nil {
		setTitle = func(string) {}
	}
	return &Guard{auth: auth, setTitle: setTitle}
}

// Navigate resolves target and applies the session rules:
//
//   - a route that requires a session, visited while anonymous, first tries
//     to verify the stored token and lands on /login when that fails
//   - /login visited while authenticated lands on /dashboard
//
// The returned route is where navigation ends.
func (g *Guard) Navigate(ctx context.Context, target string) (Route, error) {
	current := target
	for hops := 0; ; hops++ {
		if hops > maxRedirects {
			return Route{}, fmt.Errorf("navigate %q: %w", target, ErrRedirectLoop)
		}
		route, err := Resolve(current)
		if err != nil {
			return Route{}, err
		}
		g.setTitle(route.PageTitle())

		next := g.check(ctx, route)
		if next == "" {
			return route, nil
		}
		current = next
	}
}

func (g *Guard) check(ctx context.Context, route Route) string {
	if route.RequiresAuth {
		if !g.auth.IsAuthenticated() && !g.auth.VerifyToken(ctx) {
			return LoginPath
		}
		return ""
	}
	if route.Name == Login && g.auth.IsAuthenticated() {
		return DashboardPath
	}
	return ""
}
