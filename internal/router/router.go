// Package router maps navigation paths to screens and guards the screens that
// need a session.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Route names.
const (
	Login       = "login"
	Dashboard   = "dashboard"
	Connections = "connections"
	Recording   = "recording"
)

// Well-known paths.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// DefaultTitle is used for routes that carry no title.
const DefaultTitle = "GuacPlayer"

const maxRedirects = 5

// ErrRedirectLoop is returned when resolving a path keeps redirecting.
var ErrRedirectLoop = errors.New("too many redirects")

// Definition is one entry of the route table.
type Definition struct {
	Pattern      string
	Name         string
	Redirect     string
	Title        string
	RequiresAuth bool
}

// Routes is the route table in match order. The last entry catches every path
// the others do not match.
var Routes = []Definition{
	{Pattern: "/", Redirect: DashboardPath},
	{Pattern: LoginPath, Name: Login, Title: "Login - GuacPlayer"},
	{Pattern: DashboardPath, Name: Dashboard, Title: "Dashboard - GuacPlayer", RequiresAuth: true},
	{Pattern: "/connections", Name: Connections, Title: "Connections - GuacPlayer", RequiresAuth: true},
	{Pattern: "/recordings/:uuid", Name: Recording, Title: "Recording - GuacPlayer", RequiresAuth: true},
	{Pattern: "*", Redirect: DashboardPath},
}

// Route is a resolved navigation target.
type Route struct {
	Definition
	Path   string
	Params map[string]string
	Query  url.Values
}

// Param returns a path parameter, or "".
func (r Route) Param(name string) string {
	return r.Params[name]
}

// PageTitle returns the route title or DefaultTitle.
func (r Route) PageTitle() string {
	if r.Title == "" {
		return DefaultTitle
	}
	return r.Title
}

// String rebuilds the full path including the query.
func (r Route) String() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Match finds the route definition for target, which may carry a query
// string. It does not follow redirects.
func Match(target string) Route {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		u = &url.URL{Path: target}
	}
	path := "/" + strings.Trim(u.Path, "/")

	for _, def := range Routes {
		if params, ok := matchPattern(def.Pattern, path); ok {
			return Route{Definition: def, Path: path, Params: params, Query: u.Query()}
		}
	}
	// The catch-all always matches; this is unreachable with the default table.
	return Route{Definition: Definition{Redirect: DashboardPath}, Path: path, Query: u.Query()}
}

// Resolve follows redirects from target until a named route is reached.
func Resolve(target string) (Route, error) {
	route := Match(target)
	for hops := 0; route.Redirect != ""; hops++ {
		if hops >= maxRedirects {
			return Route{}, fmt.Errorf("resolve %q: %w", target, ErrRedirectLoop)
		}
		route = Match(route.Redirect)
	}
	return route, nil
}

// RecordingPath builds the path of the recording screen.
func RecordingPath(uuid string) string {
	return "/recordings/" + url.PathEscape(uuid)
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	if pattern == "*" {
		return nil, true
	}
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return nil, false
	}
	var params map[string]string
	for i, part := range patternParts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			value, err := url.PathUnescape(pathParts[i])
			if err != nil || value == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = value
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}
