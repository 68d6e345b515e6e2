package core

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Params fill the `{name}` placeholders of a route path. Strings are
// percent-encoded with "/" kept as is, anything else is formatted with
// fmt.
type Params map[string]any

// Route describes a single call to the archive.
type Route struct {
	Method string
	Path   string
	URL    string
}

var placeholderRegex = regexp.MustCompile(`\{(\w+)\}`)

func quote(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// NewRoute resolves path against base. It panics if the path names a
// parameter that isn't in params.
func NewRoute(base *url.URL, method, path string, params Params) Route {
	resolved := placeholderRegex.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		value, ok := params[name]
		if !ok {
			panic(fmt.Sprintf("route %q is missing parameter %q", path, name))
		}
		if s, ok := value.(string); ok {
			return quote(s)
		}
		return fmt.Sprint(value)
	})
	if !strings.HasPrefix(resolved, "/") {
		resolved = "/" + resolved
	}
	return Route{
		Method: method,
		Path:   resolved,
		URL:    strings.TrimSuffix(base.String(), "/") + resolved,
	}
}

func (c *Client) route(method, path string, params Params) Route {
	return NewRoute(c.BaseUrl, method, path, params)
}
