// Package testutil provides a fake archive server for package tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Request is what the fake archive saw of one incoming request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header
}

// Archive is an httptest server with handlers registered per method
// and path. Unregistered routes answer 404.
type Archive struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []Request
}

func NewArchive(t testing.TB) *Archive {
	a := &Archive{routes: map[string]http.HandlerFunc{}}
	a.Server = httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(a.Close)
	return a
}

func routeKey(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}

func (a *Archive) serve(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	a.requests = append(a.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Form:   r.PostForm,
		Header: r.Header.Clone(),
	})
	handler, ok := a.routes[routeKey(r.Method, r.URL.Path)]
	a.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (a *Archive) Handle(method, path string, handler http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[routeKey(method, path)] = handler
}

// Page serves a fixed html body with a 200.
func (a *Archive) Page(method, path, body string) {
	a.Handle(method, path, HTML(http.StatusOK, body))
}

// Requests returns every request seen for the route, in order.
func (a *Archive) Requests(method, path string) []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Request
	for _, r := range a.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (a *Archive) Hits(method, path string) int {
	return len(a.Requests(method, path))
}

// Total is the number of requests seen across every route.
func (a *Archive) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func HTML(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

// Redirect answers with a 302 to location.
func Redirect(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusFound)
	}
}

// Sequence serves the i-th handler on the i-th call, repeating the last
// one once the list runs out.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	calls := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		idx := min(calls, len(handlers)-1)
		calls++
		mu.Unlock()
		handlers[idx](w, r)
	}
}
