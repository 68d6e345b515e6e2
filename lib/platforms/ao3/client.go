package ao3

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"
	"sync"

	"ao3-go/lib/configutil"
	"ao3-go/lib/platforms/ao3/core"

	"go.opentelemetry.io/otel/attribute"
)

type ClientOptions struct {
	core.ClientOptions
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{ClientOptions: core.DefaultClientOptions()}
}

// LoadClientOptions reads options from a json5 file and its ".local"
// override. Fields the files leave out keep their defaults. A missing
// file is not an error.
func LoadClientOptions(path string) (ClientOptions, error) {
	opts := DefaultClientOptions()
	err := configutil.ReadConfigInto(path, &opts)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no client config, using defaults", "path", path)
		return DefaultClientOptions(), nil
	}
	if err != nil {
		return ClientOptions{}, fmt.Errorf("read client options: %w", err)
	}
	return opts, nil
}

// Client fetches entities from the archive and holds the login session
// they share.
type Client struct {
	transport *core.Client

	mu   sync.Mutex
	user *User
}

func NewClient(opts ClientOptions) (*Client, error) {
	transport, err := core.NewClient(opts.ClientOptions)
	if err != nil {
		return nil, err
	}
	return &Client{transport: transport}, nil
}

// Transport exposes the underlying http client for requests this package
// has no entity for.
func (c *Client) Transport() *core.Client {
	return c.transport
}

// Close releases idle connections. The client stays usable.
func (c *Client) Close() {
	c.transport.Close()
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	err := c.transport.Login(ctx, username, password)
	if err != nil {
		return &LoginError{Username: username, Err: err}
	}
	c.mu.Lock()
	c.user = newUser(c.transport, username, nil)
	c.mu.Unlock()
	slog.Info("logged in", "username", username)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.transport.Logout(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	return nil
}

func (c *Client) LoggedIn() bool {
	return c.transport.State.LoggedIn()
}

// User is the account of the current session, unloaded until its
// Reload is called.
func (c *Client) User() (*User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.user != nil
}

func (c *Client) GetWork(ctx context.Context, id int) (*Work, error) {
	w := NewWork(c, id)
	err := w.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// WorkFromURL fetches the work a url points at, chapter links included.
func (c *Client) WorkFromURL(ctx context.Context, link string) (*Work, error) {
	id, err := IDFromURL(link)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(link, "/works/") {
		return nil, fmt.Errorf("%q is not a work: %w", link, ErrInvalidURL)
	}
	return c.GetWork(ctx, id)
}

func (c *Client) GetSeries(ctx context.Context, id int) (*Series, error) {
	s := NewSeries(c, id)
	err := s.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	u := NewUser(c, username)
	err := u.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Resolve fetches the entity an Object refers to, a *Work, *Series or
// *User depending on its kind.
func (c *Client) Resolve(ctx context.Context, obj Object) (any, error) {
	switch obj.Kind {
	case KindWork:
		return c.GetWork(ctx, obj.ID)
	case KindSeries:
		return c.GetSeries(ctx, obj.ID)
	case KindUser:
		return c.GetUser(ctx, obj.Name)
	}
	return nil, fmt.Errorf("cannot resolve %s without a kind", obj)
}

func runSearch[O searchOptions[O], R any](ctx context.Context, s *Search[O, R]) (*Search[O, R], error) {
	err := s.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) SearchWorks(ctx context.Context, opts WorkSearchOptions) (*WorkSearch, error) {
	return runSearch(ctx, newWorkSearch(c.transport, opts))
}

func (c *Client) SearchPeople(ctx context.Context, opts PeopleSearchOptions) (*PeopleSearch, error) {
	return runSearch(ctx, newPeopleSearch(c.transport, opts))
}

func (c *Client) SearchBookmarks(ctx context.Context, opts BookmarkSearchOptions) (*BookmarkSearch, error) {
	return runSearch(ctx, newBookmarkSearch(c.transport, opts))
}

func (c *Client) SearchTags(ctx context.Context, opts TagSearchOptions) (*TagSearch, error) {
	return runSearch(ctx, newTagSearch(c.transport, opts))
}

// pages walks a search from opts.Page onwards, it stops after the first
// page without results or the first error.
func pages[O searchOptions[O], R any](
	ctx context.Context,
	opts O,
	search func(ctx context.Context, opts O) (*Search[O, R], error),
) iter.Seq2[*Search[O, R], error] {
	return func(yield func(*Search[O, R], error) bool) {
		ctx, span := tracer.Start(ctx, "client:Pages")
		defer span.End()

		for page := opts.pageNumber(); ; page++ {
			s, err := search(ctx, opts.withPage(page))
			if err != nil {
				yield(nil, fail(span, err))
				return
			}
			results, err := s.Results()
			if err != nil {
				yield(nil, fail(span, err))
				return
			}
			if len(results) == 0 {
				span.SetAttributes(attribute.Int("pages", page-opts.pageNumber()))
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (c *Client) WorkSearchPages(ctx context.Context, opts WorkSearchOptions) iter.Seq2[*WorkSearch, error] {
	return pages(ctx, opts, c.SearchWorks)
}

func (c *Client) PeopleSearchPages(ctx context.Context, opts PeopleSearchOptions) iter.Seq2[*PeopleSearch, error] {
	return pages(ctx, opts, c.SearchPeople)
}

func (c *Client) BookmarkSearchPages(ctx context.Context, opts BookmarkSearchOptions) iter.Seq2[*BookmarkSearch, error] {
	return pages(ctx, opts, c.SearchBookmarks)
}

func (c *Client) TagSearchPages(ctx context.Context, opts TagSearchOptions) iter.Seq2[*TagSearch, error] {
	return pages(ctx, opts, c.SearchTags)
}
