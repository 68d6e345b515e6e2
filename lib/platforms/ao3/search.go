package ao3

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sync/atomic"

	"ao3-go/lib/htmlutil"
	"ao3-go/lib/platforms/ao3/core"
	"ao3-go/lib/platforms/ao3/lazy"
	"ao3-go/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type searchState[R any] struct {
	page

	results lazy.Cell[[]R]
	maxPage lazy.Cell[int]
}

// Search is one page of results for a search. The query is fixed when
// the search is created, Reload runs the same query again.
type Search[O searchOptions[O], R any] struct {
	client  *core.Client
	name    string
	options O
	query   url.Values
	fetch   func(ctx context.Context, query url.Values) (string, error)
	extract func(s *Search[O, R], st *searchState[R], doc *goquery.Document) []R
	state   atomic.Pointer[searchState[R]]
}

type (
	WorkSearch     = Search[WorkSearchOptions, *Work]
	PeopleSearch   = Search[PeopleSearchOptions, Object]
	BookmarkSearch = Search[BookmarkSearchOptions, BookmarkResult]
	TagSearch      = Search[TagSearchOptions, TagResult]
)

type BookmarkResult struct {
	Bookmarker Object
	Work       *Work
}

type TagResult struct {
	Type      string
	Name      string
	Count     int
	Canonical bool
}

func newSearch[O searchOptions[O], R any](
	client *core.Client,
	name string,
	options O,
	fetch func(ctx context.Context, query url.Values) (string, error),
	extract func(s *Search[O, R], st *searchState[R], doc *goquery.Document) []R,
) *Search[O, R] {
	s := &Search[O, R]{
		client:  client,
		name:    name,
		options: options,
		query:   options.Values(),
		fetch:   fetch,
		extract: extract,
	}
	s.state.Store(&searchState[R]{})
	return s
}

func newWorkSearch(client *core.Client, options WorkSearchOptions) *WorkSearch {
	return newSearch(client, "works", options, client.SearchWorks,
		func(s *WorkSearch, st *searchState[*Work], doc *goquery.Document) []*Work {
			return worksFromBlurbs(s.client, doc.Find(searchWorks), st.authenticityToken())
		})
}

func newPeopleSearch(client *core.Client, options PeopleSearchOptions) *PeopleSearch {
	return newSearch(client, "people", options, client.SearchPeople,
		func(_ *PeopleSearch, _ *searchState[Object], doc *goquery.Document) []Object {
			var out []Object
			doc.Find(searchPeople).Each(func(_ int, blurb *goquery.Selection) {
				if person, ok := personFromBlurb(blurb.Find(blurbHeading).First()); ok {
					out = append(out, person)
				}
			})
			return out
		})
}

func newBookmarkSearch(client *core.Client, options BookmarkSearchOptions) *BookmarkSearch {
	return newSearch(client, "bookmarks", options, client.SearchBookmarks,
		func(s *BookmarkSearch, st *searchState[BookmarkResult], doc *goquery.Document) []BookmarkResult {
			var out []BookmarkResult
			token := st.authenticityToken()
			doc.Find(searchBookmarks).Each(func(_ int, blurb *goquery.Selection) {
				work, err := workFromBanner(s.client, blurb, token)
				if err != nil {
					// series and external work bookmarks
					return
				}
				bookmarker, _ := personFromBlurb(blurb.Find(blurbBookmarker).First())
				out = append(out, BookmarkResult{Bookmarker: bookmarker, Work: work})
			})
			return out
		})
}

func newTagSearch(client *core.Client, options TagSearchOptions) *TagSearch {
	return newSearch(client, "tags", options, client.SearchTags,
		func(_ *TagSearch, _ *searchState[TagResult], doc *goquery.Document) []TagResult {
			var out []TagResult
			doc.Find(searchTags).Each(func(_ int, li *goquery.Selection) {
				if tag, ok := parseTagResult(li); ok {
					out = append(out, tag)
				}
			})
			return out
		})
}

// personFromBlurb reads a user reference from a pseud link, falling back
// to the link text when the href doesn't name a user.
func personFromBlurb(link *goquery.Selection) (Object, bool) {
	if link.Length() == 0 {
		return Object{}, false
	}
	name := usernameFromHref(link.AttrOr("href", ""))
	if name == "" {
		name = htmlutil.Texts(link)[0]
	}
	if name == "" {
		return Object{}, false
	}
	return Object{Name: name, Kind: KindUser}, true
}

// tag results read like "Fandom: Some Name(1,234)" once the direction
// marks are stripped, the count is always the last parenthesis
var tagResultRegex = regexp.MustCompile(`^(.*?): (.*)\(([\d,]+)\)$`)

func parseTagResult(li *goquery.Selection) (TagResult, bool) {
	text := textutil.StripNonPrintable(textutil.Clean(li.Text()))
	groups := tagResultRegex.FindStringSubmatch(text)
	if groups == nil {
		return TagResult{}, false
	}
	return TagResult{
		Type:      textutil.Clean(groups[1]),
		Name:      textutil.Clean(groups[2]),
		Count:     intOrZero(groups[3]),
		Canonical: li.Find(tagCanonical).Length() > 0,
	}, true
}

// Options returns the filters the search was created with.
func (s *Search[O, R]) Options() O {
	return s.options
}

func (s *Search[O, R]) Page() int {
	return s.options.pageNumber()
}

func (s *Search[O, R]) s() *searchState[R] {
	return s.state.Load()
}

func (s *Search[O, R]) Loaded() bool {
	return s.s().doc != nil
}

func (s *Search[O, R]) String() string {
	return fmt.Sprintf("Search(%s page=%d)", s.name, s.Page())
}

func (s *Search[O, R]) AuthenticityToken() string {
	return s.s().authenticityToken()
}

// Reload runs the query again and drops the previous results.
func (s *Search[O, R]) Reload(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "search:Reload", trace.WithAttributes(
		attribute.String("kind", s.name),
		attribute.Int("page", s.Page()),
	))
	defer span.End()

	text, err := s.fetch(ctx, s.query)
	if err != nil {
		return fail(span, err)
	}
	doc, err := htmlutil.Parse(text)
	if err != nil {
		return fail(span, err)
	}
	s.state.Store(&searchState[R]{page: page{doc: doc}})
	return nil
}

// Results are the entries on this page. An empty page means there are
// no more results, it is not an error.
func (s *Search[O, R]) Results() ([]R, error) {
	st := s.s()
	return st.results.Get(func() ([]R, error) {
		if st.doc == nil {
			return nil, ErrUnloaded
		}
		return s.extract(s, st, st.doc), nil
	})
}

// MaxPage is the last page the archive's pagination links to.
func (s *Search[O, R]) MaxPage() (int, error) {
	st := s.s()
	return must(&st.maxPage, st.doc, maxPage)
}
