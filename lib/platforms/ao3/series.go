package ao3

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"ao3-go/internal/assert"
	"ao3-go/lib/htmlutil"
	"ao3-go/lib/platforms/ao3/core"
	"ao3-go/lib/platforms/ao3/lazy"
	"ao3-go/lib/textutil"
	"ao3-go/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type seriesState struct {
	page

	bookmarkID lazy.Cell[int]
	subID      lazy.Cell[int]

	name        lazy.Cell[string]
	creators    lazy.Cell[[]Object]
	begun       lazy.Cell[time.Time]
	updated     lazy.Cell[time.Time]
	description lazy.Cell[string]
	notes       lazy.Cell[string]
	words       lazy.Cell[int]
	worksCount  lazy.Cell[int]
	complete    lazy.Cell[bool]
	bookmarks   lazy.Cell[int]
	works       lazy.Cell[[]*Work]
}

type Series struct {
	id     int
	client *core.Client
	state  atomic.Pointer[seriesState]
}

var (
	_ Bookmarkable = (*Series)(nil)
	_ Subscribable = (*Series)(nil)
)

func newSeries(client *core.Client, id int, doc *goquery.Document) *Series {
	s := &Series{id: id, client: client}
	s.state.Store(&seriesState{page: page{doc: doc}})
	return s
}

// NewSeries returns an unloaded series, call Reload to fetch it.
func NewSeries(client *Client, id int) *Series {
	assert.NotNil(client, "client")
	assert.Positive(id, "series id")
	return newSeries(client.transport, id, nil)
}

func (s *Series) s() *seriesState {
	return s.state.Load()
}

func (s *Series) transport() *core.Client {
	return s.client
}

func (s *Series) document() *goquery.Document {
	return s.s().doc
}

func (s *Series) ID() int {
	return s.id
}

func (s *Series) path() string {
	return "/series/" + strconv.Itoa(s.id)
}

func (s *Series) URL() string {
	return s.client.BaseUrl.JoinPath(s.path()).String()
}

func (s *Series) String() string {
	name, _ := s.s().name.Peek()
	return fmt.Sprintf("Series(name=%q id=%d)", name, s.id)
}

func (s *Series) Loaded() bool {
	return s.document() != nil
}

// Reload fetches the series page and replaces every cached field,
// including the list of works.
func (s *Series) Reload(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "series:Reload", trace.WithAttributes(attribute.Int("id", s.id)))
	defer span.End()

	text, err := s.client.GetSeries(ctx, s.id)
	if err != nil {
		return fail(span, err)
	}
	doc, err := htmlutil.Parse(text)
	if err != nil {
		return fail(span, err)
	}
	s.state.Store(&seriesState{page: page{doc: doc}})
	return nil
}

func (s *Series) AuthenticityToken() string {
	return s.s().authenticityToken()
}

func (s *Series) BookmarkID() (int, bool) {
	st := s.s()
	id := degrade(&st.bookmarkID, st.doc, func(doc *goquery.Document) int {
		if !s.client.State.LoggedIn() {
			return 0
		}
		return actionID(doc.Find(seriesBookmarkForm))
	})
	return id, id > 0
}

func (s *Series) bookmarkCell() *lazy.Cell[int] {
	return &s.s().bookmarkID
}

func (s *Series) SubID() (int, bool) {
	st := s.s()
	id := degrade(&st.subID, st.doc, func(doc *goquery.Document) int {
		if !s.client.State.LoggedIn() {
			return 0
		}
		return actionID(doc.Find(seriesSubscribeForm))
	})
	return id, id > 0
}

func (s *Series) subCell() *lazy.Cell[int] {
	return &s.s().subID
}

func (s *Series) Name() (string, error) {
	st := s.s()
	return must(&st.name, st.doc, func(doc *goquery.Document) string {
		return textAt(doc, seriesName, 0)
	})
}

func (s *Series) Creators() ([]Object, error) {
	st := s.s()
	return must(&st.creators, st.doc, func(doc *goquery.Document) []Object {
		return authorObjects(doc.Find(seriesCreators))
	})
}

// the first dd of the meta block lists the creators, the dates follow
func (s *Series) date(cell *lazy.Cell[time.Time], doc *goquery.Document, i int) (time.Time, error) {
	return must(cell, doc, func(doc *goquery.Document) time.Time {
		return timezone.Parse(timezone.PageLayout, textAt(doc, seriesDates, i))
	})
}

func (s *Series) Begun() (time.Time, error) {
	st := s.s()
	return s.date(&st.begun, st.doc, 1)
}

func (s *Series) Updated() (time.Time, error) {
	st := s.s()
	return s.date(&st.updated, st.doc, 2)
}

// Description is empty when the series has none or isn't loaded.
func (s *Series) Description() string {
	st := s.s()
	return degrade(&st.description, st.doc, func(doc *goquery.Document) string {
		return textAt(doc, seriesDescriptions, 0)
	})
}

// Notes is empty when the series has none or isn't loaded.
func (s *Series) Notes() string {
	st := s.s()
	return degrade(&st.notes, st.doc, func(doc *goquery.Document) string {
		return textAt(doc, seriesDescriptions, 1)
	})
}

// stat reads the i-th value of the stats block: words, works, complete
// and bookmarks.
func (s *Series) stat(cell *lazy.Cell[int], doc *goquery.Document, i int) (int, error) {
	return must(cell, doc, func(doc *goquery.Document) int {
		return intOrZero(textAt(doc, seriesStats, i))
	})
}

func (s *Series) Words() (int, error) {
	st := s.s()
	return s.stat(&st.words, st.doc, 0)
}

func (s *Series) WorksCount() (int, error) {
	st := s.s()
	return s.stat(&st.worksCount, st.doc, 1)
}

// Complete is false when the archive doesn't say.
func (s *Series) Complete() (bool, error) {
	st := s.s()
	return must(&st.complete, st.doc, func(doc *goquery.Document) bool {
		return textutil.EqualFold(textAt(doc, seriesStats, 2), "Yes")
	})
}

func (s *Series) Bookmarks() (int, error) {
	st := s.s()
	return s.stat(&st.bookmarks, st.doc, 3)
}

type SeriesStats struct {
	Words     int
	Works     int
	Complete  bool
	Bookmarks int
}

func (s *Series) Stats() (SeriesStats, error) {
	var stats SeriesStats
	var err error
	if stats.Words, err = s.Words(); err != nil {
		return SeriesStats{}, err
	}
	if stats.Works, err = s.WorksCount(); err != nil {
		return SeriesStats{}, err
	}
	if stats.Complete, err = s.Complete(); err != nil {
		return SeriesStats{}, err
	}
	if stats.Bookmarks, err = s.Bookmarks(); err != nil {
		return SeriesStats{}, err
	}
	return stats, nil
}

// Works are the works of the series in reading order, built from their
// blurbs on the series page.
func (s *Series) Works() ([]*Work, error) {
	st := s.s()
	return st.works.Get(func() ([]*Work, error) {
		if st.doc == nil {
			return nil, ErrUnloaded
		}
		return worksFromBlurbs(s.client, st.doc.Find(seriesWorks), st.authenticityToken()), nil
	})
}

func (s *Series) Bookmark(ctx context.Context, opts BookmarkOptions) error {
	return bookmark(ctx, s, opts)
}

func (s *Series) DeleteBookmark(ctx context.Context) error {
	return deleteBookmark(ctx, s)
}

func (s *Series) subscribeTarget() (int, string, error) {
	return s.id, "Series", nil
}

func (s *Series) Subscribe(ctx context.Context) error {
	return subscribe(ctx, s)
}

func (s *Series) Unsubscribe(ctx context.Context) error {
	return unsubscribe(ctx, s)
}

// worksFromBlurbs builds a work for each blurb, blurbs of deleted or
// hidden works without a link are skipped.
func worksFromBlurbs(client *core.Client, blurbs *goquery.Selection, token string) []*Work {
	works := make([]*Work, 0, blurbs.Length())
	for i := range blurbs.Nodes {
		w, err := workFromBanner(client, blurbs.Eq(i), token)
		if err != nil {
			continue
		}
		works = append(works, w)
	}
	return works
}
