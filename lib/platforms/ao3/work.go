package ao3

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"ao3-go/internal/assert"
	"ao3-go/lib/htmlutil"
	"ao3-go/lib/platforms/ao3/core"
	"ao3-go/lib/platforms/ao3/lazy"
	"ao3-go/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type workState struct {
	page

	bookmarkID lazy.Cell[int]
	subID      lazy.Cell[int]

	title         lazy.Cell[string]
	authors       lazy.Cell[[]Object]
	series        lazy.Cell[[]Object]
	summary       lazy.Cell[string]
	restricted    lazy.Cell[bool]
	rating        lazy.Cell[string]
	warnings      lazy.Cell[[]string]
	categories    lazy.Cell[[]string]
	fandoms       lazy.Cell[[]string]
	relationships lazy.Cell[[]string]
	characters    lazy.Cell[[]string]
	freeforms     lazy.Cell[[]string]
	language      lazy.Cell[Language]
	published     lazy.Cell[time.Time]
	updated       lazy.Cell[time.Time]
	words         lazy.Cell[int]
	chapters      lazy.Cell[ChapterCount]
	comments      lazy.Cell[int]
	kudos         lazy.Cell[int]
	bookmarks     lazy.Cell[int]
	hits          lazy.Cell[int]
}

// Work is a single work on the archive. Every field is read from the
// work's page the first time it is asked for and kept until Reload.
type Work struct {
	id     int
	client *core.Client
	state  atomic.Pointer[workState]
}

var (
	_ Kudoable     = (*Work)(nil)
	_ Bookmarkable = (*Work)(nil)
	_ Subscribable = (*Work)(nil)
	_ Collectable  = (*Work)(nil)
)

func newWork(client *core.Client, id int, doc *goquery.Document) *Work {
	w := &Work{id: id, client: client}
	w.state.Store(&workState{page: page{doc: doc}})
	return w
}

// NewWork returns an unloaded work, call Reload to fetch it.
func NewWork(client *Client, id int) *Work {
	assert.NotNil(client, "client")
	assert.Positive(id, "work id")
	return newWork(client.transport, id, nil)
}

// workFromBanner builds a work out of its blurb on a listing page. The
// fields a blurb carries are seeded directly, the rest stay unloaded
// until Reload.
func workFromBanner(client *core.Client, blurb *goquery.Selection, token string) (*Work, error) {
	// selectors are matched against a detached copy, otherwise a
	// descendant selector like "ul.series a" also matches through the
	// listing around the blurb
	blurb = blurb.Clone()
	link := blurb.Find(blurbLink).First()
	href, ok := link.Attr("href")
	if !ok {
		return nil, fmt.Errorf("work blurb without a link: %w", ErrInvalidURL)
	}
	// the blurb heading can link to a chapter, the work id is the segment
	// after "works"
	id, ok := LookupID("archiveofourown.org" + href)
	if !ok {
		return nil, fmt.Errorf("work blurb link %q: %w", href, ErrInvalidURL)
	}

	w := newWork(client, id, nil)
	s := w.s()
	if token != "" {
		s.token.Set(token)
	}

	text := func(selector string) string {
		value, _ := htmlutil.Text(blurb.Find(selector), 0)
		return value
	}
	count := func(selector string) int {
		return intOrZero(text(selector))
	}

	s.title.Set(htmlutil.Texts(link)[0])
	s.authors.Set(authorObjects(blurb.Find(blurbAuthors)))
	s.series.Set(seriesObjects(blurb.Find(blurbSeries)))
	s.summary.Set(text(blurbSummary))
	s.restricted.Set(blurb.Find(workRestricted).Length() > 0)
	s.rating.Set(text(blurbRating))
	s.warnings.Set(htmlutil.Texts(blurb.Find(blurbWarnings)))

	var categories []string
	for _, category := range strings.Split(text(blurbCategory), ",") {
		if category = strings.TrimSpace(category); category != "" {
			categories = append(categories, category)
		}
	}
	s.categories.Set(categories)

	s.fandoms.Set(htmlutil.Texts(blurb.Find(blurbFandoms)))
	s.relationships.Set(htmlutil.Texts(blurb.Find(blurbRelationships)))
	s.characters.Set(htmlutil.Texts(blurb.Find(blurbCharacters)))
	s.freeforms.Set(htmlutil.Texts(blurb.Find(blurbFreeforms)))
	s.language.Set(ParseLanguage(text(blurbLanguage)))
	s.updated.Set(timezone.Parse(timezone.ListingLayout, text(blurbDate)))
	s.words.Set(count(blurbWords))
	s.chapters.Set(parseChapters(text(blurbChapters)))
	s.comments.Set(count(blurbComments))
	s.kudos.Set(count(blurbKudos))
	s.bookmarks.Set(count(blurbBookmarks))
	s.hits.Set(count(blurbHits))
	return w, nil
}

func (w *Work) s() *workState {
	return w.state.Load()
}

func (w *Work) transport() *core.Client {
	return w.client
}

func (w *Work) document() *goquery.Document {
	return w.s().doc
}

func (w *Work) ID() int {
	return w.id
}

func (w *Work) path() string {
	return "/works/" + strconv.Itoa(w.id)
}

func (w *Work) URL() string {
	return w.client.BaseUrl.JoinPath(w.path()).String()
}

func (w *Work) String() string {
	title, _ := w.s().title.Peek()
	return fmt.Sprintf("Work(title=%q id=%d)", title, w.id)
}

// Loaded reports whether the work is backed by a fetched page.
func (w *Work) Loaded() bool {
	return w.document() != nil
}

// Reload fetches the work's page and replaces every cached field.
func (w *Work) Reload(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "work:Reload", trace.WithAttributes(attribute.Int("id", w.id)))
	defer span.End()

	text, err := w.client.GetWork(ctx, w.id, false)
	if err != nil {
		return fail(span, err)
	}
	doc, err := htmlutil.Parse(text)
	if err != nil {
		return fail(span, err)
	}
	w.state.Store(&workState{page: page{doc: doc}})
	return nil
}

func (w *Work) AuthenticityToken() string {
	return w.s().authenticityToken()
}

// BookmarkID is the id of the logged in user's bookmark on this work.
func (w *Work) BookmarkID() (int, bool) {
	s := w.s()
	id := degrade(&s.bookmarkID, s.doc, func(doc *goquery.Document) int {
		if !w.client.State.LoggedIn() {
			return 0
		}
		return actionID(doc.Find(workBookmarkForm))
	})
	return id, id > 0
}

func (w *Work) bookmarkCell() *lazy.Cell[int] {
	return &w.s().bookmarkID
}

// SubID is the id of the logged in user's subscription to this work.
func (w *Work) SubID() (int, bool) {
	s := w.s()
	id := degrade(&s.subID, s.doc, func(doc *goquery.Document) int {
		if !w.client.State.LoggedIn() {
			return 0
		}
		return actionID(doc.Find(workSubscribeForm))
	})
	return id, id > 0
}

func (w *Work) subCell() *lazy.Cell[int] {
	return &w.s().subID
}

func (w *Work) Title() (string, error) {
	s := w.s()
	return must(&s.title, s.doc, func(doc *goquery.Document) string {
		return textAt(doc, workTitle, 0)
	})
}

// Authors are the work's creators as user references.
func (w *Work) Authors() ([]Object, error) {
	s := w.s()
	return must(&s.authors, s.doc, func(doc *goquery.Document) []Object {
		return authorObjects(doc.Find(workAuthors))
	})
}

// Series are references to every series the work is part of.
func (w *Work) Series() ([]Object, error) {
	s := w.s()
	return must(&s.series, s.doc, func(doc *goquery.Document) []Object {
		return seriesObjects(doc.Find(workSeries))
	})
}

func (w *Work) Summary() (string, error) {
	s := w.s()
	return must(&s.summary, s.doc, func(doc *goquery.Document) string {
		return textAt(doc, workSummary, 0)
	})
}

// Restricted reports whether the work is only visible to logged in
// users, false when unknown.
func (w *Work) Restricted() bool {
	s := w.s()
	return degrade(&s.restricted, s.doc, func(doc *goquery.Document) bool {
		return doc.Find(workRestricted).Length() > 0
	})
}

func (w *Work) Rating() (string, error) {
	s := w.s()
	return must(&s.rating, s.doc, func(doc *goquery.Document) string {
		return textAt(doc, workRating, 0)
	})
}

func (w *Work) tags(field func(*workState) *lazy.Cell[[]string], selector string) ([]string, error) {
	s := w.s()
	return must(field(s), s.doc, func(doc *goquery.Document) []string {
		return textsOf(doc, selector)
	})
}

func (w *Work) Warnings() ([]string, error) {
	return w.tags(func(s *workState) *lazy.Cell[[]string] { return &s.warnings }, workWarnings)
}

func (w *Work) Categories() ([]string, error) {
	return w.tags(func(s *workState) *lazy.Cell[[]string] { return &s.categories }, workCategories)
}

func (w *Work) Fandoms() ([]string, error) {
	return w.tags(func(s *workState) *lazy.Cell[[]string] { return &s.fandoms }, workFandoms)
}

func (w *Work) Relationships() ([]string, error) {
	return w.tags(func(s *workState) *lazy.Cell[[]string] { return &s.relationships }, workRelationships)
}

func (w *Work) Characters() ([]string, error) {
	return w.tags(func(s *workState) *lazy.Cell[[]string] { return &s.characters }, workCharacters)
}

func (w *Work) Freeforms() ([]string, error) {
	return w.tags(func(s *workState) *lazy.Cell[[]string] { return &s.freeforms }, workFreeforms)
}

// AllTags lists warnings, relationships, characters, freeforms and
// categories in that order. Fandoms and the rating are left out.
func (w *Work) AllTags() ([]string, error) {
	var out []string
	for _, get := range []func() ([]string, error){
		w.Warnings, w.Relationships, w.Characters, w.Freeforms, w.Categories,
	} {
		tags, err := get()
		if err != nil {
			return nil, err
		}
		out = append(out, tags...)
	}
	return out, nil
}

// Language is LanguageUnknown when the work isn't loaded or the archive
// shows a language this package doesn't know.
func (w *Work) Language() Language {
	s := w.s()
	return degrade(&s.language, s.doc, func(doc *goquery.Document) Language {
		return ParseLanguage(textAt(doc, workLanguage, 0))
	})
}

// Published is the zero time when the page doesn't show a date.
func (w *Work) Published() (time.Time, error) {
	s := w.s()
	return must(&s.published, s.doc, func(doc *goquery.Document) time.Time {
		return timezone.Parse(timezone.PageLayout, textAt(doc, workPublished, 0))
	})
}

// Updated is the date of the latest chapter. Single chapter works have
// none and give the zero time.
func (w *Work) Updated() (time.Time, error) {
	s := w.s()
	return must(&s.updated, s.doc, func(doc *goquery.Document) time.Time {
		return timezone.Parse(timezone.PageLayout, textAt(doc, workUpdated, 0))
	})
}

func (w *Work) count(field func(*workState) *lazy.Cell[int], selector string) (int, error) {
	s := w.s()
	return must(field(s), s.doc, func(doc *goquery.Document) int {
		return intOrZero(textAt(doc, selector, 0))
	})
}

func (w *Work) Words() (int, error) {
	return w.count(func(s *workState) *lazy.Cell[int] { return &s.words }, workWords)
}

func (w *Work) Chapters() (ChapterCount, error) {
	s := w.s()
	return must(&s.chapters, s.doc, func(doc *goquery.Document) ChapterCount {
		return parseChapters(textAt(doc, workChapters, 0))
	})
}

func (w *Work) Complete() (bool, error) {
	chapters, err := w.Chapters()
	if err != nil {
		return false, err
	}
	return chapters.Complete(), nil
}

func (w *Work) Comments() (int, error) {
	return w.count(func(s *workState) *lazy.Cell[int] { return &s.comments }, workComments)
}

func (w *Work) Kudos() (int, error) {
	return w.count(func(s *workState) *lazy.Cell[int] { return &s.kudos }, workKudos)
}

func (w *Work) Bookmarks() (int, error) {
	return w.count(func(s *workState) *lazy.Cell[int] { return &s.bookmarks }, workBookmarks)
}

func (w *Work) Hits() (int, error) {
	return w.count(func(s *workState) *lazy.Cell[int] { return &s.hits }, workHits)
}

type WorkStats struct {
	Comments  int
	Kudos     int
	Bookmarks int
	Hits      int
}

func (w *Work) Stats() (WorkStats, error) {
	var stats WorkStats
	var err error
	if stats.Comments, err = w.Comments(); err != nil {
		return WorkStats{}, err
	}
	if stats.Kudos, err = w.Kudos(); err != nil {
		return WorkStats{}, err
	}
	if stats.Bookmarks, err = w.Bookmarks(); err != nil {
		return WorkStats{}, err
	}
	if stats.Hits, err = w.Hits(); err != nil {
		return WorkStats{}, err
	}
	return stats, nil
}

func (w *Work) kudoTarget() (int, string) {
	return w.id, "Work"
}

func (w *Work) GiveKudos(ctx context.Context) error {
	return giveKudos(ctx, w)
}

func (w *Work) Bookmark(ctx context.Context, opts BookmarkOptions) error {
	return bookmark(ctx, w, opts)
}

func (w *Work) DeleteBookmark(ctx context.Context) error {
	return deleteBookmark(ctx, w)
}

func (w *Work) subscribeTarget() (int, string, error) {
	return w.id, "Work", nil
}

func (w *Work) Subscribe(ctx context.Context) error {
	return subscribe(ctx, w)
}

func (w *Work) Unsubscribe(ctx context.Context) error {
	return unsubscribe(ctx, w)
}

func (w *Work) collectTarget() int {
	return w.id
}

// Collect invites the work into the named collections.
func (w *Work) Collect(ctx context.Context, collections ...string) error {
	return collect(ctx, w, collections)
}

// Download streams the work exported in the given format. The caller
// closes the reader.
func (w *Work) Download(ctx context.Context, format DownloadFormat) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "work:Download", trace.WithAttributes(
		attribute.Int("id", w.id),
		attribute.String("format", string(format)),
	))
	defer span.End()

	// the archive ignores the file name, it only has to be present
	title, err := w.Title()
	if err != nil || title == "" {
		title = strconv.Itoa(w.id)
	}
	title = strings.ReplaceAll(title, "/", "_")
	body, err := w.client.DownloadWork(ctx, w.id, title, string(format))
	if err != nil {
		return nil, fail(span, err)
	}
	return body, nil
}
