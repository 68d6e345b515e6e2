package ao3

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"ao3-go/lib/htmlutil"
	"ao3-go/lib/platforms/ao3/core"
	"ao3-go/lib/platforms/ao3/lazy"
	"ao3-go/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// authorizer is what every write action needs from an entity.
type authorizer interface {
	transport() *core.Client
	// AuthenticityToken is the token scraped from the entity's page.
	AuthenticityToken() string
}

// resolveToken prefers the logged in session's token over the page's.
func resolveToken(a authorizer) (string, error) {
	if token := a.transport().State.Token(); token != "" {
		return token, nil
	}
	if token := a.AuthenticityToken(); token != "" {
		return token, nil
	}
	return "", ErrAuthRequired
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type Kudoable interface {
	authorizer
	GiveKudos(ctx context.Context) error
	kudoTarget() (id int, kind string)
}

func giveKudos(ctx context.Context, k Kudoable) error {
	id, kind := k.kudoTarget()
	ctx, span := tracer.Start(ctx, "action:GiveKudos", trace.WithAttributes(attribute.Int("id", id)))
	defer span.End()

	token, err := resolveToken(k)
	if err != nil {
		return fail(span, err)
	}
	_, err = k.transport().GiveKudos(ctx, token, id, kind)
	if err != nil {
		return fail(span, &KudoError{WorkID: id, Err: err})
	}
	return nil
}

type BookmarkOptions struct {
	Notes       string
	Tags        []string
	Collections []string
	Private     bool
	Recommend   bool
	// name of the pseud to bookmark as, empty uses the default one
	AsPseud string
}

type Bookmarkable interface {
	authorizer
	URL() string
	BookmarkID() (int, bool)
	Bookmark(ctx context.Context, opts BookmarkOptions) error
	DeleteBookmark(ctx context.Context) error
	path() string
	document() *goquery.Document
	bookmarkCell() *lazy.Cell[int]
}

func bookmark(ctx context.Context, b Bookmarkable, opts BookmarkOptions) error {
	ctx, span := tracer.Start(ctx, "action:Bookmark", trace.WithAttributes(attribute.String("target", b.path())))
	defer span.End()

	token, err := resolveToken(b)
	if err != nil {
		return fail(span, err)
	}
	doc := b.document()
	if doc == nil {
		return fail(span, ErrUnloaded)
	}
	if _, exists := b.BookmarkID(); exists {
		return fail(span, &BookmarkError{Target: b.path(), Err: ErrAlreadyExists})
	}
	pseudID, ok := extractPseudID(doc.Selection, opts.AsPseud)
	if !ok {
		return fail(span, &PseudError{Pseud: opts.AsPseud})
	}

	res, err := b.transport().Bookmark(ctx, token, b.path(), core.BookmarkForm{
		PseudID:     pseudID,
		Notes:       opts.Notes,
		Tags:        opts.Tags,
		Collections: opts.Collections,
		Private:     opts.Private,
		Recommend:   opts.Recommend,
	})
	if err != nil {
		return fail(span, &BookmarkError{Target: b.path(), Err: err})
	}
	location, ok := res.Location()
	if !ok {
		return fail(span, &BookmarkError{Target: b.path(), Err: ErrRejected})
	}
	id, ok := idFromHref(location.Path)
	if !ok {
		return fail(span, &BookmarkError{Target: b.path(), Err: ErrRejected})
	}
	b.bookmarkCell().Set(id)
	return nil
}

func deleteBookmark(ctx context.Context, b Bookmarkable) error {
	ctx, span := tracer.Start(ctx, "action:DeleteBookmark", trace.WithAttributes(attribute.String("target", b.path())))
	defer span.End()

	token, err := resolveToken(b)
	if err != nil {
		return fail(span, err)
	}
	id, exists := b.BookmarkID()
	if !exists {
		return fail(span, &BookmarkError{Target: b.path(), Err: ErrNotFound})
	}
	_, err = b.transport().DeleteBookmark(ctx, token, id)
	if err != nil {
		return fail(span, &BookmarkError{Target: b.path(), Err: err})
	}
	b.bookmarkCell().Set(0)
	return nil
}

type Subscribable interface {
	authorizer
	SubID() (int, bool)
	Subscribe(ctx context.Context) error
	Unsubscribe(ctx context.Context) error
	subscribeTarget() (id int, kind string, err error)
	subCell() *lazy.Cell[int]
}

// subscriber is the logged in username, subscriptions live under it.
func subscriber(s Subscribable) (token, username string, err error) {
	token, err = resolveToken(s)
	if err != nil {
		return "", "", err
	}
	username = s.transport().State.Username()
	if username == "" {
		return "", "", ErrAuthRequired
	}
	return token, username, nil
}

func subscribe(ctx context.Context, s Subscribable) error {
	ctx, span := tracer.Start(ctx, "action:Subscribe")
	defer span.End()

	token, username, err := subscriber(s)
	if err != nil {
		return fail(span, err)
	}
	id, kind, err := s.subscribeTarget()
	if err != nil {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: err})
	}
	if _, exists := s.SubID(); exists {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: ErrAlreadyExists})
	}

	res, err := s.transport().Subscribe(ctx, token, username, id, kind)
	if err != nil {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: err})
	}
	var payload struct {
		ItemID json.Number `json:"item_id"`
	}
	err = res.Decode(&payload)
	if err != nil {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: errors.Join(ErrRejected, err)})
	}
	subID, err := payload.ItemID.Int64()
	if err != nil || subID <= 0 {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: ErrRejected})
	}
	s.subCell().Set(int(subID))
	return nil
}

func unsubscribe(ctx context.Context, s Subscribable) error {
	ctx, span := tracer.Start(ctx, "action:Unsubscribe")
	defer span.End()

	token, username, err := subscriber(s)
	if err != nil {
		return fail(span, err)
	}
	id, kind, err := s.subscribeTarget()
	if err != nil {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: err})
	}
	subID, exists := s.SubID()
	if !exists {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: ErrNotFound})
	}

	_, err = s.transport().Unsubscribe(ctx, token, username, id, kind, subID)
	if err != nil {
		return fail(span, &SubscribeError{Kind: kind, ID: id, Err: err})
	}
	s.subCell().Set(0)
	return nil
}

type Collectable interface {
	authorizer
	Collect(ctx context.Context, collections ...string) error
	collectTarget() int
}

var quotedRegex = regexp.MustCompile(`["“]([^"”]+)["”]`)

// rejectedCollections reads the names out of an error banner, either as
// list items or as a comma separated tail after a colon.
func rejectedCollections(banner *goquery.Selection) []string {
	var names []string
	items := banner.Find("li")
	if items.Length() > 0 {
		for _, text := range htmlutil.Texts(items) {
			if m := quotedRegex.FindStringSubmatch(text); m != nil {
				text = m[1]
			}
			if text != "" {
				names = append(names, text)
			}
		}
		return names
	}

	text := htmlutil.GetText(banner.Get(0))
	idx := strings.LastIndex(text, ":")
	if idx < 0 {
		return nil
	}
	for _, name := range strings.Split(text[idx+1:], ",") {
		name = strings.Trim(strings.TrimSpace(name), `."`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func collect(ctx context.Context, c Collectable, collections []string) error {
	workID := c.collectTarget()
	ctx, span := tracer.Start(ctx, "action:Collect", trace.WithAttributes(
		attribute.Int("work_id", workID),
		attribute.StringSlice("collections", collections),
	))
	defer span.End()

	token, err := resolveToken(c)
	if err != nil {
		return fail(span, err)
	}
	res, err := c.transport().Collect(ctx, token, workID, collections)
	if err != nil {
		return fail(span, &CollectError{WorkID: workID, Err: err})
	}

	// the archive reports success either way, a bounce to the auth
	// error page means the token was not accepted
	if res.URL != nil && strings.HasPrefix(res.URL.Path, "/auth_error") {
		return fail(span, ErrAuthRequired)
	}
	if location, ok := res.Location(); ok && strings.HasPrefix(location.Path, "/auth_error") {
		return fail(span, ErrAuthRequired)
	}

	doc, err := htmlutil.Parse(res.Text())
	if err != nil {
		return fail(span, &CollectError{WorkID: workID, Err: err})
	}
	if banner := doc.Find(flashError).First(); banner.Length() > 0 {
		return fail(span, &CollectError{
			WorkID:   workID,
			Rejected: rejectedCollections(banner),
			Message:  textutil.Clean(htmlutil.OwnText(banner.Get(0))),
			Err:      ErrRejected,
		})
	}
	if doc.Find(flashNotice).Length() == 0 {
		return fail(span, &CollectError{
			WorkID:  workID,
			Message: "the archive answered without a notice or an error",
			Err:     ErrRejected,
		})
	}
	return nil
}
