package ao3

import (
	"context"
	"fmt"
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

type userState struct {
	page

	id         lazy.Cell[int]
	subID      lazy.Cell[int]
	avatarURL  lazy.Cell[string]
	pseuds     lazy.Cell[[]string]
	dateJoined lazy.Cell[time.Time]
	bio        lazy.Cell[string]

	works       lazy.Cell[int]
	series      lazy.Cell[int]
	bookmarks   lazy.Cell[int]
	collections lazy.Cell[int]
	gifts       lazy.Cell[int]
}

// User is an account on the archive, identified by its username. The
// numeric id is only known once the profile is loaded.
type User struct {
	username string
	client   *core.Client
	state    atomic.Pointer[userState]
}

var _ Subscribable = (*User)(nil)

func newUser(client *core.Client, username string, doc *goquery.Document) *User {
	u := &User{username: username, client: client}
	u.state.Store(&userState{page: page{doc: doc}})
	return u
}

// NewUser returns an unloaded user, call Reload to fetch the profile.
func NewUser(client *Client, username string) *User {
	assert.NotNil(client, "client")
	assert.NotEmptyStr(username, "username")
	return newUser(client.transport, username, nil)
}

func (u *User) s() *userState {
	return u.state.Load()
}

func (u *User) transport() *core.Client {
	return u.client
}

func (u *User) Username() string {
	return u.username
}

func (u *User) URL() string {
	return u.client.BaseUrl.JoinPath("users", u.username).String()
}

func (u *User) String() string {
	return fmt.Sprintf("User(username=%q)", u.username)
}

func (u *User) Loaded() bool {
	return u.s().doc != nil
}

// Reload fetches the profile page. The username is kept, everything
// else is read again.
func (u *User) Reload(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "user:Reload", trace.WithAttributes(attribute.String("username", u.username)))
	defer span.End()

	text, err := u.client.GetUserProfile(ctx, u.username)
	if err != nil {
		return fail(span, err)
	}
	doc, err := htmlutil.Parse(text)
	if err != nil {
		return fail(span, err)
	}
	u.state.Store(&userState{page: page{doc: doc}})
	return nil
}

func (u *User) AuthenticityToken() string {
	return u.s().authenticityToken()
}

// ID is the numeric account id shown on the profile, 0 if it can't be
// read.
func (u *User) ID() (int, error) {
	s := u.s()
	return must(&s.id, s.doc, func(doc *goquery.Document) int {
		return intOrZero(textAt(doc, userProfileInfo, 2))
	})
}

func (u *User) SubID() (int, bool) {
	s := u.s()
	id := degrade(&s.subID, s.doc, func(doc *goquery.Document) int {
		if !u.client.State.LoggedIn() {
			return 0
		}
		return actionID(doc.Find(userSubscribeForm))
	})
	return id, id > 0
}

func (u *User) subCell() *lazy.Cell[int] {
	return &u.s().subID
}

func (u *User) AvatarURL() (string, error) {
	s := u.s()
	return must(&s.avatarURL, s.doc, func(doc *goquery.Document) string {
		return doc.Find(userAvatar).First().AttrOr("src", "")
	})
}

func (u *User) Pseuds() ([]string, error) {
	s := u.s()
	return must(&s.pseuds, s.doc, func(doc *goquery.Document) []string {
		return textsOf(doc, userPseuds)
	})
}

func (u *User) DateJoined() (time.Time, error) {
	s := u.s()
	return must(&s.dateJoined, s.doc, func(doc *goquery.Document) time.Time {
		return timezone.Parse(timezone.PageLayout, textAt(doc, userProfileInfo, 1))
	})
}

// Bio is empty when the user hasn't written one or isn't loaded.
func (u *User) Bio() string {
	s := u.s()
	return degrade(&s.bio, s.doc, func(doc *goquery.Document) string {
		return textAt(doc, userBio, 0)
	})
}

func (u *User) navCount(field func(*userState) *lazy.Cell[int], selector string) (int, error) {
	s := u.s()
	return must(field(s), s.doc, func(doc *goquery.Document) int {
		return parseLabeledCount(textAt(doc, selector, 0))
	})
}

func (u *User) WorksCount() (int, error) {
	return u.navCount(func(s *userState) *lazy.Cell[int] { return &s.works }, userWorksLink)
}

func (u *User) SeriesCount() (int, error) {
	return u.navCount(func(s *userState) *lazy.Cell[int] { return &s.series }, userSeriesLink)
}

func (u *User) BookmarksCount() (int, error) {
	return u.navCount(func(s *userState) *lazy.Cell[int] { return &s.bookmarks }, userBookmarksLink)
}

func (u *User) CollectionsCount() (int, error) {
	return u.navCount(func(s *userState) *lazy.Cell[int] { return &s.collections }, userCollections)
}

func (u *User) GiftsCount() (int, error) {
	return u.navCount(func(s *userState) *lazy.Cell[int] { return &s.gifts }, userGiftsLink)
}

func (u *User) subscribeTarget() (int, string, error) {
	id, err := u.ID()
	if err != nil {
		return 0, "User", err
	}
	if id == 0 {
		return 0, "User", fmt.Errorf("no account id on the profile of %q: %w", u.username, ErrRejected)
	}
	return id, "User", nil
}

func (u *User) Subscribe(ctx context.Context) error {
	return subscribe(ctx, u)
}

func (u *User) Unsubscribe(ctx context.Context) error {
	return unsubscribe(ctx, u)
}

// Works fetches one page of the user's works listing. Nothing is cached,
// every call hits the archive.
func (u *User) Works(ctx context.Context, page int) ([]*Work, error) {
	ctx, span := tracer.Start(ctx, "user:Works", trace.WithAttributes(
		attribute.String("username", u.username),
		attribute.Int("page", page),
	))
	defer span.End()

	text, err := u.client.GetUserWorks(ctx, u.username, page)
	if err != nil {
		return nil, fail(span, err)
	}
	return u.listing(span, text, searchWorks)
}

// Bookmarks fetches one page of the user's bookmarks. Only bookmarked
// works are returned, series and external works are skipped.
func (u *User) Bookmarks(ctx context.Context, page int) ([]*Work, error) {
	ctx, span := tracer.Start(ctx, "user:Bookmarks", trace.WithAttributes(
		attribute.String("username", u.username),
		attribute.Int("page", page),
	))
	defer span.End()

	text, err := u.client.GetUserBookmarks(ctx, u.username, page)
	if err != nil {
		return nil, fail(span, err)
	}
	return u.listing(span, text, searchBookmarks)
}

func (u *User) listing(span trace.Span, text, selector string) ([]*Work, error) {
	doc, err := htmlutil.Parse(text)
	if err != nil {
		return nil, fail(span, err)
	}
	works := worksFromBlurbs(u.client, doc.Find(selector), core.CSRFToken(doc))
	span.SetAttributes(attribute.Int("works", len(works)))
	return works, nil
}
