package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"ao3-go/lib/telemetry"
	"ao3-go/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestClient(t *testing.T) (*Client, *testutil.Archive, *sleepRecorder) {
	telemetry.SetupForTesting(t)
	archive := testutil.NewArchive(t)
	sleeps := &sleepRecorder{}
	client, err := NewClient(ClientOptions{
		BaseUrl: archive.URL,
		Sleep:   sleeps.sleep,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, archive, sleeps
}

func TestNewRoute(t *testing.T) {
	base, err := url.Parse("https://archiveofourown.org/")
	require.NoError(t, err)

	testCases := []struct {
		path   string
		params Params
		expect string
	}{
		{path: "/works/{id}", params: Params{"id": 48637876}, expect: "https://archiveofourown.org/works/48637876"},
		{path: "/users/{username}/profile", params: Params{"username": "some one"}, expect: "https://archiveofourown.org/users/some%20one/profile"},
		{path: "{path}/bookmarks", params: Params{"path": "/series/1902145"}, expect: "https://archiveofourown.org/series/1902145/bookmarks"},
		{path: "bookmarks/{id}", params: Params{"id": 7}, expect: "https://archiveofourown.org/bookmarks/7"},
		{path: "/downloads/{id}/{filename}", params: Params{"id": 1, "filename": "a?b.epub"}, expect: "https://archiveofourown.org/downloads/1/a%3Fb.epub"},
	}
	for _, test := range testCases {
		route := NewRoute(base, "GET", test.path, test.params)
		require.Equal(t, test.expect, route.URL)
		require.Equal(t, "GET", route.Method)
	}

	require.Panics(t, func() {
		NewRoute(base, "GET", "/works/{id}", nil)
	})
}

func TestRetryRateLimit(t *testing.T) {
	client, archive, sleeps := newTestClient(t)
	archive.Handle("GET", "/works/1", testutil.Sequence(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		},
		testutil.HTML(http.StatusOK, "work page"),
	))

	text, err := client.GetWork(context.Background(), 1, false)
	require.NoError(t, err)
	require.Equal(t, "work page", text)
	require.Equal(t, []time.Duration{3 * time.Second}, sleeps.delays)
	require.Equal(t, 2, archive.Hits("GET", "/works/1"))
	require.Equal(t, "true", archive.Requests("GET", "/works/1")[0].Query.Get("view_adult"))
}

func TestRetryServerErrors(t *testing.T) {
	client, archive, sleeps := newTestClient(t)
	archive.Handle("GET", "/series/5", testutil.Sequence(
		testutil.HTML(http.StatusServiceUnavailable, ""),
		testutil.HTML(http.StatusBadGateway, ""),
		testutil.HTML(http.StatusOK, "series page"),
	))

	text, err := client.GetSeries(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "series page", text)
	require.Equal(t, []time.Duration{time.Second, 3 * time.Second}, sleeps.delays)
}

func TestRetryExhausted(t *testing.T) {
	client, archive, sleeps := newTestClient(t)
	archive.Handle("GET", "/series/5", testutil.HTML(http.StatusInternalServerError, "oops"))

	_, err := client.GetSeries(context.Background(), 5)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.Equal(t, "Internal Server Error", httpErr.Reason)
	require.Equal(t, MaxAttempts, archive.Hits("GET", "/series/5"))

	expect := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second, 7 * time.Second}
	if diff := cmp.Diff(expect, sleeps.delays); diff != "" {
		t.Fatal(diff)
	}
}

func TestUnhandledStatusFailsFast(t *testing.T) {
	client, archive, sleeps := newTestClient(t)

	_, err := client.GetWork(context.Background(), 404, false)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.True(t, httpErr.NotFound())
	require.Contains(t, httpErr.Error(), "404 Not Found")
	require.Equal(t, 1, archive.Hits("GET", "/works/404"))
	require.Empty(t, sleeps.delays)
}

func TestRateLimitWithoutRetryAfter(t *testing.T) {
	client, archive, sleeps := newTestClient(t)
	archive.Handle("GET", "/works/1", testutil.HTML(http.StatusTooManyRequests, ""))

	_, err := client.GetWork(context.Background(), 1, false)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	require.Equal(t, 1, archive.Hits("GET", "/works/1"))
	require.Empty(t, sleeps.delays)
}

func TestConnectionErrorRetry(t *testing.T) {
	client, archive, sleeps := newTestClient(t)
	archive.Handle("GET", "/works/1", testutil.Sequence(
		func(w http.ResponseWriter, r *http.Request) {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
		},
		testutil.HTML(http.StatusOK, "recovered"),
	))

	text, err := client.GetWork(context.Background(), 1, false)
	require.NoError(t, err)
	require.Equal(t, "recovered", text)
	require.Equal(t, []time.Duration{NetworkRetryDelay}, sleeps.delays)
}

func TestCancelledRetrySleep(t *testing.T) {
	telemetry.SetupForTesting(t)
	archive := testutil.NewArchive(t)
	archive.Handle("GET", "/works/1", testutil.HTML(http.StatusServiceUnavailable, ""))

	ctx, cancel := context.WithCancel(context.Background())
	client, err := NewClient(ClientOptions{
		BaseUrl: archive.URL,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})
	require.NoError(t, err)

	_, err = client.GetWork(ctx, 1, false)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, archive.Hits("GET", "/works/1"))
}

func TestNoRedirect(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Handle("POST", "/works/1/bookmarks", testutil.Redirect("/bookmarks/991"))

	res, err := client.Bookmark(context.Background(), "tok", "/works/1", BookmarkForm{
		PseudID: "12",
		Tags:    []string{"a", "b"},
		Notes:   "good",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.Status)

	location, ok := res.Location()
	require.True(t, ok)
	require.Equal(t, "/bookmarks/991", location.Path)
	require.Equal(t, 0, archive.Hits("GET", "/bookmarks/991"))

	form := archive.Requests("POST", "/works/1/bookmarks")[0].Form
	require.Equal(t, "12", form.Get("bookmark[pseud_id]"))
	require.Equal(t, "a,b", form.Get("bookmark[tag_string]"))
	require.Equal(t, "good", form.Get("bookmark[bookmarker_notes]"))
	require.Equal(t, "0", form.Get("bookmark[private]"))
}

func TestAuthHeaderInjection(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/works/1", "ok")
	archive.Page("POST", "/kudos.js", "ok")

	_, err := client.GetWork(context.Background(), 1, false)
	require.NoError(t, err)
	require.Empty(t, archive.Requests("GET", "/works/1")[0].Header.Get(authHeader))

	client.State.set("session-token", "tester")

	_, err = client.GetWork(context.Background(), 1, false)
	require.NoError(t, err)
	require.Equal(t, "session-token", archive.Requests("GET", "/works/1")[1].Header.Get(authHeader))

	_, err = client.GiveKudos(context.Background(), "page-token", 1, "Work")
	require.NoError(t, err)
	kudos := archive.Requests("POST", "/kudos.js")[0]
	require.Equal(t, "page-token", kudos.Header.Get(authHeader))
	require.Equal(t, "page-token", kudos.Header.Get("X-CSRF-Token"))
	require.Equal(t, "Work", kudos.Form.Get("kudo[commentable_type]"))
}

const loginPage = `<html><body>
<form action="/users/login" method="post">
	<input type="hidden" name="authenticity_token" value="login-form-token">
	<input name="user[login]"><input name="user[password]" type="password">
</form>
</body></html>`

const landingPage = `<html><head><meta name="csrf-token" content="session-token"></head>
<body>welcome back</body></html>`

func TestLogin(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/users/login", loginPage)
	archive.Handle("POST", "/users/login", testutil.Redirect("/users/tester"))
	archive.Page("GET", "/users/tester", landingPage)

	err := client.Login(context.Background(), "tester", "hunter2")
	require.NoError(t, err)
	require.True(t, client.State.LoggedIn())
	require.Equal(t, "session-token", client.State.Token())
	require.Equal(t, "tester", client.State.Username())

	form := archive.Requests("POST", "/users/login")[0].Form
	require.Equal(t, "tester", form.Get("user[login]"))
	require.Equal(t, "hunter2", form.Get("user[password]"))
	require.Equal(t, "login-form-token", form.Get("authenticity_token"))

	archive.Handle("POST", "/users/logout", testutil.Redirect("/"))
	archive.Page("GET", "/", "home")
	err = client.Logout(context.Background())
	require.NoError(t, err)
	require.False(t, client.State.LoggedIn())
	require.Equal(t, "delete", archive.Requests("POST", "/users/logout")[0].Form.Get("_method"))
}

func TestLoginRejected(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/users/login", loginPage)
	archive.Handle("POST", "/users/login", testutil.Redirect("/users/login"))

	err := client.Login(context.Background(), "tester", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, client.State.LoggedIn())

	archive.Page("POST", "/users/login", loginPage)
	err = client.Login(context.Background(), "tester", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	total := archive.Total()
	err = client.Login(context.Background(), "tester", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, total, archive.Total(), "incomplete credentials must not hit the archive")
}

func TestLoginTokenMissing(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/users/login", "<html></html>")

	err := client.Login(context.Background(), "tester", "hunter2")
	require.ErrorIs(t, err, ErrLoginTokenMissing)
}

func TestDownloadWork(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/downloads/1/Title.epub", "epub bytes")

	body, err := client.DownloadWork(context.Background(), 1, "Title", "EPUB")
	require.NoError(t, err)
	defer body.Close()
	contents, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "epub bytes", string(contents))

	_, err = client.DownloadWork(context.Background(), 2, "Missing", "pdf")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestPageEndpoints(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/works/5", "work")
	archive.Page("GET", "/chapters/9", "chapter")
	archive.Page("GET", "/users/someone/works", "works")

	ctx := context.Background()
	text, err := client.GetWork(ctx, 5, true)
	require.NoError(t, err)
	require.Equal(t, "work", text)
	query := archive.Requests("GET", "/works/5")[0].Query
	require.Equal(t, "true", query.Get("view_adult"))
	require.Equal(t, "true", query.Get("view_full_work"))

	text, err = client.GetChapter(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "chapter", text)
	require.Equal(t, "true", archive.Requests("GET", "/chapters/9")[0].Query.Get("view_adult"))

	_, err = client.GetUserWorks(ctx, "someone", 0)
	require.NoError(t, err)
	require.Equal(t, "1", archive.Requests("GET", "/users/someone/works")[0].Query.Get("page"))
}

func TestParseRetryAfter(t *testing.T) {
	delay, ok := parseRetryAfter("2")
	require.True(t, ok)
	require.Equal(t, 2*time.Second, delay)

	_, ok = parseRetryAfter("")
	require.False(t, ok)
	_, ok = parseRetryAfter("-1")
	require.False(t, ok)
	_, ok = parseRetryAfter("soon")
	require.False(t, ok)

	delay, ok = parseRetryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))
	require.True(t, ok)
	require.Equal(t, time.Duration(0), delay)
}

func TestCloseReopensSession(t *testing.T) {
	client, archive, _ := newTestClient(t)
	archive.Page("GET", "/series/1", "series")

	first := client.session()
	require.Same(t, first, client.session())
	client.Close()

	text, err := client.GetSeries(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "series", text)
	require.NotSame(t, first, client.session())
}
