package ao3

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"testing"
	"time"

	"ao3-go/lib/htmlutil"
	"ao3-go/lib/platforms/ao3/core"
	"ao3-go/lib/telemetry"
	"ao3-go/lib/testutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

var (
	//go:embed testdata/work.html
	workPage string
	//go:embed testdata/series.html
	seriesPage string
	//go:embed testdata/user.html
	userPage string
	//go:embed testdata/tags.html
	tagsPage string
	//go:embed testdata/people.html
	peoplePage string
	//go:embed testdata/bookmarks.html
	bookmarksPage string
	//go:embed testdata/collect_error.html
	collectErrorPage string
	//go:embed testdata/collect_notice.html
	collectNoticePage string
)

const workID = 48637876

const loginPage = `<html><body>
<form action="/users/login" method="post">
	<input type="hidden" name="authenticity_token" value="login-form-token">
</form>
</body></html>`

const landingPage = `<html><head><meta name="csrf-token" content="session-token"></head>
<body>welcome back</body></html>`

func newTestClient(t *testing.T) (*Client, *testutil.Archive) {
	telemetry.SetupForTesting(t)
	archive := testutil.NewArchive(t)
	client, err := NewClient(ClientOptions{ClientOptions: core.ClientOptions{
		BaseUrl: archive.URL,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		},
	}})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, archive
}

// login signs in as "tester", the session token is "session-token".
func login(t *testing.T, client *Client, archive *testutil.Archive) {
	t.Helper()
	archive.Page("GET", "/users/login", loginPage)
	archive.Handle("POST", "/users/login", testutil.Redirect("/users/tester"))
	archive.Page("GET", "/users/tester", landingPage)
	require.NoError(t, client.Login(context.Background(), "tester", "hunter2"))
}

// workListing renders a search page with count work blurbs and
// pagination up to pages.
func workListing(count, pages int) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta name="csrf-token" content="search-token"></head><body><ol class="work index group">`)
	for i := range count {
		fmt.Fprintf(&b, `<li class="work blurb group"><div class="header module">
			<h4 class="heading"><a href="/works/%d">Work %d</a></h4></div>
			<dl class="stats"><dd class="words">%d</dd><dd class="chapters">1/1</dd></dl></li>`, 100+i, i, (i+1)*1000)
	}
	b.WriteString(`</ol><ol class="pagination actions" title="pagination">`)
	for i := 1; i <= pages; i++ {
		fmt.Fprintf(&b, `<li><a href="/works/search?page=%d">%d</a></li>`, i, i)
	}
	b.WriteString(`<li class="next"><a rel="next">Next →</a></li></ol></body></html>`)
	return b.String()
}

func parseFragment(text string) (*goquery.Document, error) {
	return htmlutil.Parse("<html><body>" + text + "</body></html>")
}
