package ao3

import (
	"context"
	"testing"
	"time"

	"ao3-go/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestUserFields(t *testing.T) {
	client, archive := newTestClient(t)
	archive.Page("GET", "/users/writer/profile", userPage)
	user, err := client.GetUser(context.Background(), "writer")
	require.NoError(t, err)

	require.True(t, user.Loaded())
	require.Equal(t, "writer", user.Username())
	require.Equal(t, archive.URL+"/users/writer", user.URL())
	require.Equal(t, `User(username="writer")`, user.String())
	require.Equal(t, "user-page-token", user.AuthenticityToken())

	id, err := user.ID()
	require.NoError(t, err)
	require.Equal(t, 424242, id)

	avatar, err := user.AvatarURL()
	require.NoError(t, err)
	require.Equal(t, "https://example.org/icons/writer.png", avatar)

	pseuds, err := user.Pseuds()
	require.NoError(t, err)
	require.Equal(t, []string{"writer", "other"}, pseuds)

	joined, err := user.DateJoined()
	require.NoError(t, err)
	require.Equal(t, time.Date(2015, 3, 2, 0, 0, 0, 0, timezone.Location), joined)

	require.Equal(t, "Hello there.", user.Bio())

	testCases := []struct {
		name   string
		get    func() (int, error)
		expect int
	}{
		{name: "works", get: user.WorksCount, expect: 12},
		{name: "series", get: user.SeriesCount, expect: 2},
		{name: "bookmarks", get: user.BookmarksCount, expect: 1030},
		{name: "collections", get: user.CollectionsCount, expect: 1},
		{name: "gifts", get: user.GiftsCount, expect: 0},
	}
	for _, test := range testCases {
		count, err := test.get()
		require.NoError(t, err, test.name)
		require.Equal(t, test.expect, count, test.name)
	}
}

func TestUserUnloaded(t *testing.T) {
	client, _ := newTestClient(t)
	user := NewUser(client, "writer")

	require.False(t, user.Loaded())
	_, err := user.ID()
	require.ErrorIs(t, err, ErrUnloaded)
	_, err = user.WorksCount()
	require.ErrorIs(t, err, ErrUnloaded)
	require.Empty(t, user.Bio())

	require.Panics(t, func() { NewUser(client, "") })
}

func TestUserListings(t *testing.T) {
	client, archive := newTestClient(t)
	archive.Page("GET", "/users/writer/works", seriesPage)
	archive.Page("GET", "/users/writer/bookmarks", bookmarksPage)
	user := NewUser(client, "writer")
	ctx := context.Background()

	works, err := user.Works(ctx, 2)
	require.NoError(t, err)
	require.Len(t, works, 2)
	require.Equal(t, 1001, works[0].ID())
	require.Equal(t, 1002, works[1].ID())
	requests := archive.Requests("GET", "/users/writer/works")
	require.Len(t, requests, 1)
	require.Equal(t, "2", requests[0].Query.Get("page"))

	bookmarks, err := user.Bookmarks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	require.Equal(t, 2002, bookmarks[0].ID())
	title, err := bookmarks[0].Title()
	require.NoError(t, err)
	require.Equal(t, "Bookmarked Work", title)
	require.Equal(t, "search-token", bookmarks[0].AuthenticityToken())
	require.Equal(t, "1", archive.Requests("GET", "/users/writer/bookmarks")[0].Query.Get("page"))

	// listings are never cached
	_, err = user.Works(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, archive.Hits("GET", "/users/writer/works"))
	require.False(t, user.Loaded())
}
