package htmlutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const fragment = `<html><body>
<ul class="links">
	<li><a href="/users/someone/pseuds/someone">  some
	one </a></li>
	<li><a href="/works/123?view_adult=true#main">A <b>bold</b> title</a></li>
</ul>
<p id="own">outer <span>inner</span> text</p>
</body></html>`

func TestTextHelpers(t *testing.T) {
	doc, err := Parse(fragment)
	require.NoError(t, err)

	links := doc.Find("ul.links a")
	text, ok := Text(links, 1)
	require.True(t, ok)
	require.Equal(t, "A bold title", text)

	_, ok = Text(links, 2)
	require.False(t, ok)

	if diff := cmp.Diff([]string{"some one", "A bold title"}, Texts(links)); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, "outer  text", OwnText(doc.Find("#own").Get(0)))
}

func TestLastSegment(t *testing.T) {
	testCases := []struct {
		href   string
		expect string
	}{
		{href: "/works/123/bookmarks", expect: "bookmarks"},
		{href: "/bookmarks/991", expect: "991"},
		{href: "https://archiveofourown.org/series/55/", expect: "55"},
		{href: "/works/123?view_adult=true", expect: "123"},
		{href: "plain", expect: "plain"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, LastSegment(test.href))
	}
}
