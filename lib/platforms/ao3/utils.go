package ao3

import (
	"regexp"
	"strconv"
	"strings"

	"ao3-go/lib/htmlutil"
	"ao3-go/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

var storyUrlRegex = regexp.MustCompile(`(?:https://|)(?:www\.|)archiveofourown\.org/(?:works|series)/(\d+)`)

// LookupID pulls the work or series id out of an archive url.
func LookupID(url string) (int, bool) {
	groups := storyUrlRegex.FindStringSubmatch(url)
	if len(groups) < 2 {
		return 0, false
	}
	id, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// IDFromURL is LookupID but fails with ErrInvalidURL.
func IDFromURL(url string) (int, error) {
	id, ok := LookupID(url)
	if !ok {
		return 0, ErrInvalidURL
	}
	return id, nil
}

// intOrNone parses counts like "12,345".
func intOrNone(text string) (int, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

func intOrZero(text string) int {
	n, _ := intOrNone(text)
	return n
}

// UnknownCount marks a chapter count the archive shows as "?".
const UnknownCount = -1

type ChapterCount struct {
	Current  int
	Expected int
}

func parseChapters(text string) ChapterCount {
	current, expected, _ := strings.Cut(text, "/")
	out := ChapterCount{Current: UnknownCount, Expected: UnknownCount}
	if n, ok := intOrNone(current); ok {
		out.Current = n
	}
	if n, ok := intOrNone(expected); ok {
		out.Expected = n
	}
	return out
}

// Complete compares the counts only when both are known or both are
// unknown.
func (c ChapterCount) Complete() bool {
	if (c.Current == UnknownCount) != (c.Expected == UnknownCount) {
		return false
	}
	return c.Current == c.Expected
}

var countSuffixRegex = regexp.MustCompile(`\((\d[\d,]*)\)\s*$`)

// parseLabeledCount reads navigation labels like "Works (12)".
func parseLabeledCount(text string) int {
	groups := countSuffixRegex.FindStringSubmatch(strings.TrimSpace(text))
	if len(groups) < 2 {
		return 0
	}
	return intOrZero(groups[1])
}

// usernameFromHref reads "/users/<name>/pseuds/<pseud>" style links.
func usernameFromHref(href string) string {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "users" {
			return parts[i+1]
		}
	}
	return ""
}

var seriesHrefRegex = regexp.MustCompile(`^(?:https?://[^/]+)?/series/(\d+)/?(?:[?#].*)?$`)

// seriesIDFromHref only accepts links to a series itself, not to its
// bookmarks or to works that happen to sit next to it.
func seriesIDFromHref(href string) (int, bool) {
	groups := seriesHrefRegex.FindStringSubmatch(strings.TrimSpace(href))
	if groups == nil {
		return 0, false
	}
	return intOrNone(groups[1])
}

func idFromHref(href string) (int, bool) {
	return intOrNone(htmlutil.LastSegment(href))
}

// extractPseudID finds the pseud to post as. A single pseud is a hidden
// input, several are a select where the wanted one is matched by name
// or, without a name, by being preselected.
func extractPseudID(doc *goquery.Selection, pseud string) (string, bool) {
	hidden := doc.Find(`input[name$="[pseud_id]"]`).First()
	if hidden.Length() > 0 {
		value, ok := hidden.Attr("value")
		return value, ok && value != ""
	}

	var found string
	doc.Find(`select[name$="[pseud_id]"]`).First().Find("option").EachWithBreak(func(_ int, option *goquery.Selection) bool {
		var match bool
		if pseud != "" {
			match = textutil.EqualFold(option.Text(), pseud)
		} else {
			_, match = option.Attr("selected")
		}
		if match {
			found = option.AttrOr("value", "")
			return false
		}
		return true
	})
	return found, found != ""
}

// maxPage is the highest page number in a listing's pagination, 1 when
// there is none.
func maxPage(doc *goquery.Document) int {
	highest := 1
	doc.Find("ol[title=pagination] li").Each(func(_ int, li *goquery.Selection) {
		if n, ok := intOrNone(li.Text()); ok && n > highest {
			highest = n
		}
	})
	return highest
}
