package htmlutil

import (
	"bytes"
	"net/url"
	"strings"

	"ao3-go/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parse reads an html document from raw page text.
func Parse(text string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(text))
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// OwnText returns only the text nodes directly under the node, ignoring
// nested elements.
func OwnText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var buffer bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			buffer.WriteString(child.Data)
		}
	}
	return buffer.String()
}

// Text is the cleaned text content of the i-th match of sel, ok is false
// when there is no such match.
func Text(sel *goquery.Selection, i int) (string, bool) {
	if i < 0 || i >= sel.Length() {
		return "", false
	}
	return textutil.Clean(GetText(sel.Get(i))), true
}

// Texts is the cleaned text content of every match of sel.
func Texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, textutil.Clean(GetText(n)))
	}
	return out
}

// LastSegment returns the final path segment of an href, ignoring any
// query or fragment.
func LastSegment(href string) string {
	link, err := url.Parse(href)
	if err == nil {
		href = link.Path
	}
	href = strings.TrimRight(href, "/")
	idx := strings.LastIndex(href, "/")
	return href[idx+1:]
}
