package ao3

import (
	"ao3-go/lib/htmlutil"
	"ao3-go/lib/platforms/ao3/core"
	"ao3-go/lib/platforms/ao3/lazy"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ao3.lib.platforms.ao3")

// page is the part every entity's state shares: the backing document
// and the authenticity token read from it. A nil doc means the entity
// has not been loaded.
type page struct {
	doc   *goquery.Document
	token lazy.Cell[string]
}

func (p *page) authenticityToken() string {
	return p.token.Value(func() string {
		if p.doc == nil {
			return ""
		}
		return core.CSRFToken(p.doc)
	})
}

// must reads a field that is meaningless without a document.
func must[T any](cell *lazy.Cell[T], doc *goquery.Document, extract func(*goquery.Document) T) (T, error) {
	return cell.Get(func() (T, error) {
		if doc == nil {
			var zero T
			return zero, ErrUnloaded
		}
		return extract(doc), nil
	})
}

// degrade reads a best-effort field, unloaded pages give the zero value.
func degrade[T any](cell *lazy.Cell[T], doc *goquery.Document, extract func(*goquery.Document) T) T {
	return cell.Value(func() T {
		if doc == nil {
			var zero T
			return zero
		}
		return extract(doc)
	})
}

func textAt(doc *goquery.Document, selector string, i int) string {
	text, _ := htmlutil.Text(doc.Find(selector), i)
	return text
}

func textsOf(doc *goquery.Document, selector string) []string {
	return htmlutil.Texts(doc.Find(selector))
}

// actionID reads the trailing numeric id of a form's action, forms for
// records that don't exist yet point at the collection instead.
func actionID(sel *goquery.Selection) int {
	action, ok := sel.First().Attr("action")
	if !ok {
		return 0
	}
	id, _ := idFromHref(action)
	return id
}

func authorObjects(sel *goquery.Selection) []Object {
	out := make([]Object, 0, sel.Length())
	sel.Each(func(_ int, a *goquery.Selection) {
		name := usernameFromHref(a.AttrOr("href", ""))
		if name == "" {
			return
		}
		out = append(out, Object{Name: name, Kind: KindUser})
	})
	return out
}

func seriesObjects(sel *goquery.Selection) []Object {
	out := make([]Object, 0, sel.Length())
	sel.Each(func(_ int, a *goquery.Selection) {
		id, ok := seriesIDFromHref(a.AttrOr("href", ""))
		if !ok {
			return
		}
		out = append(out, Object{ID: id, Kind: KindSeries})
	})
	return out
}
