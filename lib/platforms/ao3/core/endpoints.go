package core

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

func (c *Client) GetWork(ctx context.Context, id int, fullWork bool) (string, error) {
	query := url.Values{"view_adult": {"true"}}
	if fullWork {
		query.Set("view_full_work", "true")
	}
	return c.Text(ctx, c.route("GET", "/works/{id}", Params{"id": id}), RequestOptions{Query: query})
}

func (c *Client) GetChapter(ctx context.Context, id int) (string, error) {
	query := url.Values{"view_adult": {"true"}}
	return c.Text(ctx, c.route("GET", "/chapters/{id}", Params{"id": id}), RequestOptions{Query: query})
}

func (c *Client) GetSeries(ctx context.Context, id int) (string, error) {
	return c.Text(ctx, c.route("GET", "/series/{id}", Params{"id": id}), RequestOptions{})
}

func (c *Client) GetUserProfile(ctx context.Context, username string) (string, error) {
	route := c.route("GET", "/users/{username}/profile", Params{"username": username})
	return c.Text(ctx, route, RequestOptions{})
}

func pageQuery(page int) url.Values {
	return url.Values{"page": {strconv.Itoa(max(1, page))}}
}

func (c *Client) GetUserWorks(ctx context.Context, username string, page int) (string, error) {
	route := c.route("GET", "/users/{username}/works", Params{"username": username})
	return c.Text(ctx, route, RequestOptions{Query: pageQuery(page)})
}

func (c *Client) GetUserBookmarks(ctx context.Context, username string, page int) (string, error) {
	route := c.route("GET", "/users/{username}/bookmarks", Params{"username": username})
	return c.Text(ctx, route, RequestOptions{Query: pageQuery(page)})
}

func (c *Client) SearchWorks(ctx context.Context, query url.Values) (string, error) {
	return c.Text(ctx, c.route("GET", "/works/search", nil), RequestOptions{Query: query})
}

func (c *Client) SearchPeople(ctx context.Context, query url.Values) (string, error) {
	return c.Text(ctx, c.route("GET", "/people/search", nil), RequestOptions{Query: query})
}

func (c *Client) SearchBookmarks(ctx context.Context, query url.Values) (string, error) {
	return c.Text(ctx, c.route("GET", "/bookmarks/search", nil), RequestOptions{Query: query})
}

func (c *Client) SearchTags(ctx context.Context, query url.Values) (string, error) {
	return c.Text(ctx, c.route("GET", "/tags/search", nil), RequestOptions{Query: query})
}

// DownloadWork streams an exported copy of a work, format is the file
// extension (epub, pdf, ...).
func (c *Client) DownloadWork(ctx context.Context, id int, title, format string) (io.ReadCloser, error) {
	filename := fmt.Sprintf("%s.%s", title, strings.ToLower(format))
	route := c.route("GET", "/downloads/{id}/{filename}", Params{"id": id, "filename": filename})
	return c.Stream(ctx, route, RequestOptions{})
}

func xhrHeaders(token string) map[string]string {
	return map[string]string{
		"X-CSRF-Token":     token,
		"X-Requested-With": "XMLHttpRequest",
	}
}

func (c *Client) GiveKudos(ctx context.Context, token string, id int, kind string) (*Response, error) {
	header := xhrHeaders(token)
	header["Referer"] = c.route("GET", "/works/{id}", Params{"id": id}).URL
	return c.Do(ctx, c.route("POST", "/kudos.js", nil), RequestOptions{
		Header: header,
		Form: url.Values{
			"authenticity_token":     {token},
			"kudo[commentable_id]":   {strconv.Itoa(id)},
			"kudo[commentable_type]": {kind},
		},
	})
}

type BookmarkForm struct {
	PseudID     string
	Notes       string
	Tags        []string
	Collections []string
	Private     bool
	Recommend   bool
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Bookmark posts the bookmark form for the work or series at path. The
// archive answers a successful post with a redirect to the new bookmark,
// it is returned without being followed.
func (c *Client) Bookmark(ctx context.Context, token, path string, form BookmarkForm) (*Response, error) {
	values := url.Values{
		"authenticity_token":         {token},
		"bookmark[pseud_id]":         {form.PseudID},
		"bookmark[tag_string]":       {strings.Join(form.Tags, ",")},
		"bookmark[collection_names]": {strings.Join(form.Collections, ",")},
		"bookmark[private]":          {boolField(form.Private)},
		"bookmark[rec]":              {boolField(form.Recommend)},
	}
	if form.Notes != "" {
		values.Set("bookmark[bookmarker_notes]", form.Notes)
	}
	route := c.route("POST", "{path}/bookmarks", Params{"path": path})
	return c.Do(ctx, route, RequestOptions{Form: values, NoRedirect: true})
}

func (c *Client) DeleteBookmark(ctx context.Context, token string, bookmarkID int) (*Response, error) {
	route := c.route("POST", "/bookmarks/{id}", Params{"id": bookmarkID})
	return c.Do(ctx, route, RequestOptions{
		Form: url.Values{
			"authenticity_token": {token},
			"_method":            {"delete"},
		},
		NoRedirect: true,
	})
}

// Subscribe asks for a json reply, the new subscription id is in its
// item_id field.
func (c *Client) Subscribe(ctx context.Context, token, username string, id int, kind string) (*Response, error) {
	header := xhrHeaders(token)
	header["Accept"] = "application/json"
	route := c.route("POST", "/users/{username}/subscriptions", Params{"username": username})
	return c.Do(ctx, route, RequestOptions{
		Header: header,
		Form: url.Values{
			"authenticity_token":              {token},
			"subscription[subscribable_id]":   {strconv.Itoa(id)},
			"subscription[subscribable_type]": {kind},
		},
	})
}

func (c *Client) Unsubscribe(ctx context.Context, token, username string, id int, kind string, subID int) (*Response, error) {
	header := xhrHeaders(token)
	header["Accept"] = "application/json"
	route := c.route("POST", "/users/{username}/subscriptions/{sub_id}", Params{
		"username": username,
		"sub_id":   subID,
	})
	return c.Do(ctx, route, RequestOptions{
		Header: header,
		Form: url.Values{
			"authenticity_token":              {token},
			"subscription[subscribable_id]":   {strconv.Itoa(id)},
			"subscription[subscribable_type]": {kind},
			"_method":                         {"delete"},
		},
	})
}

// Collect invites a work into collections. Redirects are followed so
// the returned page carries the archive's notice or error banner.
func (c *Client) Collect(ctx context.Context, token string, workID int, collections []string) (*Response, error) {
	route := c.route("POST", "/works/{id}/collection_items", Params{"id": workID})
	return c.Do(ctx, route, RequestOptions{
		Form: url.Values{
			"authenticity_token": {token},
			"collection_names":   {strings.Join(collections, ",")},
			"work_id":            {strconv.Itoa(workID)},
		},
	})
}
