package ao3

import (
	"net/url"
	"strconv"
	"strings"
)

// searchOptions is implemented by every search filter. withPage returns
// a copy pointing at another page.
type searchOptions[O any] interface {
	Values() url.Values
	pageNumber() int
	withPage(page int) O
}

func setList(values url.Values, key string, list []string) {
	values.Set(key, strings.Join(list, ","))
}

func setBool(values url.Values, key string, b bool) {
	values.Set(key, boolParam(b))
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func pageParam(page int) string {
	return strconv.Itoa(max(1, page))
}

type WorkSearchOptions struct {
	Page int

	AnyField      string
	Title         string
	Author        string
	RevisedAt     string
	SingleChapter bool
	WordCount     Constraint
	Language      Language
	Fandoms       []string
	Characters    []string
	Relationships []string
	Freeforms     []string
	// zero leaves the rating unfiltered
	Rating       RatingID
	Warnings     []ArchiveWarningID
	Categories   []CategoryID
	Hits         Constraint
	Kudos        Constraint
	Crossover    Filter
	Bookmarks    Constraint
	ExcludedTags []string
	Comments     Constraint
	Complete     Filter

	// SortColumn defaults to "_score", SortDirection to descending.
	SortColumn    string
	SortDirection SortDirection
}

func (o WorkSearchOptions) Values() url.Values {
	values := url.Values{"page": {pageParam(o.Page)}}
	values.Set("work_search[query]", o.AnyField)
	values.Set("work_search[title]", o.Title)
	values.Set("work_search[creators]", o.Author)
	values.Set("work_search[revised_at]", o.RevisedAt)
	values.Set("work_search[complete]", string(o.Complete))
	values.Set("work_search[crossover]", string(o.Crossover))
	setBool(values, "work_search[single_chapter]", o.SingleChapter)
	values.Set("work_search[word_count]", o.WordCount.String())
	values.Set("work_search[language_id]", string(o.Language))
	setList(values, "work_search[fandom_names]", o.Fandoms)
	setList(values, "work_search[character_names]", o.Characters)
	setList(values, "work_search[relationship_names]", o.Relationships)
	setList(values, "work_search[freeform_names]", o.Freeforms)
	values.Set("work_search[rating_ids]", "")
	if o.Rating != 0 {
		values.Set("work_search[rating_ids]", strconv.Itoa(int(o.Rating)))
	}
	for _, id := range joinIDs(o.Warnings) {
		values.Add("work_search[archive_warning_ids][]", id)
	}
	for _, id := range joinIDs(o.Categories) {
		values.Add("work_search[category_ids][]", id)
	}
	values.Set("work_search[hits]", o.Hits.String())
	values.Set("work_search[kudos_count]", o.Kudos.String())
	values.Set("work_search[comments_count]", o.Comments.String())
	values.Set("work_search[bookmarks_count]", o.Bookmarks.String())
	if len(o.ExcludedTags) > 0 {
		setList(values, "work_search[excluded_tag_names]", o.ExcludedTags)
	}

	sortColumn := o.SortColumn
	if sortColumn == "" {
		sortColumn = "_score"
	}
	sortDirection := o.SortDirection
	if sortDirection == "" {
		sortDirection = Descending
	}
	values.Set("work_search[sort_column]", sortColumn)
	values.Set("work_search[sort_direction]", string(sortDirection))
	return values
}

func (o WorkSearchOptions) pageNumber() int { return max(1, o.Page) }

func (o WorkSearchOptions) withPage(page int) WorkSearchOptions {
	o.Page = page
	return o
}

type PeopleSearchOptions struct {
	Page int

	AnyField string
	Names    []string
	Fandoms  []string
}

func (o PeopleSearchOptions) Values() url.Values {
	values := url.Values{"page": {pageParam(o.Page)}}
	values.Set("people_search[query]", o.AnyField)
	setList(values, "people_search[name]", o.Names)
	setList(values, "people_search[fandom]", o.Fandoms)
	return values
}

func (o PeopleSearchOptions) pageNumber() int { return max(1, o.Page) }

func (o PeopleSearchOptions) withPage(page int) PeopleSearchOptions {
	o.Page = page
	return o
}

type BookmarkSearchOptions struct {
	Page int

	AnyField         string
	WorkTags         []string
	Type             BookmarkableType
	Language         Language
	WorkUpdated      string
	AnyBookmarkField string
	BookmarkTags     []string
	Bookmarker       string
	Recommended      bool
	WithNotes        bool
	BookmarkDate     string
	// "created_at" or "bookmarkable_date", empty lets the archive pick
	SortColumn string
}

func (o BookmarkSearchOptions) Values() url.Values {
	values := url.Values{"page": {pageParam(o.Page)}}
	values.Set("bookmark_search[bookmarkable_query]", o.AnyField)
	setList(values, "bookmark_search[other_tag_names]", o.WorkTags)
	values.Set("bookmark_search[bookmarkable_type]", string(o.Type))
	values.Set("bookmark_search[language_id]", string(o.Language))
	values.Set("bookmark_search[bookmarkable_date]", o.WorkUpdated)
	values.Set("bookmark_search[bookmark_query]", o.AnyBookmarkField)
	setList(values, "bookmark_search[other_bookmark_tag_names]", o.BookmarkTags)
	values.Set("bookmark_search[bookmarker]", o.Bookmarker)
	setBool(values, "bookmark_search[rec]", o.Recommended)
	setBool(values, "bookmark_search[with_notes]", o.WithNotes)
	values.Set("bookmark_search[date]", o.BookmarkDate)
	values.Set("bookmark_search[sort_column]", o.SortColumn)
	return values
}

func (o BookmarkSearchOptions) pageNumber() int { return max(1, o.Page) }

func (o BookmarkSearchOptions) withPage(page int) BookmarkSearchOptions {
	o.Page = page
	return o
}

type TagSearchOptions struct {
	Page int

	Name    string
	Fandoms []string
	Type    TagType
	// FilterOnly keeps canonical tags, FilterExclude drops them
	Canonical Filter

	// SortColumn defaults to "name", SortDirection to ascending.
	SortColumn    string
	SortDirection SortDirection
}

func (o TagSearchOptions) Values() url.Values {
	values := url.Values{"page": {pageParam(o.Page)}}
	values.Set("tag_search[name]", o.Name)
	setList(values, "tag_search[fandoms]", o.Fandoms)
	values.Set("tag_search[type]", string(o.Type))
	values.Set("tag_search[canonical]", string(o.Canonical))

	sortColumn := o.SortColumn
	if sortColumn == "" {
		sortColumn = "name"
	}
	sortDirection := o.SortDirection
	if sortDirection == "" {
		sortDirection = Ascending
	}
	values.Set("tag_search[sort_column]", sortColumn)
	values.Set("tag_search[sort_direction]", string(sortDirection))
	return values
}

func (o TagSearchOptions) pageNumber() int { return max(1, o.Page) }

func (o TagSearchOptions) withPage(page int) TagSearchOptions {
	o.Page = page
	return o
}
