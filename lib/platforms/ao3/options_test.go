package ao3

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWorkSearchOptionsDefaults(t *testing.T) {
	values := WorkSearchOptions{}.Values()

	require.Equal(t, "1", values.Get("page"))
	require.Equal(t, "_score", values.Get("work_search[sort_column]"))
	require.Equal(t, "desc", values.Get("work_search[sort_direction]"))
	require.Equal(t, "0", values.Get("work_search[single_chapter]"))
	require.Equal(t, "", values.Get("work_search[word_count]"))
	require.Equal(t, "", values.Get("work_search[rating_ids]"))
	require.False(t, values.Has("work_search[excluded_tag_names]"))
	require.False(t, values.Has("work_search[archive_warning_ids][]"))
}

func TestWorkSearchOptionsValues(t *testing.T) {
	opts := WorkSearchOptions{
		Page:          3,
		AnyField:      "coffee shop",
		Title:         "The Title",
		Author:        "writer",
		SingleChapter: true,
		WordCount:     Between(1000, 5000),
		Language:      LanguageEnglish,
		Fandoms:       []string{"Original Work", "Other Fandom"},
		Characters:    []string{"Alice"},
		Rating:        RatingTeenAndUpAudiences,
		Warnings:      []ArchiveWarningID{WarningNone, WarningChoseNotToUse},
		Categories:    []CategoryID{CategoryFM},
		Hits:          AtLeast(100),
		Kudos:         AtMost(10),
		Crossover:     FilterExclude,
		Complete:      FilterOnly,
		ExcludedTags:  []string{"Angst"},
		SortColumn:    "kudos_count",
		SortDirection: Ascending,
	}
	values := opts.Values()

	expect := map[string][]string{
		"page":                               {"3"},
		"work_search[query]":                 {"coffee shop"},
		"work_search[title]":                 {"The Title"},
		"work_search[creators]":              {"writer"},
		"work_search[single_chapter]":        {"1"},
		"work_search[word_count]":            {"1000-5000"},
		"work_search[language_id]":           {"en"},
		"work_search[fandom_names]":          {"Original Work,Other Fandom"},
		"work_search[character_names]":       {"Alice"},
		"work_search[rating_ids]":            {"11"},
		"work_search[archive_warning_ids][]": {"16", "14"},
		"work_search[category_ids][]":        {"22"},
		"work_search[hits]":                  {">100"},
		"work_search[kudos_count]":           {"<10"},
		"work_search[crossover]":             {"F"},
		"work_search[complete]":              {"T"},
		"work_search[excluded_tag_names]":    {"Angst"},
		"work_search[sort_column]":           {"kudos_count"},
		"work_search[sort_direction]":        {"asc"},
	}
	for key, want := range expect {
		if diff := cmp.Diff(want, values[key]); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", key, diff)
		}
	}

	// withPage copies, the original keeps its page
	next := opts.withPage(4)
	require.Equal(t, 4, next.pageNumber())
	require.Equal(t, 3, opts.pageNumber())
}

func TestOtherSearchOptions(t *testing.T) {
	testCases := []struct {
		name   string
		values url.Values
		expect map[string]string
	}{
		{
			name: "people",
			values: PeopleSearchOptions{
				AnyField: "someone",
				Fandoms:  []string{"A", "B"},
			}.Values(),
			expect: map[string]string{
				"page":                  "1",
				"people_search[query]":  "someone",
				"people_search[name]":   "",
				"people_search[fandom]": "A,B",
			},
		},
		{
			name: "bookmarks",
			values: BookmarkSearchOptions{
				Page:        2,
				Type:        BookmarkableWork,
				Bookmarker:  "reader",
				Recommended: true,
				SortColumn:  "created_at",
			}.Values(),
			expect: map[string]string{
				"page":                               "2",
				"bookmark_search[bookmarkable_type]": "Work",
				"bookmark_search[bookmarker]":        "reader",
				"bookmark_search[rec]":               "1",
				"bookmark_search[with_notes]":        "0",
				"bookmark_search[sort_column]":       "created_at",
			},
		},
		{
			name: "tags",
			values: TagSearchOptions{
				Name:      "fluff",
				Type:      TagFreeform,
				Canonical: FilterOnly,
			}.Values(),
			expect: map[string]string{
				"page":                       "1",
				"tag_search[name]":           "fluff",
				"tag_search[type]":           "Freeform",
				"tag_search[canonical]":      "T",
				"tag_search[sort_column]":    "name",
				"tag_search[sort_direction]": "asc",
			},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			for key, want := range test.expect {
				require.True(t, test.values.Has(key), key)
				require.Equal(t, want, test.values.Get(key), key)
			}
		})
	}
}
