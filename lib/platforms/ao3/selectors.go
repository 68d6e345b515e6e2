package ao3

// work page
const (
	workSubscribeForm = "ul.work.navigation.actions li.subscribe form"
	workBookmarkForm  = `div#bookmark-form > form[action^="/bookmark"]`
	workTitle         = "h2.title"
	workAuthors       = `div.preface.group a[rel*="author"]`
	workSummary       = "div.summary > blockquote.userstuff"
	workSeries        = "dl.work.meta.group dd.series span.position a"
	workRestricted    = `img[title*="Restricted"]`
	workRating        = "dl.work.meta.group dd.rating.tags li"
	workWarnings      = "dl.work.meta.group dd.warning.tags li"
	workCategories    = "dl.work.meta.group dd.category.tags li"
	workFandoms       = "dl.work.meta.group dd.fandom.tags li"
	workRelationships = "dl.work.meta.group dd.relationship.tags li"
	workCharacters    = "dl.work.meta.group dd.character.tags li"
	workFreeforms     = "dl.work.meta.group dd.freeform.tags li"
	workLanguage      = "dl.work.meta.group dd.language"
	workPublished     = "dl.work.meta.group dl.stats > dd.published"
	workUpdated       = "dl.work.meta.group dl.stats > dd.status"
	workWords         = "dl.work.meta.group dl.stats > dd.words"
	workChapters      = "dl.work.meta.group dl.stats > dd.chapters"
	workComments      = "dl.work.meta.group dl.stats > dd.comments"
	workKudos         = "dl.work.meta.group dl.stats > dd.kudos"
	workBookmarks     = "dl.work.meta.group dl.stats > dd.bookmarks"
	workHits          = "dl.work.meta.group dl.stats > dd.hits"
)

// work blurb on a listing
const (
	blurbLink          = `a[href^="/works/"]`
	blurbAuthors       = `h4 a[rel*="author"]`
	blurbSeries        = "ul.series > li > a"
	blurbSummary       = ".userstuff.summary"
	blurbRating        = ".required-tags .rating"
	blurbWarnings      = ".tags li.warnings"
	blurbCategory      = ".required-tags .category"
	blurbFandoms       = "h5.fandoms a"
	blurbRelationships = ".tags li.relationships"
	blurbCharacters    = ".tags li.characters"
	blurbFreeforms     = ".tags li.freeforms"
	blurbLanguage      = ".stats dd.language"
	blurbDate          = "p.datetime"
	blurbWords         = ".stats dd.words"
	blurbChapters      = ".stats dd.chapters"
	blurbComments      = ".stats dd.comments"
	blurbKudos         = ".stats dd.kudos"
	blurbBookmarks     = ".stats dd.bookmarks"
	blurbHits          = ".stats dd.hits"
)

// search and listing pages
const (
	searchWorks     = "li.work.blurb.group"
	searchPeople    = "li.user.blurb.group"
	searchBookmarks = "li.bookmark.blurb.group"
	searchTags      = "ol.tag.index.group > li"
	blurbHeading    = "h4.heading > a"
	blurbBookmarker = "h5.byline.heading > a"
	tagCanonical    = "span.canonical"
)

// series page
const (
	seriesSubscribeForm = `form[data-create-value="Subscribe"]`
	seriesBookmarkForm  = `div#bookmark-form > form[action^="/bookmark"]`
	seriesName          = "div#main > h2.heading"
	seriesCreators      = `dl.series.meta.group > dd > a[rel="author"]`
	seriesDates         = "dl.series.meta.group > dd"
	seriesDescriptions  = "dl.series.meta.group > dd > blockquote.userstuff"
	seriesStats         = "dl.series.meta.group > dd.stats > dl.stats > dd"
	seriesWorks         = "ul.series.work.index.group > li"
)

// user profile
const (
	userProfileInfo   = "dl.meta dd"
	userSubscribeForm = "div.primary.header.module form[action]"
	userAvatar        = "img.icon"
	userPseuds        = "dl.meta > dd.pseuds > a"
	userBio           = "div.bio.module > blockquote.userstuff"
	userWorksLink     = `ul.navigation.actions > li > a[href$="works"]`
	userSeriesLink    = `ul.navigation.actions > li > a[href$="series"]`
	userBookmarksLink = `ul.navigation.actions > li > a[href$="bookmarks"]`
	userCollections   = `ul.navigation.actions > li > a[href$="collections"]`
	userGiftsLink     = `ul.navigation.actions > li > a[href$="gifts"]`
)

// flash banners after a form post
const (
	flashNotice = "div.flash.notice"
	flashError  = "div.flash.error"
)
