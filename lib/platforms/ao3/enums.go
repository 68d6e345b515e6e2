package ao3

import (
	"strconv"

	"ao3-go/lib/textutil"
)

type RatingID int

const (
	RatingNotRated           RatingID = 9
	RatingGeneralAudiences   RatingID = 10
	RatingTeenAndUpAudiences RatingID = 11
	RatingMature             RatingID = 12
	RatingExplicit           RatingID = 13
)

type ArchiveWarningID int

const (
	WarningChoseNotToUse ArchiveWarningID = 14
	WarningNone          ArchiveWarningID = 16
	WarningViolence      ArchiveWarningID = 17
	WarningMajorDeath    ArchiveWarningID = 18
	WarningNonCon        ArchiveWarningID = 19
	WarningUnderage      ArchiveWarningID = 20
)

type CategoryID int

const (
	CategoryGen   CategoryID = 21
	CategoryFM    CategoryID = 22
	CategoryMM    CategoryID = 23
	CategoryOther CategoryID = 24
	CategoryFF    CategoryID = 116
	CategoryMulti CategoryID = 2246
)

// Filter is a tri-state search flag, FilterAny leaves it unset.
type Filter string

const (
	FilterAny     Filter = ""
	FilterOnly    Filter = "T"
	FilterExclude Filter = "F"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type TagType string

const (
	TagAny          TagType = ""
	TagFandom       TagType = "Fandom"
	TagCharacter    TagType = "Character"
	TagRelationship TagType = "Relationship"
	TagFreeform     TagType = "Freeform"
)

type BookmarkableType string

const (
	BookmarkableAny      BookmarkableType = ""
	BookmarkableWork     BookmarkableType = "Work"
	BookmarkableSeries   BookmarkableType = "Series"
	BookmarkableExternal BookmarkableType = "External Work"
)

type DownloadFormat string

const (
	FormatAZW3 DownloadFormat = "AZW3"
	FormatEPUB DownloadFormat = "EPUB"
	FormatMOBI DownloadFormat = "MOBI"
	FormatPDF  DownloadFormat = "PDF"
	FormatHTML DownloadFormat = "HTML"
)

func joinIDs[T ~int](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(int(id))
	}
	return out
}

// Language is the archive's short code for a work language.
type Language string

const LanguageUnknown Language = ""

const (
	LanguageEnglish  Language = "en"
	LanguageChinese  Language = "zh"
	LanguageSpanish  Language = "es"
	LanguageFrench   Language = "fr"
	LanguageGerman   Language = "de"
	LanguageJapanese Language = "ja"
	LanguageKorean   Language = "ko"
	LanguageRussian  Language = "ru"
)

var languageNames = map[Language]string{
	"so":  "Soomaali",
	"afr": "Afrikaans",
	"ar":  "العربية",
	"arc": "ܐܪܡܝܐ | ארמיא",
	"hy":  "հայերեն",
	"ast": "asturianu",
	"id":  "Bahasa Indonesia",
	"ms":  "Bahasa Malaysia",
	"bg":  "Български",
	"bn":  "বাংলা",
	"jv":  "Basa Jawa",
	"ba":  "Башҡорт теле",
	"be":  "беларуская",
	"br":  "Brezhoneg",
	"ca":  "Català",
	"cs":  "Čeština",
	"cy":  "Cymraeg",
	"da":  "Dansk",
	"de":  "Deutsch",
	"et":  "eesti keel",
	"el":  "Ελληνικά",
	"en":  "English",
	"es":  "Español",
	"eo":  "Esperanto",
	"eu":  "Euskara",
	"fa":  "فارسی",
	"fr":  "Français",
	"ga":  "Gaeilge",
	"gd":  "Gàidhlig",
	"gl":  "Galego",
	"ko":  "한국어",
	"hi":  "हिन्दी",
	"hr":  "Hrvatski",
	"ia":  "Interlingua",
	"zu":  "isiZulu",
	"is":  "Íslenska",
	"it":  "Italiano",
	"he":  "עברית",
	"sw":  "Kiswahili",
	"ht":  "kreyòl ayisyen",
	"ku":  "Kurdî | کوردی",
	"lv":  "Latviešu valoda",
	"lb":  "Lëtzebuergesch",
	"lt":  "Lietuvių kalba",
	"la":  "Lingua latina",
	"hu":  "Magyar",
	"mk":  "македонски",
	"ml":  "മലയാളം",
	"mt":  "Malti",
	"mr":  "मराठी",
	"my":  "မြန်မာဘာသာ",
	"nl":  "Nederlands",
	"ja":  "日本語",
	"no":  "Norsk",
	"ce":  "Нохчийн мотт",
	"ps":  "پښتو",
	"pl":  "Polski",
	"pa":  "ਪੰਜਾਬੀ",
	"ro":  "Română",
	"ru":  "Русский",
	"sq":  "Shqip",
	"si":  "සිංහල",
	"sk":  "Slovenčina",
	"sr":  "Српски",
	"fi":  "Suomi",
	"sv":  "Svenska",
	"ta":  "தமிழ்",
	"th":  "ไทย",
	"vi":  "Tiếng Việt",
	"tr":  "Türkçe",
	"uk":  "Українська",
	"yi":  "יידיש",
	"zh":  "中文-普通话 國語",
}

var languagesByFoldedName = func() map[string]Language {
	out := make(map[string]Language, len(languageNames))
	for code, name := range languageNames {
		out[textutil.Fold(name)] = code
	}
	return out
}()

// ParseLanguage looks a language up by the name the archive displays,
// ignoring case. Unrecognized names give LanguageUnknown.
func ParseLanguage(name string) Language {
	lang, ok := languagesByFoldedName[textutil.Fold(textutil.Clean(name))]
	if !ok {
		return LanguageUnknown
	}
	return lang
}

// Name is the display name of the language, "Unknown" if it isn't one
// the archive lists.
func (l Language) Name() string {
	name, ok := languageNames[l]
	if !ok {
		return "Unknown"
	}
	return name
}
