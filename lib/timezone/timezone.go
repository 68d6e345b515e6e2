package timezone

import (
	"strings"
	"time"
)

// Location is the zone archive dates are interpreted in. The archive
// prints bare calendar dates, so they are pinned to the machine's zone.
var Location = time.Local

const (
	// PageLayout is the date format used on work, series and profile pages.
	PageLayout = "2006-01-02"
	// ListingLayout is the date format used on listing blurbs.
	ListingLayout = "02 Jan 2006"
)

// Parse reads a date in the given layout in Location, returning the
// zero time if the text does not match.
func Parse(layout, text string) time.Time {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(text), Location)
	if err != nil {
		return time.Time{}
	}
	return t
}
