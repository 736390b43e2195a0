package media

import "strings"

// Category identifies the library section a file belongs to.
type Category string

const (
	CategoryMovie       Category = "movie"
	CategoryTV          Category = "tv"
	CategoryDocumentary Category = "documentary"
	CategoryStandup     Category = "standup"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryMovie, CategoryTV, CategoryDocumentary, CategoryStandup, CategoryOther}
}

// ParseCategory maps a free-form string onto a Category. Unrecognized values
// map to CategoryOther with ok=false so callers can distinguish bad input
// from a genuine "other" classification.
func ParseCategory(value string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies", "film":
		return CategoryMovie, true
	case "tv", "tv_show", "tv show", "tvshow", "series", "episode":
		return CategoryTV, true
	case "documentary", "documentaries", "doc":
		return CategoryDocumentary, true
	case "standup", "stand-up", "stand_up", "comedy":
		return CategoryStandup, true
	case "other", "unknown":
		return CategoryOther, true
	default:
		return CategoryOther, false
	}
}

// String returns the canonical lowercase name.
func (c Category) String() string {
	return string(c)
}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryMovie, CategoryTV, CategoryDocumentary, CategoryStandup, CategoryOther:
		return true
	default:
		return false
	}
}
