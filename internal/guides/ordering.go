package guides

import "strings"

// Ordering is the Django-style ordering token from the query string:
// a field name, optionally prefixed with "-" for descending.
type Ordering string

const (
	OrderPublicationDateDesc Ordering = "-publication_date"
	OrderPublicationDateAsc  Ordering = "publication_date"
	OrderViewCountDesc       Ordering = "-view_count"
	OrderViewCountAsc        Ordering = "view_count"
	OrderTitleDesc           Ordering = "-title"
	OrderTitleAsc            Ordering = "title"
)

var validOrderings = map[Ordering]struct{}{
	OrderPublicationDateDesc: {},
	OrderPublicationDateAsc:  {},
	OrderViewCountDesc:       {},
	OrderViewCountAsc:        {},
	OrderTitleDesc:           {},
	OrderTitleAsc:            {},
}

// ParseOrdering maps a raw query value to a supported ordering,
// defaulting to publication date descending.
func ParseOrdering(raw string) Ordering {
	o := Ordering(strings.TrimSpace(raw))
	if _, ok := validOrderings[o]; ok {
		return o
	}
	return OrderPublicationDateDesc
}

func (o Ordering) field() string {
	return strings.TrimPrefix(string(o), "-")
}

func (o Ordering) descending() bool {
	return strings.HasPrefix(string(o), "-")
}
