package mlsclient

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const resortField = "Resort"

// Listing is one property record as returned by the service. Only Resort is
// interpreted by the client; everything else is passed through.
type Listing struct {
	// Resort is the resort name used to group search results
	Resort string
	// Fields maps each leaf element of the record to its text
	Fields map[string]string
	// Raw is the record element as received, for callers needing nested data
	Raw *etree.Element
}

// Get returns the text of the named field, or "" when it is absent.
func (l Listing) Get(name string) string {
	return l.Fields[name]
}

func listingFromElement(el *etree.Element) Listing {
	l := Listing{
		Fields: make(map[string]string),
		Raw:    el,
	}

	for _, child := range el.ChildElements() {
		if len(child.ChildElements()) > 0 {
			continue
		}

		l.Fields[child.Tag] = strings.TrimSpace(child.Text())
	}

	l.Resort = l.Fields[resortField]

	return l
}

// ResortGroup holds the listings of one resort in the order the service returned them.
type ResortGroup struct {
	Resort   string
	Listings []Listing
}

// SearchResultSet is the outcome of a search: listings grouped by resort, groups
// sorted by resort name, plus the number of listings returned.
type SearchResultSet struct {
	Groups []ResortGroup
	Total  int
}

// Resorts returns the group keys in order.
func (s *SearchResultSet) Resorts() []string {
	resorts := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		resorts = append(resorts, g.Resort)
	}

	return resorts
}

// Listings returns the listings of the given resort, or nil when there are none.
func (s *SearchResultSet) Listings(resort string) []Listing {
	i := sort.Search(len(s.Groups), func(i int) bool { return s.Groups[i].Resort >= resort })
	if i < len(s.Groups) && s.Groups[i].Resort == resort {
		return s.Groups[i].Listings
	}

	return nil
}

// Len returns the number of resort groups.
func (s *SearchResultSet) Len() int {
	return len(s.Groups)
}

// newSearchResultSet groups listings by resort keeping their relative order and
// sorts the groups by resort name, comparing bytes (case-sensitive).
func newSearchResultSet(listings []Listing) *SearchResultSet {
	set := &SearchResultSet{
		Groups: make([]ResortGroup, 0),
		Total:  len(listings),
	}

	index := make(map[string]int)
	for _, l := range listings {
		i, ok := index[l.Resort]
		if !ok {
			i = len(set.Groups)
			index[l.Resort] = i
			set.Groups = append(set.Groups, ResortGroup{Resort: l.Resort})
		}

		set.Groups[i].Listings = append(set.Groups[i].Listings, l)
	}

	sort.Slice(set.Groups, func(i, j int) bool {
		return set.Groups[i].Resort < set.Groups[j].Resort
	})

	return set
}
