package mlsclient

import (
	"encoding/xml"
	"sort"
)

// SearchParameters holds the filters accepted by GetProperties. Every field is
// optional; an empty string means the filter is not set.
type SearchParameters struct {
	OwnershipUsage  string
	ResortCode      string
	Type            string
	Resort          string
	City            string
	PointsQualifier string
	PointsValue     string
	PriceRange      string
	Season          string
	Region          string
	State           string
	Week            string
	FirstUse        string
	Bed             string
	Bath            string
	PriceLow        string
	PriceHigh       string
}

// searchFieldNames are the element names of the remote Search type, in schema order.
// ResordCode and PointsQualifyer are spelled the way the service spells them.
var searchFieldNames = []string{
	"OwnershipUsage",
	"ResordCode",
	"Type",
	"Resort",
	"City",
	"PointsQualifyer",
	"PointsValue",
	"PriceRange",
	"Season",
	"Region",
	"State",
	"Week",
	"FirstUse",
	"Bed",
	"Bath",
	"PriceLow",
	"PriceHigh",
}

// fields returns pointers to the struct fields in the same order as searchFieldNames
func (p *SearchParameters) fields() []*string {
	return []*string{
		&p.OwnershipUsage,
		&p.ResortCode,
		&p.Type,
		&p.Resort,
		&p.City,
		&p.PointsQualifier,
		&p.PointsValue,
		&p.PriceRange,
		&p.Season,
		&p.Region,
		&p.State,
		&p.Week,
		&p.FirstUse,
		&p.Bed,
		&p.Bath,
		&p.PriceLow,
		&p.PriceHigh,
	}
}

// SearchFields returns the criteria keys NewSearchParameters accepts.
func SearchFields() []string {
	names := make([]string, len(searchFieldNames))
	copy(names, searchFieldNames)

	return names
}

// NewSearchParameters builds a SearchParameters from criteria keyed by the remote
// element names (see SearchFields). Unknown keys are rejected with an
// *UnknownCriteriaError and nothing is assigned.
func NewSearchParameters(criteria map[string]string) (SearchParameters, error) {
	var p SearchParameters

	fields := p.fields()
	index := make(map[string]*string, len(fields))
	for i, name := range searchFieldNames {
		index[name] = fields[i]
	}

	var unknown []string
	for key := range criteria {
		if _, ok := index[key]; !ok {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return SearchParameters{}, &UnknownCriteriaError{Keys: unknown}
	}

	for key, value := range criteria {
		*index[key] = value
	}

	return p, nil
}

// Values returns the fields that are set, keyed by remote element name.
func (p SearchParameters) Values() map[string]string {
	values := make(map[string]string)

	for i, f := range p.fields() {
		if *f != "" {
			values[searchFieldNames[i]] = *f
		}
	}

	return values
}

// MarshalXML writes every field, set or not, in schema order.
func (p SearchParameters) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for i, f := range p.fields() {
		if err := e.EncodeElement(*f, xml.StartElement{Name: xml.Name{Local: searchFieldNames[i]}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}
