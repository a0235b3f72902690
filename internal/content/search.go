package content

// SearchPath is the content API path the gateway queries.
const SearchPath = "/content-reader/v3/content/search"

// SearchRequest is the body POSTed to SearchPath.
type SearchRequest struct {
	BooleanFilter BooleanFilter `json:"booleanFilter"`
}

// BooleanFilter combines filters with Operator.
type BooleanFilter struct {
	Filters  []Filter `json:"filters"`
	Operator string   `json:"operator"`
}

// Filter combines its ranges with Operator.
type Filter struct {
	Ranges   []Range `json:"ranges"`
	Operator string  `json:"operator"`
}

// Range matches a single metadata field.
type Range struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

func eqFilter(field, value string) Filter {
	return Filter{
		Ranges:   []Range{{Field: field, Value: value, Operator: "EQ"}},
		Operator: "AND",
	}
}

// SearchQuery builds the query selecting the article whose "url" extension
// equals pageURL.
func SearchQuery(pageURL string) SearchRequest {
	return SearchRequest{
		BooleanFilter: BooleanFilter{
			Filters: []Filter{
				eqFilter("metadata.extensions.key", "url"),
				eqFilter("metadata.extensions.value", pageURL),
			},
			Operator: "AND",
		},
	}
}
