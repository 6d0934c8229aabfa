// internal/workers/data-access/search-tours/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

var (
	ErrMissingIndex  = errors.New("index name is required")
	ErrInvalidFilter = errors.New("invalid filter")
)

var searchFields = []string{"name^3", "description^2", "destinations", "tags"}

// StringList decodes either a JSON array of strings or a comma-separated
// string. Values are trimmed and deduplicated case-insensitively, keeping
// the first spelling.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		var joined string
		if err2 := json.Unmarshal(data, &joined); err2 != nil {
			return fmt.Errorf("%w: expected string or string array", ErrInvalidFilter)
		}
		raw = strings.Split(joined, ",")
	}
	*l = Dedup(raw)
	return nil
}

func Dedup(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

type Filters struct {
	Category     string     `json:"category,omitempty"`
	MinPrice     *float64   `json:"minPrice,omitempty"`
	MaxPrice     *float64   `json:"maxPrice,omitempty"`
	MaxDuration  *float64   `json:"maxDuration,omitempty"`
	MinRating    *float64   `json:"minRating,omitempty"`
	Destinations StringList `json:"destinations,omitempty"`
	Tags         StringList `json:"tags,omitempty"`
	// AvailableOnly drops tours marked unavailable.
	AvailableOnly bool `json:"availableOnly,omitempty"`
}

func (f Filters) Validate() error {
	for name, v := range map[string]*float64{
		"minPrice":    f.MinPrice,
		"maxPrice":    f.MaxPrice,
		"maxDuration": f.MaxDuration,
		"minRating":   f.MinRating,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidFilter, name)
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("%w: minPrice %.2f exceeds maxPrice %.2f", ErrInvalidFilter, *f.MinPrice, *f.MaxPrice)
	}
	if f.MinRating != nil && *f.MinRating > 5 {
		return fmt.Errorf("%w: minRating must be at most 5", ErrInvalidFilter)
	}
	return nil
}

// SearchQuery is one tour search request.
type SearchQuery struct {
	Index   string
	Text    string
	Filters Filters
	SortBy  string
	From    int
	Size    int
}

// Normalize clamps pagination to [0, MaxSize].
func (q *SearchQuery) Normalize() {
	if q.From < 0 {
		q.From = 0
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	q.Text = strings.TrimSpace(q.Text)
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
}

// BuildQuery renders the request body. Pagination is passed separately.
func BuildQuery(q SearchQuery) (map[string]interface{}, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}
	if err := q.Filters.Validate(); err != nil {
		return nil, err
	}

	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": searchFields,
				"type":   "best_fields",
			},
		})
	}

	f := q.Filters
	if f.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": f.Category},
		})
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		priceRange := map[string]interface{}{}
		if f.MinPrice != nil {
			priceRange["gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			priceRange["lte"] = *f.MaxPrice
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}
	if f.MaxDuration != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"duration": map[string]interface{}{"lte": *f.MaxDuration}},
		})
	}
	if f.MinRating != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"rating": map[string]interface{}{"gte": *f.MinRating}},
		})
	}
	if len(f.Destinations) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"destinations": []string(f.Destinations)},
		})
	}
	if len(f.Tags) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"tags": []string(f.Tags)},
		})
	}
	if f.AvailableOnly {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"availability": true},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}

	switch q.SortBy {
	case "":
	case "rating":
		query["sort"] = []map[string]interface{}{{"rating": "desc"}, {"reviewCount": "desc"}}
	case "price":
		query["sort"] = []map[string]interface{}{{"price": "asc"}}
	case "duration":
		query["sort"] = []map[string]interface{}{{"duration": "asc"}}
	default:
		return nil, fmt.Errorf("%w: unsupported sortBy %q", ErrInvalidFilter, q.SortBy)
	}

	return query, nil
}
