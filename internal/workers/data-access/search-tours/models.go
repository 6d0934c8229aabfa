// internal/workers/data-access/search-tours/models.go
package searchtours

import (
	"tour-workers/internal/workers/data-access/search-tours/queries"
)

type Input struct {
	IndexName  string          `json:"indexName,omitempty"`
	Query      string          `json:"query,omitempty"`
	Filters    queries.Filters `json:"filters"`
	SortBy     string          `json:"sortBy,omitempty"`
	Pagination Pagination      `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Tours     []queries.Hit `json:"tours"`
	TotalHits int64         `json:"totalHits"`
	MaxScore  float64       `json:"maxScore"`
	Took      int64         `json:"took"` // milliseconds
}
