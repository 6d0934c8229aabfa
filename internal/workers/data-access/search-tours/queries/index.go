// internal/workers/data-access/search-tours/queries/index.go
package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tour-workers/internal/models"
)

// IndexMapping keys the filterable fields so term and range filters match exactly.
const IndexMapping = `{
	"mappings": {
		"properties": {
			"id":           {"type": "keyword"},
			"name":         {"type": "text"},
			"description":  {"type": "text"},
			"destinations": {"type": "keyword"},
			"category":     {"type": "keyword"},
			"tags":         {"type": "keyword"},
			"price":        {"type": "float"},
			"duration":     {"type": "float"},
			"rating":       {"type": "float"},
			"reviewCount":  {"type": "integer"},
			"availability": {"type": "boolean"}
		}
	}
}`

// EnsureIndex creates the index with IndexMapping unless it already exists.
func EnsureIndex(ctx context.Context, esClient *elasticsearch.Client, index string) error {
	if index == "" {
		return ErrMissingIndex
	}
	exists, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, esClient)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(IndexMapping),
	}.Do(ctx, esClient)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.String())
	}
	return nil
}

// IndexTours bulk-indexes tours by ID and refreshes the index.
func IndexTours(ctx context.Context, esClient *elasticsearch.Client, index string, tours []models.Tour) (int, error) {
	if index == "" {
		return 0, ErrMissingIndex
	}
	if len(tours) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, t := range tours {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": index, "_id": t.ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(t); err != nil {
			return 0, err
		}
	}

	res, err := esapi.BulkRequest{
		Body:    &buf,
		Refresh: "wait_for",
	}.Do(ctx, esClient)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", res.String())
	}

	var r struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	indexed := 0
	for _, item := range r.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				indexed++
			}
		}
	}
	if r.Errors {
		return indexed, fmt.Errorf("bulk index: %d of %d tours failed", len(tours)-indexed, len(tours))
	}
	return indexed, nil
}
