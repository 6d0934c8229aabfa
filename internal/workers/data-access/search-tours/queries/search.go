// internal/workers/data-access/search-tours/queries/search.go
package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tour-workers/internal/models"
)

var (
	ErrIndexNotFound     = errors.New("index not found")
	ErrConnectionFailed  = errors.New("elasticsearch unreachable")
	ErrSearchFailed      = errors.New("search query failed")
	ErrMalformedResponse = errors.New("malformed search response")
)

type Hit struct {
	Tour  models.Tour `json:"tour"`
	Score float64     `json:"score"`
}

type QueryResult struct {
	Hits      []Hit
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			Score  *float64    `json:"_score"`
			Source models.Tour `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func Execute(ctx context.Context, esClient *elasticsearch.Client, q SearchQuery) (*QueryResult, error) {
	q.Normalize()
	body, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index:          []string{q.Index},
		Body:           bytes.NewReader(data),
		From:           &q.From,
		Size:           &q.Size,
		TrackTotalHits: true,
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e errorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		if res.StatusCode == 404 || e.Error.Type == "index_not_found_exception" {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, q.Index)
		}
		return nil, fmt.Errorf("%w: %s %s: %s", ErrSearchFailed, res.Status(), e.Error.Type, e.Error.Reason)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	result := &QueryResult{
		Hits:      make([]Hit, 0, len(r.Hits.Hits)),
		TotalHits: r.Hits.Total.Value,
		Took:      time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}
	for _, h := range r.Hits.Hits {
		hit := Hit{Tour: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}
