// internal/workers/data-access/query-catalog/queries/tour.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tour-workers/internal/catalog"
	"tour-workers/internal/models"
)

const (
	defaultCategoryLimit = 20
	maxCategoryLimit     = 100
)

func TourByID(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	tourID, err := stringParam(params, "tourId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	tour, err := catalog.ScanTour(db.QueryRowContext(ctx, `
		SELECT `+catalog.TourColumns+`
		FROM tours
		WHERE id = $1`, tourID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, 0, fmt.Errorf("%w: %s", catalog.ErrTourNotFound, tourID)
	}
	if err != nil {
		return nil, 0, 0, err
	}

	return tour, 1, time.Since(start).Milliseconds(), nil
}

// ToursByCategory matches the category case-insensitively, best rated first.
func ToursByCategory(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	category, err := stringParam(params, "category")
	if err != nil {
		return nil, 0, 0, err
	}

	limit := defaultCategoryLimit
	if l, ok := params["limit"].(int); ok && l > 0 {
		limit = l
	}
	if limit > maxCategoryLimit {
		limit = maxCategoryLimit
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT `+catalog.TourColumns+`
		FROM tours
		WHERE LOWER(category) = LOWER($1)
		ORDER BY rating DESC, id
		LIMIT $2`, category, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	tours := []models.Tour{}
	for rows.Next() {
		t, err := catalog.ScanTour(rows)
		if err != nil {
			return nil, 0, 0, err
		}
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	return tours, len(tours), time.Since(start).Milliseconds(), nil
}
