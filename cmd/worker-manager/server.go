// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"tour-workers/internal/analytics"
	"tour-workers/internal/common/database"
	"tour-workers/internal/models"
)

// dependencies holds the optional backing services. A nil field means the
// service is not configured.
type dependencies struct {
	postgres      *database.PostgresClient
	redis         *database.RedisClient
	elasticsearch *database.ElasticsearchClient
}

func (d *dependencies) redisClient() *redis.Client {
	if d.redis == nil {
		return nil
	}
	return d.redis.Client
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type analyticsReader interface {
	GetAnalytics(ctx context.Context) ([]models.AnalyticsRecord, error)
}

// checks lists the configured services by name.
func (d *dependencies) checks() map[string]pinger {
	out := map[string]pinger{}
	if d.postgres != nil {
		out["postgres"] = d.postgres
	}
	if d.redis != nil {
		out["redis"] = d.redis
	}
	if d.elasticsearch != nil {
		out["elasticsearch"] = d.elasticsearch
	}
	return out
}

func newServerMux(zeebe healthChecker, deps *dependencies, reader analyticsReader) *http.ServeMux {
	return newMux(zeebe, deps.checks(), reader)
}

func newMux(zeebe healthChecker, checks map[string]pinger, reader analyticsReader) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		failures := map[string]string{}
		if zeebe != nil {
			if err := zeebe.HealthCheck(ctx); err != nil {
				failures["zeebe"] = err.Error()
			}
		}
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				failures[name] = err.Error()
			}
		}

		if len(failures) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "not ready",
				"failures": failures,
				"time":     time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ready",
			"services": names,
			"time":     time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/analytics/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		records, err := reader.GetAnalytics(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if userID := r.URL.Query().Get("userId"); userID != "" {
			filtered := records[:0]
			for _, rec := range records {
				if rec.UserID == userID {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}
		writeJSON(w, http.StatusOK, analytics.Summarize(records))
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
