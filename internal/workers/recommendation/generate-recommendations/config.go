// internal/workers/recommendation/generate-recommendations/config.go
package generaterecommendations

import "time"

type Config struct {
	Timeout time.Duration
	// SourceName labels catalog load metrics, e.g. "static" or "postgres".
	SourceName string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		SourceName: "static",
	}
}
