// internal/workers/data-access/search-tours/config.go
package searchtours

import "time"

type Config struct {
	Timeout time.Duration
	// Index is used when the job does not name one.
	Index string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Index:   "tours",
	}
}
