// internal/workers/booking/send-booking-confirmation/config.go
package sendbookingconfirmation

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
