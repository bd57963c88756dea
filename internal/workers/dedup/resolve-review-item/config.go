// internal/workers/dedup/resolve-review-item/config.go
package resolvereviewitem

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
