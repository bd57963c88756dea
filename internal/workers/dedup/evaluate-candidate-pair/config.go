// internal/workers/dedup/evaluate-candidate-pair/config.go
package evaluatecandidatepair

import "time"

type Config struct {
	Timeout       time.Duration
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxCandidates: 25,
	}
}
