package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerEnv configures the decision server.
type ServerEnv struct {
	Address         string        `env:"FUZZYCTL_ADDRESS" envDefault:"127.0.0.1:8080"`
	RuleSetFiles    []string      `env:"FUZZYCTL_RULESET_FILES" envSeparator:","`
	ShutdownTimeout time.Duration `env:"FUZZYCTL_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	MaxSteps        int           `env:"FUZZYCTL_MAX_STEPS" envDefault:"4096"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
