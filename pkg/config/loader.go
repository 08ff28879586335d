package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg, a pointer to a struct with `env` tags, from the process
// environment. Fields marked `required:"true"` or `env:",required"` fail when unset.
func Load(cfg any) error {
	return LoadWithEnvironment(cfg, nil)
}

// LoadWithEnvironment is like Load but reads from the given map instead of the
// process environment when environment is non-nil. Used by tests.
func LoadWithEnvironment(cfg any, environment map[string]string) error {
	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
