package config

import (
	"fmt"

	"github.com/yndnr/nskv/internal/infra/confloader"
)

// Load builds a Config from defaults, the optional file at path, NSKV_*
// environment variables and overrides, then verifies it.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
