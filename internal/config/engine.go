package config

import (
	"errors"
	"fmt"
	"os"

	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/sim/tuning"
)

// LoadEngine reads the content catalogs and tuning and builds an engine. A
// missing tuning file falls back to the built-in defaults.
func LoadEngine(configDir, tuningPath string) (*engine.Engine, error) {
	cats, err := catalogs.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load tuning: %w", err)
		}
		tune = tuning.Defaults()
	}
	return engine.New(tune, cats)
}
