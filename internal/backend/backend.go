// Package backend selects the speech engine named in configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/config"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine/edge"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine/stub"
)

// New returns the engine called name. voicesFile optionally replaces the
// edge engine's built-in voice catalog.
func New(name, voicesFile string, logger *slog.Logger) (engine.Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch name {
	case config.EngineStub, "":
		if voicesFile != "" {
			return nil, fmt.Errorf("backend: voices file is not supported by the %q engine", config.EngineStub)
		}
		logger.Info("using STUB engine: audio is deterministic silence with synthetic timing")
		return stub.New(logger), nil
	case config.EngineEdge:
		catalog := edge.BuiltinCatalog
		if voicesFile != "" {
			var err error
			catalog, err = edge.LoadCatalog(voicesFile)
			if err != nil {
				return nil, fmt.Errorf("backend: %w", err)
			}
		}
		return edge.New(logger, catalog), nil
	default:
		return nil, fmt.Errorf("backend: unknown engine %q", name)
	}
}
