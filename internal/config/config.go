package config

import (
	"fmt"
	"strings"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/host"
)

const (
	// DefaultListenAddr is used when the adapter runner does not inject an explicit address.
	DefaultListenAddr = "127.0.0.1:50051"
	DefaultLogLevel   = "info"
	DefaultEngine     = EngineStub
)

// Supported speech engines.
const (
	EngineStub = "stub"
	EngineEdge = "edge"
)

// Config captures bootstrap configuration extracted from environment variables
// or injected JSON payload (`NUPI_ADAPTER_CONFIG`).
type Config struct {
	ListenAddr string
	LogLevel   string
	Engine     string

	// Synthesis defaults (optional). Unset fields fall back to host.Defaults.
	VoiceName    *string
	SpeakingRate *float64
	AudioPitch   *float64
	EnableSSML   *bool
	EnableTrace  *bool

	// VoicesFile points at a YAML voice catalog for the edge engine.
	VoicesFile string
	// MetricsAddr enables the Prometheus exporter when set.
	MetricsAddr string
}

// Validate applies defaults and raises an error when required fields are missing.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	switch c.Engine {
	case EngineStub, EngineEdge:
	default:
		return fmt.Errorf("config: engine must be %q or %q, got %q", EngineStub, EngineEdge, c.Engine)
	}
	if c.VoicesFile != "" && c.Engine != EngineEdge {
		return fmt.Errorf("config: voices_file is only supported by the %q engine", EngineEdge)
	}

	if err := host.Validate(c.SynthesisOptions().Resolve(host.Defaults)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SynthesisOptions returns the configured synthesis defaults as partial
// host options.
func (c Config) SynthesisOptions() host.Options {
	return host.Options{
		VoiceName:    c.VoiceName,
		SpeakingRate: c.SpeakingRate,
		AudioPitch:   c.AudioPitch,
		EnableSSML:   c.EnableSSML,
		EnableTrace:  c.EnableTrace,
	}
}
