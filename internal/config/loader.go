package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load retrieves the adapter configuration from environment variables and validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := Config{
		ListenAddr: DefaultListenAddr,
	}

	if raw, ok := l.Lookup("NUPI_ADAPTER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "NUPI_ADAPTER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "NUPI_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "NUPI_ADAPTER_ENGINE", &cfg.Engine)
	overrideString(l.Lookup, "NUPI_ADAPTER_METRICS_ADDR", &cfg.MetricsAddr)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr   string   `json:"listen_addr"`
		LogLevel     string   `json:"log_level"`
		Engine       string   `json:"engine"`
		VoiceName    *string  `json:"voice_name"`
		SpeakingRate *float64 `json:"speaking_rate"`
		AudioPitch   *float64 `json:"audio_pitch"`
		EnableSSML   *bool    `json:"enable_ssml"`
		EnableTrace  *bool    `json:"enable_trace"`
		VoicesFile   string   `json:"voices_file"`
		MetricsAddr  string   `json:"metrics_addr"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode NUPI_ADAPTER_CONFIG: %w", err)
	}
	if payload.ListenAddr != "" {
		cfg.ListenAddr = payload.ListenAddr
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.Engine != "" {
		cfg.Engine = payload.Engine
	}
	if payload.VoiceName != nil {
		assignPtr(&cfg.VoiceName, strings.TrimSpace(*payload.VoiceName))
	}
	if payload.SpeakingRate != nil {
		assignPtr(&cfg.SpeakingRate, *payload.SpeakingRate)
	}
	if payload.AudioPitch != nil {
		assignPtr(&cfg.AudioPitch, *payload.AudioPitch)
	}
	if payload.EnableSSML != nil {
		assignPtr(&cfg.EnableSSML, *payload.EnableSSML)
	}
	if payload.EnableTrace != nil {
		assignPtr(&cfg.EnableTrace, *payload.EnableTrace)
	}
	if payload.VoicesFile != "" {
		cfg.VoicesFile = payload.VoicesFile
	}
	if payload.MetricsAddr != "" {
		cfg.MetricsAddr = payload.MetricsAddr
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func assignPtr[T any](target **T, value T) {
	v := value
	*target = &v
}
