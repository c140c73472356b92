// Package adapterinfo exposes the identity declared in plugin.yaml.
package adapterinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is the subset of plugin.yaml the adapter reports.
type Metadata struct {
	Name        string
	Slug        string
	GeneratorID string
	Version     string
}

// Info describes the current adapter.
var Info = mustLoadMetadata()

// SynthesisMetadata produces the standard metadata payload attached
// to emitted TTS audio chunks. voiceID is empty when the engine default
// voice was used.
func SynthesisMetadata(engine, voiceID, contentType string) map[string]string {
	meta := map[string]string{
		"generator":    Info.GeneratorID,
		"engine":       engine,
		"content_type": contentType,
	}
	if voiceID != "" {
		meta["voice_id"] = voiceID
	}
	return meta
}

// Version returns the adapter semantic version.
func Version() string {
	return Info.Version
}

func mustLoadMetadata() Metadata {
	data, err := readManifest(manifestDirs())
	if err != nil {
		panic(err)
	}
	meta, err := parseManifest(data)
	if err != nil {
		panic(err)
	}
	return meta
}

// manifestDirs lists where plugin.yaml may live: beside the binary, the
// working directory, then the module root for go test and go run.
func manifestDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if _, file, _, ok := runtime.Caller(0); ok {
		dirs = append(dirs, filepath.Join(filepath.Dir(file), "..", ".."))
	}
	return dirs
}

func readManifest(dirs []string) ([]byte, error) {
	for _, dir := range dirs {
		if data, err := os.ReadFile(filepath.Join(filepath.Clean(dir), "plugin.yaml")); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("adapterinfo: plugin.yaml not found next to binary or source tree")
}

func parseManifest(data []byte) (Metadata, error) {
	var doc struct {
		Metadata struct {
			Name      string `yaml:"name"`
			Slug      string `yaml:"slug"`
			Version   string `yaml:"version"`
			Generator string `yaml:"generator"`
		} `yaml:"metadata"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("adapterinfo: decode manifest: %w", err)
	}

	meta := Metadata{
		Name:        strings.TrimSpace(doc.Metadata.Name),
		Slug:        strings.TrimSpace(doc.Metadata.Slug),
		Version:     strings.TrimSpace(doc.Metadata.Version),
		GeneratorID: strings.TrimSpace(doc.Metadata.Generator),
	}
	if meta.Version == "" {
		return Metadata{}, fmt.Errorf("adapterinfo: metadata.version missing in manifest")
	}
	if meta.Slug == "" {
		return Metadata{}, fmt.Errorf("adapterinfo: metadata.slug missing in manifest")
	}
	if meta.Name == "" {
		meta.Name = meta.Slug
	}
	if meta.GeneratorID == "" {
		meta.GeneratorID = meta.Slug
	}
	return meta, nil
}
