package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/karupanerura/tuffie/internal/dump"
	"github.com/mitchellh/mapstructure"
)

const DebugEnv = "TUFFIE_PARSER_DEBUG"

type Config struct {
	Prompt string         `json:"prompt" mapstructure:"prompt"`
	Format dump.Format    `json:"format" mapstructure:"format"`
	Color  dump.ColorMode `json:"color" mapstructure:"color"`
	Debug  bool           `json:"debug" mapstructure:"debug"`
	Listen string         `json:"listen" mapstructure:"listen"`
}

func Default() Config {
	return Config{
		Prompt: "tuffie> ",
		Format: dump.FormatJSON,
		Color:  dump.ColorAuto,
	}
}

// LoadFile reads a YAML or JSON config file over the defaults.
func LoadFile(filePath string) (Config, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Config{}, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	switch ext := filepath.Ext(filePath); ext {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", filePath)
	}
}

func LoadYAML(r io.Reader) (Config, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return Config{}, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return LoadJSON(bytes.NewReader(jsonBytes))
}

func LoadJSON(r io.Reader) (Config, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("json.Decode: %w", err)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("mapstructure.Decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v, err := strconv.ParseBool(getenv(DebugEnv)); err == nil && v {
		c.Debug = true
	}
}

func (c *Config) Validate() error {
	switch c.Format {
	case dump.FormatJSON, dump.FormatYAML:
	default:
		return fmt.Errorf("invalid format: %q", c.Format)
	}

	switch c.Color {
	case dump.ColorAuto, dump.ColorAlways, dump.ColorNever:
	default:
		return fmt.Errorf("invalid color: %q", c.Color)
	}
	return nil
}
