// Package config loads and validates the service configuration from a YAML
// or JSON file, with FF_ environment overrides on top.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ananya-001/FleetFlow/core/metrics"
)

type Config struct {
	Store    StoreConfig    `json:"store"`
	Journal  JournalConfig  `json:"journal"`
	Metrics  metrics.Config `json:"metrics"`
	Notifier NotifierConfig `json:"notifier"`
	Auth     AuthConfig     `json:"auth"`
}

// Load reads the file at path, applies FF_ environment overrides (FF_STORE__PATH
// becomes store.path), fills defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("FF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ff_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Store.SetDefaults()
	cfg.Journal.SetDefaults()
	cfg.Auth.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := cfg.Journal.Validate(); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	if err := cfg.Notifier.Validate(); err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &cfg, nil
}
