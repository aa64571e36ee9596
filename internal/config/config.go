// Package config loads toolkit settings from a YAML file and the
// environment. Every field has a default, so a missing config file is
// not an error.
package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/vedakosh/rigveda/core/errors"
)

// DefaultPath is consulted when CONFIG_PATH is unset.
const DefaultPath = "rigveda.yaml"

// Heuristics tunes the extraction pipeline.
type Heuristics struct {
	// HeaderWindow is how many leading block lines the header
	// extractor may consume.
	HeaderWindow int `yaml:"header_window" env:"RIGVEDA_HEADER_WINDOW" env-default:"3"`

	// MinClassifyRunes is the letter count below which a line's script
	// is Unknown.
	MinClassifyRunes int `yaml:"min_classify_runes" env:"RIGVEDA_MIN_CLASSIFY_RUNES" env-default:"3"`

	// MaxPadas caps the pada split of a stanza.
	MaxPadas int `yaml:"max_padas" env:"RIGVEDA_MAX_PADAS" env-default:"4"`

	// MinTranslationLen is the shortest paragraph the Griffith
	// converter keeps.
	MinTranslationLen int `yaml:"min_translation_len" env:"RIGVEDA_MIN_TRANSLATION_LEN" env-default:"10"`
}

// Server configures the browse API.
type Server struct {
	Host string `yaml:"host" env:"RIGVEDA_HOST" env-default:"127.0.0.1"`
	Port int    `yaml:"port" env:"RIGVEDA_PORT" env-default:"8420"`
}

// Config is the root configuration.
type Config struct {
	LogLevel   string     `yaml:"log_level" env:"RIGVEDA_LOG_LEVEL" env-default:"info"`
	LogFormat  string     `yaml:"log_format" env:"RIGVEDA_LOG_FORMAT" env-default:"json"`
	StorePath  string     `yaml:"store_path" env:"RIGVEDA_STORE_PATH" env-default:"rigveda.db"`
	Server     Server     `yaml:"server"`
	Heuristics Heuristics `yaml:"heuristics"`
}

// Load reads configuration from path (CONFIG_PATH, then DefaultPath,
// when empty). A missing file falls back to environment and defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "reading config from environment")
	}
	return &cfg, nil
}
