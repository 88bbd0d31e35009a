package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileName is the name of the config file.
const FileName = "ultralog.yaml"

// FileNameAlt is the alternate name of the config file.
const FileNameAlt = "ultralog.yml"

// EnvPrefix is the prefix every environment variable override carries.
const EnvPrefix = "ULTRALOG_"

// LoadFromDir loads a Config from dir. It looks for ultralog.yaml or
// ultralog.yml, layers ULTRALOG_* environment variables over whatever the
// file set, and applies defaults last. A missing config file is not an
// error: env vars and defaults alone produce a usable Config.
func LoadFromDir(dir string) (*Config, error) {
	k := koanf.New(".")

	if path := findConfigFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	ymlPath := filepath.Join(dir, FileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}
	return ""
}
