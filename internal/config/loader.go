package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/absmartly/domeditor/internal/common"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize caps config files at 10MB.
const MaxConfigFileSize = 10 * 1024 * 1024

// LoadGlobalConfig loads the configuration from a file. An empty path returns
// the defaults. Supports both JSON and YAML formats; YAML is chosen when the
// file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath == "" {
		return cfg, nil
	}

	info, err := os.Stat(providedPath)
	if err != nil {
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	}
	if info.Size() > MaxConfigFileSize {
		return nil, common.NewValidationError("config_file", providedPath, "config file exceeds maximum size")
	}

	data, err := os.ReadFile(providedPath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, providedPath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
