package config

import (
	"regexp"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/go-playground/validator/v10"
)

// ValidateConfig checks struct-tag constraints plus the cross-field rules the
// tags cannot express (regex tables must compile, file logging needs a path).
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewValidationError("config", cfg, "configuration is nil")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return common.WrapError(err, "configuration failed struct validation")
	}

	if err := validatePatternTable("auto_generated_id_patterns", cfg.SelectorConfig.AutoGeneratedIDPatterns); err != nil {
		return err
	}
	if err := validatePatternTable("auto_generated_class_patterns", cfg.SelectorConfig.AutoGeneratedClassPatterns); err != nil {
		return err
	}

	if cfg.LogConfig.EnableFile && cfg.LogConfig.LogFile == "" {
		return common.NewValidationError("log_file", cfg.LogConfig.LogFile, "log file path required when file logging is enabled")
	}

	return nil
}

func validatePatternTable(field string, patterns []string) error {
	for _, pattern := range patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return common.NewValidationError(field, pattern, "pattern does not compile: "+err.Error())
		}
	}
	return nil
}
