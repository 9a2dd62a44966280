// Package config aggregates all configuration sections for the editor and its
// collaborators. Sections load from a single YAML or JSON file and start from
// NewDefault* values so a missing file still yields a usable configuration.
package config

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	EditorConfig    EditorConfig    `json:"editor_config,omitempty" yaml:"editor_config,omitempty"`
	SelectorConfig  SelectorConfig  `json:"selector_config,omitempty" yaml:"selector_config,omitempty"`
	SanitizerConfig SanitizerConfig `json:"sanitizer_config,omitempty" yaml:"sanitizer_config,omitempty"`
	PreviewConfig   PreviewConfig   `json:"preview_config,omitempty" yaml:"preview_config,omitempty"`
	StorageConfig   StorageConfig   `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	LogConfig       LogConfig       `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		EditorConfig:    NewDefaultEditorConfig(),
		SelectorConfig:  NewDefaultSelectorConfig(),
		SanitizerConfig: NewDefaultSanitizerConfig(),
		PreviewConfig:   NewDefaultPreviewConfig(),
		StorageConfig:   NewDefaultStorageConfig(),
		LogConfig:       NewDefaultLogConfig(),
	}
}

// EditorConfig holds settings for the editing session coordinator.
type EditorConfig struct {
	// HistoryMaxStackSize bounds undo depth. Oldest entries are evicted first.
	HistoryMaxStackSize int `json:"history_max_stack_size,omitempty" yaml:"history_max_stack_size,omitempty" validate:"gte=0"`
	// ExperimentID stamps data-absmartly-experiment on touched elements. Empty
	// means a preview-only session.
	ExperimentID string `json:"experiment_id,omitempty" yaml:"experiment_id,omitempty"`
	// ExitRestoresChanges selects the cleanup mode when the session exits via
	// the Escape shortcut or an exit message: true reverts touched elements to
	// their original values, false leaves the applied values for the page SDK.
	ExitRestoresChanges bool `json:"exit_restores_changes" yaml:"exit_restores_changes"`
}

// NewDefaultEditorConfig creates an EditorConfig with default values
func NewDefaultEditorConfig() EditorConfig {
	return EditorConfig{
		HistoryMaxStackSize: DefaultHistoryMaxStackSize,
		ExitRestoresChanges: true,
	}
}

// SelectorConfig tunes selector resolution. The transient/auto-generated
// tables are configurable because the detection heuristics are inherently
// framework-specific and need per-site tuning.
type SelectorConfig struct {
	PreferDataAttributes bool `json:"prefer_data_attributes" yaml:"prefer_data_attributes"`
	AvoidAutoGenerated   bool `json:"avoid_auto_generated" yaml:"avoid_auto_generated"`
	IncludeParentContext bool `json:"include_parent_context" yaml:"include_parent_context"`
	MaxParentLevels      int  `json:"max_parent_levels,omitempty" yaml:"max_parent_levels,omitempty" validate:"gte=0,lte=10"`

	// TransientClassNames are literal class names stripped before selector
	// construction. Prefixes and suffixes extend the denylist by pattern.
	TransientClassNames    []string `json:"transient_class_names,omitempty" yaml:"transient_class_names,omitempty"`
	TransientClassPrefixes []string `json:"transient_class_prefixes,omitempty" yaml:"transient_class_prefixes,omitempty"`
	TransientClassSuffixes []string `json:"transient_class_suffixes,omitempty" yaml:"transient_class_suffixes,omitempty"`

	// AutoGeneratedIDPatterns and AutoGeneratedClassPatterns are regexes that
	// match framework-generated identifiers (hash-looking ids, CSS-in-JS
	// classes) which make fragile selectors.
	AutoGeneratedIDPatterns    []string `json:"auto_generated_id_patterns,omitempty" yaml:"auto_generated_id_patterns,omitempty"`
	AutoGeneratedClassPatterns []string `json:"auto_generated_class_patterns,omitempty" yaml:"auto_generated_class_patterns,omitempty"`
}

// NewDefaultSelectorConfig creates a SelectorConfig with default values
func NewDefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		PreferDataAttributes: true,
		AvoidAutoGenerated:   true,
		IncludeParentContext: true,
		MaxParentLevels:      DefaultMaxParentLevels,
		TransientClassNames: []string{
			"hover", "active", "focus", "focused", "selected", "open", "visible",
		},
		TransientClassPrefixes: []string{
			"is-", "has-", "js-",
		},
		TransientClassSuffixes: []string{
			"-hover", "-active", "-focus", "-enter", "-leave", "-entering", "-leaving",
		},
		AutoGeneratedIDPatterns: []string{
			`^ember\d+$`,
			`^react-[0-9a-f]+$`,
			`^radix-`,
			`^:r[0-9a-z]+:$`,
			`^[0-9a-f]{8,}$`,
			`\d{6,}`,
		},
		AutoGeneratedClassPatterns: []string{
			`^css-[0-9a-z]+$`,
			`^sc-[0-9a-zA-Z]+$`,
			`^jsx-\d+$`,
			`^svelte-[0-9a-z]+$`,
			`^_[0-9a-zA-Z]+_[0-9a-z]{5,}$`,
			`^[0-9a-zA-Z]*[0-9a-f]{6,}[0-9a-zA-Z]*$`,
		},
	}
}

// SanitizerConfig tunes sanitization of dialog-supplied HTML.
type SanitizerConfig struct {
	// AllowDataAttributes keeps data-* attributes on sanitized markup. The
	// editor's own bookkeeping attributes rely on this.
	AllowDataAttributes bool `json:"allow_data_attributes" yaml:"allow_data_attributes"`
	// AllowStyleAttribute keeps inline style attributes.
	AllowStyleAttribute bool `json:"allow_style_attribute" yaml:"allow_style_attribute"`
}

// NewDefaultSanitizerConfig creates a SanitizerConfig with default values
func NewDefaultSanitizerConfig() SanitizerConfig {
	return SanitizerConfig{
		AllowDataAttributes: true,
		AllowStyleAttribute: true,
	}
}

// PreviewConfig configures the headless browser preview bridge.
type PreviewConfig struct {
	Enabled             bool   `json:"enabled" yaml:"enabled"`
	ChromePath          string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	UserDataDir         string `json:"user_data_dir,omitempty" yaml:"user_data_dir,omitempty"`
	PageLoadTimeoutSecs int    `json:"page_load_timeout_secs,omitempty" yaml:"page_load_timeout_secs,omitempty" validate:"gte=0"`
	WaitAfterLoadMs     int    `json:"wait_after_load_ms,omitempty" yaml:"wait_after_load_ms,omitempty" validate:"gte=0"`
	WindowWidth         int    `json:"window_width,omitempty" yaml:"window_width,omitempty" validate:"gte=0"`
	WindowHeight        int    `json:"window_height,omitempty" yaml:"window_height,omitempty" validate:"gte=0"`
}

// NewDefaultPreviewConfig creates a PreviewConfig with default values
func NewDefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Enabled:             false,
		PageLoadTimeoutSecs: DefaultPreviewPageLoadTimeoutSecs,
		WindowWidth:         DefaultPreviewWindowWidth,
		WindowHeight:        DefaultPreviewWindowHeight,
	}
}

// StorageConfig configures local changeset persistence.
type StorageConfig struct {
	// DatabasePath is the SQLite file holding saved changesets.
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
}

// NewDefaultStorageConfig creates a StorageConfig with default values
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DatabasePath: DefaultDatabasePath,
	}
}

// LogConfig configures logging output.
type LogConfig struct {
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`
	EnableConsole bool   `json:"enable_console" yaml:"enable_console"`
	EnableFile    bool   `json:"enable_file" yaml:"enable_file"`
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty" validate:"gte=0"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty" validate:"gte=0"`
}

// NewDefaultLogConfig creates a LogConfig with default values
func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogLevel:      "info",
		LogFormat:     "console",
		EnableConsole: true,
		EnableFile:    false,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
		MaxLogBackups: DefaultMaxLogBackups,
	}
}
