package config

// Default values for configuration sections.
const (
	DefaultHistoryMaxStackSize = 100
	DefaultMaxParentLevels     = 2

	DefaultPreviewPageLoadTimeoutSecs = 30
	DefaultPreviewWindowWidth         = 1280
	DefaultPreviewWindowHeight        = 800

	DefaultDatabasePath = "data/changesets.db"

	DefaultMaxLogSizeMB  = 10
	DefaultMaxLogBackups = 3
)
