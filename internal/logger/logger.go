// Package logger builds the application zerolog logger from config.
package logger

import (
	"io"
	stdlog "log"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/config"
	"github.com/rs/zerolog"
)

// New creates a logger instance from the log configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}

// LoggerBuilder provides a fluent interface for building loggers
type LoggerBuilder struct {
	config  config.LogConfig
	factory *WriterFactory
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  config.NewDefaultLogConfig(),
		factory: NewWriterFactory(),
	}
}

// WithConfig sets the logger configuration
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	lb.config = cfg
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(lb.config.LogLevel)
	if err != nil {
		return zerolog.Logger{}, common.WrapErrorf(err, "invalid log level %q", lb.config.LogLevel)
	}

	writers := lb.createWriters()
	if len(writers) == 0 {
		return zerolog.Logger{}, common.NewError("no log output writers configured")
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	stdlog.SetOutput(logger)

	return logger, nil
}

func (lb *LoggerBuilder) createWriters() []io.Writer {
	var writers []io.Writer

	if lb.config.EnableConsole {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.config.LogFormat))
	}
	if lb.config.EnableFile && lb.config.LogFile != "" {
		writers = append(writers, lb.factory.CreateFileWriter(lb.config))
	}

	return writers
}
