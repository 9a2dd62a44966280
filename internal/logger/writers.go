package logger

import (
	"io"
	"os"
	"time"

	"github.com/absmartly/domeditor/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterFactory creates log output writers based on configuration
type WriterFactory struct{}

// NewWriterFactory creates a new writer factory
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{}
}

// CreateConsoleWriter creates a console writer. The "console" format gets a
// human-readable writer; anything else emits raw JSON to stderr.
func (wf *WriterFactory) CreateConsoleWriter(format string) io.Writer {
	if format == "console" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	return os.Stderr
}

// CreateFileWriter creates a rotating file writer.
func (wf *WriterFactory) CreateFileWriter(cfg config.LogConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxLogSizeMB,
		MaxBackups: cfg.MaxLogBackups,
		Compress:   true,
	}
}
