package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps the zap logger with additional functionality
type Logger struct {
	*zap.Logger
}

// Config controls level, encoding and the optional rotating log file.
type Config struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level" jsonschema:"title=Level,description=Minimum log level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`
	// Format is json or console
	Format string `yaml:"format" json:"format" jsonschema:"title=Format,description=Log encoding,enum=json,enum=console,default=json" validate:"omitempty,oneof=json console"`
	// File enables a rotating log file in addition to stdout
	File       string `yaml:"file" json:"file" jsonschema:"title=File,description=Optional rotating log file path"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb" jsonschema:"title=Max Size,description=Megabytes before the log file is rotated,default=100" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" jsonschema:"title=Max Backups,description=Rotated files to keep" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days" jsonschema:"title=Max Age,description=Days to keep rotated files" validate:"gte=0"`
	Compress   bool   `yaml:"compress" json:"compress" jsonschema:"title=Compress,description=Gzip rotated files"`
}

// DefaultConfig logs JSON at info level to stdout.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		MaxSizeMB: 100,
	}
}

// NewLogger creates a new logger instance with production configuration
func NewLogger() (*Logger, error) {
	config := zap.NewProductionConfig()

	// Set the output to stdout
	config.OutputPaths = []string{"stdout"}

	// Set the error output to stderr
	config.ErrorOutputPaths = []string{"stderr"}

	// Set the log level
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewLoggerWithConfig builds a logger writing to stdout and, when File is set,
// to a lumberjack rotated file.
func NewLoggerWithConfig(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(cfg.Level, "info")))
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, err
		}

		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)

	return &Logger{
		Logger: zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)),
	}, nil
}

// NewNopLogger returns a logger that discards everything. Used by tests and library callers.
func NewNopLogger() *Logger {
	return &Logger{
		Logger: zap.NewNop(),
	}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
