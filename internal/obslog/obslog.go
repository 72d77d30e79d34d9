package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// L returns the process logger. It is a no-op until InitFromEnv runs.
func L() *zap.Logger { return globalLogger }

// Named returns a child of the process logger for one component.
func Named(component string) *zap.Logger { return globalLogger.Named(component) }

// InitFromEnv builds the process logger from LOG_* variables. Console and
// file output may be enabled together.
func InitFromEnv() error {
	logger, err := build(settingsFromEnv())
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

type settings struct {
	level      zapcore.Level
	console    bool
	toFile     bool
	showCaller bool
	format     string
	filePath   string
}

func settingsFromEnv() settings {
	s := settings{
		level:      parseLevel(getenvDefault("LOG_LEVEL", "info")),
		console:    strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
		toFile:     strings.EqualFold(getenvDefault("LOG_TO_FILE", "false"), "true"),
		showCaller: strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
		format:     strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", "legacy"))),
		filePath:   strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "scoresheet.log"))),
	}
	if s.format != "legacy" && s.format != "json" && s.format != "console" {
		s.format = "legacy"
	}
	if s.format == "legacy" {
		s.showCaller = true
	}
	return s
}

func build(s settings) (*zap.Logger, error) {
	var cores []zapcore.Core
	if s.console {
		cores = append(cores, zapcore.NewCore(newEncoder(s.format), zapcore.AddSync(os.Stdout), s.level))
	}
	if s.toFile {
		if err := ensureDir(filepath.Dir(s.filePath)); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(s.format), zapcore.AddSync(f), s.level))
	}
	if len(cores) == 0 {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), s.level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if s.showCaller {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string) zapcore.Encoder {
	switch format {
	case "json":
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	case "console":
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	default:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.ConsoleSeparator = " | "
		return zapcore.NewConsoleEncoder(cfg)
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		if strings.EqualFold(strings.TrimSpace(s), "warning") {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return lvl
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
