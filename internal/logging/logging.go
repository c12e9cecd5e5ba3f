// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/sprint-board/internal/model"
)

// New builds a logger from cfg. When toFile is set, output goes to cfg.File
// (relative paths resolve against the config directory) so an interactive
// terminal stays clean; otherwise it goes to stderr.
func New(cfg model.LogConfig, toFile bool) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if toFile {
		path := FilePath(cfg)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// FilePath resolves the log file location.
func FilePath(cfg model.LogConfig) string {
	name := cfg.File
	if name == "" {
		name = "sprintboard.log"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(model.ConfigDir(), name)
}
