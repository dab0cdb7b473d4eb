// Package logger создаёт zap-логгер приложения.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New создаёт production-логгер с указанным уровнем. Вывод идёт в stderr.
func New(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
