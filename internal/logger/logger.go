// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ChuLiYu/print-batcher/internal/config"
)

// Setup applies cfg to the standard logrus logger.
func Setup(cfg config.LoggingConfig) error {
	return Configure(logrus.StandardLogger(), cfg)
}

// Configure applies cfg to l.
func Configure(l *logrus.Logger, cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	return nil
}
