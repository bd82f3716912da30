// Logger construction shared by the C library and the CLI
package logging

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lingtianyulong/img-proc/internal/config"
)

// New initializes a logger with the level and format selected by cfg
func New(cfg config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	format := cfg.LogFormat
	if format == "" {
		format = config.FormatJSON
		if cfg.Debug {
			format = config.FormatText
		}
	}

	if format == config.FormatText {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   cfg.Debug,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	logger.Debug("Debug logging enabled")
	return logger
}
