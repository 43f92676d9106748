// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/marblerush/economy/internal/config"
)

// Setup applies level, formatter and output from cfg.
// When LOG_FILE is set, output is tee'd to stdout and a rotating file.
// The returned closer flushes the rotating file, if any.
func Setup(cfg *config.Config) io.Closer {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, errLevel := log.ParseLevel(cfg.LogLevel)
	if errLevel != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	if errLevel != nil {
		log.WithError(errLevel).Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
