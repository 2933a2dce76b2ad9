package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger builds the process logger: stderr (human-readable unless
// LOG_FORMAT=json) plus a size-rotated JSON file when LOG_FILE is set.
func SetupLogger(cfg Config) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFormat != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	writers := []io.Writer{out}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    50, // MB
				MaxBackups: 5,
				MaxAge:     30, // days
				Compress:   true,
			})
		}
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Str("service", "cargo-recon")
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	logger := ctx.Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}
