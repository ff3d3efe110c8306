package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ntentasd/roomsense/internal/config"
	"github.com/ntentasd/roomsense/internal/pipeline"
)

const usage = `usage: roomsense <command> [flags]

commands:
  extract    decode the raw sensor export into a wide table
  aggregate  collapse the extracted table to one row per second
  prepare    label the clean table and write the training table
  run        extract, aggregate and prepare in one go
  report     print the label distribution and column stats of a training table
  serve      run the HTTP API and the periodic batch worker
`

func newLogger(level, format string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		newLogger("info", "", os.Stderr).Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	err = dispatch(context.Background(), os.Args[1], os.Args[2:], cfg, logger, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	case errors.Is(err, pipeline.ErrMissingInputFile):
		logger.Error().Err(err).Msg("input file not found")
		os.Exit(1)
	default:
		logger.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}
