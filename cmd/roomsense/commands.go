package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/config"
	"github.com/ntentasd/roomsense/internal/pipeline"
)

var errUsage = errors.New("bad usage")

func dispatch(ctx context.Context, cmd string, args []string, cfg config.Config, logger zerolog.Logger, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Paths.Raw, "raw", cfg.Paths.Raw, "raw sensor export")
	fs.StringVar(&cfg.Paths.Extracted, "extracted", cfg.Paths.Extracted, "extracted table")
	fs.StringVar(&cfg.Paths.Clean, "clean", cfg.Paths.Clean, "per-second clean table")
	fs.StringVar(&cfg.Paths.Train, "train", cfg.Paths.Train, "training table")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "compliance policy")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 for time based")
	publish := fs.Bool("publish", false, "hand run results to the configured backends")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger = logger.With().Str("command", cmd).Logger()

	switch cmd {
	case "extract":
		runner, err := newRunner(cfg, logger)
		if err != nil {
			return err
		}
		_, _, err = runner.Extract(ctx)
		return err

	case "aggregate":
		runner, err := newRunner(cfg, logger)
		if err != nil {
			return err
		}
		t, err := pipeline.LoadTable(cfg.Paths.Extracted)
		if err != nil {
			return err
		}
		_, err = runner.Aggregate(ctx, t)
		return err

	case "prepare":
		runner, err := newRunner(cfg, logger)
		if err != nil {
			return err
		}
		t, err := pipeline.LoadTable(cfg.Paths.Clean)
		if err != nil {
			return err
		}
		_, _, err = runner.Prepare(ctx, t)
		return err

	case "run":
		var sinks []pipeline.Sink
		if *publish {
			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()
			sinks = b.sinks
		}
		runner, err := newRunner(cfg, logger, sinks...)
		if err != nil {
			return err
		}
		summary, _, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, summary)

	case "report":
		samples, err := pipeline.LoadSamples(cfg.Paths.Train)
		if err != nil {
			return err
		}
		summary := pipeline.Summarize(samples)
		summary.Policy = cfg.Policy
		return printJSON(out, summary)

	case "serve":
		return serve(ctx, cfg, logger)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newRunner(cfg config.Config, logger zerolog.Logger, sinks ...pipeline.Sink) (*pipeline.Runner, error) {
	policy, err := compliance.ByName(cfg.Policy)
	if err != nil {
		return nil, err
	}
	prep, err := pipeline.NewPreparer(policy, cfg.Scenarios, cfg.Rand(), cfg.PipelineOptions(), logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(prep, cfg.Paths, cfg.Threshold, logger, sinks...), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
