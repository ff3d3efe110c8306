package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ntentasd/roomsense/internal/aggregate"
	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/csvio"
	"github.com/ntentasd/roomsense/internal/extract"
	"github.com/ntentasd/roomsense/internal/metrics"
	"github.com/ntentasd/roomsense/pkg/types"
)

// Sink receives the result of a successful run.
type Sink interface {
	Name() string
	Publish(ctx context.Context, summary types.Summary, samples []types.Sample) error
}

// Paths of the stage files. An empty intermediate path skips writing it.
type Paths struct {
	Raw       string
	Extracted string
	Clean     string
	Train     string
}

type Runner struct {
	mu        sync.Mutex
	prep      *Preparer
	paths     Paths
	threshold float64
	sinks     []Sink
	logger    zerolog.Logger
}

func NewRunner(prep *Preparer, paths Paths, threshold float64, logger zerolog.Logger, sinks ...Sink) *Runner {
	return &Runner{
		prep:      prep,
		paths:     paths,
		threshold: threshold,
		sinks:     sinks,
		logger:    logger.With().Str("component", "runner").Logger(),
	}
}

func tracer() trace.Tracer {
	return otel.Tracer("roomsense-pipeline")
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func observe(stage string, start time.Time, rows int) {
	metrics.StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	metrics.StageRowsTotal.WithLabelValues(stage).Add(float64(rows))
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInputFile, path)
	}
	return f, err
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// LoadTable reads a stage table from disk.
func LoadTable(path string) (*types.Table, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := csvio.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadSamples reads a training table from disk.
func LoadSamples(path string) ([]types.Sample, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := csvio.ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// Extract reads the raw export and writes the extracted table.
func (r *Runner) Extract(ctx context.Context) (*types.Table, extract.Stats, error) {
	_, span := tracer().Start(ctx, "pipeline.Extract")
	defer span.End()
	start := time.Now()

	f, err := openInput(r.paths.Raw)
	if err != nil {
		return nil, extract.Stats{}, fail(span, err)
	}
	defer f.Close()

	raw, err := csvio.ReadRaw(f)
	if err != nil {
		return nil, extract.Stats{}, fail(span, fmt.Errorf("%s: %w", r.paths.Raw, err))
	}
	t, stats := extract.Records(raw)
	metrics.MalformedPayloadsTotal.Add(float64(stats.Malformed))
	if stats.Malformed > 0 {
		r.logger.Debug().Int("malformed", stats.Malformed).Msg("payloads could not be decoded")
	}

	if r.paths.Extracted != "" {
		if err := writeFile(r.paths.Extracted, func(w io.Writer) error { return csvio.WriteTable(w, t) }); err != nil {
			return nil, stats, fail(span, fmt.Errorf("write extracted: %w", err))
		}
	}

	span.SetAttributes(
		attribute.Int("rows", stats.Rows),
		attribute.Int("malformed", stats.Malformed),
		attribute.Int("unknown_sensor", stats.Unknown),
	)
	observe("extract", start, len(t.Rows))
	r.logger.Info().
		Int("rows", stats.Rows).
		Int("malformed", stats.Malformed).
		Int("unknown_sensor", stats.Unknown).
		Msg("extracted raw records")
	return t, stats, nil
}

// Aggregate collapses a table to one row per second and resolves missing
// values, writing the clean table.
func (r *Runner) Aggregate(ctx context.Context, t *types.Table) (aggregate.Result, error) {
	_, span := tracer().Start(ctx, "pipeline.Aggregate")
	defer span.End()
	start := time.Now()

	res := aggregate.Clean(aggregate.PerSecond(t), r.threshold)
	metrics.MissingRatio.Set(res.MissingRatio)

	if r.paths.Clean != "" {
		if err := writeFile(r.paths.Clean, func(w io.Writer) error { return csvio.WriteTable(w, res.Table) }); err != nil {
			return res, fail(span, fmt.Errorf("write clean: %w", err))
		}
	}

	span.SetAttributes(
		attribute.Float64("missing_ratio", res.MissingRatio),
		attribute.String("decision", string(res.Decision)),
		attribute.Int("rows", len(res.Table.Rows)),
	)
	observe("aggregate", start, len(res.Table.Rows))
	r.logger.Info().
		Float64("missing_ratio", res.MissingRatio).
		Float64("threshold", r.threshold).
		Str("decision", string(res.Decision)).
		Int("dropped", res.Dropped).
		Int("rows", len(res.Table.Rows)).
		Msg("aggregated per second")
	return res, nil
}

// Prepare labels a clean table and writes the training table. The strict
// policy selects the strict preparation path.
func (r *Runner) Prepare(ctx context.Context, t *types.Table) ([]types.Sample, Report, error) {
	_, span := tracer().Start(ctx, "pipeline.Prepare")
	defer span.End()
	start := time.Now()

	policy := r.prep.Policy().Name()
	var (
		samples []types.Sample
		rep     Report
	)
	if policy == compliance.PolicyStrict {
		samples, rep = r.prep.PrepareStrict(t)
	} else {
		samples, rep = r.prep.Prepare(t)
	}
	for status, n := range rep.Labels {
		metrics.LabelsTotal.WithLabelValues(policy, string(status)).Add(float64(n))
	}

	if r.paths.Train != "" {
		if err := writeFile(r.paths.Train, func(w io.Writer) error { return csvio.WriteSamples(w, samples) }); err != nil {
			return nil, rep, fail(span, fmt.Errorf("write train: %w", err))
		}
	}

	span.SetAttributes(
		attribute.String("policy", policy),
		attribute.Int("gap_rows", rep.GapRows),
		attribute.Int("invalid", rep.Invalid),
		attribute.Int("rows", len(samples)),
	)
	observe("prepare", start, len(samples))
	r.logger.Info().
		Str("policy", policy).
		Strs("synthesized", rep.Synthesized).
		Int("gap_rows", rep.GapRows).
		Int("dropped", rep.Dropped).
		Int("invalid", rep.Invalid).
		Int("rows", len(samples)).
		Msg("prepared training samples")
	return samples, rep, nil
}

// Run executes extract, aggregate and prepare end to end, then hands the
// result to every sink. Sink failures are logged and do not fail the run.
// Runs are serialized.
func (r *Runner) Run(ctx context.Context) (types.Summary, []types.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := tracer().Start(ctx, "pipeline.Run")
	defer span.End()

	summary, samples, err := r.run(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return types.Summary{}, nil, fail(span, err)
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.String("run_id", summary.RunID.String()))
	span.SetStatus(codes.Ok, "")

	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, summary, samples); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(sink.Name()).Inc()
			r.logger.Error().Err(err).Str("sink", sink.Name()).Msg("failed to publish run")
		}
	}
	return summary, samples, nil
}

func (r *Runner) run(ctx context.Context) (types.Summary, []types.Sample, error) {
	t, stats, err := r.Extract(ctx)
	if err != nil {
		return types.Summary{}, nil, err
	}
	res, err := r.Aggregate(ctx, t)
	if err != nil {
		return types.Summary{}, nil, err
	}
	samples, rep, err := r.Prepare(ctx, res.Table)
	if err != nil {
		return types.Summary{}, nil, err
	}

	summary := Summarize(samples)
	summary.RunID = uuid.New()
	summary.Policy = r.prep.Policy().Name()
	summary.CreatedAt = time.Now().UTC()
	summary.RawRows = stats.Rows
	summary.Malformed = stats.Malformed
	summary.CleanRows = len(res.Table.Rows)
	summary.MissingRatio = res.MissingRatio
	summary.Decision = res.Decision
	summary.GapRows = rep.GapRows
	summary.Invalid = rep.Invalid
	return summary, samples, nil
}
