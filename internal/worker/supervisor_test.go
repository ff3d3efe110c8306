package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntentasd/roomsense/pkg/types"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (types.Summary, []types.Sample, error) {
	r.calls.Add(1)
	return types.Summary{}, nil, r.err
}

func TestSupervisorRunsOnInterval(t *testing.T) {
	r := &countingRunner{}
	s := NewSupervisor(r, 5*time.Millisecond, zerolog.Nop())
	s.Start(context.Background())

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()

	after := r.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, r.calls.Load())
}

func TestSupervisorSurvivesFailedRuns(t *testing.T) {
	r := &countingRunner{err: errors.New("missing input file")}
	s := NewSupervisor(r, 5*time.Millisecond, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestSupervisorStopsWithParentContext(t *testing.T) {
	r := &countingRunner{}
	s := NewSupervisor(r, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
	s.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	NewSupervisor(&countingRunner{}, time.Second, zerolog.Nop()).Stop()
}
