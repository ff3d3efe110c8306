package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ntentasd/roomsense/pkg/types"
)

const LatestSummaryKey = "summary:latest"

func SummaryKey(runID uuid.UUID) string {
	return fmt.Sprintf("summary:%s", runID)
}

// SummarySink caches every run summary under its run id and as the latest.
type SummarySink struct {
	cache Cache
	ttl   time.Duration
}

func NewSummarySink(c Cache, ttl time.Duration) *SummarySink {
	return &SummarySink{cache: c, ttl: ttl}
}

func (s *SummarySink) Name() string { return "cache" }

func (s *SummarySink) Publish(ctx context.Context, summary types.Summary, _ []types.Sample) error {
	if err := s.cache.Store(ctx, SummaryKey(summary.RunID), summary, s.ttl); err != nil {
		return err
	}
	return s.cache.Store(ctx, LatestSummaryKey, summary, s.ttl)
}

// FetchSummary decodes the summary cached under key.
func FetchSummary(ctx context.Context, c Cache, key string) (types.Summary, error) {
	b, err := c.Fetch(ctx, key)
	if err != nil {
		return types.Summary{}, err
	}
	var summary types.Summary
	if err := json.Unmarshal(b, &summary); err != nil {
		return types.Summary{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return summary, nil
}
