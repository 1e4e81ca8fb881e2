package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pawnline/loanengine/internal/domain/port"
)

var _ port.JobMetrics = (*JobMetrics)(nil)

// JobMetrics counts batch item outcomes as loanengine_job_items_total{job,outcome}.
type JobMetrics struct {
	items metric.Int64Counter
}

// NewJobMetrics registers the job counters on meter.
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	items, err := meter.Int64Counter("loanengine_job_items",
		metric.WithDescription("Batch job items by outcome."),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: job items counter: %w", err)
	}
	return &JobMetrics{items: items}, nil
}

func (m *JobMetrics) RecordItem(ctx context.Context, job, outcome string) {
	m.items.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("outcome", outcome),
	))
}
