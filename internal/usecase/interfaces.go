package usecase

import (
	"context"

	"github.com/xavierca1/homni-leads/internal/entity"
)

type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event entity.LeadEvent) error
}

type MetricsRecorder interface {
	RecordLeadCreated(category string)
	RecordStatusTransition(from, to entity.LeadStatus, result string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLeadCreated(string) {}

func (noopMetrics) RecordStatusTransition(entity.LeadStatus, entity.LeadStatus, string) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
