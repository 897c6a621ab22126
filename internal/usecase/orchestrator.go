package usecase

import (
	"context"
	"log/slog"
	"time"

	"kvibe/internal/window"
)

// Result is the structured outcome of one pipeline invocation, serialized back
// to the scheduler that hit the trigger endpoint.
type Result struct {
	Phase     string         `json:"phase"`
	Message   string         `json:"message,omitempty"`
	Discovery *CollectResult `json:"discovery,omitempty"`
	Analysis  *EnrichResult  `json:"analysis,omitempty"`
	Release   *ReleaseResult `json:"release,omitempty"`
}

// Orchestrator evaluates the current window and dispatches to exactly one
// phase component per invocation.
type Orchestrator struct {
	schedule  window.Schedule
	collector *Collector
	enricher  *Enricher
	publisher *Publisher
	logger    *slog.Logger
}

// NewOrchestrator wires the evaluator and the three phase components.
func NewOrchestrator(schedule window.Schedule, collector *Collector, enricher *Enricher, publisher *Publisher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		schedule:  schedule,
		collector: collector,
		enricher:  enricher,
		publisher: publisher,
		logger:    logger,
	}
}

// RunOnce performs the work of whichever phase window contains now, or nothing
// outside all windows. The caller supplies the clock; nothing below this point
// consults the system time.
func (o *Orchestrator) RunOnce(ctx context.Context, now time.Time) (Result, error) {
	phase := o.schedule.Evaluate(now)
	result := Result{Phase: string(phase)}

	switch phase {
	case window.PhaseDiscovery:
		o.logger.Info("discovery phase", "minute", now.Minute())
		r, err := o.collector.Run(ctx, now, o.schedule.DiscoveryDeadline(now))
		result.Discovery = &r
		return result, err

	case window.PhaseAnalysis:
		o.logger.Info("analysis phase", "minute", now.Minute())
		r, err := o.enricher.Run(ctx)
		result.Analysis = &r
		return result, err

	case window.PhaseRelease:
		archiveDue := o.schedule.ArchiveDue(now)
		o.logger.Info("release phase", "minute", now.Minute(), "archive", archiveDue)
		r, err := o.publisher.Run(ctx, now, archiveDue)
		result.Release = &r
		return result, err

	default:
		result.Message = "no phase window active"
		return result, nil
	}
}
