package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/lifecycle"
	"go.uber.org/zap"
)

var (
	passesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavecast_reconcile_passes_total",
		Help: "Completed reconciliation passes.",
	})
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_reconcile_outcomes_total",
		Help: "Episode processing outcomes per reconciliation pass.",
	}, []string{"outcome"})
)

// Summary is the aggregate of one reconciliation pass. Targeted mode
// returns the same shape with 0/1 counts for interface uniformity.
type Summary struct {
	Checked            int      `json:"checked"`
	TimedOut           int      `json:"timed_out"`
	Completed          int      `json:"completed"`
	Processed          int      `json:"processed"`
	Published          int      `json:"published"`
	RequiresProcessing int      `json:"requires_processing"`
	Errors             []string `json:"errors"`
}

// EpisodeReconciler drives the processor over the due-set on a ticker and
// on demand. Episodes are processed sequentially: post-processing touches
// shared storage paths and cache entries, and sequential execution keeps
// that safe without cross-episode locking.
type EpisodeReconciler struct {
	finder       *lifecycle.Finder
	processor    *lifecycle.Processor
	orchestrator lifecycle.Orchestrator
	orchEnabled  bool
	logger       *zap.Logger
	interval     time.Duration
}

func NewEpisodeReconciler(
	finder *lifecycle.Finder,
	processor *lifecycle.Processor,
	orchestrator lifecycle.Orchestrator,
	cfg *config.Config,
	logger *zap.Logger,
) *EpisodeReconciler {
	return &EpisodeReconciler{
		finder:       finder,
		processor:    processor,
		orchestrator: orchestrator,
		orchEnabled:  cfg.PostProcessingEnabled,
		logger:       logger.Named("episode.reconciler"),
		interval:     cfg.ReconcileInterval,
	}
}

func (r *EpisodeReconciler) Run(ctx context.Context) {
	r.runPass(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runPass(ctx)
		}
	}
}

func (r *EpisodeReconciler) runPass(ctx context.Context) {
	summary := r.ReconcileAll(ctx)
	passesTotal.Inc()
	r.logger.Info("reconcile_pass_finished",
		zap.Int("checked", summary.Checked),
		zap.Int("timed_out", summary.TimedOut),
		zap.Int("completed", summary.Completed),
		zap.Int("published", summary.Published),
		zap.Int("errors", len(summary.Errors)),
	)
}

// ReconcileAll processes the full due-set. A single episode's failure is
// recorded in the error list; iteration always continues.
func (r *EpisodeReconciler) ReconcileAll(ctx context.Context) Summary {
	summary := Summary{Errors: []string{}}

	due := r.finder.FindDue(ctx)
	for _, ep := range due {
		if r.processor.RequiresProcessing(ep) {
			summary.RequiresProcessing++
		}
	}

	for _, ep := range due {
		result := r.processor.Process(ctx, ep, r.orchestrator, r.orchEnabled)
		r.tally(&summary, ep.ID, result)
	}
	return summary
}

// ReconcileOne processes a single episode by id.
func (r *EpisodeReconciler) ReconcileOne(ctx context.Context, episodeID int64) Summary {
	summary := Summary{Errors: []string{}}

	ep := r.finder.FindByID(ctx, episodeID)
	if ep == nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("episode %d not found", episodeID))
		return summary
	}

	if r.processor.RequiresProcessing(ep) {
		summary.RequiresProcessing = 1
	}
	result := r.processor.Process(ctx, ep, r.orchestrator, r.orchEnabled)
	r.tally(&summary, ep.ID, result)
	return summary
}

func (r *EpisodeReconciler) tally(summary *Summary, episodeID int64, result lifecycle.Result) {
	summary.Checked++
	outcomesTotal.WithLabelValues(string(result.Outcome)).Inc()

	switch result.Outcome {
	case lifecycle.OutcomeTimedOut:
		summary.TimedOut++
	case lifecycle.OutcomeCompleted:
		summary.Completed++
	case lifecycle.OutcomeProcessed:
		summary.Processed++
	case lifecycle.OutcomePublished:
		summary.Published++
	}

	if result.Err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("episode %d: %v", episodeID, result.Err))
	}
}
