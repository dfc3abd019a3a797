package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/entity"
	"github.com/xavierca1/homni-leads/internal/usecase"
)

const staleLeadActor = "system:stale-lead-worker"

// StaleLeadFinder is the read side the worker needs from the repository.
type StaleLeadFinder interface {
	FindStale(ctx context.Context, statuses []entity.LeadStatus, olderThan time.Time) ([]*entity.Lead, error)
}

type StatusUpdater interface {
	Execute(ctx context.Context, input usecase.UpdateLeadStatusInput) (*usecase.LeadOutput, error)
}

// StaleLeadWorker pauses leads that sat in an active stage without updates.
// It goes through the status use case, so the transition table and events apply.
type StaleLeadWorker struct {
	finder       StaleLeadFinder
	updater      StatusUpdater
	staleAfter   time.Duration
	tickInterval time.Duration
	statuses     []entity.LeadStatus
	now          func() time.Time
	log          *logrus.Entry
}

func NewStaleLeadWorker(finder StaleLeadFinder, updater StatusUpdater, staleAfter, tickInterval time.Duration) *StaleLeadWorker {
	return &StaleLeadWorker{
		finder:       finder,
		updater:      updater,
		staleAfter:   staleAfter,
		tickInterval: tickInterval,
		statuses:     watchedStatuses(entity.StatusContacted, entity.StatusNegotiating),
		now:          time.Now,
		log:          logrus.WithField("component", "stale-lead-worker"),
	}
}

// watchedStatuses expands statuses with the legacy names still found in stored rows.
func watchedStatuses(statuses ...entity.LeadStatus) []entity.LeadStatus {
	var out []entity.LeadStatus
	for _, s := range statuses {
		out = append(out, entity.StatusAliases(s)...)
	}
	return out
}

func (w *StaleLeadWorker) Start(ctx context.Context) {
	w.log.WithFields(logrus.Fields{
		"stale_after": w.staleAfter,
		"interval":    w.tickInterval,
	}).Info("🕒 stale lead worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.pauseStaleLeads(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stale lead worker stopped")
			return
		case <-ticker.C:
			w.pauseStaleLeads(ctx)
		}
	}
}

// pauseStaleLeads returns how many leads were moved to paused.
func (w *StaleLeadWorker) pauseStaleLeads(ctx context.Context) int {
	cutoff := w.now().Add(-w.staleAfter)

	leads, err := w.finder.FindStale(ctx, w.statuses, cutoff)
	if err != nil {
		w.log.WithError(err).Error("failed to look up stale leads")
		return 0
	}

	paused := 0
	for _, lead := range leads {
		_, err := w.updater.Execute(ctx, usecase.UpdateLeadStatusInput{
			LeadID:    lead.ID,
			Status:    string(entity.StatusPaused),
			ChangedBy: staleLeadActor,
		})
		if err != nil {
			// Someone touched the lead between the lookup and the update.
			if usecase.ErrorCode(err) == usecase.CodeStatusConflict {
				continue
			}
			w.log.WithError(err).WithField("lead_id", lead.ID).Warn("failed to pause stale lead")
			continue
		}
		paused++
	}

	if paused > 0 {
		w.log.WithField("count", paused).Info("stale leads paused")
	}
	return paused
}
