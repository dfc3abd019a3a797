package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/entity"
)

const (
	transitionApplied  = "applied"
	transitionNoop     = "noop"
	transitionRejected = "rejected"
	transitionConflict = "conflict"
)

type UpdateLeadStatusUseCase struct {
	Repo      entity.LeadRepositoryInterface
	Publisher EventPublisher
	Metrics   MetricsRecorder
}

func NewUpdateLeadStatusUseCase(repo entity.LeadRepositoryInterface, publisher EventPublisher, metrics MetricsRecorder) *UpdateLeadStatusUseCase {
	return &UpdateLeadStatusUseCase{
		Repo:      repo,
		Publisher: publisher,
		Metrics:   metricsOrNoop(metrics),
	}
}

// Execute reads the lead, checks the transition table and writes the new
// status only if the stored status is still the one that was read.
func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, input UpdateLeadStatusInput) (*LeadOutput, error) {
	if strings.TrimSpace(input.LeadID) == "" {
		return nil, &DomainError{Code: CodeValidation, Message: "lead_id is required"}
	}

	target, ok := entity.ParseStatus(input.Status)
	if !ok {
		return nil, &DomainError{Code: CodeInvalidStatus, Message: fmt.Sprintf("unknown lead status %q", input.Status)}
	}

	lead, err := uc.Repo.FindByID(ctx, input.LeadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead not found"}
		}
		return nil, technical("failed to load lead", err)
	}

	stored := lead.Status
	current := entity.NormalizeStatus(string(stored))

	if current == target {
		uc.Metrics.RecordStatusTransition(current, target, transitionNoop)
		out := toLeadOutput(lead)
		return &out, nil
	}

	if !entity.IsStatusTransitionAllowed(current, target) {
		uc.Metrics.RecordStatusTransition(current, target, transitionRejected)
		return nil, &DomainError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("invalid status transition from %s to %s", current, target),
		}
	}

	updated, err := uc.Repo.UpdateStatus(ctx, lead.ID, stored, target)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrStatusConflict):
			uc.Metrics.RecordStatusTransition(current, target, transitionConflict)
			return nil, &DomainError{
				Code:    CodeStatusConflict,
				Message: "lead status was changed by someone else, reload and try again",
			}
		case errors.Is(err, entity.ErrLeadNotFound):
			return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead not found"}
		default:
			return nil, technical("failed to update lead status", err)
		}
	}

	uc.Metrics.RecordStatusTransition(current, target, transitionApplied)

	log := logrus.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"from":    current,
		"to":      target,
	})

	if uc.Publisher != nil {
		event := entity.NewLeadStatusChangedEvent(updated, current, input.ChangedBy)
		if err := uc.Publisher.PublishLeadEvent(ctx, event); err != nil {
			log.WithError(err).Error("status updated but lead.status_changed was not published")
		}
	}

	log.Info("lead status changed")
	out := toLeadOutput(updated)
	return &out, nil
}
