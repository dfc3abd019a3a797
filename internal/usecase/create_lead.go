package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/homni-leads/internal/entity"
)

type CreateLeadUseCase struct {
	Repo      entity.LeadRepositoryInterface
	Publisher EventPublisher
	Metrics   MetricsRecorder
}

func NewCreateLeadUseCase(repo entity.LeadRepositoryInterface, publisher EventPublisher, metrics MetricsRecorder) *CreateLeadUseCase {
	return &CreateLeadUseCase{
		Repo:      repo,
		Publisher: publisher,
		Metrics:   metricsOrNoop(metrics),
	}
}

func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*LeadOutput, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, &DomainError{Code: CodeValidation, Message: joinValidationErrors(errs)}
	}

	lead, err := entity.NewLead(
		input.Title,
		input.Description,
		strings.TrimSpace(input.Category),
		input.CustomerName,
		input.CustomerEmail,
		input.CustomerPhone,
		input.ZipCode,
	)
	if err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error()}
	}
	lead.CompanyID = strings.TrimSpace(input.CompanyID)
	lead.SubmittedBy = strings.TrimSpace(input.SubmittedBy)
	for k, v := range input.Metadata {
		lead.Metadata[k] = v
	}

	if err := uc.Repo.Create(ctx, lead); err != nil {
		if errors.Is(err, entity.ErrDuplicateLead) {
			return nil, &DomainError{Code: CodeDuplicateLead, Message: "a lead with this id already exists"}
		}
		return nil, technical("failed to persist lead", err)
	}

	uc.Metrics.RecordLeadCreated(lead.Category)

	log := logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "category": lead.Category})
	if uc.Publisher != nil {
		// Publish failures never fail the request.
		if err := uc.Publisher.PublishLeadEvent(ctx, entity.NewLeadCreatedEvent(lead)); err != nil {
			log.WithError(err).Error("lead persisted but lead.created was not published")
		}
	}

	log.Info("lead created")
	out := toLeadOutput(lead)
	return &out, nil
}
