package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/homni-leads/internal/entity"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type GetLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewGetLeadUseCase(repo entity.LeadRepositoryInterface) *GetLeadUseCase {
	return &GetLeadUseCase{Repo: repo}
}

func (uc *GetLeadUseCase) Execute(ctx context.Context, id string) (*LeadOutput, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &DomainError{Code: CodeValidation, Message: "lead id is required"}
	}

	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead not found"}
		}
		return nil, technical("failed to load lead", err)
	}

	out := toLeadOutput(lead)
	return &out, nil
}

type ListLeadsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewListLeadsUseCase(repo entity.LeadRepositoryInterface) *ListLeadsUseCase {
	return &ListLeadsUseCase{Repo: repo}
}

func (uc *ListLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput) (*ListLeadsOutput, error) {
	statuses, err := resolveStatusFilter(input.Status, input.Stage)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	out := &ListLeadsOutput{Leads: []LeadOutput{}, Limit: limit, Offset: offset}

	// Stage and status filters that do not overlap cannot match anything.
	if statuses != nil && len(statuses) == 0 {
		return out, nil
	}

	leads, err := uc.Repo.List(ctx, entity.LeadFilter{
		Statuses:  withLegacyAliases(statuses),
		CompanyID: strings.TrimSpace(input.CompanyID),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, technical("failed to list leads", err)
	}

	for _, l := range leads {
		out.Leads = append(out.Leads, toLeadOutput(l))
	}
	return out, nil
}

// resolveStatusFilter turns the comma separated status list and the stage into
// one status set. nil means no filter.
func resolveStatusFilter(rawStatuses, rawStage string) ([]entity.LeadStatus, error) {
	var statuses []entity.LeadStatus

	if strings.TrimSpace(rawStatuses) != "" {
		for _, part := range strings.Split(rawStatuses, ",") {
			s, ok := entity.ParseStatus(part)
			if !ok {
				return nil, &DomainError{Code: CodeInvalidStatus, Message: fmt.Sprintf("unknown lead status %q", strings.TrimSpace(part))}
			}
			statuses = append(statuses, s)
		}
	}

	stage := strings.ToLower(strings.TrimSpace(rawStage))
	if stage == "" {
		return statuses, nil
	}

	inStage := entity.StatusesInStage(entity.PipelineStage(stage))
	if len(inStage) == 0 {
		return nil, &DomainError{Code: CodeInvalidStage, Message: fmt.Sprintf("unknown pipeline stage %q", rawStage)}
	}
	if statuses == nil {
		return inStage, nil
	}

	out := []entity.LeadStatus{}
	for _, s := range statuses {
		if entity.PipelineStageFor(s) == entity.PipelineStage(stage) {
			out = append(out, s)
		}
	}
	return out, nil
}

// withLegacyAliases adds the stored legacy names that normalize to the given statuses.
func withLegacyAliases(statuses []entity.LeadStatus) []entity.LeadStatus {
	if statuses == nil {
		return nil
	}
	seen := map[entity.LeadStatus]bool{}
	var out []entity.LeadStatus
	for _, s := range statuses {
		for _, v := range entity.StatusAliases(s) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

type PipelineSummaryUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewPipelineSummaryUseCase(repo entity.LeadRepositoryInterface) *PipelineSummaryUseCase {
	return &PipelineSummaryUseCase{Repo: repo}
}

func (uc *PipelineSummaryUseCase) Execute(ctx context.Context, companyID string) (*PipelineSummaryOutput, error) {
	counts, err := uc.Repo.CountByStatus(ctx, strings.TrimSpace(companyID))
	if err != nil {
		return nil, technical("failed to count leads", err)
	}

	out := &PipelineSummaryOutput{
		ByStatus: make(map[entity.LeadStatus]int, len(entity.AllLeadStatuses)),
		ByStage:  make(map[entity.PipelineStage]int, len(entity.AllPipelineStages)),
	}
	for _, s := range entity.AllLeadStatuses {
		out.ByStatus[s] = 0
	}
	for _, st := range entity.AllPipelineStages {
		out.ByStage[st] = 0
	}

	for raw, n := range counts {
		s := entity.NormalizeStatus(string(raw))
		out.ByStatus[s] += n
		out.ByStage[entity.PipelineStageFor(s)] += n
		out.Total += n
	}
	return out, nil
}
