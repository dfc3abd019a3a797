package usecase

import (
	"time"

	"github.com/xavierca1/homni-leads/internal/entity"
)

type CreateLeadInput struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	ZipCode       string            `json:"zip_code"`
	CompanyID     string            `json:"company_id"`
	SubmittedBy   string            `json:"submitted_by"`
	Metadata      map[string]string `json:"metadata"`
}

type UpdateLeadStatusInput struct {
	LeadID    string `json:"lead_id"`
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
}

type ListLeadsInput struct {
	Status    string `json:"status"`
	Stage     string `json:"stage"`
	CompanyID string `json:"company_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

type LeadOutput struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      string               `json:"category"`
	Status        entity.LeadStatus    `json:"status"`
	Stage         entity.PipelineStage `json:"stage"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	CustomerPhone string               `json:"customer_phone"`
	ZipCode       string               `json:"zip_code"`
	CompanyID     string               `json:"company_id,omitempty"`
	SubmittedBy   string               `json:"submitted_by,omitempty"`
	Metadata      map[string]string    `json:"metadata,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type ListLeadsOutput struct {
	Leads  []LeadOutput `json:"leads"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type PipelineSummaryOutput struct {
	Total    int                          `json:"total"`
	ByStatus map[entity.LeadStatus]int    `json:"by_status"`
	ByStage  map[entity.PipelineStage]int `json:"by_stage"`
}

func toLeadOutput(l *entity.Lead) LeadOutput {
	status := entity.NormalizeStatus(string(l.Status))
	return LeadOutput{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Category:      l.Category,
		Status:        status,
		Stage:         entity.PipelineStageFor(status),
		CustomerName:  l.CustomerName,
		CustomerEmail: l.CustomerEmail,
		CustomerPhone: l.CustomerPhone,
		ZipCode:       l.ZipCode,
		CompanyID:     l.CompanyID,
		SubmittedBy:   l.SubmittedBy,
		Metadata:      l.Metadata,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}
