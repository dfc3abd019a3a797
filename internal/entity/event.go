package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventLeadCreated       = "lead.created"
	EventLeadStatusChanged = "lead.status_changed"
)

// LeadEvent is what goes over the event bus. The routing key is Type.
type LeadEvent struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	LeadID         string     `json:"lead_id"`
	CompanyID      string     `json:"company_id,omitempty"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	CustomerName   string     `json:"customer_name"`
	CustomerEmail  string     `json:"customer_email"`
	PreviousStatus LeadStatus `json:"previous_status,omitempty"`
	Status         LeadStatus `json:"status"`
	ChangedBy      string     `json:"changed_by,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

func NewLeadCreatedEvent(l *Lead) LeadEvent {
	return LeadEvent{
		ID:            uuid.New().String(),
		Type:          EventLeadCreated,
		LeadID:        l.ID,
		CompanyID:     l.CompanyID,
		Title:         l.Title,
		Category:      l.Category,
		CustomerName:  l.CustomerName,
		CustomerEmail: l.CustomerEmail,
		Status:        l.Status,
		ChangedBy:     l.SubmittedBy,
		OccurredAt:    time.Now().UTC(),
	}
}

func NewLeadStatusChangedEvent(l *Lead, previous LeadStatus, changedBy string) LeadEvent {
	return LeadEvent{
		ID:             uuid.New().String(),
		Type:           EventLeadStatusChanged,
		LeadID:         l.ID,
		CompanyID:      l.CompanyID,
		Title:          l.Title,
		Category:       l.Category,
		CustomerName:   l.CustomerName,
		CustomerEmail:  l.CustomerEmail,
		PreviousStatus: previous,
		Status:         l.Status,
		ChangedBy:      changedBy,
		OccurredAt:     time.Now().UTC(),
	}
}
