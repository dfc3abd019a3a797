package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrStatusConflict   = errors.New("lead status changed concurrently")
	ErrDuplicateLead    = errors.New("lead already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrSessionExpired   = errors.New("session expired")
)

// Lead is a customer service request routed toward a company.
type Lead struct {
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Category      string     `json:"category" db:"category"`
	Status        LeadStatus `json:"status" db:"status"`
	CustomerName  string     `json:"customer_name" db:"customer_name"`
	CustomerEmail string     `json:"customer_email" db:"customer_email"`
	CustomerPhone string     `json:"customer_phone" db:"customer_phone"`
	ZipCode       string     `json:"zip_code" db:"zip_code"`
	CompanyID     string     `json:"company_id,omitempty" db:"company_id"`
	SubmittedBy   string     `json:"submitted_by,omitempty" db:"submitted_by"`
	Metadata      Metadata   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

func NewLead(title, description, category, customerName, customerEmail, customerPhone, zipCode string) (*Lead, error) {
	now := time.Now().UTC()
	lead := &Lead{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(title),
		Description:   strings.TrimSpace(description),
		Category:      strings.TrimSpace(category),
		Status:        StatusNew,
		CustomerName:  strings.TrimSpace(customerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(customerEmail)),
		CustomerPhone: strings.TrimSpace(customerPhone),
		ZipCode:       strings.TrimSpace(zipCode),
		Metadata:      Metadata{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}
	return lead, nil
}

func (l *Lead) Validate() error {
	if l.Title == "" {
		return errors.New("title is required")
	}
	if l.Category == "" {
		return errors.New("category is required")
	}
	if l.CustomerEmail == "" {
		return errors.New("customer email is required")
	}
	if !l.Status.Valid() {
		return fmt.Errorf("unknown status %q", l.Status)
	}
	return nil
}

// Stage returns the pipeline stage the lead is displayed under.
func (l *Lead) Stage() PipelineStage {
	return PipelineStageFor(l.Status)
}

// ParseLead builds a Lead from a loosely typed row. Missing strings become ""
// and a missing or unrecognised status becomes StatusNew.
func ParseLead(raw map[string]any) Lead {
	lead := Lead{
		ID:            stringField(raw, "id"),
		Title:         stringField(raw, "title"),
		Description:   stringField(raw, "description"),
		Category:      stringField(raw, "category"),
		Status:        NormalizeStatus(stringField(raw, "status")),
		CustomerName:  stringField(raw, "customer_name"),
		CustomerEmail: stringField(raw, "customer_email"),
		CustomerPhone: stringField(raw, "customer_phone"),
		ZipCode:       stringField(raw, "zip_code"),
		CompanyID:     stringField(raw, "company_id"),
		SubmittedBy:   stringField(raw, "submitted_by"),
		Metadata:      Metadata{},
		CreatedAt:     timeField(raw, "created_at"),
		UpdatedAt:     timeField(raw, "updated_at"),
	}

	if meta, ok := raw["metadata"].(map[string]any); ok {
		lead.Metadata = metadataFromMap(meta)
	}
	return lead
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

func timeField(raw map[string]any, key string) time.Time {
	switch v := raw[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// LeadFilter narrows List results. Zero values mean "any".
type LeadFilter struct {
	Statuses  []LeadStatus
	CompanyID string
	Limit     int
	Offset    int
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]*Lead, error)
	// UpdateStatus only writes when the stored status still equals from.
	UpdateStatus(ctx context.Context, id string, from, to LeadStatus) (*Lead, error)
	CountByStatus(ctx context.Context, companyID string) (map[LeadStatus]int, error)
	FindStale(ctx context.Context, statuses []LeadStatus, olderThan time.Time) ([]*Lead, error)
}
