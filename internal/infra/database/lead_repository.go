package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/homni-leads/internal/entity"
)

const leadColumns = `
	id::text AS id,
	title,
	description,
	category,
	status,
	customer_name,
	customer_email,
	customer_phone,
	zip_code,
	COALESCE(company_id, '') AS company_id,
	COALESCE(submitted_by, '') AS submitted_by,
	metadata,
	created_at,
	updated_at`

const staleBatchSize = 500

type LeadRepository struct {
	DB *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (
			id, title, description, category, status,
			customer_name, customer_email, customer_phone, zip_code,
			company_id, submitted_by, metadata, created_at, updated_at
		) VALUES (
			:id, :title, :description, :category, :status,
			:customer_name, :customer_email, :customer_phone, :zip_code,
			NULLIF(:company_id, ''), NULLIF(:submitted_by, ''), :metadata, :created_at, :updated_at
		)
	`

	if _, err := r.DB.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("insert lead: %w", mapError(err))
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if !isLeadID(id) {
		return nil, fmt.Errorf("find lead %q: %w", id, entity.ErrLeadNotFound)
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	var lead entity.Lead
	if err := r.DB.GetContext(ctx, &lead, query, id); err != nil {
		return nil, fmt.Errorf("find lead %s: %w", id, mapError(err))
	}
	return &lead, nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, err
	}

	leads := []*entity.Lead{}
	if err := r.DB.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", mapError(err))
	}
	return leads, nil
}

func buildListQuery(filter entity.LeadFilter) (string, []any, error) {
	var (
		where []string
		args  []any
	)

	if len(filter.Statuses) > 0 {
		where = append(where, "status IN (?)")
		args = append(args, statusStrings(filter.Statuses))
	}
	if filter.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, filter.CompanyID)
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("build lead list query: %w", err)
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args, nil
}

// UpdateStatus is a compare-and-set on the status column. When no row matches,
// it tells a missing lead apart from one whose status moved in the meantime.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LeadStatus) (*entity.Lead, error) {
	if !isLeadID(id) {
		return nil, fmt.Errorf("update lead %q: %w", id, entity.ErrLeadNotFound)
	}
	query := `
		UPDATE leads
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + leadColumns

	var lead entity.Lead
	err := r.DB.GetContext(ctx, &lead, query, id, string(from), string(to))
	if err == nil {
		return &lead, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update lead %s status: %w", id, mapError(err))
	}

	var exists bool
	if err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id); err != nil {
		return nil, fmt.Errorf("check lead %s: %w", id, mapError(err))
	}
	if !exists {
		return nil, entity.ErrLeadNotFound
	}
	return nil, entity.ErrStatusConflict
}

func (r *LeadRepository) CountByStatus(ctx context.Context, companyID string) (map[entity.LeadStatus]int, error) {
	query := `SELECT status, COUNT(*) AS total FROM leads`
	var args []any
	if companyID != "" {
		query += ` WHERE company_id = $1`
		args = append(args, companyID)
	}
	query += ` GROUP BY status`

	var rows []struct {
		Status entity.LeadStatus `db:"status"`
		Total  int               `db:"total"`
	}
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count leads: %w", mapError(err))
	}

	counts := make(map[entity.LeadStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] += row.Total
	}
	return counts, nil
}

func (r *LeadRepository) FindStale(ctx context.Context, statuses []entity.LeadStatus, olderThan time.Time) ([]*entity.Lead, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+leadColumns+` FROM leads WHERE status IN (?) AND updated_at < ? ORDER BY updated_at ASC LIMIT ?`,
		statusStrings(statuses), olderThan, staleBatchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("build stale lead query: %w", err)
	}

	leads := []*entity.Lead{}
	if err := r.DB.SelectContext(ctx, &leads, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find stale leads: %w", mapError(err))
	}
	return leads, nil
}

// isLeadID reports whether id can exist in the uuid primary key column.
func isLeadID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func statusStrings(statuses []entity.LeadStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
