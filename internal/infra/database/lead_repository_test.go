package database

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/homni-leads/internal/entity"
)

func TestBuildListQueryNoFilter(t *testing.T) {
	query, args, err := buildListQuery(entity.LeadFilter{Limit: 50})
	require.NoError(t, err)

	assert.NotContains(t, query, "WHERE")
	assert.True(t, strings.HasSuffix(query, "ORDER BY created_at DESC LIMIT $1 OFFSET $2"))
	assert.Equal(t, []any{50, 0}, args)
}

func TestBuildListQueryWithFilters(t *testing.T) {
	query, args, err := buildListQuery(entity.LeadFilter{
		Statuses:  []entity.LeadStatus{entity.StatusQualified, "assigned"},
		CompanyID: "company-1",
		Limit:     20,
		Offset:    40,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE status IN ($1, $2) AND company_id = $3")
	assert.Contains(t, query, "LIMIT $4 OFFSET $5")
	assert.Equal(t, []any{"qualified", "assigned", "company-1", 20, 40}, args)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, []string{"new", "lost"}, statusStrings([]entity.LeadStatus{entity.StatusNew, entity.StatusLost}))
	assert.Empty(t, statusStrings(nil))
}

const testLeadID = "3f2b8c1e-6a4d-4e8b-9c1a-2d7e5f9a0b13"

var leadRowColumns = []string{
	"id", "title", "description", "category", "status",
	"customer_name", "customer_email", "customer_phone", "zip_code",
	"company_id", "submitted_by", "metadata", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*LeadRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLeadRepository(sqlx.NewDb(db, "pgx")), mock
}

func leadRow(status string) *sqlmock.Rows {
	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(leadRowColumns).AddRow(
		testLeadID, "Varmepumpe", "", "heat-pump", status,
		"Kari", "kari@example.no", "", "0150",
		"company-1", "", []byte(`{"source":"wizard"}`), ts, ts,
	)
}

func TestCreateInsertsLead(t *testing.T) {
	repo, mock := newMockRepo(t)
	lead, err := entity.NewLead("Varmepumpe", "", "heat-pump", "Kari", "kari@example.no", "", "0150")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("NULLIF($10, ''), NULLIF($11, '')")).
		WithArgs(lead.ID, "Varmepumpe", "", "heat-pump", "new",
			"Kari", "kari@example.no", "", "0150",
			"", "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), lead))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)
	lead, err := entity.NewLead("Varmepumpe", "", "heat-pump", "Kari", "kari@example.no", "", "")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO leads").WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), lead)
	assert.ErrorIs(t, err, entity.ErrDuplicateLead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1")).
		WithArgs(testLeadID).
		WillReturnRows(leadRow("under_review"))

	lead, err := repo.FindByID(context.Background(), testLeadID)

	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatus("under_review"), lead.Status)
	assert.Equal(t, entity.Metadata{"source": "wizard"}, lead.Metadata)
	assert.Equal(t, "company-1", lead.CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM leads WHERE id").WillReturnRows(sqlmock.NewRows(leadRowColumns))

	_, err := repo.FindByID(context.Background(), testLeadID)

	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDNeverQueries(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "abc")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)

	_, err = repo.UpdateStatus(ctx, "abc", entity.StatusNew, entity.StatusQualified)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusApplied(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs(testLeadID, "assigned", "contacted").
		WillReturnRows(leadRow("contacted"))

	lead, err := repo.UpdateStatus(context.Background(), testLeadID, "assigned", entity.StatusContacted)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusContacted, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE leads").
		WithArgs(testLeadID, "new", "qualified").
		WillReturnRows(sqlmock.NewRows(leadRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(testLeadID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.UpdateStatus(context.Background(), testLeadID, entity.StatusNew, entity.StatusQualified)

	assert.ErrorIs(t, err, entity.ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE leads").WillReturnRows(sqlmock.NewRows(leadRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(testLeadID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.UpdateStatus(context.Background(), testLeadID, entity.StatusNew, entity.StatusQualified)

	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
	assert.NotErrorIs(t, err, entity.ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMapsDriverErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("UPDATE leads").WillReturnError(&pgconn.PgError{Code: "42501"})

	_, err := repo.UpdateStatus(context.Background(), testLeadID, entity.StatusNew, entity.StatusQualified)

	assert.ErrorIs(t, err, entity.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE company_id = $1 GROUP BY status")).
		WithArgs("company-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow("new", 3).
			AddRow("assigned", 2))

	counts, err := repo.CountByStatus(context.Background(), "company-1")

	require.NoError(t, err)
	assert.Equal(t, map[entity.LeadStatus]int{entity.StatusNew: 3, "assigned": 2}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStale(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ($1, $2) AND updated_at < $3 ORDER BY updated_at ASC LIMIT $4")).
		WithArgs("contacted", "under_review", cutoff, staleBatchSize).
		WillReturnRows(leadRow("under_review"))

	leads, err := repo.FindStale(context.Background(),
		[]entity.LeadStatus{entity.StatusContacted, "under_review"}, cutoff)

	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, testLeadID, leads[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStaleWithoutStatusesSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	leads, err := repo.FindStale(context.Background(), nil, time.Now())

	require.NoError(t, err)
	assert.Nil(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}
