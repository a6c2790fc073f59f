package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"

	"github.com/emu-ics/report-portal-api/internal/models"
)

type stubReportTypeRepo struct {
	rows     map[string]*models.ReportType
	order    []string
	upserted []string
}

func newStubReportTypeRepo() *stubReportTypeRepo {
	return &stubReportTypeRepo{rows: make(map[string]*models.ReportType)}
}

func (s *stubReportTypeRepo) List(_ context.Context) ([]models.ReportType, error) {
	out := make([]models.ReportType, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.rows[id])
	}
	return out, nil
}

func (s *stubReportTypeRepo) GetByID(_ context.Context, id string) (*models.ReportType, error) {
	rt, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (s *stubReportTypeRepo) Upsert(_ context.Context, rt *models.ReportType) error {
	if _, ok := s.rows[rt.ID]; !ok {
		s.order = append(s.order, rt.ID)
	}
	s.rows[rt.ID] = rt
	s.upserted = append(s.upserted, rt.ID)
	return nil
}

func TestSchemaServiceLoadSeedsBuiltins(t *testing.T) {
	repo := newStubReportTypeRepo()
	svc := NewSchemaService(repo, zap.NewNop())

	require.NoError(t, svc.Load(context.Background()))
	assert.Len(t, repo.upserted, len(builtinReportTypes))

	items := svc.List()
	require.Len(t, items, len(builtinReportTypes))

	schema, err := svc.GetSchema("admissiondata")
	require.NoError(t, err)
	assert.Equal(t, "Admission Data", schema.DisplayName)
	require.Len(t, schema.Columns, 7)
	assert.Equal(t, "Campus", schema.Columns[0].Name)
	assert.Equal(t, models.ColumnKindCategorical, schema.Columns[0].Kind)
	assert.Equal(t, "Female", schema.Columns[6].Name)
	assert.Equal(t, models.ColumnKindBoundedInt, schema.Columns[6].Kind)
}

func TestSchemaServiceLoadDoesNotReseedExisting(t *testing.T) {
	repo := newStubReportTypeRepo()
	columns, err := json.Marshal([]string{"Campus", "Remarks"})
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), &models.ReportType{
		ID: "employee", DisplayName: "Customised Employee", Columns: columns,
	}))
	repo.upserted = nil

	svc := NewSchemaService(repo, zap.NewNop())
	require.NoError(t, svc.Load(context.Background()))

	assert.NotContains(t, repo.upserted, "employee")
	schema, err := svc.GetSchema("employee")
	require.NoError(t, err)
	assert.Equal(t, "Customised Employee", schema.DisplayName)
	assert.Len(t, schema.Columns, 2)
}

func TestSchemaServiceLoadRejectsDuplicateColumns(t *testing.T) {
	repo := newStubReportTypeRepo()
	columns, err := json.Marshal([]string{"Campus", "campus"})
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), &models.ReportType{
		ID: "broken", DisplayName: "Broken", Columns: columns,
	}))

	svc := NewSchemaService(repo, zap.NewNop())
	err = svc.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestSchemaServiceGetSchemaUnknown(t *testing.T) {
	repo := newStubReportTypeRepo()
	svc := NewSchemaService(repo, zap.NewNop())
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.GetSchema("nosuchreport")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSchemaNotFound.Code, appErr.Code)
}
