package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emu-ics/report-portal-api/internal/dto"
	"github.com/emu-ics/report-portal-api/internal/models"
	appErrors "github.com/emu-ics/report-portal-api/pkg/errors"
)

type reportTypeStore interface {
	List(ctx context.Context) ([]models.ReportType, error)
	GetByID(ctx context.Context, id string) (*models.ReportType, error)
	Upsert(ctx context.Context, rt *models.ReportType) error
}

// reportTypeDefinition is a built-in registry entry seeded on first start.
type reportTypeDefinition struct {
	ID          string
	DisplayName string
	Columns     []string
}

var builtinReportTypes = []reportTypeDefinition{
	{"employee", "Employee Counts", []string{"Campus", "Department", "Academic Year", "Male", "Female"}},
	{"admissiondata", "Admission Data", []string{"Campus", "Semester", "Academic Year", "Category", "Program", "Male", "Female"}},
	{"graduates", "Graduates", []string{"Campus", "Semester", "Academic Year", "Program", "Male", "Female"}},
	{"waterconsumption", "Water Consumption", []string{"Campus", "Reading Date", "Duration", "Consumption", "Remarks"}},
	{"electricityconsumption", "Electricity Consumption", []string{"Campus", "Reading Date", "Duration", "Consumption", "Remarks"}},
}

// Fixed option vocabularies for categorical columns, keyed by normalized
// column name. Loaded once; the registry fails fast at load time when a
// categorical column resolves to an empty vocabulary.
var categoricalOptions = map[string][]string{
	"sex":           {"Male", "Female"},
	"campus":        {"Main Campus", "North Campus", "City Campus"},
	"semester":      {"Fall", "Spring", "Summer"},
	"year":          academicYears(),
	"academic year": academicYears(),
}

var numericHints = []string{"male", "female", "count", "number", "duration", "consumption"}

const boundedIntMax = 10000000

func academicYears() []string {
	current := time.Now().Year()
	years := make([]string, 0, current-2014)
	for y := 2015; y <= current; y++ {
		years = append(years, fmt.Sprintf("%d-%d", y, y+1))
	}
	return years
}

// ResolveColumn maps a column name to its ColumnSpec. The mapping is
// deterministic and total: every name resolves to exactly one kind, with
// free text as the fallback.
func ResolveColumn(name string) models.ColumnSpec {
	normalized := strings.ToLower(strings.TrimSpace(name))

	if strings.Contains(normalized, "date") || strings.Contains(normalized, "generated") {
		return models.ColumnSpec{Name: name, Kind: models.ColumnKindDate}
	}
	if options, ok := categoricalOptions[normalized]; ok {
		return models.ColumnSpec{Name: name, Kind: models.ColumnKindCategorical, Options: options}
	}
	for _, hint := range numericHints {
		if strings.Contains(normalized, hint) {
			return models.ColumnSpec{Name: name, Kind: models.ColumnKindBoundedInt, Min: 0, Max: boundedIntMax}
		}
	}
	return models.ColumnSpec{Name: name, Kind: models.ColumnKindFreeText}
}

// SchemaService is the schema registry: the authoritative mapping from
// report type identifier to its ordered, kind-resolved column list. Schemas
// are loaded once and immutable at runtime.
type SchemaService struct {
	repo   reportTypeStore
	logger *zap.Logger

	mu      sync.RWMutex
	schemas map[string]*models.ReportTypeSchema
	order   []string
}

// NewSchemaService constructs the registry.
func NewSchemaService(repo reportTypeStore, logger *zap.Logger) *SchemaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaService{
		repo:    repo,
		logger:  logger,
		schemas: make(map[string]*models.ReportTypeSchema),
	}
}

// Load seeds the built-in report types and resolves every registered schema.
// Column kinds are resolved here, once, and validated: a duplicate column
// name or a categorical column without options aborts startup.
func (s *SchemaService) Load(ctx context.Context) error {
	for _, def := range builtinReportTypes {
		if _, err := s.repo.GetByID(ctx, def.ID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("check report type %s: %w", def.ID, err)
			}
			columns, err := json.Marshal(def.Columns)
			if err != nil {
				return fmt.Errorf("marshal columns for %s: %w", def.ID, err)
			}
			rt := &models.ReportType{ID: def.ID, DisplayName: def.DisplayName, Columns: columns}
			if err := s.repo.Upsert(ctx, rt); err != nil {
				return fmt.Errorf("seed report type %s: %w", def.ID, err)
			}
			s.logger.Info("seeded report type", zap.String("report_type", def.ID))
		}
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load report types: %w", err)
	}

	schemas := make(map[string]*models.ReportTypeSchema, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		schema, err := resolveSchema(row)
		if err != nil {
			return err
		}
		schemas[schema.ID] = schema
		order = append(order, schema.ID)
	}

	s.mu.Lock()
	s.schemas = schemas
	s.order = order
	s.mu.Unlock()

	s.logger.Info("schema registry loaded", zap.Int("report_types", len(order)))
	return nil
}

// GetSchema returns the resolved schema for a report type identifier.
func (s *SchemaService) GetSchema(reportTypeID string) (*models.ReportTypeSchema, error) {
	s.mu.RLock()
	schema, ok := s.schemas[reportTypeID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrSchemaNotFound, fmt.Sprintf("unknown report type %q", reportTypeID))
	}
	return schema, nil
}

// List returns every registered schema in registry order.
func (s *SchemaService) List() []dto.ReportTypeItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]dto.ReportTypeItem, 0, len(s.order))
	for _, id := range s.order {
		schema := s.schemas[id]
		items = append(items, dto.ReportTypeItem{
			ID:          schema.ID,
			DisplayName: schema.DisplayName,
			Columns:     schema.Columns,
		})
	}
	return items
}

func resolveSchema(row models.ReportType) (*models.ReportTypeSchema, error) {
	var names []string
	if err := json.Unmarshal(row.Columns, &names); err != nil {
		return nil, fmt.Errorf("report type %s has malformed columns: %w", row.ID, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("report type %s has no columns", row.ID)
	}

	seen := make(map[string]struct{}, len(names))
	columns := make([]models.ColumnSpec, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("report type %s has duplicate column %q", row.ID, name)
		}
		seen[key] = struct{}{}

		spec := ResolveColumn(name)
		if spec.Kind == models.ColumnKindCategorical && len(spec.Options) == 0 {
			return nil, fmt.Errorf("report type %s column %q resolves to categorical with no options", row.ID, name)
		}
		columns = append(columns, spec)
	}

	return &models.ReportTypeSchema{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		Columns:     columns,
	}, nil
}
