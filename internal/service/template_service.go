package service

import (
	"time"

	"github.com/emu-ics/report-portal-api/internal/models"
)

// TemplateService turns resolved schemas into row templates and manages the
// in-memory row grid an office fills in before submitting.
type TemplateService struct{}

// NewTemplateService constructs the service.
func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

// BuildRowTemplate produces exactly one widget per schema column, in schema
// order. Dropdowns always lead with the unselected sentinel.
func (s *TemplateService) BuildRowTemplate(schema *models.ReportTypeSchema) models.RowTemplate {
	widgets := make([]models.Widget, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		widgets = append(widgets, buildWidget(col))
	}
	return models.RowTemplate{ReportTypeID: schema.ID, Widgets: widgets}
}

func buildWidget(col models.ColumnSpec) models.Widget {
	switch col.Kind {
	case models.ColumnKindCategorical:
		options := make([]string, 0, len(col.Options)+1)
		options = append(options, models.UnselectedSentinel)
		options = append(options, col.Options...)
		return models.Widget{
			Column:  col.Name,
			Kind:    models.WidgetDropdown,
			Options: options,
			Default: models.UnselectedSentinel,
		}
	case models.ColumnKindDate:
		return models.Widget{
			Column:  col.Name,
			Kind:    models.WidgetDatePicker,
			Default: time.Now().Format("2006-01-02"),
		}
	case models.ColumnKindBoundedInt:
		return models.Widget{
			Column: col.Name,
			Kind:   models.WidgetNumber,
			Min:    col.Min,
			Max:    col.Max,
		}
	default:
		return models.Widget{Column: col.Name, Kind: models.WidgetText}
	}
}

// RowGrid is the mutable row collection backing one entry session. It always
// holds at least one row.
type RowGrid struct {
	template models.RowTemplate
	rows     []models.RowRecord
}

// NewRowGrid starts a grid with a single blank row.
func NewRowGrid(template models.RowTemplate) *RowGrid {
	grid := &RowGrid{template: template}
	grid.rows = append(grid.rows, grid.blankRow())
	return grid
}

// AddRow appends a blank row and returns it.
func (g *RowGrid) AddRow() models.RowRecord {
	row := g.blankRow()
	g.rows = append(g.rows, row)
	return row
}

// RemoveRow drops the row at the given index. Removing the last remaining row
// is a no-op: the grid never becomes empty.
func (g *RowGrid) RemoveRow(index int) bool {
	if len(g.rows) <= 1 || index < 0 || index >= len(g.rows) {
		return false
	}
	g.rows = append(g.rows[:index], g.rows[index+1:]...)
	return true
}

// SetValue records one cell value.
func (g *RowGrid) SetValue(index int, column, value string) bool {
	if index < 0 || index >= len(g.rows) {
		return false
	}
	g.rows[index][column] = value
	return true
}

// Rows returns the current rows in order.
func (g *RowGrid) Rows() []models.RowRecord {
	return g.rows
}

func (g *RowGrid) blankRow() models.RowRecord {
	row := make(models.RowRecord, len(g.template.Widgets))
	for _, widget := range g.template.Widgets {
		row[widget.Column] = widget.Default
	}
	return row
}
