package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emu-ics/report-portal-api/internal/models"
)

func TestResolveColumnKinds(t *testing.T) {
	tests := []struct {
		name string
		kind models.ColumnKind
	}{
		{"Reading Date", models.ColumnKindDate},
		{"Generated", models.ColumnKindDate},
		{"Campus", models.ColumnKindCategorical},
		{"Semester", models.ColumnKindCategorical},
		{"Academic Year", models.ColumnKindCategorical},
		{"Sex", models.ColumnKindCategorical},
		{"Male", models.ColumnKindBoundedInt},
		{"Female", models.ColumnKindBoundedInt},
		{"Consumption", models.ColumnKindBoundedInt},
		{"Duration", models.ColumnKindBoundedInt},
		{"Program", models.ColumnKindFreeText},
		{"Remarks", models.ColumnKindFreeText},
	}
	for _, tc := range tests {
		spec := ResolveColumn(tc.name)
		assert.Equal(t, tc.kind, spec.Kind, tc.name)
		// same input, same output
		assert.Equal(t, spec, ResolveColumn(tc.name), tc.name)
	}
}

func TestResolveColumnCategoricalAlwaysHasOptions(t *testing.T) {
	for _, name := range []string{"Campus", "Semester", "Year", "Academic Year", "Sex"} {
		spec := ResolveColumn(name)
		require.Equal(t, models.ColumnKindCategorical, spec.Kind, name)
		assert.NotEmpty(t, spec.Options, name)
	}
}

func TestBuildRowTemplateOneWidgetPerColumnInOrder(t *testing.T) {
	schema := admissionSchema()
	template := NewTemplateService().BuildRowTemplate(schema)

	require.Len(t, template.Widgets, len(schema.Columns))
	for i, widget := range template.Widgets {
		assert.Equal(t, schema.Columns[i].Name, widget.Column)
	}
}

func TestBuildRowTemplateDropdownLeadsWithSentinel(t *testing.T) {
	schema := admissionSchema()
	template := NewTemplateService().BuildRowTemplate(schema)

	for _, widget := range template.Widgets {
		if widget.Kind != models.WidgetDropdown {
			continue
		}
		require.NotEmpty(t, widget.Options)
		assert.Equal(t, models.UnselectedSentinel, widget.Options[0], widget.Column)
		assert.Equal(t, models.UnselectedSentinel, widget.Default, widget.Column)
	}
}

func TestBuildRowTemplateNumberCarriesBounds(t *testing.T) {
	template := NewTemplateService().BuildRowTemplate(admissionSchema())

	var found bool
	for _, widget := range template.Widgets {
		if widget.Column == "Male" {
			found = true
			assert.Equal(t, models.WidgetNumber, widget.Kind)
			assert.Equal(t, 0, widget.Min)
			assert.Greater(t, widget.Max, 0)
		}
	}
	require.True(t, found)
}

func TestRowGridNeverBecomesEmpty(t *testing.T) {
	template := NewTemplateService().BuildRowTemplate(admissionSchema())
	grid := NewRowGrid(template)

	require.Len(t, grid.Rows(), 1)
	assert.False(t, grid.RemoveRow(0), "removing the last row must be a no-op")
	require.Len(t, grid.Rows(), 1)

	grid.AddRow()
	require.Len(t, grid.Rows(), 2)
	assert.True(t, grid.RemoveRow(1))
	require.Len(t, grid.Rows(), 1)
}

func TestRowGridBlankRowUsesWidgetDefaults(t *testing.T) {
	template := NewTemplateService().BuildRowTemplate(admissionSchema())
	grid := NewRowGrid(template)

	row := grid.Rows()[0]
	assert.Equal(t, models.UnselectedSentinel, row["Campus"])
	assert.Equal(t, "", row["Male"])

	require.True(t, grid.SetValue(0, "Male", "10"))
	assert.Equal(t, "10", grid.Rows()[0]["Male"])
	assert.False(t, grid.SetValue(5, "Male", "10"))
}
