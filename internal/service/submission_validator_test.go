package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emu-ics/report-portal-api/internal/models"
)

func admissionSchema() *models.ReportTypeSchema {
	columns := []string{"Campus", "Semester", "Academic Year", "Category", "Program", "Male", "Female"}
	specs := make([]models.ColumnSpec, 0, len(columns))
	for _, name := range columns {
		specs = append(specs, ResolveColumn(name))
	}
	return &models.ReportTypeSchema{ID: "admissiondata", DisplayName: "Admission Data", Columns: specs}
}

func completeAdmissionRow() models.RowRecord {
	return models.RowRecord{
		"Campus":        "Main Campus",
		"Semester":      "Fall",
		"Academic Year": "2024-2025",
		"Category":      "Undergraduate",
		"Program":       "Computer Engineering",
		"Male":          "42",
		"Female":        "38",
	}
}

func TestValidateRowsAllComplete(t *testing.T) {
	schema := admissionSchema()
	rows := []models.RowRecord{completeAdmissionRow(), completeAdmissionRow()}

	report := ValidateRows(rows, schema)
	require.True(t, report.OK())
	assert.Len(t, report.Complete, 2)
	assert.Empty(t, report.EmptyRowIndices)
	assert.Empty(t, report.IncompleteRows)
}

func TestValidateRowsReportsMissingColumnPerRow(t *testing.T) {
	schema := admissionSchema()
	second := completeAdmissionRow()
	delete(second, "Female")
	rows := []models.RowRecord{completeAdmissionRow(), second, completeAdmissionRow()}

	report := ValidateRows(rows, schema)
	require.False(t, report.OK())
	require.Len(t, report.IncompleteRows, 1)
	assert.Equal(t, 1, report.IncompleteRows[0].RowIndex)
	assert.Equal(t, []string{"Female"}, report.IncompleteRows[0].MissingColumns)
	assert.Len(t, report.Complete, 2)
}

func TestValidateRowsSentinelCountsAsMissing(t *testing.T) {
	schema := admissionSchema()
	row := completeAdmissionRow()
	row["Semester"] = models.UnselectedSentinel

	report := ValidateRows([]models.RowRecord{row}, schema)
	require.False(t, report.OK())
	require.Len(t, report.IncompleteRows, 1)
	assert.Equal(t, []string{"Semester"}, report.IncompleteRows[0].MissingColumns)
}

func TestValidateRowsClassifiesFullyEmptyRows(t *testing.T) {
	schema := admissionSchema()
	empty := models.RowRecord{
		"Campus":   models.UnselectedSentinel,
		"Semester": models.UnselectedSentinel,
	}
	rows := []models.RowRecord{completeAdmissionRow(), empty}

	report := ValidateRows(rows, schema)
	require.False(t, report.OK())
	assert.Equal(t, []int{1}, report.EmptyRowIndices)
	assert.Empty(t, report.IncompleteRows)
}

func TestValidateRowsZeroRowsFails(t *testing.T) {
	report := ValidateRows(nil, admissionSchema())
	assert.False(t, report.OK())
	assert.Empty(t, report.Complete)
}

func TestValidateRowsIdempotentOnCompleteSubset(t *testing.T) {
	schema := admissionSchema()
	incomplete := completeAdmissionRow()
	delete(incomplete, "Male")
	rows := []models.RowRecord{completeAdmissionRow(), incomplete, completeAdmissionRow()}

	first := ValidateRows(rows, schema)
	require.Len(t, first.Complete, 2)

	second := ValidateRows(first.Complete, schema)
	require.True(t, second.OK())
	assert.Equal(t, first.Complete, second.Complete)
	assert.Empty(t, second.EmptyRowIndices)
	assert.Empty(t, second.IncompleteRows)
}
