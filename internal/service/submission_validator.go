package service

import (
	"strings"

	"github.com/emu-ics/report-portal-api/internal/models"
)

// RowValidationIssue names the columns still missing in one row.
type RowValidationIssue struct {
	RowIndex       int      `json:"row_index"`
	MissingColumns []string `json:"missing_columns"`
}

// ValidationReport is the outcome of validating a row batch. A batch passes
// only when every row is complete; partial acceptance is not a thing.
type ValidationReport struct {
	Complete        []models.RowRecord   `json:"-"`
	EmptyRowIndices []int                `json:"empty_row_indices,omitempty"`
	IncompleteRows  []RowValidationIssue `json:"incomplete_rows,omitempty"`
}

// OK reports whether the batch may be submitted.
func (r ValidationReport) OK() bool {
	return len(r.EmptyRowIndices) == 0 && len(r.IncompleteRows) == 0 && len(r.Complete) > 0
}

// ValidateRows checks every row against the schema. A value is missing when
// the column is absent, blank, or still the unselected sentinel. A row with no
// values at all is reported as empty rather than incomplete. Validation never
// mutates the rows, so running it twice yields the same report.
func ValidateRows(rows []models.RowRecord, schema *models.ReportTypeSchema) ValidationReport {
	var report ValidationReport
	for i, row := range rows {
		missing := missingColumns(row, schema)
		switch {
		case len(missing) == len(schema.Columns):
			report.EmptyRowIndices = append(report.EmptyRowIndices, i)
		case len(missing) > 0:
			report.IncompleteRows = append(report.IncompleteRows, RowValidationIssue{
				RowIndex:       i,
				MissingColumns: missing,
			})
		default:
			report.Complete = append(report.Complete, row)
		}
	}
	return report
}

func missingColumns(row models.RowRecord, schema *models.ReportTypeSchema) []string {
	var missing []string
	for _, col := range schema.Columns {
		value, ok := row[col.Name]
		if !ok || strings.TrimSpace(value) == "" || value == models.UnselectedSentinel {
			missing = append(missing, col.Name)
		}
	}
	return missing
}
