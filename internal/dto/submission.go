package dto

import (
	"time"

	"github.com/emu-ics/report-portal-api/internal/models"
)

// CreateSubmissionRequest carries one batch of filled-in rows.
type CreateSubmissionRequest struct {
	ReportTypeID string             `json:"report_type_id" validate:"required"`
	Rows         []models.RowRecord `json:"rows" validate:"required"`
	Description  string             `json:"description,omitempty"`
}

// ReviewSubmissionRequest records the admin decision on a pending submission.
type ReviewSubmissionRequest struct {
	Status models.SubmissionStatus `json:"status" validate:"required"`
	Note   string                  `json:"note,omitempty"`
}

// SubmissionQuery filters submission listings.
type SubmissionQuery struct {
	Status       string `form:"status"`
	Office       string `form:"office"`
	Campus       string `form:"campus"`
	ReportTypeID string `form:"report_type_id"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

// SubmissionDetail is a submission with its decoded row data, as rendered to
// a reviewer. Internal bookkeeping keys are stripped from the rows.
type SubmissionDetail struct {
	Submission models.Submission  `json:"submission"`
	Columns    []string           `json:"columns"`
	Rows       []models.RowRecord `json:"rows"`
}

// DashboardSummary aggregates submission counts for the review dashboard.
type DashboardSummary struct {
	Total       int       `json:"total"`
	Pending     int       `json:"pending"`
	Approved    int       `json:"approved"`
	Rejected    int       `json:"rejected"`
	GeneratedAt time.Time `json:"generated_at"`
}
