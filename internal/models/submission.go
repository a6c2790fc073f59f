package models

import "time"

// SubmissionStatus captures the review workflow states.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusApproved SubmissionStatus = "APPROVED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

// Submission is one batch of rows submitted by an office against an
// assignment. Payload holds the validated rows as a JSON array; the status
// transitions exactly once from PENDING to APPROVED or REJECTED.
type Submission struct {
	ID             string           `db:"id" json:"id"`
	ReportTypeID   string           `db:"report_type_id" json:"report_type_id"`
	Office         string           `db:"office" json:"office"`
	Campus         string           `db:"campus" json:"campus"`
	SubmitterName  string           `db:"submitter_name" json:"submitter_name"`
	SubmitterEmail string           `db:"submitter_email" json:"submitter_email"`
	Status         SubmissionStatus `db:"status" json:"status"`
	Description    *string          `db:"description" json:"description,omitempty"`
	RecordCount    int              `db:"record_count" json:"record_count"`
	Payload        []byte           `db:"payload" json:"-"`
	SubmittedAt    time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedBy     *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Note           *string          `db:"note" json:"note,omitempty"`
}

// SubmissionFilter constrains submission listing queries.
type SubmissionFilter struct {
	Status       []SubmissionStatus
	Office       string
	Campus       string
	ReportTypeID string
	Limit        int
	Offset       int
}

// StatusCount aggregates submissions per workflow state.
type StatusCount struct {
	Status SubmissionStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}
