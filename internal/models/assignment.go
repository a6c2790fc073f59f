package models

import "time"

// AssignmentStatus captures the lifecycle of a report type grant.
type AssignmentStatus string

const (
	AssignmentStatusActive   AssignmentStatus = "ACTIVE"
	AssignmentStatusInactive AssignmentStatus = "INACTIVE"
)

// Assignment grants a report type to an office. Assignments are deactivated,
// never deleted. Status must never be empty; an empty value read back from
// storage is a data integrity defect.
type Assignment struct {
	ID           string           `db:"id" json:"id"`
	ReportTypeID string           `db:"report_type_id" json:"report_type_id"`
	Office       string           `db:"office" json:"office"`
	Status       AssignmentStatus `db:"status" json:"status"`
	Deadline     *time.Time       `db:"deadline" json:"deadline,omitempty"`
	Priority     *string          `db:"priority" json:"priority,omitempty"`
	CreatedBy    *string          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// AssignmentFilter constrains assignment listing queries.
type AssignmentFilter struct {
	Office          string
	ReportTypeID    string
	IncludeInactive bool
}
