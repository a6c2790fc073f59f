package dto

import "time"

// CreateAssignmentRequest grants a report type to an office.
type CreateAssignmentRequest struct {
	ReportTypeID string     `json:"report_type_id" validate:"required"`
	Office       string     `json:"office" validate:"required"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Priority     string     `json:"priority,omitempty"`
}

// AssignmentQuery filters assignment listings.
type AssignmentQuery struct {
	Office          string `form:"office"`
	ReportTypeID    string `form:"report_type_id"`
	IncludeInactive bool   `form:"include_inactive"`
}
