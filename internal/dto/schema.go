package dto

import "github.com/emu-ics/report-portal-api/internal/models"

// ReportTypeItem lists one registry entry with its resolved columns.
type ReportTypeItem struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"display_name"`
	Columns     []models.ColumnSpec `json:"columns"`
}
