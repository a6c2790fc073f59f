package models

import "time"

// ColumnKind is the closed set of semantic column kinds a report schema can use.
type ColumnKind string

const (
	ColumnKindCategorical ColumnKind = "CATEGORICAL"
	ColumnKindDate        ColumnKind = "DATE"
	ColumnKindBoundedInt  ColumnKind = "BOUNDED_INT"
	ColumnKindFreeText    ColumnKind = "FREE_TEXT"
)

// UnselectedSentinel is the dropdown value rendered when no option has been
// chosen. It is never a valid submitted value.
const UnselectedSentinel = "__select__"

// ColumnSpec describes one column of a report schema. Kind and constraints are
// resolved once when the registry loads, never re-inferred at render time.
type ColumnSpec struct {
	Name    string     `json:"name"`
	Kind    ColumnKind `json:"kind"`
	Options []string   `json:"options,omitempty"`
	Min     int        `json:"min,omitempty"`
	Max     int        `json:"max,omitempty"`
}

// ReportTypeSchema is the authoritative shape of one report type. Column order
// is significant: it defines widget order and storage column order.
type ReportTypeSchema struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Columns     []ColumnSpec `json:"columns"`
}

// ColumnNames returns the schema column names in order.
func (s *ReportTypeSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// ReportType is the persisted registry row; Columns holds the ordered column
// name list as JSON, kinds are resolved on load.
type ReportType struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Columns     []byte    `db:"columns" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RowRecord maps column name to the entered string value for one data row.
type RowRecord map[string]string

// WidgetKind identifies the input widget a column renders as.
type WidgetKind string

const (
	WidgetDropdown   WidgetKind = "DROPDOWN"
	WidgetDatePicker WidgetKind = "DATE_PICKER"
	WidgetNumber     WidgetKind = "NUMBER"
	WidgetText       WidgetKind = "TEXT"
)

// Widget is one entry field of a row template.
type Widget struct {
	Column  string     `json:"column"`
	Kind    WidgetKind `json:"kind"`
	Options []string   `json:"options,omitempty"`
	Min     int        `json:"min,omitempty"`
	Max     int        `json:"max,omitempty"`
	Default string     `json:"default,omitempty"`
}

// RowTemplate is the ordered widget layout for one report type, consumed by
// the rendering layer.
type RowTemplate struct {
	ReportTypeID string   `json:"report_type_id"`
	Widgets      []Widget `json:"widgets"`
}
