package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterKeepsHeaderOrder(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Campus", "Male", "Female"},
		Rows: []map[string]string{
			{"Campus": "Main Campus", "Male": "42", "Female": "38"},
			{"Campus": "North Campus", "Female": "12"}, // missing value stays blank
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Campus,Male,Female\nMain Campus,42,38\nNorth Campus,,12\n", string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"Campus", "Consumption"},
		Rows:    []map[string]string{{"Campus": "Main Campus", "Consumption": "120"}},
	}, "Water Consumption - Registrar")
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
