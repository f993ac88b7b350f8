package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventComplete(t *testing.T) {
	raw := []byte(`{"type":"device.enrolled","at":"2018-10-19T14:30:00.000+0000","data":{"device":{"id":42,"serial_number":"C02ABC123"}}}`)

	event, missing, err := parseEvent(raw)
	require.NoError(t, err)
	require.Empty(t, missing)
	require.NotNil(t, event)

	assert.Equal(t, EventEnrolled, event.Type)
	assert.Equal(t, "2018-10-19T14:30:00.000+0000", event.At)
	assert.Equal(t, "42", event.Device.ID.String())
	assert.Equal(t, "C02ABC123", event.Device.SerialNumber)
}

func TestParseEventStringDeviceID(t *testing.T) {
	raw := []byte(`{"type":"device.enrolled","at":"2018-10-19T14:30:00.000+0000","data":{"device":{"id":"42","serial_number":"C02ABC123"}}}`)

	event, missing, err := parseEvent(raw)
	require.NoError(t, err)
	require.Empty(t, missing)
	assert.Equal(t, "42", event.Device.ID.String())
}

func TestParseEventMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing []string
	}{
		{
			name:    "missing type",
			raw:     `{"at":"x","data":{"device":{"id":1,"serial_number":"S"}}}`,
			missing: []string{"type"},
		},
		{
			name:    "missing at",
			raw:     `{"type":"device.enrolled","data":{"device":{"id":1,"serial_number":"S"}}}`,
			missing: []string{"at"},
		},
		{
			name:    "missing data",
			raw:     `{"type":"device.enrolled","at":"x"}`,
			missing: []string{"data"},
		},
		{
			name:    "everything missing",
			raw:     `{}`,
			missing: []string{"type", "at", "data"},
		},
		{
			name:    "missing device",
			raw:     `{"type":"device.enrolled","at":"x","data":{}}`,
			missing: []string{"data.device"},
		},
		{
			name:    "missing device id",
			raw:     `{"type":"device.enrolled","at":"x","data":{"device":{"serial_number":"S"}}}`,
			missing: []string{"data.device.id"},
		},
		{
			name:    "missing serial number",
			raw:     `{"type":"device.enrolled","at":"x","data":{"device":{"id":1}}}`,
			missing: []string{"data.device.serial_number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, missing, err := parseEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Nil(t, event)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestParseEventMalformedJSON(t *testing.T) {
	event, _, err := parseEvent([]byte(`{nope`))
	assert.Error(t, err)
	assert.Nil(t, event)
}
