// Package webhook is the event-handling pipeline: it validates inbound
// device lifecycle events, dispatches reconciliation, and renders the
// audit trail as the HTTP response.
package webhook

import (
	"encoding/json"
	"fmt"
)

// EventType is the inbound event kind. Unrecognized values are accepted
// but reconcile nothing; the platform sends kinds we do not act on yet.
type EventType string

// Event kinds the pipeline acts on.
const (
	EventEnrolled   EventType = "device.enrolled"
	EventUnenrolled EventType = "device.unenrolled"
)

// DevicePayload identifies the device an event concerns.
type DevicePayload struct {
	ID           json.Number `json:"id"`
	SerialNumber string      `json:"serial_number"`
}

// Event is a parsed, validated inbound event. Immutable once parsed.
type Event struct {
	Type   EventType
	At     string
	Data   json.RawMessage
	Device DevicePayload
}

type eventEnvelope struct {
	Type *string         `json:"type"`
	At   *string         `json:"at"`
	Data json.RawMessage `json:"data"`
}

type eventData struct {
	Device *struct {
		ID           *json.Number `json:"id"`
		SerialNumber *string      `json:"serial_number"`
	} `json:"device"`
}

// parseEvent decodes and validates the raw body. It returns the names of
// the missing required fields; reconciliation assumes a fully-formed
// device identity, so any missing field is fatal to the invocation.
func parseEvent(raw []byte) (*Event, []string, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode event: %w", err)
	}

	var missing []string
	if envelope.Type == nil {
		missing = append(missing, "type")
	}
	if envelope.At == nil {
		missing = append(missing, "at")
	}
	if envelope.Data == nil {
		missing = append(missing, "data")
	}
	if len(missing) > 0 {
		return nil, missing, nil
	}

	var data eventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, nil, fmt.Errorf("decode event data: %w", err)
	}
	switch {
	case data.Device == nil:
		missing = append(missing, "data.device")
	case data.Device.ID == nil:
		missing = append(missing, "data.device.id")
	case data.Device.SerialNumber == nil:
		missing = append(missing, "data.device.serial_number")
	}
	if len(missing) > 0 {
		return nil, missing, nil
	}

	event := &Event{
		Type: EventType(*envelope.Type),
		At:   *envelope.At,
		Data: envelope.Data,
		Device: DevicePayload{
			ID:           *data.Device.ID,
			SerialNumber: *data.Device.SerialNumber,
		},
	}
	return event, nil, nil
}
