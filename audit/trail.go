// Package audit builds the per-invocation trail of reconciliation actions.
// One Trail is owned by exactly one webhook invocation and is never shared.
package audit

import (
	"encoding/json"
	"time"
)

// Status of a single recorded action.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Detail holds structured context for an action outcome.
type Detail map[string]any

// Outcome is the result of one recorded action.
type Outcome struct {
	Status string `json:"status"`
	Detail Detail `json:"detail,omitempty"`
}

// Record is one reconciliation action and its outcome.
type Record struct {
	Action string  `json:"action"`
	Info   Detail  `json:"info,omitempty"`
	Result Outcome `json:"result"`
}

// Success builds a success record for an action.
func Success(action string, info Detail, detail Detail) Record {
	return Record{
		Action: action,
		Info:   info,
		Result: Outcome{Status: StatusSuccess, Detail: detail},
	}
}

// Failure builds a failure record for an action.
func Failure(action string, info Detail, detail Detail) Record {
	return Record{
		Action: action,
		Info:   info,
		Result: Outcome{Status: StatusFailure, Detail: detail},
	}
}

// RequestInfo is the raw request metadata echoed back in the trail.
type RequestInfo struct {
	Type string          `json:"type"`
	At   string          `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Trail is the ordered log of everything one invocation did.
// Records appear in execution order; that ordering is part of the contract.
type Trail struct {
	Request  RequestInfo `json:"request"`
	LoggedAt time.Time   `json:"logged_at"`
	Actions  []Record    `json:"actions"`
}

// NewTrail creates an empty trail stamped with the current time.
func NewTrail() *Trail {
	return &Trail{
		LoggedAt: time.Now().UTC(),
		Actions:  []Record{},
	}
}

// SetRequest fills in the request metadata once parsing succeeded far
// enough to know it.
func (t *Trail) SetRequest(eventType, at string, data json.RawMessage) {
	t.Request = RequestInfo{Type: eventType, At: at, Data: data}
}

// Record appends an action record in call order.
func (t *Trail) Record(r Record) {
	t.Actions = append(t.Actions, r)
}

// Failed reports whether any recorded action failed.
func (t *Trail) Failed() bool {
	for _, r := range t.Actions {
		if r.Result.Status == StatusFailure {
			return true
		}
	}
	return false
}

// MarshalBody serializes the trail for the HTTP response body.
func (t *Trail) MarshalBody() ([]byte, error) {
	return json.Marshal(t)
}
