// Package events validates inbound user events, applies their effect on the
// record store and relays them to the internal webhook.
//
// An event is handled in two independent steps. The effect (deleting the
// record for delete_user) is committed first; the relay runs afterwards and
// its failure never undoes the effect. Result reports both steps.
package events

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	ActionDeleteUser = "delete_user"
	ActionUpdateUser = "update_user"
)

type Status string

const (
	StatusIgnored   Status = "ignored"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

const (
	ReasonInvalidAction = "invalid action"
	ReasonInvalidUserID = "invalid user_id"
)

// envelope is the validated part of an event.
type envelope struct {
	Action string `validate:"required,oneof=delete_user update_user"`
	UserID int64
}

// Step describes one of the two steps of handling an event.
type Step struct {
	Attempted bool  `json:"attempted"`
	Err       error `json:"-"`
}

// Succeeded reports whether the step ran and did not fail.
func (s Step) Succeeded() bool {
	return s.Attempted && s.Err == nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	out := struct {
		Attempted bool   `json:"attempted"`
		Error     string `json:"error,omitempty"`
	}{Attempted: s.Attempted}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

type Result struct {
	Status Status `json:"status"`
	// Reason is set for ignored events.
	Reason string `json:"reason,omitempty"`
	// Message describes the failure for events with StatusError.
	Message string `json:"message,omitempty"`

	Action string `json:"action,omitempty"`
	UserID int64  `json:"user_id"`

	// RowsDeleted is what the delete step removed; zero for absent ids.
	RowsDeleted int64 `json:"rows_deleted,omitempty"`
	// WebhookResponse is the relay's HTTP status whenever one was received.
	WebhookResponse int `json:"webhook_response,omitempty"`

	Effect Step `json:"effect"`
	Relay  Step `json:"relay"`
}

func ignored(reason string) Result {
	return Result{Status: StatusIgnored, Reason: reason}
}

// parseUserID accepts integers, integral floats and base-10 strings with
// optional surrounding whitespace. Booleans, fractions and anything else are
// rejected.
func parseUserID(v any) (int64, bool) {
	switch id := v.(type) {
	case int:
		return int64(id), true
	case int32:
		return int64(id), true
	case int64:
		return id, true
	case float64:
		return integralFloat(id)
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n, true
		}
		f, err := id.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
