package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls []int64
	rows  int64
	err   error
}

func (f *fakeStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	f.calls = append(f.calls, id)
	return f.rows, f.err
}

type fakeWebhook struct {
	bodies [][]byte
	status int
	err    error
}

func (f *fakeWebhook) Relay(ctx context.Context, body []byte) (int, error) {
	f.bodies = append(f.bodies, body)
	return f.status, f.err
}

func TestProcess_RejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		reason  string
	}{
		{"unknown action", map[string]any{"action": "drop_table", "user_id": 1}, ReasonInvalidAction},
		{"missing action", map[string]any{"user_id": 1}, ReasonInvalidAction},
		{"action wrong type", map[string]any{"action": 7, "user_id": 1}, ReasonInvalidAction},
		{"action case differs", map[string]any{"action": "DELETE_USER", "user_id": 1}, ReasonInvalidAction},
		{"nil payload", nil, ReasonInvalidAction},
		{"missing user_id", map[string]any{"action": "delete_user"}, ReasonInvalidUserID},
		{"non numeric user_id", map[string]any{"action": "delete_user", "user_id": "abc"}, ReasonInvalidUserID},
		{"fractional user_id", map[string]any{"action": "update_user", "user_id": 4.5}, ReasonInvalidUserID},
		{"bool user_id", map[string]any{"action": "update_user", "user_id": true}, ReasonInvalidUserID},
		{"null user_id", map[string]any{"action": "delete_user", "user_id": nil}, ReasonInvalidUserID},
		{"object user_id", map[string]any{"action": "delete_user", "user_id": map[string]any{}}, ReasonInvalidUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			hook := &fakeWebhook{status: 200}

			res := NewProcessor(store, hook, nil).Process(context.Background(), tt.payload)

			assert.Equal(t, StatusIgnored, res.Status)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Empty(t, store.calls, "store must not be touched")
			assert.Empty(t, hook.bodies, "webhook must not be called")
			assert.False(t, res.Effect.Attempted)
			assert.False(t, res.Relay.Attempted)
		})
	}
}

func TestProcess_DeleteThenRelay(t *testing.T) {
	store := &fakeStore{rows: 1}
	hook := &fakeWebhook{status: 200}

	res := NewProcessor(store, hook, nil).Process(context.Background(), map[string]any{
		"action":  "delete_user",
		"user_id": "42",
	})

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, 200, res.WebhookResponse)
	assert.Equal(t, int64(42), res.UserID)
	assert.Equal(t, int64(1), res.RowsDeleted)
	assert.Equal(t, []int64{42}, store.calls)
	assert.True(t, res.Effect.Succeeded())
	assert.True(t, res.Relay.Succeeded())

	require.Len(t, hook.bodies, 1)
	assert.JSONEq(t, `{"action":"delete_user","user_id":"42"}`, string(hook.bodies[0]))
}

func TestProcess_UpdateDoesNotTouchStore(t *testing.T) {
	store := &fakeStore{}
	hook := &fakeWebhook{status: 202}

	res := NewProcessor(store, hook, nil).Process(context.Background(), map[string]any{
		"action":  "update_user",
		"user_id": float64(7),
	})

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, 202, res.WebhookResponse)
	assert.Empty(t, store.calls)
	assert.False(t, res.Effect.Attempted)
	assert.Len(t, hook.bodies, 1)
}

func TestProcess_DeleteOfAbsentUserStillRelays(t *testing.T) {
	store := &fakeStore{rows: 0}
	hook := &fakeWebhook{status: 200}

	res := NewProcessor(store, hook, nil).Process(context.Background(), map[string]any{
		"action":  "delete_user",
		"user_id": 999,
	})

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Zero(t, res.RowsDeleted)
	assert.Len(t, hook.bodies, 1)
}

func TestProcess_RelayFailureKeepsEffect(t *testing.T) {
	store := &fakeStore{rows: 1}
	hook := &fakeWebhook{status: 503, err: common.ErrRemoteRejection}

	res := NewProcessor(store, hook, nil).Process(context.Background(), map[string]any{
		"action":  "delete_user",
		"user_id": 42,
	})

	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 503, res.WebhookResponse)
	assert.True(t, res.Effect.Succeeded())
	assert.True(t, res.Relay.Attempted)
	assert.ErrorIs(t, res.Relay.Err, common.ErrRemoteRejection)
	assert.Equal(t, []int64{42}, store.calls)
}

func TestProcess_StoreFailureSkipsRelay(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("delete: %w", common.ErrConnectivity)}
	hook := &fakeWebhook{status: 200}

	res := NewProcessor(store, hook, nil).Process(context.Background(), map[string]any{
		"action":  "delete_user",
		"user_id": 42,
	})

	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Effect.Err, common.ErrConnectivity)
	assert.False(t, res.Relay.Attempted)
	assert.Empty(t, hook.bodies)
}

func TestProcess_MissingWebhookSecret(t *testing.T) {
	store := &fakeStore{rows: 1}
	hook := &fakeWebhook{err: fmt.Errorf("webhook relay: %w", common.ErrConfigurationMissing)}

	res := NewProcessor(store, hook, nil).Process(context.Background(), map[string]any{
		"action":  "delete_user",
		"user_id": 1,
	})

	assert.Equal(t, StatusError, res.Status)
	assert.Zero(t, res.WebhookResponse)
	assert.ErrorIs(t, res.Relay.Err, common.ErrConfigurationMissing)
	assert.True(t, res.Effect.Succeeded())
}

func TestProcessJSON_RelaysOriginalBytes(t *testing.T) {
	store := &fakeStore{rows: 1}
	hook := &fakeWebhook{status: 200}
	body := []byte(`{"user_id": " 12 ", "action":"delete_user",  "meta":{"b":2,"a":1}}`)

	res := NewProcessor(store, hook, nil).ProcessJSON(context.Background(), body)

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, []int64{12}, store.calls)
	require.Len(t, hook.bodies, 1)
	assert.Equal(t, body, hook.bodies[0])
}

func TestProcessJSON_LargeIntegerIsExact(t *testing.T) {
	store := &fakeStore{rows: 1}
	hook := &fakeWebhook{status: 200}

	res := NewProcessor(store, hook, nil).ProcessJSON(context.Background(),
		[]byte(`{"action":"delete_user","user_id":9007199254740993}`))

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, []int64{9007199254740993}, store.calls)
}

func TestProcessJSON_Malformed(t *testing.T) {
	store := &fakeStore{}
	hook := &fakeWebhook{status: 200}
	p := NewProcessor(store, hook, nil)

	for _, body := range []string{
		`{"action":`,
		`[1,2]`,
		`"delete_user"`,
		`{"action":"delete_user","user_id":1} not json`,
		`{"action":"delete_user","user_id":1}{"action":"delete_user","user_id":2}`,
	} {
		res := p.ProcessJSON(context.Background(), []byte(body))
		assert.Equal(t, StatusError, res.Status, body)
	}
	assert.Empty(t, store.calls)
	assert.Empty(t, hook.bodies)
}

func TestResult_JSON(t *testing.T) {
	res := Result{
		Status:          StatusError,
		Message:         "webhook relay: remote rejected",
		Action:          ActionDeleteUser,
		UserID:          3,
		WebhookResponse: 500,
		Effect:          Step{Attempted: true},
		Relay:           Step{Attempted: true, Err: errors.New("status 500")},
	}

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"status":"error",
		"message":"webhook relay: remote rejected",
		"action":"delete_user",
		"user_id":3,
		"webhook_response":500,
		"effect":{"attempted":true},
		"relay":{"attempted":true,"error":"status 500"}
	}`, string(b))
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{42, 42, true},
		{int64(-3), -3, true},
		{float64(10), 10, true},
		{json.Number("15"), 15, true},
		{json.Number("15.0"), 15, true},
		{json.Number("1e3"), 1000, true},
		{json.Number("1.5"), 0, false},
		{"  7\t", 7, true},
		{"+8", 8, true},
		{"0x10", 0, false},
		{"1.0", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		{float64(1e19), 0, false},
		{true, 0, false},
		{nil, 0, false},
		{[]any{1}, 0, false},
	}

	for _, tt := range tests {
		got, ok := parseUserID(tt.in)
		assert.Equal(t, tt.ok, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}

func TestProcessJSON_TrailingWhitespaceIsFine(t *testing.T) {
	store := &fakeStore{rows: 1}
	hook := &fakeWebhook{status: 200}

	res := NewProcessor(store, hook, nil).ProcessJSON(context.Background(),
		[]byte("{\"action\":\"delete_user\",\"user_id\":1}\n\t "))

	assert.Equal(t, StatusProcessed, res.Status)
	assert.Equal(t, []int64{1}, store.calls)
}

func TestResult_JSONKeepsZeroUserID(t *testing.T) {
	b, err := json.Marshal(Result{Status: StatusProcessed, Action: ActionUpdateUser, UserID: 0})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Contains(t, out, "user_id")
	assert.Equal(t, float64(0), out["user_id"])
}
