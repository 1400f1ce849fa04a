package cloudmc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher answers Fetch calls from a fixed list of responses.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses []any
	err       error
	calls     []string
}

func (f *scriptedFetcher) Fetch(_ context.Context, method, url string, _ any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method+" "+url)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *scriptedFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func poll(id, status string, result any) map[string]any {
	return map[string]any{"data": map[string]any{"id": id, "status": status, "result": result}}
}

func testPolling() PollingConfig {
	return PollingConfig{Interval: time.Millisecond, MaxAttempts: 50}
}

func newTestResolver(f Fetcher) *PollingResolver {
	return NewPollingResolver("https://api.example.com/v1/", f, testPolling(), nil, nil)
}

func TestResolve_NoTask(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		expect any
	}{
		{"data passthrough", map[string]any{"data": map[string]any{"id": "vm-1"}}, map[string]any{"id": "vm-1"}},
		{"list data", map[string]any{"data": []any{"a", "b"}}, []any{"a", "b"}},
		{"missing data", map[string]any{}, map[string]any{}},
		{"null data", map[string]any{"data": nil}, map[string]any{}},
		{"empty task id", map[string]any{"taskId": "", "taskStatus": "PENDING", "data": "x"}, "x"},
		{"null task id", map[string]any{"taskId": nil, "data": "x"}, "x"},
		{"zero task id", map[string]any{"taskId": float64(0), "data": "x"}, "x"},
		{"false task id", map[string]any{"taskId": false, "taskStatus": "PENDING", "data": "x"}, "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &scriptedFetcher{}
			got, err := newTestResolver(f).Resolve(context.Background(), tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
			assert.Empty(t, f.Calls(), "no task means no extra call")
		})
	}
}

func TestResolve_InitialSuccess(t *testing.T) {
	f := &scriptedFetcher{}
	r := newTestResolver(f)

	got, err := r.Resolve(context.Background(), map[string]any{
		"taskId": "t1", "taskStatus": "SUCCESS", "data": map[string]any{"ok": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, got)

	got, err = r.Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "SUCCESS"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
	assert.Empty(t, f.Calls())
}

func TestResolve_InitialFailed(t *testing.T) {
	f := &scriptedFetcher{}
	_, err := newTestResolver(f).Resolve(context.Background(), map[string]any{
		"taskId": "t1", "taskStatus": "FAILED", "data": "boom",
	})
	var failed *OperationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "t1", failed.TaskID)
	assert.Equal(t, "boom", failed.Result)
	assert.Empty(t, f.Calls())
}

func TestResolve_UnrecognizedStatus(t *testing.T) {
	body := map[string]any{"taskId": "t1", "taskStatus": "EXPLODED", "data": "?"}
	_, err := newTestResolver(&scriptedFetcher{}).Resolve(context.Background(), body)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, body, protoErr.Payload)
	assert.Contains(t, err.Error(), "EXPLODED")
}

func TestResolve_MissingStatusOnTask(t *testing.T) {
	body := map[string]any{"taskId": "t1"}
	_, err := newTestResolver(&scriptedFetcher{}).Resolve(context.Background(), body)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, body, protoErr.Payload)
}

func TestResolve_NotAnObject(t *testing.T) {
	_, err := newTestResolver(&scriptedFetcher{}).Resolve(context.Background(), []any{1, 2})
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestResolve_EmptyBody(t *testing.T) {
	_, err := newTestResolver(&scriptedFetcher{}).Resolve(context.Background(), nil)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "empty response body", protoErr.Reason)
}

func TestResolve_UnusableTaskID(t *testing.T) {
	tests := []struct {
		name string
		id   any
	}{
		{"true", true},
		{"object", map[string]any{"x": float64(1)}},
		{"array", []any{"a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := map[string]any{"taskId": tc.id, "taskStatus": "PENDING", "data": "initial"}
			f := &scriptedFetcher{}
			got, err := newTestResolver(f).Resolve(context.Background(), body)

			var protoErr *ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.Nil(t, got)
			assert.Equal(t, body, protoErr.Payload)
			assert.Empty(t, f.Calls())
		})
	}
}

func TestResolve_PolledUnusableTaskID(t *testing.T) {
	bad := map[string]any{"data": map[string]any{"id": true, "status": "SUCCESS", "result": "r"}}
	f := &scriptedFetcher{responses: []any{bad}}
	_, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, bad, protoErr.Payload)
}

func TestResolve_PendingPendingSuccess(t *testing.T) {
	f := &scriptedFetcher{responses: []any{
		poll("t1", "PENDING", nil),
		poll("t1", "SUCCESS", map[string]any{"name": "a"}),
	}}

	got, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "a"}, got)
	assert.Equal(t, []string{
		"GET https://api.example.com/v1/tasks/t1",
		"GET https://api.example.com/v1/tasks/t1",
	}, f.Calls())
}

func TestResolve_PolledSuccessWithoutResult(t *testing.T) {
	f := &scriptedFetcher{responses: []any{poll("t1", "SUCCESS", nil)}}
	got, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
	assert.Len(t, f.Calls(), 1)
}

func TestResolve_FailedAfterPolls(t *testing.T) {
	f := &scriptedFetcher{responses: []any{
		poll("t1", "PENDING", nil),
		poll("t1", "PENDING", nil),
		poll("t1", "FAILED", map[string]any{"reason": "quota"}),
	}}
	_, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})

	var failed *OperationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, map[string]any{"reason": "quota"}, failed.Result)
	assert.Len(t, f.Calls(), 3)
}

func TestResolve_PolledUnrecognizedStatus(t *testing.T) {
	bad := poll("t1", "WEIRD", nil)
	f := &scriptedFetcher{responses: []any{bad}}
	_, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, bad, protoErr.Payload)
}

func TestResolve_PollResponseWithoutData(t *testing.T) {
	f := &scriptedFetcher{responses: []any{map[string]any{"status": "SUCCESS"}}}
	_, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestResolve_PollLimit(t *testing.T) {
	f := &scriptedFetcher{responses: []any{poll("t1", "PENDING", nil)}}
	r := NewPollingResolver("https://api.example.com", f, PollingConfig{Interval: time.Millisecond, MaxAttempts: 3}, nil, nil)

	_, err := r.Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})

	var limitErr *PollLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.True(t, errors.Is(err, ErrPollLimitExceeded))
	assert.Equal(t, 3, limitErr.Attempts)
	assert.Len(t, f.Calls(), 3)
}

func TestResolve_ContextCanceledDuringWait(t *testing.T) {
	f := &scriptedFetcher{}
	r := NewPollingResolver("https://api.example.com", f, PollingConfig{Interval: time.Hour}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, map[string]any{"taskId": "t1", "taskStatus": "PENDING"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, f.Calls())
}

func TestResolve_FetchErrorPropagates(t *testing.T) {
	transportErr := &TransportError{Method: "GET", URL: "x", Err: errors.New("connection refused")}
	f := &scriptedFetcher{err: transportErr}

	_, err := newTestResolver(f).Resolve(context.Background(), map[string]any{"taskId": "t1", "taskStatus": "PENDING"})
	assert.Same(t, transportErr, err)
}

func TestResolve_TaskObserver(t *testing.T) {
	f := &scriptedFetcher{responses: []any{
		poll("t1", "PENDING", nil),
		poll("t1", "SUCCESS", "done"),
	}}
	var seen []TaskStatus
	ctx := WithTaskObserver(context.Background(), func(h TaskHandle) {
		seen = append(seen, h.Status)
	})

	_, err := newTestResolver(f).Resolve(ctx, map[string]any{"taskId": "t1", "taskStatus": "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, []TaskStatus{StatusPending, StatusPending, StatusSuccess}, seen)
}

func TestPollingConfig_BackOff(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		b := PollingConfig{Interval: 2 * time.Second, MaxAttempts: 2}.withDefaults().newBackOff()
		assert.Equal(t, 2*time.Second, b.NextBackOff())
		assert.Equal(t, 2*time.Second, b.NextBackOff())
		assert.Equal(t, backoff.Stop, b.NextBackOff())
	})

	t.Run("unbounded", func(t *testing.T) {
		b := PollingConfig{Interval: time.Second}.withDefaults().newBackOff()
		for i := 0; i < 1000; i++ {
			require.Equal(t, time.Second, b.NextBackOff())
		}
	})

	t.Run("exponential stays under max", func(t *testing.T) {
		cfg := PollingConfig{Strategy: PollExponential, Interval: 100 * time.Millisecond, MaxInterval: time.Second, MaxAttempts: 20}.withDefaults()
		b := cfg.newBackOff()
		for i := 0; i < 20; i++ {
			d := b.NextBackOff()
			require.NotEqual(t, backoff.Stop, d)
			assert.LessOrEqual(t, d, time.Second+time.Second/2)
		}
		assert.Equal(t, backoff.Stop, b.NextBackOff())
	})
}

func TestPollingConfig_Defaults(t *testing.T) {
	cfg := PollingConfig{}.withDefaults()
	assert.Equal(t, PollConstant, cfg.Strategy)
	assert.Equal(t, DefaultPollInterval, cfg.Interval)
	assert.Equal(t, DefaultPollMaxInterval, cfg.MaxInterval)
	assert.Equal(t, 0, cfg.MaxAttempts)

	def := DefaultPollingConfig()
	assert.Equal(t, time.Second, def.Interval)
	assert.Equal(t, DefaultPollMaxAttempts, def.MaxAttempts)
}
