package cloudmc

import (
	"context"
	"strconv"
)

// TaskStatus is the backend's view of an asynchronous task.
type TaskStatus string

const (
	StatusPending TaskStatus = "PENDING"
	StatusSuccess TaskStatus = "SUCCESS"
	StatusFailed  TaskStatus = "FAILED"
)

// Terminal reports whether polling stops at this status.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// TaskHandle is the normalized (id, status, result) triple shared by
// initial and poll responses. An empty ID means the call was synchronous.
type TaskHandle struct {
	ID     string
	Status TaskStatus
	Result any
}

// initialHandle reads {"taskId", "taskStatus", "data"}.
func initialHandle(body any) (TaskHandle, error) {
	if body == nil {
		return TaskHandle{}, &ProtocolError{Reason: "empty response body"}
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return TaskHandle{}, &ProtocolError{Reason: "response is not an object", Payload: body}
	}
	id, ok := taskID(obj["taskId"])
	if !ok {
		return TaskHandle{}, &ProtocolError{Reason: "taskId is not a string or number", Payload: body}
	}
	return TaskHandle{
		ID:     id,
		Status: taskStatus(obj["taskStatus"]),
		Result: obj["data"],
	}, nil
}

// polledHandle reads {"data": {"id", "status", "result"}}.
func polledHandle(body any) (TaskHandle, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return TaskHandle{}, &ProtocolError{Reason: "task response is not an object", Payload: body}
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return TaskHandle{}, &ProtocolError{Reason: "task response has no data object", Payload: body}
	}
	id, ok := taskID(data["id"])
	if !ok {
		return TaskHandle{}, &ProtocolError{Reason: "task id is not a string or number", Payload: body}
	}
	return TaskHandle{
		ID:     id,
		Status: taskStatus(data["status"]),
		Result: data["result"],
	}, nil
}

// taskID returns "" for absent or falsy identifiers (null, "", 0, false).
// ok is false for truthy values that cannot name a task.
func taskID(v any) (id string, ok bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case bool:
		return "", !t
	case string:
		return t, true
	case float64:
		if t == 0 {
			return "", true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func taskStatus(v any) TaskStatus {
	s, _ := v.(string)
	return TaskStatus(s)
}

// orEmpty substitutes an empty object for a missing payload.
func orEmpty(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}

type taskObserverKey struct{}

// TaskObserver is called with every task handle seen while resolving a call.
type TaskObserver func(TaskHandle)

// WithTaskObserver returns a context that reports task progress to fn.
func WithTaskObserver(ctx context.Context, fn TaskObserver) context.Context {
	return context.WithValue(ctx, taskObserverKey{}, fn)
}

func observeTask(ctx context.Context, h TaskHandle) {
	if fn, ok := ctx.Value(taskObserverKey{}).(TaskObserver); ok && fn != nil {
		fn(h)
	}
}
