package cloudmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPollLimitExceeded is wrapped by PollLimitError.
var ErrPollLimitExceeded = errors.New("task poll limit exceeded")

// ConfigurationError is returned when a client or capability is built
// without a required setting. It is raised before any network activity.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// OperationFailedError is returned when the backend reports a task as FAILED.
type OperationFailedError struct {
	TaskID string
	Result any
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("operation failed: task %s", e.TaskID)
}

// ProtocolError is returned when a response cannot be interpreted as either
// an immediate result or a task. Payload is the offending response.
type ProtocolError struct {
	Reason  string
	Payload any
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected API response (%s): %s", e.Reason, truncate(payloadString(e.Payload), 200))
}

// TransportError wraps network failures, non-2xx statuses and non-JSON bodies.
// StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
		if e.StatusCode >= 200 && e.StatusCode < 300 && e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		if e.Body != "" {
			msg += ": " + truncate(e.Body, 200)
		}
		return msg
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PollLimitError is returned when a task is still PENDING after the
// configured number of polls.
type PollLimitError struct {
	TaskID   string
	Attempts int
}

func (e *PollLimitError) Error() string {
	return fmt.Sprintf("task %s still pending after %d polls", e.TaskID, e.Attempts)
}

func (e *PollLimitError) Unwrap() error { return ErrPollLimitExceeded }

// ErrorKind names the taxonomy case of err for logs and metrics labels.
func ErrorKind(err error) string {
	var (
		cfgErr    *ConfigurationError
		failedErr *OperationFailedError
		protoErr  *ProtocolError
		transErr  *TransportError
		pollErr   *PollLimitError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &failedErr):
		return "operation_failed"
	case errors.As(err, &protoErr):
		return "protocol"
	case errors.As(err, &pollErr):
		return "poll_limit"
	case errors.As(err, &transErr):
		return "transport"
	}
	return "error"
}

func payloadString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
