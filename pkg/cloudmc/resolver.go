package cloudmc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

// Resolver turns a raw dispatch response into the call's final result,
// waiting on asynchronous tasks when needed.
type Resolver interface {
	Resolve(ctx context.Context, body any) (any, error)
}

// ResolverFactory builds the resolver for a client. The fetcher it receives
// is already authenticated.
type ResolverFactory func(opts Options, fetcher Fetcher) (Resolver, error)

// PollStrategy selects how the wait between task polls evolves.
type PollStrategy string

const (
	PollConstant    PollStrategy = "constant"
	PollExponential PollStrategy = "exponential"
)

const (
	DefaultPollInterval    = 1 * time.Second
	DefaultPollMaxInterval = 30 * time.Second
	DefaultPollMaxAttempts = 600
)

// PollingConfig controls the wait between polls of a PENDING task.
// MaxAttempts of zero polls until the task reaches a terminal status.
type PollingConfig struct {
	Strategy    PollStrategy
	Interval    time.Duration
	MaxInterval time.Duration
	MaxAttempts int
}

// DefaultPollingConfig polls every second, up to 600 times.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Strategy:    PollConstant,
		Interval:    DefaultPollInterval,
		MaxInterval: DefaultPollMaxInterval,
		MaxAttempts: DefaultPollMaxAttempts,
	}
}

func (c PollingConfig) withDefaults() PollingConfig {
	if c.Strategy == "" {
		c.Strategy = PollConstant
	}
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = DefaultPollMaxInterval
	}
	if c.MaxInterval < c.Interval {
		c.MaxInterval = c.Interval
	}
	if c.MaxAttempts < 0 {
		c.MaxAttempts = 0
	}
	return c
}

// newBackOff returns a fresh wait policy for one call.
func (c PollingConfig) newBackOff() backoff.BackOff {
	var b backoff.BackOff
	switch c.Strategy {
	case PollExponential:
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = c.Interval
		exp.MaxInterval = c.MaxInterval
		exp.MaxElapsedTime = 0
		b = exp
	default:
		b = backoff.NewConstantBackOff(c.Interval)
	}
	if c.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(c.MaxAttempts))
	}
	b.Reset()
	return b
}

// PollingResolver follows PENDING tasks by polling {endpoint}/tasks/{id}.
// It holds no per-call state and is safe for concurrent use.
type PollingResolver struct {
	endpoint string
	fetcher  Fetcher
	polling  PollingConfig
	logger   hclog.Logger
	metrics  *Metrics
}

// NewPollingResolver creates a resolver polling the given endpoint.
func NewPollingResolver(endpoint string, fetcher Fetcher, polling PollingConfig, logger hclog.Logger, metrics *Metrics) *PollingResolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PollingResolver{
		endpoint: strings.TrimRight(endpoint, "/"),
		fetcher:  fetcher,
		polling:  polling.withDefaults(),
		logger:   logger,
		metrics:  metrics,
	}
}

// PollingResolverFactory is the default ResolverFactory.
func PollingResolverFactory(opts Options, fetcher Fetcher) (Resolver, error) {
	return NewPollingResolver(opts.Endpoint, fetcher, opts.Polling, opts.Logger, opts.Metrics), nil
}

// Resolve interprets an initial dispatch response. Responses without a task
// id return their data immediately; PENDING tasks are polled until SUCCESS
// or FAILED, the poll limit, or ctx cancellation.
func (r *PollingResolver) Resolve(ctx context.Context, body any) (any, error) {
	task, err := initialHandle(body)
	if err != nil {
		return nil, err
	}

	b := r.polling.newBackOff()
	raw := body
	polls := 0
	for {
		if task.ID == "" {
			return orEmpty(task.Result), nil
		}
		observeTask(ctx, task)

		switch task.Status {
		case StatusSuccess:
			return orEmpty(task.Result), nil
		case StatusFailed:
			return nil, &OperationFailedError{TaskID: task.ID, Result: task.Result}
		case StatusPending:
		default:
			return nil, &ProtocolError{
				Reason:  fmt.Sprintf("unrecognized task status %q", task.Status),
				Payload: raw,
			}
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return nil, &PollLimitError{TaskID: task.ID, Attempts: polls}
		}
		if err := sleepContext(ctx, wait); err != nil {
			return nil, err
		}

		r.logger.Trace("polling task", "task_id", task.ID, "attempt", polls+1, "wait", wait)
		raw, err = r.fetcher.Fetch(ctx, http.MethodGet, r.taskURL(task.ID), nil)
		if err != nil {
			return nil, err
		}
		polls++

		task, err = polledHandle(raw)
		if err != nil {
			return nil, err
		}
		r.metrics.taskPolled(task.Status)
	}
}

func (r *PollingResolver) taskURL(id string) string {
	return r.endpoint + "/tasks/" + url.PathEscape(id)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
