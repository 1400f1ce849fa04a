package cloudmc

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ServiceCoordinate identifies a tenant/environment pair.
type ServiceCoordinate struct {
	ServiceCode     string
	EnvironmentName string
}

// Entity selects an entity type within the coordinate.
func (c ServiceCoordinate) Entity(entityType string) EntityTarget {
	return EntityTarget{
		ServiceCode:     c.ServiceCode,
		EnvironmentName: c.EnvironmentName,
		EntityType:      entityType,
	}
}

// EntityTarget identifies a resource collection within a coordinate.
type EntityTarget struct {
	ServiceCode     string
	EnvironmentName string
	EntityType      string
}

// OperationRequest is the fully specified intent for one call.
// ID is empty for collection-level calls; Operation is set only for
// custom actions.
type OperationRequest struct {
	Method     string
	EntityType string
	ID         string
	Operation  string
	Body       any
}

// Dispatcher turns operation requests into HTTP calls and resolves
// their responses. It performs no retries and no body validation.
type Dispatcher struct {
	endpoint string
	fetcher  Fetcher
	resolver Resolver
	logger   hclog.Logger
	metrics  *Metrics
}

// NewDispatcher creates a Dispatcher for endpoint.
func NewDispatcher(endpoint string, fetcher Fetcher, resolver Resolver, logger hclog.Logger, metrics *Metrics) *Dispatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Dispatcher{
		endpoint: strings.TrimRight(endpoint, "/"),
		fetcher:  fetcher,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch sends req against target and returns the resolved result.
// Fetcher errors are returned unmodified.
func (d *Dispatcher) Dispatch(ctx context.Context, target EntityTarget, req OperationRequest) (any, error) {
	if req.EntityType != "" {
		target.EntityType = req.EntityType
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	u := d.URL(target, req.ID, req.Operation)
	label := operationLabel(method, req)

	d.logger.Debug("dispatching operation",
		"method", method, "url", u, "entity_type", target.EntityType, "operation", label, "action", req.Operation)

	start := time.Now()
	result, err := d.dispatch(ctx, method, u, req.Body)
	d.metrics.dispatched(target.EntityType, label, start, err)
	if err != nil {
		d.logger.Debug("operation failed", "url", u, "error", err)
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, method, u string, body any) (any, error) {
	raw, err := d.fetcher.Fetch(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	return d.resolver.Resolve(ctx, raw)
}

// URL builds {endpoint}/services/{service}/{environment}/{entity}[/{id}][?operation={operation}].
func (d *Dispatcher) URL(target EntityTarget, id, operation string) string {
	var b strings.Builder
	b.WriteString(d.endpoint)
	b.WriteString("/services/")
	b.WriteString(url.PathEscape(target.ServiceCode))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(target.EnvironmentName))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(target.EntityType))
	if id != "" {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(id))
	}
	if operation != "" {
		b.WriteString("?operation=")
		b.WriteString(url.QueryEscape(operation))
	}
	return b.String()
}

// CustomOperationLabel is the metrics label shared by all custom actions,
// keeping the label set bounded.
const CustomOperationLabel = "custom"

// operationLabel names the call for logs and metrics.
func operationLabel(method string, req OperationRequest) string {
	if req.Operation != "" {
		return CustomOperationLabel
	}
	switch method {
	case http.MethodPost:
		return OpCreate
	case http.MethodPut:
		return OpUpdate
	case http.MethodDelete:
		return OpDelete
	}
	if req.ID != "" {
		return OpGet
	}
	return OpList
}
