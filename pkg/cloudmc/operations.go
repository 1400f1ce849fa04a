package cloudmc

import (
	"context"
	"net/http"
	"sort"
)

// Built-in operation names. Any other name is a custom action.
const (
	OpCreate = "create"
	OpDelete = "delete"
	OpUpdate = "update"
	OpGet    = "get"
	OpList   = "list"
)

// operationFunc runs one named operation; id and body are ignored by
// operations that take no such argument.
type operationFunc func(ctx context.Context, e *Entity, id string, body any) (any, error)

var operations = map[string]operationFunc{
	OpCreate: func(ctx context.Context, e *Entity, _ string, body any) (any, error) {
		return e.Create(ctx, body)
	},
	OpDelete: func(ctx context.Context, e *Entity, id string, body any) (any, error) {
		return e.Delete(ctx, id, body)
	},
	OpUpdate: func(ctx context.Context, e *Entity, id string, body any) (any, error) {
		return e.Update(ctx, id, body)
	},
	OpGet: func(ctx context.Context, e *Entity, id string, _ any) (any, error) {
		return e.Get(ctx, id)
	},
	OpList: func(ctx context.Context, e *Entity, _ string, _ any) (any, error) {
		return e.List(ctx)
	},
}

// Operations returns the built-in operation names, sorted.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCustomOperation reports whether name falls through to Execute.
func IsCustomOperation(name string) bool {
	_, ok := operations[name]
	return !ok
}

// Entity issues operations against one entity type.
type Entity struct {
	dispatcher *Dispatcher
	target     EntityTarget
}

// Target returns the entity's coordinates.
func (e *Entity) Target() EntityTarget { return e.target }

// Do runs the named operation. Built-in names map to the typed methods;
// anything else is sent as a custom action with an optional id and body.
func (e *Entity) Do(ctx context.Context, operation, id string, body any) (any, error) {
	if fn, ok := operations[operation]; ok {
		return fn(ctx, e, id, body)
	}
	return e.Execute(ctx, operation, id, body)
}

// Create issues POST on the collection.
func (e *Entity) Create(ctx context.Context, body any) (any, error) {
	return e.dispatch(ctx, OperationRequest{Method: http.MethodPost, Body: body})
}

// Get issues GET on one instance.
func (e *Entity) Get(ctx context.Context, id string) (any, error) {
	return e.dispatch(ctx, OperationRequest{Method: http.MethodGet, ID: id})
}

// List issues GET on the collection.
func (e *Entity) List(ctx context.Context) (any, error) {
	return e.dispatch(ctx, OperationRequest{Method: http.MethodGet})
}

// Update issues PUT on one instance.
func (e *Entity) Update(ctx context.Context, id string, body any) (any, error) {
	return e.dispatch(ctx, OperationRequest{Method: http.MethodPut, ID: id, Body: body})
}

// Delete issues DELETE on one instance. body may be nil.
func (e *Entity) Delete(ctx context.Context, id string, body any) (any, error) {
	return e.dispatch(ctx, OperationRequest{Method: http.MethodDelete, ID: id, Body: body})
}

// Execute issues POST ?operation=<operation>, on the instance when id is
// set and on the collection otherwise.
func (e *Entity) Execute(ctx context.Context, operation, id string, body any) (any, error) {
	return e.dispatch(ctx, OperationRequest{
		Method:    http.MethodPost,
		ID:        id,
		Operation: operation,
		Body:      body,
	})
}

func (e *Entity) dispatch(ctx context.Context, req OperationRequest) (any, error) {
	req.EntityType = e.target.EntityType
	return e.dispatcher.Dispatch(ctx, e.target, req)
}
