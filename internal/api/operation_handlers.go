package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/cloudmc-client/internal/models"
	"github.com/rflorenc/cloudmc-client/pkg/cloudmc"
)

// OperationRequest is the body of POST .../operations/{operation}.
type OperationRequest struct {
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}

// RunOperation dispatches a named operation as a tracked job and returns its
// id immediately. Task progress is appended to the job log.
func (s *Server) RunOperation(w http.ResponseWriter, r *http.Request) {
	conn := s.connection(w, r)
	if conn == nil {
		return
	}
	entityType := chi.URLParam(r, "entity")
	operation := chi.URLParam(r, "operation")

	var req OperationRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	job, ctx := s.Jobs.Create(context.Background(), conn.ID, entityType, req.ID, operation)
	entity := s.entity(conn, entityType)

	go s.runOperation(ctx, job, conn, entity, operation, req)

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (s *Server) runOperation(ctx context.Context, job *models.Job, conn *models.Connection, entity *cloudmc.Entity, operation string, req OperationRequest) {
	target := entity.Target()
	job.AppendLog(fmt.Sprintf("Running %s on %s/%s/%s (%s)",
		operation, target.ServiceCode, target.EnvironmentName, target.EntityType, conn.Name))

	ctx = cloudmc.WithTaskObserver(ctx, func(h cloudmc.TaskHandle) {
		job.SetTask(h.ID)
		job.AppendLog(fmt.Sprintf("Task %s: %s", h.ID, h.Status))
	})

	var body any
	if len(req.Body) > 0 && string(req.Body) != "null" {
		body = req.Body
	}

	result, err := entity.Do(ctx, operation, req.ID, body)
	switch {
	case err == nil:
		job.AppendLog("Completed")
		job.Complete(result)
	case errors.Is(err, context.Canceled):
		job.AppendLog("CANCELLED: operation stopped by user")
		job.Canceled()
	default:
		job.AppendLog("ERROR: " + err.Error())
		job.Fail(err.Error(), cloudmc.ErrorKind(err))
		s.Logger.Warn("operation failed", "job_id", job.ID, "operation", operation, "error", err)
	}
}
