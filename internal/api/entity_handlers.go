package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/cloudmc-client/internal/models"
	"github.com/rflorenc/cloudmc-client/pkg/cloudmc"
)

func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	conn := s.connection(w, r)
	if conn == nil {
		return
	}
	result, err := s.entity(conn, chi.URLParam(r, "entity")).List(r.Context())
	if err != nil {
		s.Logger.Warn("list failed", "connection", conn.Name, "entity", chi.URLParam(r, "entity"), "error", err)
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	conn := s.connection(w, r)
	if conn == nil {
		return
	}
	result, err := s.entity(conn, chi.URLParam(r, "entity")).Get(r.Context(), chi.URLParam(r, "entityId"))
	if err != nil {
		s.Logger.Warn("get failed", "connection", conn.Name, "entity", chi.URLParam(r, "entity"), "error", err)
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) entity(conn *models.Connection, entityType string) *cloudmc.Entity {
	return s.Client.Service(conn.ServiceCode, conn.Environment).Entity(entityType)
}
