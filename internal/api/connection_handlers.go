package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/cloudmc-client/internal/models"
)

func (s *Server) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if msg := conn.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.Connections.Create(&conn); err != nil {
		writeError(w, http.StatusConflict, "connection "+conn.Name+" already exists")
		return
	}
	s.Logger.Info("connection created", "id", conn.ID, "name", conn.Name)
	writeJSON(w, http.StatusCreated, conn)
}

func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.Connections.List()
	writeJSON(w, http.StatusOK, conns)
}

func (s *Server) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn := s.connection(w, r)
	if conn == nil {
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (s *Server) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if msg := conn.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	conn.ID = id
	if err := s.Connections.Update(&conn); err != nil {
		if errors.Is(err, models.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "connection "+conn.Name+" already exists")
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (s *Server) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Connections.Delete(id) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// connection resolves {id} by ID or name, writing a 404 when neither matches.
func (s *Server) connection(w http.ResponseWriter, r *http.Request) *models.Connection {
	id := chi.URLParam(r, "id")
	conn := s.Connections.Get(id)
	if conn == nil {
		conn = s.Connections.FindByName(id)
	}
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
	}
	return conn
}
