package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/cloudmc-client/internal/models"
)

func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.Jobs.List()
	infos := make([]models.JobInfo, 0, len(jobs))
	for _, j := range jobs {
		infos = append(infos, j.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Info())
}

// CancelJob cancels a running job. Polling stops at the next wait.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if !job.Cancel() {
		writeError(w, http.StatusConflict, "job is not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}
