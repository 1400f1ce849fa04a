package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rflorenc/cloudmc-client/pkg/cloudmc"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDispatchError maps a client error onto a gateway response.
func writeDispatchError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var (
		failedErr *cloudmc.OperationFailedError
		pollErr   *cloudmc.PollLimitError
		transErr  *cloudmc.TransportError
	)
	switch {
	case errors.As(err, &failedErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &pollErr):
		status = http.StatusGatewayTimeout
	case errors.As(err, &transErr) && transErr.StatusCode == http.StatusNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  cloudmc.ErrorKind(err),
	})
}
