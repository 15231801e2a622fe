package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opnlab/query-proxy/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// writeAppError maps the error taxonomy onto status codes. Parse failures
// carry the raw upstream body for diagnostics; credentials never appear
// in any envelope.
func writeAppError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch kind {
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case apperr.KindTimeout:
		writeError(w, http.StatusRequestTimeout, err.Error())
	case apperr.KindParse:
		var e *apperr.Error
		if errors.As(err, &e) && e.Raw != "" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": e.Message,
				"raw":   e.Raw,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
