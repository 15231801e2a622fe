package handlers

import (
	"net/http"

	"github.com/dustin/go-humanize"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.WithError(err).Error("Health check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":   "ERROR",
			"database": "Disconnected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "OK",
		"database": "Connected",
		"started":  humanize.Time(h.started),
	})
}
