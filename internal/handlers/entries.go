package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/opnlab/query-proxy/internal/models"
)

type fqdnItem struct {
	FQDN string `json:"fqdn"`
}

func (h *Handler) ListFQDNs(w http.ResponseWriter, r *http.Request) {
	fqdns, err := h.store.List(r.Context())
	if err != nil {
		h.log.WithError(err).Error("List fqdns failed")
		writeAppError(w, err)
		return
	}

	items := make([]fqdnItem, 0, len(fqdns))
	for _, f := range fqdns {
		items = append(items, fqdnItem{FQDN: f})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	fqdn := r.URL.Query().Get("fqdn")
	if fqdn == "" {
		writeError(w, http.StatusBadRequest, "fqdn is required")
		return
	}

	entry, err := h.store.Get(r.Context(), fqdn)
	if err != nil {
		h.log.WithError(err).WithField("fqdn", fqdn).Error("Get entry failed")
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	var entry models.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if entry.FQDN == "" {
		writeError(w, http.StatusBadRequest, "fqdn is required")
		return
	}

	if err := h.store.Upsert(r.Context(), entry); err != nil {
		h.log.WithError(err).WithField("fqdn", entry.FQDN).Error("Save entry failed")
		writeAppError(w, err)
		return
	}
	writeMessage(w, "query data saved")
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	fqdn := mux.Vars(r)["fqdn"]

	if err := h.store.Delete(r.Context(), fqdn); err != nil {
		h.log.WithError(err).WithField("fqdn", fqdn).Warn("Delete entry failed")
		writeAppError(w, err)
		return
	}
	writeMessage(w, "query data deleted")
}
