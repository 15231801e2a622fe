package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opnlab/query-proxy/internal/apperr"
	"github.com/opnlab/query-proxy/internal/executor"
	"github.com/opnlab/query-proxy/internal/filter"
	"github.com/opnlab/query-proxy/internal/models"
)

type executeRequest struct {
	FQDN         string `json:"fqdn"`
	UserMail     string `json:"user_mail"`
	UserPassword string `json:"user_password"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Parameters   string `json:"parameters"`
	Comments     string `json:"comments"`
	MimeType     string `json:"mimeType"`
	Timeout      int    `json:"timeout"`
}

func (req *executeRequest) validate() error {
	switch {
	case req.FQDN == "":
		return apperr.New(apperr.KindValidation, "fqdn is required")
	case req.UserMail == "":
		return apperr.New(apperr.KindValidation, "user_mail is required")
	case req.UserPassword == "":
		return apperr.New(apperr.KindValidation, "user_password is required")
	case req.Parameters == "":
		return apperr.New(apperr.KindValidation, "parameters is required")
	}
	return nil
}

// ExecuteQuery runs the persist-then-proxy-then-filter pipeline for one
// request. The pre-execution save is best-effort: a store failure is
// logged and swallowed, never surfaced to the caller. No lock spans the
// save and the proxy call, so a delete racing an in-flight execute may
// re-create the row; that race is accepted.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeAppError(w, err)
		return
	}

	log := h.log.WithField("fqdn", req.FQDN)

	entry := models.Entry{
		FQDN:         req.FQDN,
		UserMail:     req.UserMail,
		UserPassword: req.UserPassword,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Parameters:   req.Parameters,
		Comments:     req.Comments,
	}
	if err := h.store.Upsert(r.Context(), entry); err != nil {
		log.WithError(err).Warn("Pre-execution save failed, continuing")
	}

	timeout := time.Duration(req.Timeout) * time.Second
	if req.Timeout <= 0 {
		timeout = h.cfg.DefaultTimeout
	}

	start := time.Now()
	res, err := h.executor.Execute(r.Context(), executor.Request{
		FQDN:         req.FQDN,
		UserMail:     req.UserMail,
		UserPassword: req.UserPassword,
		Parameters:   req.Parameters,
		MimeType:     req.MimeType,
		Timeout:      timeout,
	})

	h.observeExecute(req, res, err, time.Since(start))

	if err != nil {
		kind, _ := apperr.KindOf(err)
		log.WithFields(logrus.Fields{
			"outcome":  kind.String(),
			"duration": time.Since(start),
		}).Warn("Query execution failed")
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, filter.ByRange(res.Value, req.StartDate, req.EndDate))
}

func (h *Handler) observeExecute(req executeRequest, res *executor.Result, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok {
			outcome = kind.String()
		} else {
			outcome = "error"
		}
	}

	h.metrics.ObserveExecute(outcome, elapsed)

	t := models.QueryTrace{
		FQDN:       req.FQDN,
		Parameters: req.Parameters,
		Outcome:    outcome,
		Duration:   elapsed,
	}
	var raw []byte
	if res != nil {
		t.Status = res.StatusCode
		t.BytesRead = len(res.Raw)
		raw = res.Raw
	}
	h.recorder.Record(t, raw)
}
