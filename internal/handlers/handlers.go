// Package handlers is the HTTP facade: it validates input, delegates to
// the store, the executor and the filter, and maps failures to status
// codes. No state crosses requests except through the store.
package handlers

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opnlab/query-proxy/internal/config"
	"github.com/opnlab/query-proxy/internal/executor"
	"github.com/opnlab/query-proxy/internal/metrics"
	"github.com/opnlab/query-proxy/internal/store"
	"github.com/opnlab/query-proxy/internal/trace"
)

type Handler struct {
	cfg      *config.Config
	store    *store.Store
	executor *executor.Executor
	recorder *trace.Recorder
	metrics  *metrics.Collector
	log      *logrus.Entry
	started  time.Time
}

func New(logger *logrus.Logger, cfg *config.Config, st *store.Store, ex *executor.Executor, rec *trace.Recorder, col *metrics.Collector) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    st,
		executor: ex,
		recorder: rec,
		metrics:  col,
		log:      logger.WithField("component", "http_facade"),
		started:  time.Now(),
	}
}
