// Package trace keeps an append-only record of proxied queries: one
// database row per execution, optionally with the raw upstream body
// archived to object storage. Recording is best-effort and asynchronous;
// it never blocks or fails a query.
package trace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opnlab/query-proxy/internal/models"
)

type Recorder struct {
	db      *gorm.DB
	archive *Archive
	log     *logrus.Entry
}

// NewRecorder builds a Recorder. archive may be nil, in which case raw
// bodies are not kept.
func NewRecorder(logger *logrus.Logger, db *gorm.DB, archive *Archive) *Recorder {
	return &Recorder{
		db:      db,
		archive: archive,
		log:     logger.WithField("component", "trace_recorder"),
	}
}

func ArchiveKey(id string) string {
	return "traces/" + id + ".json"
}

// Record persists one trace row in the background. raw is the upstream
// response body; it is only uploaded when an archive is configured.
// Trace rows identify the target and outcome but never the credentials.
func (r *Recorder) Record(t models.QueryTrace, raw []byte) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.Archived = r.archive != nil && len(raw) > 0

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
			r.log.WithError(err).Warn("Failed to save query trace")
			return
		}

		if t.Archived {
			if err := r.archive.Put(ctx, ArchiveKey(t.ID), raw); err != nil {
				r.log.WithFields(logrus.Fields{
					"trace_id": t.ID,
					"error":    err,
				}).Warn("Failed to archive response body")
			}
		}
	}()
}
