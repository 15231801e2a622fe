package trace

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opnlab/query-proxy/internal/config"
	"github.com/opnlab/query-proxy/internal/models"
)

// Retention deletes trace rows (and their archived bodies) older than the
// configured retention window.
type Retention struct {
	logger  *logrus.Logger
	db      *gorm.DB
	archive *Archive
	cfg     *config.Config
}

func NewRetention(logger *logrus.Logger, db *gorm.DB, archive *Archive, cfg *config.Config) *Retention {
	return &Retention{
		logger:  logger,
		db:      db,
		archive: archive,
		cfg:     cfg,
	}
}

func (r *Retention) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	logEntry := r.logger.WithField("component", "trace_retention")
	logEntry.WithField("retention", r.cfg.TraceRetention).Info("Starting trace retention sweeper")

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx, logEntry)
		case <-ctx.Done():
			logEntry.Info("Stopping trace retention sweeper")
			return
		}
	}
}

func (r *Retention) sweep(ctx context.Context, log *logrus.Entry) {
	log = log.WithField("operation", "trace_sweep")
	cutoff := time.Now().Add(-r.cfg.TraceRetention)

	var traces []models.QueryTrace
	if err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Find(&traces).Error; err != nil {
		log.WithError(err).Error("Trace sweep query failed")
		return
	}

	if len(traces) == 0 {
		return
	}

	log.WithField("count", len(traces)).Info("Processing expired traces")

	for _, t := range traces {
		if t.Archived && r.archive != nil {
			if err := r.archive.Delete(ctx, ArchiveKey(t.ID)); err != nil {
				log.WithFields(logrus.Fields{"trace_id": t.ID, "error": err}).Error("Failed to delete archived body")
				continue
			}
		}
		if err := r.db.WithContext(ctx).Delete(&t).Error; err != nil {
			log.WithFields(logrus.Fields{"trace_id": t.ID, "error": err}).Error("Failed to delete trace row")
		}
	}
}
