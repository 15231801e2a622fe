// Package store persists query configuration entries keyed by fqdn.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opnlab/query-proxy/internal/apperr"
	"github.com/opnlab/query-proxy/internal/models"
)

type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

func New(logger *logrus.Logger, db *gorm.DB) *Store {
	return &Store{
		db:  db,
		log: logger.WithField("component", "entry_store"),
	}
}

// List returns every stored fqdn in ascending lexicographic order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	fqdns := []string{}
	err := s.db.WithContext(ctx).
		Model(&models.Entry{}).
		Order("fqdn asc").
		Pluck("fqdn", &fqdns).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "list entries", err)
	}
	return fqdns, nil
}

// Get returns the entry for fqdn. An unknown fqdn is not an error: the
// caller gets a zero-valued entry echoing the fqdn, so a form can always
// be rendered from the result.
func (s *Store) Get(ctx context.Context, fqdn string) (models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).First(&entry, "fqdn = ?", fqdn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Entry{FQDN: fqdn}, nil
	}
	if err != nil {
		return models.Entry{}, apperr.Wrap(apperr.KindStore, "get entry", err)
	}
	return entry, nil
}

// Upsert inserts the entry or overwrites every stored field except
// created_at. last_updated is always refreshed. Last writer wins; the
// upsert is a single atomic statement.
func (s *Store) Upsert(ctx context.Context, entry models.Entry) error {
	if entry.FQDN == "" {
		return apperr.New(apperr.KindValidation, "fqdn is required")
	}

	now := time.Now()
	entry.CreatedAt = now
	entry.LastUpdated = now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fqdn"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_mail", "user_password", "start_date", "end_date",
			"parameters", "comments", "last_updated",
		}),
	}).Create(&entry).Error
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "upsert entry", err)
	}
	return nil
}

// Delete removes the entry for fqdn, failing when no row matched.
func (s *Store) Delete(ctx context.Context, fqdn string) error {
	res := s.db.WithContext(ctx).Delete(&models.Entry{}, "fqdn = ?", fqdn)
	if res.Error != nil {
		return apperr.Wrap(apperr.KindStore, "delete entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "no entry for fqdn "+fqdn)
	}
	return nil
}

// Ping reports store reachability for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "acquire connection", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.Wrap(apperr.KindStore, "ping", err)
	}
	return nil
}
