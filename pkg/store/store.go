/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package store

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"k8s.io/klog/v2"
)

// Store is the local authoritative issue store backed by SQLite. All
// workers share one handle; a single pooled connection plus the busy
// timeout serializes concurrent writers.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the SQLite database at path and migrates the
// current_status table.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite store %s", path)
	}
	if err := db.AutoMigrate(&IssueRecord{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate current_status")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	klog.Infof("issue store ready at %s", path)
	return &Store{db: db}, nil
}

// Get returns the record for (host, issueType), or nil when absent.
func (s *Store) Get(host, issueType string) (*IssueRecord, error) {
	var rec IssueRecord
	err := s.db.Where("host = ? AND type = ?", host, issueType).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query issue %s/%s", host, issueType)
	}
	return &rec, nil
}

// Upsert inserts the record or, when the (host, type) row exists,
// rewrites everything except first_seen.
func (s *Store) Upsert(rec *IssueRecord) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "host"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"hostname", "extra", "status", "priority", "last_update",
		}),
	}).Create(rec).Error
	return errors.Wrapf(err, "failed to upsert issue %s/%s", rec.Host, rec.Type)
}

// MarkResolved flips the (host, issueType) row to resolved and reports
// whether a row actually changed. Rows already resolved are untouched.
func (s *Store) MarkResolved(host, issueType string, at time.Time) (bool, error) {
	result := s.db.Model(&IssueRecord{}).
		Where("host = ? AND type = ? AND status <> ?", host, issueType, StatusResolved).
		Updates(map[string]interface{}{
			"status":      StatusResolved,
			"last_update": at,
		})
	if result.Error != nil {
		return false, errors.Wrapf(result.Error, "failed to resolve issue %s/%s", host, issueType)
	}
	return result.RowsAffected > 0, nil
}

// QueryActiveByTypes returns every non-resolved record whose type is in
// issueTypes, ordered for stable digest rendering.
func (s *Store) QueryActiveByTypes(issueTypes []string) ([]IssueRecord, error) {
	if len(issueTypes) == 0 {
		return nil, nil
	}
	var recs []IssueRecord
	err := s.db.Where("status <> ? AND type IN ?", StatusResolved, issueTypes).
		Order("host, type").Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query active issues")
	}
	return recs, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
