/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package store

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/backoff"
)

const (
	openRetries      = 3
	openInterval     = 5 * time.Second
	connMaxLifetime  = time.Hour
	maxIdleConns     = 2
	maxOpenEventConn = 5
)

// EventLogConfig is the MySQL endpoint for the external event log. An
// incomplete config disables the sink rather than failing startup.
type EventLogConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// IsConfigured reports whether every field needed to reach the server
// is present.
func (c EventLogConfig) IsConfigured() bool {
	return c.Host != "" && c.User != "" && c.Password != "" && c.DBName != ""
}

func (c EventLogConfig) dsn(dbName string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, dbName)
}

// EventLog is the append-only transition history in MySQL. It is an
// optional sink: a nil *EventLog drops every append silently.
type EventLog struct {
	db *gorm.DB
}

// OpenEventLog connects to MySQL, creating the database and the
// events_alarms table when missing. The connect is retried a few times
// so the daemon survives a log server that is still coming up.
func OpenEventLog(cfg EventLogConfig) (*EventLog, error) {
	var db *gorm.DB
	err := backoff.CountRetry(func() error {
		var err error
		db, err = openEventDB(cfg)
		if err != nil {
			klog.Warningf("event log connect failed, will retry: %v", err)
		}
		return err
	}, openRetries, openInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open event log %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	}
	klog.Infof("event log ready at %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &EventLog{db: db}, nil
}

func openEventDB(cfg EventLogConfig) (*gorm.DB, error) {
	// The target database may not exist yet. Connect at server level
	// first and create it, then reopen scoped to the database.
	server, err := gorm.Open(mysql.Open(cfg.dsn("")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	err = server.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.DBName)).Error
	if closeErr := closeGorm(server); closeErr != nil {
		klog.Warningf("failed to close server-level connection: %v", closeErr)
	}
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(mysql.Open(cfg.dsn(cfg.DBName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&EventLogEntry{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenEventConn)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

// Append writes one transition record. It is best effort: failures are
// logged and dropped, and the pool re-dials on the next call after a
// lost connection.
func (l *EventLog) Append(entry *EventLogEntry) {
	if l == nil || l.db == nil {
		return
	}
	if err := l.db.Create(entry).Error; err != nil {
		klog.Warningf("failed to append event %s/%s: %v", entry.HostIP, entry.Type, err)
	}
}

// Close releases the underlying pool. Safe on a nil log.
func (l *EventLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return closeGorm(l.db)
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
