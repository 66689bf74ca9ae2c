/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestHelper provides a migrated in-memory store for store and engine tests.
type TestHelper struct {
	Store *Store
	T     *testing.T
}

// NewTestHelper opens an in-memory SQLite database with the
// current_status table migrated.
func NewTestHelper(t *testing.T) *TestHelper {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent mode to reduce noise
	})
	require.NoError(t, err, "Failed to open SQLite database")

	err = db.AutoMigrate(&IssueRecord{})
	require.NoError(t, err, "Failed to auto-migrate models")

	return &TestHelper{
		Store: &Store{db: db},
		T:     t,
	}
}

// Cleanup closes the database connection
func (h *TestHelper) Cleanup() {
	sqlDB, err := h.Store.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// Count returns the number of records in a table
func (h *TestHelper) Count(tableName string) int64 {
	var count int64
	h.Store.db.Table(tableName).Count(&count)
	return count
}
