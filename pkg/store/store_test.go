/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(host, issueType string, at time.Time) *IssueRecord {
	return &IssueRecord{
		Host:       host,
		Hostname:   "gpu-node-01",
		Type:       issueType,
		Extra:      "Expected 8 GPUs, but found 7.",
		Status:     StatusReported,
		Priority:   "P1",
		FirstSeen:  at,
		LastUpdate: at,
	}
}

func TestGetAbsent(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	rec, err := h.Store.Get("10.0.0.1", "gpu.count")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUpsertPreservesFirstSeen(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	first := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.1", "gpu.count", first)))

	later := first.Add(2 * time.Hour)
	update := testRecord("10.0.0.1", "gpu.count", later)
	update.Hostname = "gpu-node-01-renamed"
	update.Extra = "Expected 8 GPUs, but found 6."
	update.Priority = "P0"
	require.NoError(t, h.Store.Upsert(update))

	rec, err := h.Store.Get("10.0.0.1", "gpu.count")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "gpu-node-01-renamed", rec.Hostname)
	assert.Equal(t, "Expected 8 GPUs, but found 6.", rec.Extra)
	assert.Equal(t, "P0", rec.Priority)
	assert.Equal(t, StatusReported, rec.Status)
	assert.WithinDuration(t, first, rec.FirstSeen, time.Second)
	assert.WithinDuration(t, later, rec.LastUpdate, time.Second)

	assert.Equal(t, int64(1), h.Count("current_status"))
}

func TestUpsertKeysOnHostAndType(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.1", "gpu.count", now)))
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.1", "gpu.temperature", now)))
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.2", "gpu.count", now)))
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.1", "gpu.count", now)))

	assert.Equal(t, int64(3), h.Count("current_status"))
}

func TestMarkResolved(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.1", "gpu.count", now)))

	changed, err := h.Store.MarkResolved("10.0.0.1", "gpu.count", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)

	rec, err := h.Store.Get("10.0.0.1", "gpu.count")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, StatusResolved, rec.Status)

	// Already resolved rows are left alone.
	changed, err = h.Store.MarkResolved("10.0.0.1", "gpu.count", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	// Absent rows report no change.
	changed, err = h.Store.MarkResolved("10.0.0.9", "gpu.count", now)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestQueryActiveByTypes(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.1", "gpu.xid_info", now)))
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.2", "gpu.xid_info", now)))
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.2", "network.ip_rule", now)))
	require.NoError(t, h.Store.Upsert(testRecord("10.0.0.3", "gpu.count", now)))

	_, err := h.Store.MarkResolved("10.0.0.2", "gpu.xid_info", now)
	require.NoError(t, err)

	recs, err := h.Store.QueryActiveByTypes([]string{"gpu.xid_info", "network.ip_rule"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "10.0.0.1", recs[0].Host)
	assert.Equal(t, "gpu.xid_info", recs[0].Type)
	assert.Equal(t, "10.0.0.2", recs[1].Host)
	assert.Equal(t, "network.ip_rule", recs[1].Type)

	recs, err = h.Store.QueryActiveByTypes(nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEventLogConfigIsConfigured(t *testing.T) {
	cfg := EventLogConfig{Host: "db.internal", Port: 3306, User: "inspector", Password: "secret", DBName: "alarms"}
	assert.True(t, cfg.IsConfigured())

	for _, clear := range []func(*EventLogConfig){
		func(c *EventLogConfig) { c.Host = "" },
		func(c *EventLogConfig) { c.User = "" },
		func(c *EventLogConfig) { c.Password = "" },
		func(c *EventLogConfig) { c.DBName = "" },
	} {
		broken := cfg
		clear(&broken)
		assert.False(t, broken.IsConfigured())
	}
}

func TestEventLogDSN(t *testing.T) {
	cfg := EventLogConfig{Host: "db.internal", Port: 3306, User: "inspector", Password: "secret", DBName: "alarms"}
	assert.Equal(t, "inspector:secret@tcp(db.internal:3306)/?charset=utf8mb4&parseTime=True&loc=Local", cfg.dsn(""))
	assert.Equal(t, "inspector:secret@tcp(db.internal:3306)/alarms?charset=utf8mb4&parseTime=True&loc=Local", cfg.dsn("alarms"))
}

func TestNilEventLogAppendIsNoop(t *testing.T) {
	var l *EventLog
	l.Append(&EventLogEntry{HostIP: "10.0.0.1", Type: "gpu.count", Detail: "x", Timestamp: time.Now()})
	assert.NoError(t, l.Close())
}
