/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package store

import (
	"time"
)

const (
	StatusReported = "reported"
	StatusResolved = "resolved"
)

// IssueRecord is the current state of one (host, type) issue. A row is
// created on the first failure, rewritten on recurrence or detail change,
// and flipped to resolved on recovery; FirstSeen survives every rewrite.
type IssueRecord struct {
	Host       string    `gorm:"column:host;primaryKey;type:varchar(64)"`
	Hostname   string    `gorm:"column:hostname;type:varchar(255)"`
	Type       string    `gorm:"column:type;primaryKey;type:varchar(64)"`
	Extra      string    `gorm:"column:extra;type:text"`
	Status     string    `gorm:"column:status;type:varchar(20)"`
	Priority   string    `gorm:"column:priority;type:varchar(20)"`
	FirstSeen  time.Time `gorm:"column:first_seen"`
	LastUpdate time.Time `gorm:"column:last_update"`
}

// TableName returns the table name for IssueRecord
func (*IssueRecord) TableName() string {
	return "current_status"
}

// EventLogEntry is one append-only transition record in the external
// event log: a failure transition carries the finding detail, a recovery
// carries the literal "ISSUE RESOLVED".
type EventLogEntry struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true"`
	HostIP    string    `gorm:"column:host_ip;type:varchar(64)"`
	HostName  string    `gorm:"column:host_name;type:varchar(255)"`
	Type      string    `gorm:"column:type;type:varchar(64)"`
	Detail    string    `gorm:"column:detail;type:text"`
	Timestamp time.Time `gorm:"column:timestamp"`
}

// TableName returns the table name for EventLogEntry
func (*EventLogEntry) TableName() string {
	return "events_alarms"
}
