/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

const (
	// store
	storePrefix     = "store."
	storeSqlitePath = storePrefix + "sqlite_path"

	// mysql
	mysqlPrefix   = "mysql."
	mysqlHost     = mysqlPrefix + "host"
	mysqlPort     = mysqlPrefix + "port"
	mysqlUser     = mysqlPrefix + "user"
	mysqlPassword = mysqlPrefix + "password"
	mysqlDBName   = mysqlPrefix + "db_name"

	// feishu_webhooks
	feishuPrefix         = "feishu_webhooks."
	feishuHardwareGroup  = feishuPrefix + "hardware_group"
	feishuSoftwareGroup  = feishuPrefix + "software_group"
	feishuAnalyticsGroup = feishuPrefix + "analytics_group"
	feishuTableSync      = feishuPrefix + "table_sync_webhook"

	// schedule
	schedulePrefix                = "schedule."
	scheduleMaxWorkers            = schedulePrefix + "max_workers"
	scheduleGpuIntervalSecond     = schedulePrefix + "gpu_interval_second"
	scheduleSystemIntervalMinute  = schedulePrefix + "system_interval_minute"
	scheduleNetworkIntervalMinute = schedulePrefix + "network_interval_minute"
	scheduleStorageIntervalMinute = schedulePrefix + "storage_interval_minute"
	scheduleDigestTime            = schedulePrefix + "digest_time"
	scheduleTimezone              = schedulePrefix + "timezone"

	// alert
	alertPrefix               = "alert."
	alertDebounceWindowSecond = alertPrefix + "debounce_window_second"
)
