/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"github.com/spf13/viper"
)

func SetValue(key string, value interface{}) {
	viper.Set(key, value)
}

func LoadConfig(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func GetSqlitePath() string {
	return getString(storeSqlitePath, "gpu_inspector.db")
}

func GetMysqlHost() string {
	return getString(mysqlHost, "")
}

func GetMysqlPort() int {
	return getInt(mysqlPort, 3306)
}

func GetMysqlUser() string {
	return getString(mysqlUser, "")
}

func GetMysqlPassword() string {
	return getString(mysqlPassword, "")
}

func GetMysqlDBName() string {
	return getString(mysqlDBName, "")
}

func GetHardwareGroupWebhook() string {
	return getString(feishuHardwareGroup, "")
}

func GetSoftwareGroupWebhook() string {
	return getString(feishuSoftwareGroup, "")
}

func GetAnalyticsGroupWebhook() string {
	return getString(feishuAnalyticsGroup, "")
}

func GetTableSyncWebhook() string {
	return getString(feishuTableSync, "")
}

func GetMaxWorkers() int {
	return getInt(scheduleMaxWorkers, 5)
}

func GetGpuIntervalSecond() int {
	return getInt(scheduleGpuIntervalSecond, 30)
}

func GetSystemIntervalMinute() int {
	return getInt(scheduleSystemIntervalMinute, 10)
}

func GetNetworkIntervalMinute() int {
	return getInt(scheduleNetworkIntervalMinute, 5)
}

func GetStorageIntervalMinute() int {
	return getInt(scheduleStorageIntervalMinute, 10)
}

func GetDigestTime() string {
	return getString(scheduleDigestTime, "09:00")
}

func GetTimezone() string {
	return getString(scheduleTimezone, "Asia/Shanghai")
}

func GetDebounceWindowSecond() int {
	return getInt(alertDebounceWindowSecond, 60)
}
