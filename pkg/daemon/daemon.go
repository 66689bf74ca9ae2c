/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package daemon

import (
	"fmt"
	"time"

	apiserver "k8s.io/apiserver/pkg/server"
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/alert"
	"github.com/ttone18/check/pkg/config"
	"github.com/ttone18/check/pkg/inspector"
	"github.com/ttone18/check/pkg/log"
	"github.com/ttone18/check/pkg/scheduler"
	"github.com/ttone18/check/pkg/sinks"
	"github.com/ttone18/check/pkg/store"
	"github.com/ttone18/check/pkg/types"
	"github.com/ttone18/check/pkg/utils"
)

type Daemon struct {
	opts      *types.Options
	inventory *config.Manager
	store     *store.Store
	events    *store.EventLog
	scheduler *scheduler.Scheduler
	isInited  bool
}

func NewDaemon() (*Daemon, error) {
	d := &Daemon{opts: &types.Options{}}

	var err error
	if err = d.opts.Init(); err != nil {
		return nil, fmt.Errorf("failed to parse options, err: %s", err.Error())
	}
	if err = log.Init(d.opts.LogfilePath, d.opts.LogFileSize); err != nil {
		return nil, fmt.Errorf("failed to init logs. %s", err.Error())
	}
	if err = config.LoadConfig(d.opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to load config %s. %s", d.opts.ConfigPath, err.Error())
	}
	if d.inventory, err = config.NewManager(d.opts.InventoryPath); err != nil {
		return nil, fmt.Errorf("failed to load inventory. %s", err.Error())
	}
	if d.store, err = store.Open(config.GetSqlitePath()); err != nil {
		return nil, fmt.Errorf("failed to open issue store. %s", err.Error())
	}

	// The event log is optional: losing it only costs external history.
	eventCfg := store.EventLogConfig{
		Host:     config.GetMysqlHost(),
		Port:     config.GetMysqlPort(),
		User:     config.GetMysqlUser(),
		Password: config.GetMysqlPassword(),
		DBName:   config.GetMysqlDBName(),
	}
	if eventCfg.IsConfigured() {
		if d.events, err = store.OpenEventLog(eventCfg); err != nil {
			klog.Warningf("event log disabled: %v", err)
			d.events = nil
		}
	} else {
		klog.Infof("event log not configured, transitions stay local")
	}

	loc := utils.LoadLocation(config.GetTimezone())
	notifier := sinks.NewNotifier(map[string]string{
		sinks.GroupHardware:  config.GetHardwareGroupWebhook(),
		sinks.GroupSoftware:  config.GetSoftwareGroupWebhook(),
		sinks.GroupAnalytics: config.GetAnalyticsGroupWebhook(),
	}, loc)
	table := sinks.NewTableSync(config.GetTableSyncWebhook(), loc)

	engine := alert.NewEngine(d.store, d.events, notifier, table,
		time.Duration(config.GetDebounceWindowSecond())*time.Second)

	d.scheduler, err = scheduler.New(d.inventory, inspector.New(engine), engine, scheduler.Config{
		Location:        loc,
		MaxWorkers:      config.GetMaxWorkers(),
		GpuInterval:     time.Duration(config.GetGpuIntervalSecond()) * time.Second,
		SystemInterval:  time.Duration(config.GetSystemIntervalMinute()) * time.Minute,
		NetworkInterval: time.Duration(config.GetNetworkIntervalMinute()) * time.Minute,
		StorageInterval: time.Duration(config.GetStorageIntervalMinute()) * time.Minute,
		DigestTime:      config.GetDigestTime(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler. %s", err.Error())
	}

	d.isInited = true
	return d, nil
}

func (d *Daemon) Start() {
	if !d.isInited {
		klog.Errorf("Please initialize the daemon first")
		return
	}
	ctx := apiserver.SetupSignalContext()
	klog.Infof("start gpu inspection daemon")
	defer d.Stop()
	d.inventory.Start()
	d.scheduler.Start()
	<-ctx.Done()
}

func (d *Daemon) Stop() {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	if d.inventory != nil {
		d.inventory.Stop()
	}
	if d.events != nil {
		if err := d.events.Close(); err != nil {
			klog.ErrorS(err, "failed to close event log")
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			klog.ErrorS(err, "failed to close issue store")
		}
	}
	klog.Infof("gpu inspection daemon stopped")
	klog.Flush()
}
