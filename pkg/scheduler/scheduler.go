/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package scheduler drives the periodic inspection cycles and the daily
// P3 digest on one cron instance. Each task class is wrapped in a
// skip-if-still-running chain, so a cycle that outlives its interval
// suppresses the next tick instead of overlapping it; different classes
// run independently.
package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/concurrent"
	"github.com/ttone18/check/pkg/config"
	"github.com/ttone18/check/pkg/types"
)

// NodeInspector runs one node's cycle for one task class.
type NodeInspector interface {
	InspectNode(node *types.NodeSpec, class types.TaskClass, inv *config.Inventory)
}

// DigestSender posts the daily P3 summary.
type DigestSender interface {
	SendDailyDigest()
}

// Config carries the scheduling knobs from the app configuration.
type Config struct {
	Location        *time.Location
	MaxWorkers      int
	GpuInterval     time.Duration
	SystemInterval  time.Duration
	NetworkInterval time.Duration
	StorageInterval time.Duration
	DigestTime      string
}

const stopGrace = 30 * time.Second

// Scheduler owns the cron instance and the startup pass.
type Scheduler struct {
	cron        *cron.Cron
	initial     []cron.Job
	initialDone chan struct{}
	grace       time.Duration
}

// New schedules one job per task class plus the digest job. The digest
// time is a local "HH:MM" clock in cfg.Location.
func New(inventory *config.Manager, ins NodeInspector, digest DigestSender, cfg Config) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	s := &Scheduler{cron: c, grace: stopGrace}

	intervals := map[types.TaskClass]time.Duration{
		types.TaskGpu:     cfg.GpuInterval,
		types.TaskSystem:  cfg.SystemInterval,
		types.TaskNetwork: cfg.NetworkInterval,
		types.TaskStorage: cfg.StorageInterval,
	}
	for _, class := range types.AllTaskClasses() {
		// The startup pass runs the same wrapped job the timer does,
		// so the skip lock also covers the very first cycle.
		job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(&cycleJob{
			class:     class,
			inventory: inventory,
			inspector: ins,
			width:     cfg.MaxWorkers,
		})
		c.Schedule(cron.Every(intervals[class]), job)
		s.initial = append(s.initial, job)
		klog.Infof("scheduled %s inspection every %v", class, intervals[class])
	}

	spec, err := digestSpec(cfg.DigestTime)
	if err != nil {
		return nil, err
	}
	if _, err := c.AddJob(spec, &digestJob{digest: digest}); err != nil {
		return nil, errors.Wrapf(err, "failed to schedule digest at %s", cfg.DigestTime)
	}
	klog.Infof("scheduled daily P3 digest at %s (%s)", cfg.DigestTime, loc)
	return s, nil
}

// Start hands control to the timer wheel and kicks off one immediate
// cycle of every class.
func (s *Scheduler) Start() {
	s.cron.Start()
	done := make(chan struct{})
	s.initialDone = done
	go func() {
		defer close(done)
		klog.Infof("running the initial inspection pass for all task classes")
		for _, job := range s.initial {
			job.Run()
		}
	}()
}

// Stop halts the timer wheel and waits for in-flight cycles up to the
// grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	deadline := time.After(s.grace)
	select {
	case <-ctx.Done():
	case <-deadline:
		klog.Warningf("scheduler stop timed out after %v, abandoning in-flight cycles", s.grace)
		return
	}
	if s.initialDone != nil {
		select {
		case <-s.initialDone:
		case <-deadline:
			klog.Warningf("scheduler stop timed out after %v, abandoning the startup pass", s.grace)
			return
		}
	}
	klog.Infof("scheduler drained")
}

// digestSpec converts an "HH:MM" clock into a daily cron spec.
func digestSpec(clock string) (string, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return "", errors.Wrapf(err, "invalid digest time %q", clock)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// cycleJob is one scheduled task class. Every run snapshots the
// inventory and fans the node list out to the bounded worker pool, one
// worker per node.
type cycleJob struct {
	class     types.TaskClass
	inventory *config.Manager
	inspector NodeInspector
	width     int
}

func (j *cycleJob) Run() {
	inv := j.inventory.Snapshot()
	if len(inv.Nodes) == 0 {
		klog.Warningf("node list is empty, skipping the %s cycle", j.class)
		return
	}
	runID := uuid.NewString()[:8]
	start := time.Now()
	klog.Infof("====== cycle %s (%s) started, nodes: %d ======", runID, j.class, len(inv.Nodes))
	concurrent.ForEach(len(inv.Nodes), j.width, func(i int) {
		j.inspector.InspectNode(&inv.Nodes[i], j.class, inv)
	})
	klog.Infof("====== cycle %s (%s) finished, duration: %v ======", runID, j.class, time.Since(start).Round(time.Millisecond))
}

type digestJob struct {
	digest DigestSender
}

func (j *digestJob) Run() {
	j.digest.SendDailyDigest()
}
