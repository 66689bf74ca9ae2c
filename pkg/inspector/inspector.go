/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package inspector runs one node's cycle end to end: connect,
// classify the hardware, select the probe set, execute it, and hand
// every finding to the alert engine.
package inspector

import (
	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/config"
	"github.com/ttone18/check/pkg/discover"
	"github.com/ttone18/check/pkg/executor"
	"github.com/ttone18/check/pkg/sshclient"
	"github.com/ttone18/check/pkg/types"
)

// Engine consumes the findings produced by a node cycle.
type Engine interface {
	HandleFinding(host, hostname string, finding types.Finding)
}

// Inspector drives per-node inspection runs.
type Inspector struct {
	engine  Engine
	connect func(node *types.NodeSpec) (sshclient.Client, error)
}

func New(engine Engine) *Inspector {
	return &Inspector{
		engine:  engine,
		connect: sshclient.Connect,
	}
}

// InspectNode runs every probe of one task class against one node. The
// session outcome itself is the first finding: a failed dial opens
// system.ssh and ends the run, a working session covers it.
func (ins *Inspector) InspectNode(node *types.NodeSpec, class types.TaskClass, inv *config.Inventory) {
	hostname := node.DisplayName()
	klog.Infof("[%s] starting %s inspection", hostname, class)

	session, err := ins.connect(node)
	if err != nil {
		klog.Errorf("[%s] ssh connect failed: %v", hostname, err)
		ins.engine.HandleFinding(node.Host, hostname, types.FailureFinding(types.TypeSSH, err.Error()))
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			klog.V(4).Infof("[%s] failed to close session: %v", hostname, err)
		}
	}()

	// Nodes listed without a hostname borrow the remote one so alerts
	// stay readable.
	if node.Hostname == "" {
		if name, err := session.Hostname(); err == nil && name != "" {
			hostname = name
		}
	}

	ins.engine.HandleFinding(node.Host, hostname, types.SuccessFinding(types.TypeSSH))

	profile := discover.Resolve(session, hostname)
	probes := inv.ProbesFor(profile, class)
	if len(probes) == 0 {
		klog.Infof("[%s] no %s checks configured for profile %s, skipping", hostname, class, profile)
		return
	}

	klog.Infof("[%s] running %d %s checks with profile %s", hostname, len(probes), class, profile)
	for _, result := range executor.Execute(session, node, &inv.Thresholds, probes) {
		ins.engine.HandleFinding(node.Host, hostname, result.Finding)
	}
	klog.Infof("[%s] %s inspection finished", hostname, class)
}
