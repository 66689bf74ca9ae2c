/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package executor runs a selected probe set against one session, one
// remote exec per probe, and normalizes every payload into a finding.
package executor

import (
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/checks"
	"github.com/ttone18/check/pkg/sshclient"
	"github.com/ttone18/check/pkg/types"
)

const probeTimeout = 15 * time.Second

// Result pairs a probe with its normalized finding. Result order
// follows the requested probe order.
type Result struct {
	Probe   string
	Finding types.Finding
}

// Execute runs the named probes one by one over the session. Unknown
// probe names are skipped with a warning; every executed probe yields
// exactly one result, whatever happened to its command or parser.
func Execute(session sshclient.Client, node *types.NodeSpec, thresholds *types.Thresholds, probeNames []string) []Result {
	results := make([]Result, 0, len(probeNames))
	for _, name := range probeNames {
		probe, ok := checks.Lookup(name)
		if !ok {
			klog.Warningf("[%s] check '%s' is not defined in the registry, skipping", node.DisplayName(), name)
			continue
		}
		command := probe.Command(thresholds)
		klog.V(4).Infof("[%s] executing check '%s': %.200s", node.DisplayName(), name, command)
		payload := session.Run(command, probeTimeout)
		results = append(results, Result{
			Probe:   name,
			Finding: Normalize(probe, payload, node, thresholds),
		})
	}
	return results
}

// Normalize applies the probe's parser with panic isolation: a crashed
// parser becomes an unk failure and the rest of the cycle carries on.
func Normalize(probe checks.Probe, payload types.RawPayload, node *types.NodeSpec, thresholds *types.Thresholds) (finding types.Finding) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("[%s] parse function for '%s' crashed: %v", node.DisplayName(), probe.Name, r)
			finding = types.FailureFinding(types.TypeUnknown, fmt.Sprintf("Parser crashed for %s: %v", probe.Name, r))
		}
	}()
	return probe.Parse(payload, node, thresholds)
}
