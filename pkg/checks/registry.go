/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

// Package checks is the probe catalog: every named check the inspector
// can run against a node, grouped by hardware family. A probe produces
// a shell command from the current thresholds and parses the captured
// payload into a finding.
package checks

import (
	"sort"
	"strings"

	"github.com/ttone18/check/pkg/types"
)

// Probe is one named check. Parsers must be tolerant: a payload they
// cannot interpret yields an unk failure, never a crash.
type Probe struct {
	Name    string
	Command func(t *types.Thresholds) string
	Parse   func(payload types.RawPayload, node *types.NodeSpec, t *types.Thresholds) types.Finding
}

var registry = buildRegistry()

func buildRegistry() map[string]Probe {
	m := make(map[string]Probe)
	for _, family := range [][]Probe{gpuProbes, systemProbes, networkProbes, storageProbes, muxiProbes} {
		for _, p := range family {
			m[p.Name] = p
		}
	}
	return m
}

// Lookup returns the probe registered under name.
func Lookup(name string) (Probe, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns every registered probe name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitLines strips the payload and splits it into lines. An empty or
// whitespace-only payload yields no lines at all.
func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
