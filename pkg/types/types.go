/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package types

import (
	"fmt"
)

// TaskClass is one periodic inspection category. Each class owns a
// subset of the probe catalog and runs on its own interval.
type TaskClass string

const (
	TaskGpu     TaskClass = "gpu"
	TaskSystem  TaskClass = "system"
	TaskNetwork TaskClass = "network"
	TaskStorage TaskClass = "storage"
)

// AllTaskClasses returns the task classes in their scheduling order.
func AllTaskClasses() []TaskClass {
	return []TaskClass{TaskGpu, TaskSystem, TaskNetwork, TaskStorage}
}

const DefaultSSHPort = 22

// NodeSpec describes one inspected node from the inventory bundle.
type NodeSpec struct {
	Host           string `yaml:"host"`
	Hostname       string `yaml:"hostname,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password,omitempty"`
	PrivateKeyPath string `yaml:"private_key_path,omitempty"`
}

// Addr returns the dial address of the node.
func (n *NodeSpec) Addr() string {
	port := n.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return fmt.Sprintf("%s:%d", n.Host, port)
}

// DisplayName prefers the inventory hostname and falls back to the IP.
func (n *NodeSpec) DisplayName() string {
	if n.Hostname != "" {
		return n.Hostname
	}
	return n.Host
}

// RawPayload is the captured outcome of one remote command. Success
// reflects the remote exit status being zero; Error carries the local
// or remote failure detail when it is not.
type RawPayload struct {
	Success bool
	Output  string
	Error   string
}

// Finding is a parser verdict for one probe run. A success covers one
// or more issue types and clears any open alert for them; a failure
// opens exactly one issue type with a human readable detail.
type Finding struct {
	Success bool
	Covers  []string
	Type    string
	Extra   string
}

// SuccessFinding reports a healthy probe run covering the given issue types.
func SuccessFinding(covers ...string) Finding {
	return Finding{Success: true, Covers: covers}
}

// FailureFinding reports one open issue with its detail text.
func FailureFinding(issueType, extra string) Finding {
	return Finding{Success: false, Type: issueType, Extra: extra}
}

// Thresholds are the tunable probe limits from thresholds.yaml. Zero
// values are replaced by SetDefaults before use.
type Thresholds struct {
	GpuCount            int    `yaml:"gpu_count"`
	GpuTemp             int    `yaml:"gpu_temp"`
	GpuHighTemp         int    `yaml:"gpu_high_temp"`
	NvlinkBridgeCount   int    `yaml:"nvlink_bridge_count"`
	ExpectedIbdevCount  int    `yaml:"expected_ibdev_count"`
	ExpectedIpRuleCount int    `yaml:"expected_ip_rule_count"`
	DiskUsagePercent    int    `yaml:"disk_usage_percent"`
	MemoryUsagePercent  int    `yaml:"memory_usage_percent"`
	GpfsMountPath       string `yaml:"gpfs_mount_path"`
}

func (t *Thresholds) SetDefaults() {
	if t.GpuCount == 0 {
		t.GpuCount = 8
	}
	if t.GpuTemp == 0 {
		t.GpuTemp = 80
	}
	if t.GpuHighTemp == 0 {
		t.GpuHighTemp = 85
	}
	if t.NvlinkBridgeCount == 0 {
		t.NvlinkBridgeCount = 4
	}
	if t.ExpectedIbdevCount == 0 {
		t.ExpectedIbdevCount = 8
	}
	if t.ExpectedIpRuleCount == 0 {
		t.ExpectedIpRuleCount = 19
	}
	if t.DiskUsagePercent == 0 {
		t.DiskUsagePercent = 85
	}
	if t.MemoryUsagePercent == 0 {
		t.MemoryUsagePercent = 85
	}
	if t.GpfsMountPath == "" {
		t.GpfsMountPath = "/gpfs/pvc"
	}
}
