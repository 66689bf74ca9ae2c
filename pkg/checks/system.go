/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package checks

import (
	"fmt"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/types"
)

var systemProbes = []Probe{
	{
		Name: types.TypeDiskUsage,
		Command: func(*types.Thresholds) string {
			return "df -Ph / | tail -n 1"
		},
		Parse: parseDiskUsage,
	},
	{
		Name: types.TypeMemoryUsage,
		Command: func(*types.Thresholds) string {
			return `free -m | awk '/^Mem:/{printf("%.0f", $3/$2 * 100)}'`
		},
		Parse: parseMemoryStatus,
	},
	{
		Name: types.TypeHwError,
		Command: func(*types.Thresholds) string {
			return "dmesg -T | grep -i 'Hardware error' | tail -n 20"
		},
		Parse: parseHardwareError,
	},
}

func parseDiskUsage(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[Disk] Command execution failed: %s", payload.Error))
	}

	fields := strings.Fields(payload.Output)
	if len(fields) < 5 {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[Disk] Failed to parse df output: '%s'", payload.Output))
	}
	usage, err := strconv.Atoi(strings.Trim(fields[4], "%"))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[Disk] Could not parse percentage from '%s'. Error: %v", payload.Output, err))
	}
	if usage >= t.DiskUsagePercent {
		return types.FailureFinding(types.TypeDiskUsage,
			fmt.Sprintf("Root disk usage is at %d%% (threshold >= %d%%).", usage, t.DiskUsagePercent))
	}
	return types.SuccessFinding(types.TypeDiskUsage, types.TypeShutdown)
}

func parseMemoryStatus(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[Memory] Command execution failed: %s", payload.Error))
	}

	usage, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[Memory] Could not parse percentage from `free` output: '%s'. Error: %v", payload.Output, err))
	}
	if usage >= t.MemoryUsagePercent {
		return types.FailureFinding(types.TypeMemoryUsage,
			fmt.Sprintf("Memory usage is at %d%% (threshold >= %d%%).", usage, t.MemoryUsagePercent))
	}
	return types.SuccessFinding(types.TypeMemoryUsage, types.TypeShutdown)
}

// parseHardwareError tolerates a failed dmesg read the same way the
// XID probe does.
func parseHardwareError(payload types.RawPayload, node *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		klog.V(4).Infof("[%s] dmesg command for HW error check failed, ignoring: %s", node.DisplayName(), payload.Error)
		return types.SuccessFinding(types.TypeHwError, types.TypeShutdown)
	}
	if payload.Output != "" {
		return types.FailureFinding(types.TypeHwError,
			fmt.Sprintf("Recent hardware error detected in dmesg. Last few lines: %s", payload.Output))
	}
	return types.SuccessFinding(types.TypeHwError, types.TypeShutdown)
}
