/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package checks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ttone18/check/pkg/types"
)

var muxiProbes = []Probe{
	{
		Name: types.TypeMuxiGpuCnt,
		Command: func(*types.Thresholds) string {
			return "mxgpu-smi -L | wc -l"
		},
		Parse: parseMuxiGpuCount,
	},
	{
		Name: types.TypeMuxiGpuTemp,
		Command: func(*types.Thresholds) string {
			return "mxgpu-smi --query-gpu=temperature.gpu --format=csv,noheader"
		},
		Parse: parseMuxiGpuTemp,
	},
	{
		Name: types.TypeMuxiEccState,
		Command: func(*types.Thresholds) string {
			return "mxgpu-smi -q -d ECC"
		},
		Parse: parseMuxiEccState,
	},
	{
		Name: types.TypeMuxiPcieStatus,
		Command: func(*types.Thresholds) string {
			return "mxgpu-smi --query-gpu=pci.link.gen.current,pci.link.gen.max,pci.link.width.current,pci.link.width.max --format=csv,noheader"
		},
		Parse: parseMuxiPcieStatus,
	},
	{
		Name: types.TypeMuxiThermalStatus,
		Command: func(*types.Thresholds) string {
			return "mxgpu-smi -q -d PERFORMANCE"
		},
		Parse: parseMuxiThermalStatus,
	},
	{
		Name: types.TypeMuxiMetaxlinkState,
		Command: func(*types.Thresholds) string {
			return "mxgpu-smi metaxlink -s"
		},
		Parse: parseMuxiMetaxlinkStatus,
	},
}

func parseMuxiGpuCount(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeMuxiSmiCmdError,
			fmt.Sprintf("Command to get Muxi GPU count failed: %s", payload.Error))
	}
	count, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("Could not parse Muxi GPU count from output: '%s'", payload.Output))
	}
	if count != t.GpuCount {
		return types.FailureFinding(types.TypeMuxiGpuCnt,
			fmt.Sprintf("Expected %d Muxi GPUs, but found %d.", t.GpuCount, count))
	}
	return types.SuccessFinding(types.TypeMuxiGpuCnt, types.TypeMuxiSmiCmdError)
}

func parseMuxiGpuTemp(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeMuxiSmiCmdError,
			fmt.Sprintf("Command to get Muxi GPU temperature failed: %s", payload.Error))
	}

	var problematic []string
	for i, line := range splitLines(payload.Output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		temp, err := strconv.Atoi(line)
		if err != nil {
			return types.FailureFinding(types.TypeUnknown,
				fmt.Sprintf("Failed to parse Muxi GPU temperature. Error: %v. Output: '%.100s'", err, payload.Output))
		}
		if temp > t.GpuHighTemp {
			problematic = append(problematic, fmt.Sprintf("GPU-%d at %dC", i, temp))
		}
	}
	if len(problematic) > 0 {
		return types.FailureFinding(types.TypeMuxiGpuTemp,
			fmt.Sprintf("Muxi GPU temperature over %dC: %s", t.GpuHighTemp, strings.Join(problematic, "; ")))
	}
	return types.SuccessFinding(types.TypeMuxiGpuTemp, types.TypeMuxiSmiCmdError)
}

func parseMuxiEccState(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeMuxiSmiCmdError,
			fmt.Sprintf("Command for Muxi ECC state failed: %s", payload.Error))
	}

	var errorsFound []string
	for _, line := range splitLines(payload.Output) {
		if strings.Contains(line, "Errors") && !strings.Contains(line, " 0") {
			errorsFound = append(errorsFound, strings.TrimSpace(line))
		}
	}
	if len(errorsFound) > 0 {
		return types.FailureFinding(types.TypeMuxiEccState,
			fmt.Sprintf("Muxi ECC errors detected: %s", strings.Join(errorsFound, "; ")))
	}
	return types.SuccessFinding(types.TypeMuxiEccState)
}

func parseMuxiPcieStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeMuxiSmiCmdError,
			fmt.Sprintf("[PCIe] Command execution failed: %s", payload.Error))
	}

	var degraded []string
	for i, line := range splitLines(payload.Output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		values, err := parseIntFields(line, 4)
		if err != nil {
			return types.FailureFinding(types.TypeUnknown,
				fmt.Sprintf("[PCIe] Failed to parse Muxi PCIe status. Error: %v. Output: '%.100s'", err, payload.Output))
		}
		genCurr, genMax, widthCurr, widthMax := values[0], values[1], values[2], values[3]
		if genCurr < genMax || widthCurr < widthMax {
			degraded = append(degraded,
				fmt.Sprintf("GPU-%d degraded (Gen:%d/%d, Width:x%d/x%d)", i, genCurr, genMax, widthCurr, widthMax))
		}
	}
	if len(degraded) > 0 {
		return types.FailureFinding(types.TypeMuxiPcieStatus,
			fmt.Sprintf("Muxi PCIe link degradation detected: %s", strings.Join(degraded, "; ")))
	}
	return types.SuccessFinding(types.TypeMuxiPcieStatus)
}

func parseMuxiThermalStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeMuxiSmiCmdError,
			fmt.Sprintf("[Thermal] Command execution failed: %s", payload.Error))
	}

	var throttling []string
	for _, line := range splitLines(payload.Output) {
		if !strings.Contains(line, "Throttle") && !strings.Contains(line, "Slowdown") {
			continue
		}
		if !strings.Contains(line, "Not Active") && !strings.Contains(line, "None") {
			throttling = append(throttling, strings.TrimSpace(line))
		}
	}
	if len(throttling) > 0 {
		return types.FailureFinding(types.TypeMuxiThermalStatus,
			fmt.Sprintf("Muxi GPU Thermal Slowdown detected: %s", strings.Join(throttling, "; ")))
	}
	return types.SuccessFinding(types.TypeMuxiThermalStatus)
}

func parseMuxiMetaxlinkStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeMuxiSmiCmdError,
			fmt.Sprintf("[MetaXLink] Command execution failed: %s", payload.Error))
	}

	var inactive []string
	for _, line := range splitLines(payload.Output) {
		if strings.Contains(line, "Link") && !strings.Contains(line, "Active") && !strings.Contains(line, "UP") {
			inactive = append(inactive, strings.TrimSpace(line))
		}
	}
	if len(inactive) > 0 {
		return types.FailureFinding(types.TypeMuxiMetaxlinkState,
			fmt.Sprintf("Muxi MetaXLink inactive links found: %s", strings.Join(inactive, "; ")))
	}
	return types.SuccessFinding(types.TypeMuxiMetaxlinkState)
}

// parseIntFields splits a comma separated line into exactly n integers.
func parseIntFields(line string, n int) ([]int, error) {
	parts := strings.Split(line, ",")
	if len(parts) < n {
		return nil, fmt.Errorf("expected %d fields, got %d", n, len(parts))
	}
	values := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
