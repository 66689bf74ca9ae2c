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

// criticalXidCodes elevate an XID log line from informational to P1.
var criticalXidCodes = []string{"79"}

// Compares the negotiated link of every ConnectX-7 device against its
// capability and prints one DEGRADED line per mismatch.
const pcieLimitScript = `
for dev_pci_addr in $(ibdev2netdev -v | grep 'ConnectX-7' | awk '{print $1}'); do
  status=$(lspci -vv -s "$dev_pci_addr" | grep 'LnkSta:');
  capability=$(lspci -vv -s "$dev_pci_addr" | grep 'LnkCap:');

  status_speed=$(echo "$status" | awk -F',|:' '{print $2}' | sed 's/Speed //g;s/GT.*//g' | xargs);
  status_width=$(echo "$status" | awk -F',|:' '{print $3}' | sed 's/Width //g' | xargs);
  cap_speed=$(echo "$capability" | awk -F',|:' '{print $2}' | sed 's/Speed //g;s/GT.*//g' | xargs);
  cap_width=$(echo "$capability" | awk -F',|:' '{print $3}' | sed 's/Width //g' | xargs);

  if [ $(echo "$status_speed < $cap_speed" | bc) -ne 0 ] || [ "$status_width" != "$cap_width" ]; then
    echo "DEGRADED: Device $dev_pci_addr. Capability:[$capability], Current Status:[$status]";
  fi
done
`

var gpuProbes = []Probe{
	{
		Name: types.TypeGpuCnt,
		Command: func(*types.Thresholds) string {
			return "nvidia-smi --query-gpu=gpu_uuid --format=csv,noheader | wc -l"
		},
		Parse: parseGpuCount,
	},
	{
		Name: types.TypeGpuTemp,
		Command: func(*types.Thresholds) string {
			return "nvidia-smi --query-gpu=temperature.gpu --format=csv,noheader"
		},
		Parse: parseGpuTemp,
	},
	{
		Name: types.TypeGpuThermalSlowdown,
		Command: func(*types.Thresholds) string {
			return "nvidia-smi -q | grep 'Thermal Slowdown'"
		},
		Parse: parseGpuThermalStatus,
	},
	{
		Name: types.TypeEccSoft,
		Command: func(*types.Thresholds) string {
			return "nvidia-smi --query-gpu=ecc.errors.uncorrected.volatile.total --format=csv,noheader"
		},
		Parse: parseEccSoftUncorr,
	},
	{
		Name: types.TypeXidError,
		Command: func(*types.Thresholds) string {
			return "dmesg -T | grep -i xid | tail -n 20"
		},
		Parse: parseXid,
	},
	{
		Name: types.TypeNvlink,
		Command: func(*types.Thresholds) string {
			return "lspci | grep -i 'nvidia' | grep -c 'bridge'"
		},
		Parse: parseNvlinkStatus,
	},
	{
		Name: types.TypePcie,
		Command: func(*types.Thresholds) string {
			return pcieLimitScript
		},
		Parse: parsePcieLimit,
	},
	{
		Name: types.TypeGdr,
		Command: func(*types.Thresholds) string {
			// A clean zero count exits 1; only real failures keep a
			// non-zero exit.
			return "lsmod | grep -c 'nv_peer_mem' || test $? -eq 1"
		},
		Parse: parseGdrStatus,
	},
	{
		Name: types.TypeAcs,
		Command: func(*types.Thresholds) string {
			return "lspci -vvv | grep ACSCtl | grep 'SrcValid+' || test $? -eq 1"
		},
		Parse: parseAcsStatus,
	},
	{
		Name: types.TypeFabricManager,
		Command: func(*types.Thresholds) string {
			return "systemctl is-active nvidia-fabricmanager.service"
		},
		Parse: parseFabricManagerStatus,
	},
}

func parseGpuCount(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeSmiCmdError,
			fmt.Sprintf("Command to get GPU count failed: %s", payload.Error))
	}
	count, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("Could not parse GPU count from output: '%s'", payload.Output))
	}
	if count != t.GpuCount {
		return types.FailureFinding(types.TypeGpuCnt,
			fmt.Sprintf("Expected %d GPUs, but found %d.", t.GpuCount, count))
	}
	return types.SuccessFinding(types.TypeGpuCnt, types.TypeSmiCmdError)
}

// parseGpuTemp applies the two-level threshold: the critical type
// preempts the warn type within one run.
func parseGpuTemp(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeSmiCmdError,
			fmt.Sprintf("Command to get GPU temperature failed: %s", payload.Error))
	}

	var highTemp, warnTemp []string
	for i, line := range splitLines(payload.Output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		temp, err := strconv.Atoi(line)
		if err != nil {
			return types.FailureFinding(types.TypeUnknown,
				fmt.Sprintf("Failed to parse GPU temperature output. Error: %v. Output: '%.100s'", err, payload.Output))
		}
		switch {
		case temp > t.GpuHighTemp:
			highTemp = append(highTemp, fmt.Sprintf("GPU-%d at %dC", i, temp))
		case temp > t.GpuTemp:
			warnTemp = append(warnTemp, fmt.Sprintf("GPU-%d at %dC", i, temp))
		}
	}
	if len(highTemp) > 0 {
		return types.FailureFinding(types.TypeGpuHighTemp,
			fmt.Sprintf("Critical temperature detected: %s", strings.Join(highTemp, "; ")))
	}
	if len(warnTemp) > 0 {
		return types.FailureFinding(types.TypeGpuTemp,
			fmt.Sprintf("Warning temperature detected: %s", strings.Join(warnTemp, "; ")))
	}
	return types.SuccessFinding(types.TypeGpuHighTemp, types.TypeGpuTemp, types.TypeSmiCmdError)
}

func parseGpuThermalStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeSmiCmdError,
			fmt.Sprintf("[Thermal] Command execution failed: %s", payload.Error))
	}

	var problematic []string
	for _, line := range splitLines(payload.Output) {
		if !strings.Contains(line, "Not Active") {
			problematic = append(problematic, strings.TrimSpace(line))
		}
	}
	if len(problematic) > 0 {
		return types.FailureFinding(types.TypeGpuThermalSlowdown,
			fmt.Sprintf("GPU Thermal Slowdown detected: %s", strings.Join(problematic, "; ")))
	}
	return types.SuccessFinding(types.TypeGpuThermalSlowdown)
}

func parseEccSoftUncorr(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	return parseNumericList(payload, types.TypeEccSoft, 0, "ECC Soft Uncorr")
}

// parseNumericList checks one integer per GPU line against a threshold
// and reports every device over it.
func parseNumericList(payload types.RawPayload, issueType string, threshold int, checkName string) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeSmiCmdError,
			fmt.Sprintf("[%s] Command execution failed: %s", checkName, payload.Error))
	}

	var problematic []string
	for i, line := range splitLines(payload.Output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, err := strconv.Atoi(line)
		if err != nil {
			return types.FailureFinding(types.TypeUnknown,
				fmt.Sprintf("[%s] Failed to parse output. Error: %v. Output: '%.100s'", checkName, err, payload.Output))
		}
		if value > threshold {
			problematic = append(problematic, fmt.Sprintf("GPU-%d value is %d", i, value))
		}
	}
	if len(problematic) > 0 {
		return types.FailureFinding(issueType,
			fmt.Sprintf("[%s] Found %d GPU(s) over threshold > %d. Details: %s",
				checkName, len(problematic), threshold, strings.Join(problematic, "; ")))
	}
	return types.SuccessFinding(issueType, types.TypeSmiCmdError)
}

// parseXid tolerates a failed dmesg read; nodes without dmesg access
// simply skip the check this cycle.
func parseXid(payload types.RawPayload, node *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		klog.V(4).Infof("[%s] dmesg command for XID check failed, ignoring: %s", node.DisplayName(), payload.Error)
		return types.SuccessFinding(types.TypeXidError, types.TypeXidInfo)
	}
	output := payload.Output
	if output == "" {
		return types.SuccessFinding(types.TypeXidError, types.TypeXidInfo)
	}

	for _, code := range criticalXidCodes {
		if strings.Contains(output, "Xid: "+code) {
			return types.FailureFinding(types.TypeXidError,
				fmt.Sprintf("Critical XID error found. Recent logs: %s", output))
		}
	}
	return types.FailureFinding(types.TypeXidInfo,
		fmt.Sprintf("Non-critical XID error found (P3). Recent logs: %s", output))
}

func parseNvlinkStatus(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[NVLink] Command execution failed: %s", payload.Error))
	}
	count, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[NVLink] Could not parse bridge count from output: '%s'", payload.Output))
	}
	if count != t.NvlinkBridgeCount {
		return types.FailureFinding(types.TypeNvlink,
			fmt.Sprintf("Expected %d NVIDIA bridges, but found %d.", t.NvlinkBridgeCount, count))
	}
	return types.SuccessFinding(types.TypeNvlink)
}

func parsePcieLimit(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[PCIe] Command execution failed: %s", payload.Error))
	}
	if payload.Output != "" {
		return types.FailureFinding(types.TypePcie,
			fmt.Sprintf("PCIe link degradation detected: %s", payload.Output))
	}
	return types.SuccessFinding(types.TypePcie)
}

func parseGdrStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[GDR] Command execution failed: %s", payload.Error))
	}
	count, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[GDR] Could not parse lsmod output: '%s'", payload.Output))
	}
	if count == 0 {
		return types.FailureFinding(types.TypeGdr, "GPUDirect RDMA module (nv_peer_mem) is not loaded.")
	}
	return types.SuccessFinding(types.TypeGdr)
}

func parseAcsStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[ACS] Command execution failed: %s", payload.Error))
	}
	if payload.Output != "" {
		return types.FailureFinding(types.TypeAcs,
			fmt.Sprintf("ACS validation is improperly enabled on one or more devices: %s", payload.Output))
	}
	return types.SuccessFinding(types.TypeAcs)
}

// parseFabricManagerStatus treats a failed probe with no state output
// as "unit not installed". systemctl is-active exits non-zero for any
// inactive state while still printing it, so the state string is
// examined regardless of the exit code.
func parseFabricManagerStatus(payload types.RawPayload, node *types.NodeSpec, _ *types.Thresholds) types.Finding {
	state := strings.TrimSpace(payload.Output)
	if !payload.Success && state == "" {
		klog.V(4).Infof("[%s] fabric manager check failed (likely not installed): %s", node.DisplayName(), payload.Error)
		return types.SuccessFinding(types.TypeFabricManager)
	}
	if state != "active" {
		return types.FailureFinding(types.TypeFabricManager,
			fmt.Sprintf("NVIDIA Fabric Manager service is not active. Current state: %s.", state))
	}
	return types.SuccessFinding(types.TypeFabricManager)
}
