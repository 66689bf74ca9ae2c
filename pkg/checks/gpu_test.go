/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package checks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ttone18/check/pkg/types"
)

func TestParseGpuCount(t *testing.T) {
	th := testThresholds()

	f := parseGpuCount(okPayload("7\n"), testNode, th)
	assert.False(t, f.Success)
	assert.Equal(t, types.TypeGpuCnt, f.Type)
	assert.Equal(t, "Expected 8 GPUs, but found 7.", f.Extra)

	f = parseGpuCount(okPayload("8\n"), testNode, th)
	assert.True(t, f.Success)
	assert.Equal(t, []string{types.TypeGpuCnt, types.TypeSmiCmdError}, f.Covers)

	f = parseGpuCount(failedPayload("ExitCode:127, Stderr:'nvidia-smi: not found', Stdout:''"), testNode, th)
	assert.False(t, f.Success)
	assert.Equal(t, types.TypeSmiCmdError, f.Type)
	assert.Contains(t, f.Extra, "Command to get GPU count failed")

	f = parseGpuCount(okPayload("N/A\n"), testNode, th)
	assert.Equal(t, types.TypeUnknown, f.Type)
}

func TestParseGpuTemp(t *testing.T) {
	th := testThresholds()

	// Critical preempts warn within one run.
	f := parseGpuTemp(okPayload("70\n88\n79\n"), testNode, th)
	assert.False(t, f.Success)
	assert.Equal(t, types.TypeGpuHighTemp, f.Type)
	assert.Equal(t, "Critical temperature detected: GPU-1 at 88C", f.Extra)

	f = parseGpuTemp(okPayload("82\n75\n"), testNode, th)
	assert.Equal(t, types.TypeGpuTemp, f.Type)
	assert.Equal(t, "Warning temperature detected: GPU-0 at 82C", f.Extra)

	f = parseGpuTemp(okPayload("70\n71\n"), testNode, th)
	assert.True(t, f.Success)
	assert.Equal(t, []string{types.TypeGpuHighTemp, types.TypeGpuTemp, types.TypeSmiCmdError}, f.Covers)

	f = parseGpuTemp(failedPayload("timeout"), testNode, th)
	assert.Equal(t, types.TypeSmiCmdError, f.Type)

	f = parseGpuTemp(okPayload("85C\n"), testNode, th)
	assert.Equal(t, types.TypeUnknown, f.Type)
	assert.Contains(t, f.Extra, "Failed to parse GPU temperature output")
}

func TestParseEccSoftUncorr(t *testing.T) {
	th := testThresholds()

	f := parseEccSoftUncorr(okPayload("0\n0\n0\n0\n0\n0\n0\n0\n"), testNode, th)
	assert.True(t, f.Success)
	assert.Equal(t, []string{types.TypeEccSoft, types.TypeSmiCmdError}, f.Covers)

	f = parseEccSoftUncorr(okPayload("0\n3\n0\n"), testNode, th)
	assert.Equal(t, types.TypeEccSoft, f.Type)
	assert.Equal(t, "[ECC Soft Uncorr] Found 1 GPU(s) over threshold > 0. Details: GPU-1 value is 3", f.Extra)

	f = parseEccSoftUncorr(failedPayload("timeout"), testNode, th)
	assert.Equal(t, types.TypeSmiCmdError, f.Type)
	assert.Contains(t, f.Extra, "[ECC Soft Uncorr] Command execution failed")
}

func TestParseXid(t *testing.T) {
	th := testThresholds()

	// dmesg may be unreadable; tolerated.
	f := parseXid(failedPayload("ExitCode:1, Stderr:'dmesg: read kernel buffer failed', Stdout:''"), testNode, th)
	assert.True(t, f.Success)
	assert.Equal(t, []string{types.TypeXidError, types.TypeXidInfo}, f.Covers)

	f = parseXid(okPayload(""), testNode, th)
	assert.True(t, f.Success)

	logs := "[Mon Aug 25 10:00:01 2025] NVRM: Xid (PCI:0000:4f:00): 79, pid=1234, GPU has fallen off the bus.\n"
	f = parseXid(okPayload(logs), testNode, th)
	assert.Equal(t, types.TypeXidError, f.Type)
	assert.Contains(t, f.Extra, "Critical XID error found")

	logs = "[Mon Aug 25 10:00:01 2025] NVRM: Xid (PCI:0000:4f:00): 31, pid=1234, Ch 00000008\n"
	f = parseXid(okPayload(logs), testNode, th)
	assert.Equal(t, types.TypeXidInfo, f.Type)
	assert.Contains(t, f.Extra, "Non-critical XID error found (P3)")
}

func TestParseNvlinkStatus(t *testing.T) {
	th := testThresholds()

	f := parseNvlinkStatus(okPayload("4\n"), testNode, th)
	assert.True(t, f.Success)

	f = parseNvlinkStatus(okPayload("3\n"), testNode, th)
	assert.Equal(t, types.TypeNvlink, f.Type)
	assert.Equal(t, "Expected 4 NVIDIA bridges, but found 3.", f.Extra)

	f = parseNvlinkStatus(okPayload("none\n"), testNode, th)
	assert.Equal(t, types.TypeUnknown, f.Type)
}

func TestParsePcieLimit(t *testing.T) {
	th := testThresholds()

	f := parsePcieLimit(okPayload(""), testNode, th)
	assert.True(t, f.Success)
	assert.Equal(t, []string{types.TypePcie}, f.Covers)

	f = parsePcieLimit(okPayload("DEGRADED: Device 4f:00.0. Capability:[LnkCap: Speed 32GT/s, Width x16], Current Status:[LnkSta: Speed 16GT/s, Width x16]\n"), testNode, th)
	assert.Equal(t, types.TypePcie, f.Type)
	assert.Contains(t, f.Extra, "PCIe link degradation detected")

	f = parsePcieLimit(failedPayload("timeout"), testNode, th)
	assert.Equal(t, types.TypeUnknown, f.Type)
}

func TestParseGdrStatus(t *testing.T) {
	th := testThresholds()

	f := parseGdrStatus(okPayload("1\n"), testNode, th)
	assert.True(t, f.Success)

	f = parseGdrStatus(okPayload("0\n"), testNode, th)
	assert.Equal(t, types.TypeGdr, f.Type)
	assert.Equal(t, "GPUDirect RDMA module (nv_peer_mem) is not loaded.", f.Extra)

	f = parseGdrStatus(okPayload("lsmod: not a number"), testNode, th)
	assert.Equal(t, types.TypeUnknown, f.Type)
}

func TestParseAcsStatus(t *testing.T) {
	th := testThresholds()

	f := parseAcsStatus(okPayload(""), testNode, th)
	assert.True(t, f.Success)

	f = parseAcsStatus(okPayload("\t\tACSCtl:\tSrcValid+ TransBlk- ReqRedir-\n"), testNode, th)
	assert.Equal(t, types.TypeAcs, f.Type)
	assert.Contains(t, f.Extra, "ACS validation is improperly enabled")
}

func TestParseGpuThermalStatus(t *testing.T) {
	th := testThresholds()

	healthy := "        HW Thermal Slowdown           : Not Active\n        SW Thermal Slowdown           : Not Active\n"
	f := parseGpuThermalStatus(okPayload(healthy), testNode, th)
	assert.True(t, f.Success)

	throttled := "        HW Thermal Slowdown           : Active\n        SW Thermal Slowdown           : Not Active\n"
	f = parseGpuThermalStatus(okPayload(throttled), testNode, th)
	assert.Equal(t, types.TypeGpuThermalSlowdown, f.Type)
	assert.Equal(t, "GPU Thermal Slowdown detected: HW Thermal Slowdown           : Active", f.Extra)

	f = parseGpuThermalStatus(failedPayload("timeout"), testNode, th)
	assert.Equal(t, types.TypeSmiCmdError, f.Type)
}

func TestParseFabricManagerStatus(t *testing.T) {
	th := testThresholds()

	f := parseFabricManagerStatus(okPayload("active\n"), testNode, th)
	assert.True(t, f.Success)

	// is-active exits non-zero for inactive units but still prints the state.
	f = parseFabricManagerStatus(types.RawPayload{Success: false, Output: "inactive\n", Error: "ExitCode:3, Stderr:'', Stdout:'inactive'"}, testNode, th)
	assert.Equal(t, types.TypeFabricManager, f.Type)
	assert.Equal(t, "NVIDIA Fabric Manager service is not active. Current state: inactive.", f.Extra)

	// No unit and no output means the service is not installed.
	f = parseFabricManagerStatus(failedPayload("ExitCode:127, Stderr:'systemctl: command not found', Stdout:''"), testNode, th)
	assert.True(t, f.Success)
	assert.Equal(t, []string{types.TypeFabricManager}, f.Covers)
}

func TestGpuCommands(t *testing.T) {
	th := testThresholds()

	p, _ := Lookup(types.TypeGpuCnt)
	assert.Equal(t, "nvidia-smi --query-gpu=gpu_uuid --format=csv,noheader | wc -l", p.Command(th))

	// Presence probes built on grep carry the clean-no-match guard.
	p, _ = Lookup(types.TypeGdr)
	assert.True(t, strings.HasSuffix(p.Command(th), "|| test $? -eq 1"))
	p, _ = Lookup(types.TypeAcs)
	assert.True(t, strings.HasSuffix(p.Command(th), "|| test $? -eq 1"))

	p, _ = Lookup(types.TypePcie)
	assert.Contains(t, p.Command(th), "ConnectX-7")
	assert.Contains(t, p.Command(th), "LnkSta:")
}
