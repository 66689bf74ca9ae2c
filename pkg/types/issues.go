/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

// Issue types opened and cleared by probe findings. Probe names in
// profiles.yaml reuse these strings where a probe owns the type.
const (
	TypeUnknown   = "unk"
	TypeLineError = "gpu_error"

	// system
	TypeSSH         = "system.ssh"
	TypeShutdown    = "system.shutdown"
	TypeDiskUsage   = "system.disk_usage"
	TypeMemoryUsage = "system.memory_usage"
	TypeHwError     = "system.hw_error"

	// network
	TypeRoute    = "network.route"
	TypeIbdev    = "network.ib_device_status"
	TypeIbdevCnt = "network.ib_device_count"
	TypeIpRule   = "network.ip_rule"
	TypeTraffic  = "network.traffic"

	// gpu
	TypeGpuCnt             = "gpu.count"
	TypeGpuTemp            = "gpu.temperature"
	TypeGpuHighTemp        = "gpu.high_temp"
	TypeEccSoft            = "gpu.ecc_soft_error"
	TypePcie               = "gpu.pcie_status"
	TypeNvlink             = "gpu.nvlink_status"
	TypeGdr                = "gpu.gdr_status"
	TypeFabricManager      = "gpu.fabric_manager_status"
	TypeAcs                = "gpu.acs_status"
	TypeGpuThermalSlowdown = "gpu.thermal_slowdown"
	TypeXidInfo            = "gpu.xid_info"
	TypeXidError           = "gpu.xid_error"
	TypeSmiCmdError        = "gpu.smi_cmd_error"

	// storage
	TypeGpfs = "storage.gpfs"

	// gpu - muxi
	TypeMuxiSmiCmdError    = "gpu.muxi.smi_cmd_error"
	TypeMuxiGpuCnt         = "gpu.muxi.count"
	TypeMuxiGpuTemp        = "gpu.muxi.temperature"
	TypeMuxiEccState       = "gpu.muxi.ecc_state"
	TypeMuxiPcieStatus     = "gpu.muxi.pcie_status"
	TypeMuxiThermalStatus  = "gpu.muxi.thermal_status"
	TypeMuxiMetaxlinkState = "network.muxi.metaxlink_status"
)
