/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package alert

import (
	"sort"

	"github.com/ttone18/check/pkg/sinks"
	"github.com/ttone18/check/pkg/types"
)

// Priority labels as they appear on cards and in the issue store.
const (
	PriorityP0 = "P0 - 紧急"
	PriorityP1 = "P1 - 高"
	PriorityP2 = "P2 - 中"
	PriorityP3 = "P3 - 低"
)

// Metadata fixes the routing facts of one issue type: urgency, the
// group webhook that receives it, and the card title.
type Metadata struct {
	Priority string
	Group    string
	Title    string
}

var alertMetadata = map[string]Metadata{
	// P1, hardware group
	types.TypeSSH:            {PriorityP1, sinks.GroupHardware, "节点SSH登录失败"},
	types.TypeIbdev:          {PriorityP1, sinks.GroupHardware, "节点网卡端口Down"},
	types.TypeGpuCnt:         {PriorityP1, sinks.GroupHardware, "节点GPU数量与预期不符"},
	types.TypeEccSoft:        {PriorityP1, sinks.GroupHardware, "节点GPU发生ECC错误"},
	types.TypeSmiCmdError:    {PriorityP1, sinks.GroupHardware, "节点nvidia-smi命令卡死或报错"},
	types.TypeIbdevCnt:       {PriorityP1, sinks.GroupHardware, "节点网卡数量检查失败"},
	types.TypeGpuHighTemp:    {PriorityP1, sinks.GroupHardware, "节点GPU温度严重超标(>85C)"},
	types.TypeXidError:       {PriorityP1, sinks.GroupHardware, "节点出现严重XID错误 (如XID 79)"},
	types.TypeShutdown:       {PriorityP1, sinks.GroupHardware, "节点实例失联 (无法Ping通)"},
	types.TypeHwError:        {PriorityP1, sinks.GroupHardware, "节点发生硬件错误"},
	types.TypeNvlink:         {PriorityP1, sinks.GroupHardware, "节点NVLink链路状态异常"},
	types.TypeMuxiPcieStatus: {PriorityP1, sinks.GroupHardware, "节点沐曦GPU的PCIE链路降级"},

	// P2, software group
	types.TypePcie:               {PriorityP2, sinks.GroupSoftware, "节点网卡PCIE链路降级"},
	types.TypeDiskUsage:          {PriorityP2, sinks.GroupSoftware, "节点存储使用量超80%"},
	types.TypeMemoryUsage:        {PriorityP2, sinks.GroupSoftware, "节点内存使用量超80%"},
	types.TypeGpuTemp:            {PriorityP2, sinks.GroupSoftware, "节点GPU温度超标(80C-85C)"},
	types.TypeAcs:                {PriorityP2, sinks.GroupSoftware, "节点PCIE ACS状态异常"},
	types.TypeFabricManager:      {PriorityP2, sinks.GroupSoftware, "节点Fabric Manager服务异常"},
	types.TypeGdr:                {PriorityP2, sinks.GroupSoftware, "节点GPUDirect RDMA (GDR)异常"},
	types.TypeGpfs:               {PriorityP2, sinks.GroupSoftware, "节点GPFS挂载状态异常"},
	types.TypeRoute:              {PriorityP2, sinks.GroupSoftware, "节点路由状态异常"},
	types.TypeLineError:          {PriorityP2, sinks.GroupSoftware, "节点检查命令返回行错误"},
	types.TypeUnknown:            {PriorityP2, sinks.GroupSoftware, "发生未知检查错误"},
	types.TypeMuxiSmiCmdError:    {PriorityP2, sinks.GroupSoftware, "节点mxgpu-smi命令卡死或报错"},
	types.TypeMuxiGpuCnt:         {PriorityP2, sinks.GroupSoftware, "节点沐曦GPU数量与预期不符"},
	types.TypeMuxiGpuTemp:        {PriorityP2, sinks.GroupSoftware, "节点沐曦GPU温度超标"},
	types.TypeMuxiEccState:       {PriorityP2, sinks.GroupSoftware, "节点沐曦GPU发生ECC错误"},
	types.TypeMuxiMetaxlinkState: {PriorityP2, sinks.GroupSoftware, "节点沐曦MetaXLink链路状态异常"},

	// P3, analytics group, collected by the daily digest
	types.TypeTraffic:            {PriorityP3, sinks.GroupAnalytics, "节点网络流量超阈值记录"},
	types.TypeGpuThermalSlowdown: {PriorityP3, sinks.GroupAnalytics, "节点GPU出现降频 (记录)"},
	types.TypeXidInfo:            {PriorityP3, sinks.GroupAnalytics, "节点出现非关键XID错误 (记录)"},
	types.TypeIpRule:             {PriorityP3, sinks.GroupAnalytics, "节点IP规则检查异常 (记录)"},
	types.TypeMuxiThermalStatus:  {PriorityP3, sinks.GroupAnalytics, "节点沐曦GPU出现过热状态 (记录)"},
}

// fallbackMetadata routes issue types missing from the table so a
// finding is never dropped for lack of routing facts.
var fallbackMetadata = Metadata{
	Priority: PriorityP2,
	Group:    sinks.GroupSoftware,
	Title:    "未定义类型告警",
}

// MetadataFor returns the routing facts for the issue type.
func MetadataFor(issueType string) Metadata {
	if m, ok := alertMetadata[issueType]; ok {
		return m
	}
	return fallbackMetadata
}

// P3Types lists every issue type the daily digest collects, sorted for
// stable queries.
func P3Types() []string {
	var out []string
	for issueType, m := range alertMetadata {
		if m.Priority == PriorityP3 {
			out = append(out, issueType)
		}
	}
	sort.Strings(out)
	return out
}

// RequiresAtAll reports whether cards of this priority mention everyone.
func RequiresAtAll(priority string) bool {
	return priority == PriorityP0 || priority == PriorityP1
}

// IsP3 reports whether findings of this priority skip immediate alerts
// and wait for the daily digest.
func IsP3(priority string) bool {
	return priority == PriorityP3
}
