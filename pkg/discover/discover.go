/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package discover

import (
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/ttone18/check/pkg/sshclient"
)

// Profile labels produced by discovery. They key into the profiles
// bundle; a label without a profile entry falls back to unknown there.
const (
	ProfileMuxiC100         = "muxi_c100"
	ProfileNvidia4090       = "nvidia_4090"
	ProfileNvidiaDatacenter = "nvidia_datacenter"
	ProfileUnknown          = "unknown"
)

const probeTimeout = 10 * time.Second

// Resolve classifies the node behind the session into a profile label.
// It runs on every task dispatch; vendors can change after a hardware
// swap and the two probes are cheap.
func Resolve(session sshclient.Client, hostname string) string {
	muxiOutput := quietRun(session, "which mxgpu-smi")
	if strings.Contains(muxiOutput, "/bin/mxgpu-smi") {
		klog.Infof("[%s] discovered Muxi GPU, assigning profile: %s", hostname, ProfileMuxiC100)
		return ProfileMuxiC100
	}

	nvidiaOutput := quietRun(session, "nvidia-smi -L")
	if nvidiaOutput != "" {
		if strings.Contains(nvidiaOutput, "GeForce RTX 4090") {
			klog.Infof("[%s] discovered NVIDIA 4090 GPU, assigning profile: %s", hostname, ProfileNvidia4090)
			return ProfileNvidia4090
		}
		klog.Infof("[%s] discovered NVIDIA datacenter GPU, assigning profile: %s", hostname, ProfileNvidiaDatacenter)
		return ProfileNvidiaDatacenter
	}

	klog.Warningf("[%s] could not identify GPU type, assigning profile: %s", hostname, ProfileUnknown)
	return ProfileUnknown
}

// quietRun treats any failure as "not present".
func quietRun(session sshclient.Client, command string) string {
	payload := session.Run(command, probeTimeout)
	if !payload.Success {
		return ""
	}
	return strings.TrimSpace(payload.Output)
}
