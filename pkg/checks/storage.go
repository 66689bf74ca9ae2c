/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package checks

import (
	"fmt"
	"strings"

	"github.com/ttone18/check/pkg/types"
)

var storageProbes = []Probe{
	{
		Name: types.TypeGpfs,
		Command: func(t *types.Thresholds) string {
			return fmt.Sprintf("if [ -d '%s' ]; then echo 'mounted'; else echo 'not_mounted'; fi", t.GpfsMountPath)
		},
		Parse: parseGpfsStatus,
	},
}

func parseGpfsStatus(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[GPFS] Command execution failed: %s", payload.Error))
	}

	output := strings.TrimSpace(payload.Output)
	if output == "not_mounted" {
		return types.FailureFinding(types.TypeGpfs,
			fmt.Sprintf("GPFS directory '%s' is not mounted.", t.GpfsMountPath))
	}
	if output != "mounted" {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[GPFS] Unexpected output from check command: '%s'", output))
	}
	return types.SuccessFinding(types.TypeGpfs, types.TypeShutdown)
}
