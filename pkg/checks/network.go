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

// Prints the table id of every static route table that resolved empty.
const routeStatusScript = `
for table in $(ip rule list | grep -i 'static' | awk '{for(i=1;i<=NF;i++) if($i=="lookup") print $(i+1)}'); do
  if [ -z "$(ip route show table $table)" ]; then
    echo "$table"
  fi
done
`

var networkProbes = []Probe{
	{
		Name: types.TypeRoute,
		Command: func(*types.Thresholds) string {
			return routeStatusScript
		},
		Parse: parseRouteStatus,
	},
	{
		Name: types.TypeIbdev,
		Command: func(*types.Thresholds) string {
			return "ibdev2netdev -v | grep -i 'link_state: down' || test $? -eq 1"
		},
		Parse: parseIbdevStatus,
	},
	{
		Name: types.TypeIbdevCnt,
		Command: func(*types.Thresholds) string {
			return "ibdev2netdev | wc -l"
		},
		Parse: parseIbdevCount,
	},
	{
		Name: types.TypeIpRule,
		Command: func(*types.Thresholds) string {
			return "ip rule list | wc -l"
		},
		Parse: parseIpRuleCount,
	},
}

func parseRouteStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[Route] Command execution failed: %s", payload.Error))
	}

	output := strings.TrimSpace(payload.Output)
	if output != "" {
		emptyTables := strings.Split(output, "\n")
		return types.FailureFinding(types.TypeRoute,
			fmt.Sprintf("Found empty static route tables: %s", strings.Join(emptyTables, ", ")))
	}
	return types.SuccessFinding(types.TypeRoute, types.TypeIpRule, types.TypeShutdown)
}

func parseIbdevStatus(payload types.RawPayload, _ *types.NodeSpec, _ *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[IB Status] Command execution failed: %s", payload.Error))
	}

	output := strings.TrimSpace(payload.Output)
	if output != "" {
		return types.FailureFinding(types.TypeIbdev,
			fmt.Sprintf("One or more InfiniBand devices are down: %s", output))
	}
	return types.SuccessFinding(types.TypeIbdev, types.TypeShutdown)
}

func parseIbdevCount(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[IB Count] Command execution failed: %s", payload.Error))
	}
	count, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[IB Count] Failed to parse count from output: '%s'", payload.Output))
	}
	if count != t.ExpectedIbdevCount {
		return types.FailureFinding(types.TypeIbdevCnt,
			fmt.Sprintf("Expected %d IB devices, but found %d.", t.ExpectedIbdevCount, count))
	}
	return types.SuccessFinding(types.TypeIbdevCnt, types.TypeShutdown)
}

func parseIpRuleCount(payload types.RawPayload, _ *types.NodeSpec, t *types.Thresholds) types.Finding {
	if !payload.Success {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[IP Rule] Command execution failed: %s", payload.Error))
	}
	count, err := strconv.Atoi(strings.TrimSpace(payload.Output))
	if err != nil {
		return types.FailureFinding(types.TypeUnknown,
			fmt.Sprintf("[IP Rule] Failed to parse count from output: '%s'", payload.Output))
	}
	if count != t.ExpectedIpRuleCount {
		return types.FailureFinding(types.TypeIpRule,
			fmt.Sprintf("Expected %d IP rules, but found %d.", t.ExpectedIpRuleCount, count))
	}
	return types.SuccessFinding(types.TypeIpRule, types.TypeShutdown)
}
