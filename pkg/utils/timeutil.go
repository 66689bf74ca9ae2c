/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"time"

	"k8s.io/klog/v2"
)

// LoadLocation resolves the configured timezone name, falling back to a
// fixed UTC+8 zone when the host has no tzdata for it.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		klog.Warningf("failed to load timezone %q, falling back to UTC+8: %v", name, err)
		return time.FixedZone("UTC+8", 8*60*60)
	}
	return loc
}
