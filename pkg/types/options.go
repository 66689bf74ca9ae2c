/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

import (
	"flag"
	"fmt"
)

type Options struct {
	ConfigPath    string
	InventoryPath string
	LogfilePath   string
	LogFileSize   int // unit: MB
}

func (opt *Options) Init() error {
	if opt == nil {
		return fmt.Errorf("the options is not initialized")
	}
	flag.StringVar(&opt.ConfigPath, "config_path", "", "The path to the app config yaml.")
	flag.StringVar(&opt.InventoryPath, "inventory_path", "", "The directory holding nodes.yaml, "+
		"profiles.yaml and thresholds.yaml. Changes under it are hot-reloaded.")
	flag.StringVar(&opt.LogfilePath, "log_file_path", "", "Path to the log file")
	flag.IntVar(&opt.LogFileSize, "log_file_size", 0,
		"Defines the maximum size of the log file. Unit is megabytes. "+
			"The default is 0, which means that the size is unlimited.")
	flag.Parse()

	if opt.ConfigPath == "" {
		return fmt.Errorf("-config_path is not found")
	}
	if opt.InventoryPath == "" {
		return fmt.Errorf("-inventory_path is not found")
	}
	return nil
}
