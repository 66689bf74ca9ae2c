/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"fmt"
	"os"

	"github.com/ttone18/check/pkg/daemon"
)

func main() {
	d, err := daemon.NewDaemon()
	if err != nil {
		fmt.Println("failed to new inspection daemon, err: ", err.Error())
		os.Exit(1)
	}
	d.Start()
}
