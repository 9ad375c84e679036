// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Command sgnd runs the Knowledge Unit distribution daemon.
package main

import (
	"fmt"
	"os"

	"github.com/sage-x-project/sgnd/api"
	"github.com/sage-x-project/sgnd/daemon"
)

func main() {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sgnd: %v\n", err)
		os.Exit(1)
	}

	d, err := daemon.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sgnd: %v\n", err)
		os.Exit(1)
	}

	router := api.NewRouter(d)
	if err := d.Run(router); err != nil {
		fmt.Fprintf(os.Stderr, "sgnd: %v\n", err)
		os.Exit(1)
	}
}
