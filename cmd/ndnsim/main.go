/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"fmt"
	"os"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/sim"
	"github.com/spf13/cobra"
)

// Version of ndnsim.
var Version string

// BuildTime contains the timestamp of when the version of ndnsim was built.
var BuildTime string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ndnsim",
	Short: "NDN forwarding and congestion-control simulator",
	Long: `ndnsim runs NDN forwarders, links and applications on a virtual clock.
Routers can shape Interests hop-by-hop with HoBHIS, and consumers pace their Interests with
a window, rate or delay based congestion controller.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ndnsim: NDN forwarding and congestion-control simulator")
		fmt.Println("Version " + core.Version + " (Built " + core.BuildTime + ")")
		fmt.Println("Copyright (C) 2020-2021 Eric Newberry")
		fmt.Println("Released under the terms of the MIT License")
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range sim.BuiltinNames() {
			fmt.Println(name)
		}
	},
}

func main() {
	// Provide metadata to other packages.
	core.Version = Version
	core.BuildTime = BuildTime

	rootCmd.AddCommand(runCmd, versionCmd, scenariosCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
