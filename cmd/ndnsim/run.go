/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"io"
	"os"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/sim"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	scenarioFile string
	builtinName  string
	pcapFile     string
	reportFile   string
)

// runCmd runs one scenario and writes its report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Long: `Run builds the network of a scenario, advances the virtual clock to its stop time and
writes the final counters and application delays as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := core.LoadConfig(configFile); err != nil {
				return err
			}
		}
		core.InitializeLogger(core.GetConfig().Core.LogFile)
		defer core.ShutdownLogger()

		scenario, err := loadScenario()
		if err != nil {
			return err
		}

		var opts sim.BuildOptions
		if pcapFile != "" {
			capture, err := os.Create(pcapFile)
			if err != nil {
				return errors.Wrapf(err, "unable to create capture file %s", pcapFile)
			}
			defer capture.Close()
			opts.Pcap = capture
		}

		s, err := sim.Build(scenario, opts)
		if err != nil {
			return err
		}
		report, err := s.Run()
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		if reportFile != "" {
			file, err := os.Create(reportFile)
			if err != nil {
				return errors.Wrapf(err, "unable to create report file %s", reportFile)
			}
			defer file.Close()
			out = file
		}
		return report.WriteYAML(out)
	},
}

func loadScenario() (*sim.Scenario, error) {
	switch {
	case scenarioFile != "" && builtinName != "":
		return nil, errors.New("--scenario and --builtin are mutually exclusive")
	case scenarioFile != "":
		return sim.LoadScenario(scenarioFile)
	case builtinName != "":
		return sim.Builtin(builtinName)
	default:
		return nil, errors.New("one of --scenario or --builtin is required")
	}
}

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "TOML configuration file")
	runCmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "", "YAML scenario file")
	runCmd.Flags().StringVarP(&builtinName, "builtin", "b", "", "name of a built-in scenario")
	runCmd.Flags().StringVarP(&pcapFile, "pcap", "p", "", "write every link frame to this pcap file")
	runCmd.Flags().StringVarP(&reportFile, "report", "r", "", "write the report to this file instead of stdout")
}
