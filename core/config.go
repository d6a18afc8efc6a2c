/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the engine configuration, as loaded from a TOML file.
type Config struct {
	Core struct {
		LogLevel string `toml:"log_level"`
		LogFile  string `toml:"log_file"`
	} `toml:"core"`

	Tables struct {
		Pit struct {
			PruningTimeoutMs int64 `toml:"pruning_timeout_ms"`
			MaxEntries       int   `toml:"max_entries"`
		} `toml:"pit"`
		ContentStore struct {
			Capacity          int    `toml:"capacity"`
			ReplacementPolicy string `toml:"replacement_policy"`
			Freshness         bool   `toml:"freshness"`
		} `toml:"content_store"`
		DeadNonceList struct {
			LifetimeMs int64 `toml:"lifetime_ms"`
		} `toml:"dead_nonce_list"`
	} `toml:"tables"`

	Fw struct {
		Strategy              string `toml:"strategy"`
		EnableNacks           bool   `toml:"enable_nacks"`
		CacheUnsolicitedData  bool   `toml:"cache_unsolicited_data"`
		DetectRetransmissions bool   `toml:"detect_retransmissions"`
	} `toml:"fw"`

	Hobhis struct {
		Enabled        bool    `toml:"enabled"`
		ClientServer   bool    `toml:"client_server"`
		MaxInterest    int     `toml:"max_interest"`
		Design         float64 `toml:"design"`
		QueueTarget    float64 `toml:"queue_target"`
		DynamicDesign  bool    `toml:"dynamic_design"`
		UpdatePeriodUs int64   `toml:"update_period_us"`
	} `toml:"hobhis"`

	Link struct {
		QueueMaxPackets int `toml:"queue_max_packets"`
	} `toml:"link"`

	Rtt struct {
		Gain              float64 `toml:"gain"`
		MinRtoMs          int64   `toml:"min_rto_ms"`
		MaxRtoMs          int64   `toml:"max_rto_ms"`
		InitialEstimateMs int64   `toml:"initial_estimate_ms"`
		MaxMultiplier     int     `toml:"max_multiplier"`
	} `toml:"rtt"`

	App struct {
		InterestLifetimeMs int64 `toml:"interest_lifetime_ms"`
		RetxTimerMs        int64 `toml:"retx_timer_ms"`
	} `toml:"app"`

	Sim struct {
		StopTimeS float64 `toml:"stop_time_s"`
	} `toml:"sim"`
}

var config = DefaultConfig()

// DefaultConfig returns the configuration used when no file is loaded.
func DefaultConfig() *Config {
	c := new(Config)
	c.Core.LogLevel = "INFO"

	c.Tables.Pit.PruningTimeoutMs = 1000000
	c.Tables.Pit.MaxEntries = 0
	c.Tables.ContentStore.Capacity = 100
	c.Tables.ContentStore.ReplacementPolicy = "lru"
	c.Tables.DeadNonceList.LifetimeMs = 6000

	c.Fw.Strategy = "best-route"
	c.Fw.DetectRetransmissions = true

	c.Hobhis.MaxInterest = 100
	c.Hobhis.Design = 0.1
	c.Hobhis.QueueTarget = 50
	c.Hobhis.ClientServer = true
	c.Hobhis.UpdatePeriodUs = 100

	c.Link.QueueMaxPackets = 100

	c.Rtt.Gain = 0.1
	c.Rtt.MinRtoMs = 200
	c.Rtt.MaxRtoMs = 200000
	c.Rtt.InitialEstimateMs = 1000
	c.Rtt.MaxMultiplier = 64

	c.App.InterestLifetimeMs = 2000
	c.App.RetxTimerMs = 50

	c.Sim.StopTimeS = 20
	return c
}

// LoadConfig loads the configuration from the specified TOML file on top of the defaults.
func LoadConfig(file string) error {
	tree, err := toml.LoadFile(file)
	if err != nil {
		return errors.Wrapf(err, "unable to load configuration file %s", file)
	}
	loaded := DefaultConfig()
	if err := tree.Unmarshal(loaded); err != nil {
		return errors.Wrapf(err, "unable to parse configuration file %s", file)
	}
	config = loaded
	return nil
}

// LoadConfigString loads the configuration from a TOML document on top of the defaults.
func LoadConfigString(doc string) error {
	tree, err := toml.Load(doc)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}
	loaded := DefaultConfig()
	if err := tree.Unmarshal(loaded); err != nil {
		return errors.Wrap(err, "unable to parse configuration")
	}
	config = loaded
	return nil
}

// GetConfig returns the active configuration.
func GetConfig() *Config {
	return config
}

// SetConfig replaces the active configuration.
func SetConfig(c *Config) {
	config = c
}
