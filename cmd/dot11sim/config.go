// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package main

import (
	"fmt"
	"os"

	"github.com/heistp/dot11sim/frametab"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig describes one simulation run: the RNG seed, the
// simulated duration, and the participating nodes. It is the YAML
// counterpart of the teacher's hardcoded Flows/RateInit/UseAQM settings
// in config.go, made data-driven so scenarios don't require a rebuild.
type ScenarioConfig struct {
	Seed             int64        `yaml:"seed"`
	SimulationTimeUS int64        `yaml:"simulation_time_us"`
	Nodes            []NodeConfig `yaml:"nodes"`
}

// NodeConfig describes one node's position, role, and (optionally) its
// reference traffic generator.
type NodeConfig struct {
	ID       int          `yaml:"id"`
	X        float64      `yaml:"x"`
	Y        float64      `yaml:"y"`
	IsAP     bool         `yaml:"is_ap"`
	BSSColor int          `yaml:"bss_color"`
	Channel  int          `yaml:"channel"`
	Traffic  *TrafficSpec `yaml:"traffic,omitempty"`
}

// TrafficSpec configures a node's reference saturated/periodic traffic
// generator (spec §4.7's MAC loop is otherwise unspecified).
type TrafficSpec struct {
	IntervalUS int    `yaml:"interval_us"`
	Peers      []int  `yaml:"peers"`
	AC         int    `yaml:"ac"`
	MSDULen    int    `yaml:"msdu_len"`
	Format     string `yaml:"format"`
	Bandwidth  int    `yaml:"bandwidth"`
}

// FrametabFormat maps the YAML format name to a frametab.Format, per
// spec §2's supported Non-HT/HT/VHT/HE-SU/HE-EXT-SU formats.
func (t TrafficSpec) FrametabFormat() (frametab.Format, error) {
	switch t.Format {
	case "", "non-ht", "nonht":
		return frametab.NonHT, nil
	case "ht":
		return frametab.HT, nil
	case "vht":
		return frametab.VHT, nil
	case "he-su", "hesu":
		return frametab.HESU, nil
	case "he-ext-su", "heextsu":
		return frametab.HEExtSU, nil
	default:
		return 0, fmt.Errorf("config: unknown frame format %q", t.Format)
	}
}

// LoadConfig reads and parses a ScenarioConfig from path.
func LoadConfig(path string) (*ScenarioConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var c ScenarioConfig
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

// DefaultConfig returns the built-in two-node scenario used when no
// --config file is given: an AP sending Non-HT traffic to one station
// on a clean channel.
func DefaultConfig() *ScenarioConfig {
	return &ScenarioConfig{
		Seed:             1,
		SimulationTimeUS: 200000,
		Nodes: []NodeConfig{
			{ID: 1, X: 0, Y: 0, IsAP: true, Channel: 36,
				Traffic: &TrafficSpec{
					IntervalUS: 1000,
					Peers:      []int{2},
					MSDULen:    1500,
					Format:     "non-ht",
					Bandwidth:  20,
				}},
			{ID: 2, X: 10, Y: 0, Channel: 36},
		},
	}
}
