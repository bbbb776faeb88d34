// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Command dot11sim builds a scenario from a YAML config (or the built-in
// default) and drives node.Kernel.Run to completion, the way the
// teacher's main.go wires Sender/Iface/Delay/Receiver into a Sim.
package main

import (
	"fmt"
	"os"
	"time"

	alog "github.com/apex/log"
	apexcli "github.com/apex/log/handlers/cli"
	apextext "github.com/apex/log/handlers/text"
	"github.com/google/uuid"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/heistp/dot11sim/addrbook"
	"github.com/heistp/dot11sim/chanfreq"
	"github.com/heistp/dot11sim/channel"
	"github.com/heistp/dot11sim/clock"
	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/geoutil"
	"github.com/heistp/dot11sim/linkq"
	"github.com/heistp/dot11sim/mac"
	"github.com/heistp/dot11sim/node"
)

var (
	flagConfig    = pflag.StringP("config", "c", "", "scenario YAML file (default: built-in two-node scenario)")
	flagSeed      = pflag.Int64P("seed", "s", 0, "override the scenario's RNG seed (0: use config value)")
	flagLogDir    = pflag.StringP("log-dir", "l", "", "directory for a timestamped run log (default: stderr only)")
	flagCalibrate = pflag.Bool("mac-calibration", false, "use the MAC-calibration link-quality abstraction")
)

func main() {
	pflag.Parse()
	alog.SetHandler(apexcli.Default)

	cfg := DefaultConfig()
	if *flagConfig != "" {
		c, err := LoadConfig(*flagConfig)
		if err != nil {
			alog.WithError(err).Fatal("failed to load scenario config")
		}
		cfg = c
	}
	if *flagSeed != 0 {
		cfg.Seed = *flagSeed
	}

	runID := uuid.New()
	logf := setupRunLog(runID)
	defer logf.Close()

	log := alog.WithFields(alog.Fields{
		"run_id": runID.String(),
		"seed":   cfg.Seed,
		"nodes":  len(cfg.Nodes),
	})
	log.Info("starting scenario")

	mode := linkq.Appendix1
	if *flagCalibrate {
		mode = linkq.MACCalibration
	}

	k, err := buildKernel(cfg, mode)
	if err != nil {
		log.WithError(err).Fatal("failed to build scenario")
	}

	start := time.Now()
	k.Run(clock.Clock(cfg.SimulationTimeUS) * clock.Microsecond)
	log.WithFields(alog.Fields{
		"wall_time":      time.Since(start).String(),
		"simulated_time": k.Now().String(),
	}).Info("scenario complete")
}

// setupRunLog attaches a timestamped per-run log file, named with
// strftime the way doismellburning-samoyed timestamps its output, under
// --log-dir. It returns nil if --log-dir is unset.
func setupRunLog(runID uuid.UUID) *os.File {
	if *flagLogDir == "" {
		return nil
	}
	pattern, err := strftime.New("%Y%m%d-%H%M%S-" + runID.String()[:8] + ".log")
	if err != nil {
		alog.WithError(err).Fatal("invalid log filename pattern")
	}
	name := pattern.FormatString(time.Now())
	f, err := os.Create(*flagLogDir + string(os.PathSeparator) + name)
	if err != nil {
		alog.WithError(err).Fatal("failed to create run log file")
	}
	alog.SetHandler(apextext.New(f))
	return f
}

// buildKernel constructs the node set and kernel described by cfg.
func buildKernel(cfg *ScenarioConfig, mode linkq.Mode) (*node.Kernel, error) {
	books := addrbook.New()
	for _, nc := range cfg.Nodes {
		addr := addrbook.Addr{0, 0, 0, 0, 0, byte(nc.ID)}
		if err := books.Assign(nc.ID, 0, addr); err != nil {
			return nil, err
		}
	}

	rng := clock.NewRNG(cfg.Seed)
	model := linkq.NewModel(mode)

	var nodes []*node.Node
	for _, nc := range cfg.Nodes {
		n := node.New(nc.ID, geoutil.NewPosition(nc.X, nc.Y), books, rng, model)
		n.IsAP = nc.IsAP
		n.BSSColor = nc.BSSColor
		n.Channel = nc.Channel
		n.Band = chanfreq.Band5GHz

		if nc.Traffic != nil {
			format, err := nc.Traffic.FrametabFormat()
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", nc.ID, err)
			}
			bw := frametab.Bandwidth(nc.Traffic.Bandwidth)
			if bw == 0 {
				bw = frametab.BW20
			}
			n.Traffic = node.TrafficConfig{
				Interval:  clock.Clock(nc.Traffic.IntervalUS) * clock.Microsecond,
				Peers:     nc.Traffic.Peers,
				AC:        mac.AC(nc.Traffic.AC),
				MSDULen:   nc.Traffic.MSDULen,
				Format:    format,
				Bandwidth: bw,
			}
		}
		nodes = append(nodes, n)
	}

	return node.NewKernel(nodes, channel.NewLogDistanceModel()), nil
}
