// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package channel implements the channel-model collaborator named in
// spec §6: given sender and receiver positions and the transmitted
// signal power, it returns the attenuated received power. Propagation
// delay is out of scope (spec §1 Non-goals); positions are plane
// coordinates, in meters.
package channel

import (
	"math"

	"github.com/heistp/dot11sim/geoutil"
)

// DefaultPathLossExponent and DefaultReferenceLossDb parameterize the
// log-distance path loss model: loss(d) = ReferenceLossDb +
// 10*exponent*log10(d/ReferenceDistance), for d >= ReferenceDistance.
const (
	DefaultReferenceDistance = 1.0 // meters
	DefaultReferenceLossDb   = 40.0
	DefaultPathLossExponent  = 3.5
)

// LogDistanceModel is a simple log-distance path-loss channel model, the
// standard reference model used for WLAN link-budget estimation absent a
// site-specific ray-tracer.
type LogDistanceModel struct {
	ReferenceDistance float64
	ReferenceLossDb   float64
	PathLossExponent  float64
}

// NewLogDistanceModel returns a LogDistanceModel with the default
// parameters.
func NewLogDistanceModel() *LogDistanceModel {
	return &LogDistanceModel{
		ReferenceDistance: DefaultReferenceDistance,
		ReferenceLossDb:   DefaultReferenceLossDb,
		PathLossExponent:  DefaultPathLossExponent,
	}
}

// ReceivedPower returns the received power, in dBm, of a signal
// transmitted at txPowerDbm from txPos and observed at rxPos.
func (m *LogDistanceModel) ReceivedPower(txPos, rxPos geoutil.Position, txPowerDbm float64) float64 {
	d := geoutil.Distance(txPos, rxPos)
	if d < m.ReferenceDistance {
		d = m.ReferenceDistance
	}
	lossDb := m.ReferenceLossDb + 10*m.PathLossExponent*math.Log10(d/m.ReferenceDistance)
	return txPowerDbm - lossDb
}
