// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package linkq implements the link-quality and link-performance curve
// collaborators named in spec §6: SINR given an active signal set (§4.3
// "SINR computation"), and estimated packet-error-rate given (SINR,
// bytes, format, MCS, coding).
package linkq

import (
	"fmt"
	"math"

	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/ifx"
)

// Mode selects the link-quality abstraction level.
type Mode int

const (
	// Appendix1 implements the TGax Evaluation Methodology Appendix 1
	// SINR-to-PER abstraction via pre-tabulated required-SINR curves.
	Appendix1 Mode = iota
	// MACCalibration collapses decode success to certainty with no
	// interferer present and certain failure otherwise, for MAC-only
	// calibration runs (§4.3).
	MACCalibration
)

// FieldLabel tags an active signal's current field, used by richer SINR
// models that weight preamble vs. data energy differently.
type FieldLabel int

const (
	FieldPreamble FieldLabel = iota
	FieldData
)

// ActiveSignal pairs an interference-buffer record with its current
// field label, the input shape spec §4.3 describes for the SINR model.
type ActiveSignal struct {
	Record ifx.Record
	Field  FieldLabel
}

// defaultNoiseFigureDB is a typical receiver noise figure.
const defaultNoiseFigureDB = 7.0

// Model computes SINR and estimated packet-error-rate.
type Model struct {
	Mode          Mode
	NoiseFigureDB float64
}

// NewModel returns a new Model in the given Mode, with the default noise
// figure.
func NewModel(mode Mode) *Model {
	return &Model{Mode: mode, NoiseFigureDB: defaultNoiseFigureDB}
}

// thermalNoiseWatts returns the thermal noise power for the given
// bandwidth, using kTB with a receiver noise figure added.
func (m *Model) thermalNoiseWatts(bw frametab.Bandwidth) float64 {
	bwHz := float64(bw) * 1e6
	noiseFloorDbm := -174 + 10*math.Log10(bwHz) + m.NoiseFigureDB
	return ifx.DbmToWatts(noiseFloorDbm)
}

// SINRDb returns the scalar SINR, in dB, for a signal-of-interest with
// received power soiPowerW given the set of other active signals, per
// spec §4.3. Non-goals exclude per-subcarrier OFDMA modeling (§1); this
// returns a scalar SINR suitable for the mandatory SU baseline.
func (m *Model) SINRDb(bw frametab.Bandwidth, soiPowerW float64, others []ActiveSignal) float64 {
	denom := m.thermalNoiseWatts(bw)
	for _, o := range others {
		denom += o.Record.RxPowerW
	}
	if denom <= 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(soiPowerW/denom)
}

// requiredSINRDb is the pre-tabulated required SINR, in dB, for each MCS
// index with BCC coding: the SINR at which the per-bit error probability
// computed in SuccessProbability is 50%. This stands in for the pre-characterized link-performance
// curves named in spec §6.
var requiredSINRDb = [...]float64{
	0: 2, 1: 5, 2: 9, 3: 11, 4: 15, 5: 18, 6: 20, 7: 21, 8: 23, 9: 25, 10: 27, 11: 29,
}

// ldpcGainDb is the coding gain LDPC has over BCC, applied as a threshold
// reduction.
const ldpcGainDb = 2.0

// sigmoidSlope controls how sharply the per-bit error probability
// transitions around the required SINR threshold.
const sigmoidSlope = 0.5

// SuccessProbability returns the probability that an bytes-long payload,
// sent at mcs with the given coding, decodes successfully at sinrDb, per
// spec §4.3 and §6.
func (m *Model) SuccessProbability(sinrDb float64, bytes int, mcs int, coding frametab.Coding, numInterferers int) (float64, error) {
	if m.Mode == MACCalibration {
		if numInterferers == 0 {
			return 1, nil
		}
		return 0, nil
	}
	if mcs < 0 || mcs > 9 {
		return 0, fmt.Errorf("linkq: MCS %d out of range [0,9] for Appendix-1 mode", mcs)
	}
	threshold := requiredSINRDb[mcs]
	if coding == frametab.LDPC {
		threshold -= ldpcGainDb
	}
	// per-bit error probability, a logistic curve centered on threshold.
	ber := 1 / (1 + math.Exp(sigmoidSlope*(sinrDb-threshold)))
	if bytes < 0 {
		bytes = 0
	}
	per := 1 - math.Pow(1-ber, float64(8*bytes))
	return 1 - per, nil
}
