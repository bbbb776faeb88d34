// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package frametab implements the frame-format tables collaborator
// named in spec §6: per-format MCS, rate and symbol-duration lookups,
// and the "configure, then query TxTime" duration derivation pattern
// used by the PHY transmitter (spec §4.2).
package frametab

import (
	"fmt"

	"github.com/heistp/dot11sim/clock"
)

// Format identifies a PPDU frame format.
type Format int

const (
	NonHT Format = iota
	HT
	VHT
	HESU
	HEExtSU
)

func (f Format) String() string {
	switch f {
	case NonHT:
		return "Non-HT"
	case HT:
		return "HT"
	case VHT:
		return "VHT"
	case HESU:
		return "HE-SU"
	case HEExtSU:
		return "HE-EXT-SU"
	default:
		return "unknown"
	}
}

// Bandwidth is a channel bandwidth in MHz.
type Bandwidth int

const (
	BW20  Bandwidth = 20
	BW40  Bandwidth = 40
	BW80  Bandwidth = 80
	BW160 Bandwidth = 160
)

// dataSubcarriers returns the number of OFDM data subcarriers for the
// given format and bandwidth.
func dataSubcarriers(f Format, bw Bandwidth) (int, error) {
	var base int
	switch bw {
	case BW20:
		base = 52
	case BW40:
		base = 108
	case BW80:
		base = 234
	case BW160:
		base = 468
	default:
		return 0, fmt.Errorf("frametab: unsupported channel bandwidth %d MHz", bw)
	}
	if f == NonHT {
		// legacy OFDM always uses a 20MHz, 48 data subcarrier PLCP
		// regardless of the configured operating bandwidth.
		return 48, nil
	}
	return base, nil
}

// GuardInterval is an HE guard interval duration.
type GuardInterval int

const (
	GI800 GuardInterval = iota
	GI1600
	GI3200
)

// Coding is the forward error correction coding scheme.
type Coding int

const (
	BCC Coding = iota
	LDPC
)

// mcsParam describes the modulation and coding for one MCS index, shared
// across HT/VHT/HE (HE additionally defines MCS 10 and 11).
type mcsParam struct {
	bitsPerSymbol int
	rateNum       int
	rateDen       int
}

var mcsTable = [...]mcsParam{
	{1, 1, 2},  // MCS0  BPSK 1/2
	{2, 1, 2},  // MCS1  QPSK 1/2
	{2, 3, 4},  // MCS2  QPSK 3/4
	{4, 1, 2},  // MCS3  16-QAM 1/2
	{4, 3, 4},  // MCS4  16-QAM 3/4
	{6, 2, 3},  // MCS5  64-QAM 2/3
	{6, 3, 4},  // MCS6  64-QAM 3/4
	{6, 5, 6},  // MCS7  64-QAM 5/6
	{8, 3, 4},  // MCS8  256-QAM 3/4
	{8, 5, 6},  // MCS9  256-QAM 5/6
	{10, 3, 4}, // MCS10 1024-QAM 3/4 (HE only)
	{10, 5, 6}, // MCS11 1024-QAM 5/6 (HE only)
}

// MaxMCS returns the maximum supported MCS index for the given format.
func MaxMCS(f Format) int {
	switch f {
	case NonHT, HT:
		return 7
	case VHT:
		return 9
	case HEExtSU:
		return 2
	case HESU:
		return 11
	default:
		return 7
	}
}

// Config is the per-transmission PHY configuration consumed by this
// package, mirroring the subset of the TX-vector relevant to rate and
// duration lookups.
type Config struct {
	Format        Format
	Bandwidth     Bandwidth
	NumSTS        int // number of space-time streams
	MCS           int
	GuardInterval GuardInterval
	Coding        Coding
}

// RateTable holds the per-symbol parameters for one Config.
type RateTable struct {
	NDBPS          int     // number of data bits per symbol
	DataRateBps    float64 // payload data rate, bits/sec
	CodeRateNum    int
	CodeRateDen    int
	SymbolDuration clock.Clock
}

// SymbolDuration returns the OFDM symbol duration for the given format and
// (for HE) guard interval, per spec §4.2.
func SymbolDuration(f Format, gi GuardInterval) clock.Clock {
	if f != HESU && f != HEExtSU {
		return 4 * clock.Microsecond
	}
	switch gi {
	case GI800:
		return 13600 * clock.Nanosecond // 13.6us, exact
	case GI1600:
		return 14400 * clock.Nanosecond // 14.4us, exact
	default: // GI3200, the default
		return 16 * clock.Microsecond
	}
}

// PreambleDuration is 16us for every supported format (spec §4.2).
const PreambleDuration = 16 * clock.Microsecond

// GetRateTable validates cfg and returns its RateTable, per the
// "getRateTable(cfg) -> {NDBPS, Rate, ...}" collaborator contract (§6).
func GetRateTable(cfg Config) (RateTable, error) {
	if err := ValidateConfig(cfg); err != nil {
		return RateTable{}, err
	}
	nsc, err := dataSubcarriers(cfg.Format, cfg.Bandwidth)
	if err != nil {
		return RateTable{}, err
	}
	mp := mcsTable[cfg.MCS]
	sd := SymbolDuration(cfg.Format, cfg.GuardInterval)
	ndbps := nsc * mp.bitsPerSymbol * mp.rateNum / mp.rateDen * max(1, cfg.NumSTS)
	rate := float64(ndbps) / sd.Duration().Seconds()
	return RateTable{
		NDBPS:          ndbps,
		DataRateBps:    rate,
		CodeRateNum:    mp.rateNum,
		CodeRateDen:    mp.rateDen,
		SymbolDuration: sd,
	}, nil
}

// ValidateConfig validates cfg, returning a fatal configuration error if
// the channel bandwidth is unsupported or the MCS is out of range for the
// format, per spec §4.2 and §7.
func ValidateConfig(cfg Config) error {
	if _, err := dataSubcarriers(cfg.Format, cfg.Bandwidth); err != nil {
		return err
	}
	if cfg.MCS < 0 || cfg.MCS > MaxMCS(cfg.Format) {
		return fmt.Errorf("frametab: MCS %d out of range for format %s", cfg.MCS, cfg.Format)
	}
	return nil
}

// headerSymbols returns the number of OFDM symbols occupied by the
// format's header fields (SIG/HT-SIG/VHT-SIG/HE-SIG-A plus per-stream
// training fields), excluding the preamble.
func headerSymbols(cfg Config) int {
	nss := max(1, cfg.NumSTS)
	switch cfg.Format {
	case NonHT:
		return 1 // L-SIG
	case HT:
		return 2 + nss // HT-SIG (2 symbols) + HT-LTF per stream
	case VHT:
		return 3 + nss // VHT-SIG-A (2) + VHT-SIG-B (1) + VHT-LTF per stream
	case HESU, HEExtSU:
		return 5 + nss // HE-SIG-A (2) + RL-SIG (1) + HE-STF (1) + pre-EHT (1) + HE-LTF per stream
	default:
		return 1
	}
}

// HeaderDuration computes the format's header duration: the header-field
// symbols alone, following from the "configure with APEP/PSDU length = 0,
// query TxTime, subtract preamble (and, for HE, the NDP packet-extension
// overhead)" pattern described in spec §4.2 — preamble and packet
// extension cancel out of that derivation, leaving just the header
// symbols' own duration.
func HeaderDuration(cfg Config) (clock.Clock, error) {
	if err := ValidateConfig(cfg); err != nil {
		return 0, err
	}
	sd := SymbolDuration(cfg.Format, cfg.GuardInterval)
	return clock.Clock(headerSymbols(cfg)) * sd, nil
}
