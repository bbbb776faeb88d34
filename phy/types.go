// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package phy implements the abstracted PHY transmitter (spec §4.2) and
// receiver state machine (spec §4.3): waveform-descriptor assembly,
// duration arithmetic, and the idle/preamble/payload decode pipeline
// driven by pre-characterized link-performance curves.
package phy

import (
	"github.com/heistp/dot11sim/addrbook"
	"github.com/heistp/dot11sim/clock"
	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/geoutil"
)

// UserField is one user's per-user TX-vector fields (spec §3). SU
// scenarios populate exactly one; the structure accommodates up to
// MaxMUUsers for future OFDMA extension (Non-goals, §1).
type UserField struct {
	MCS        int
	PSDULength int     // bytes
	TxPower    float64 // dBm
}

// MaxMUUsers is the maximum number of users a PPDU's TX vector can carry
// (spec §3); single-user processing is the mandatory baseline (§1).
const MaxMUUsers = 9

// TxVector is the open, all-fields-present TX-vector record (spec §9
// "Growing configuration vector structs").
type TxVector struct {
	Format          frametab.Format
	Bandwidth       frametab.Bandwidth
	NumTxAntennas   int
	NumSTS          int
	GuardInterval   frametab.GuardInterval
	Coding          frametab.Coding
	PerUser         []UserField
	Aggregated      bool
	BSSColor        int
	EnableSR        bool
	OBSSPDThreshold float64 // dBm
}

// frametabConfig projects the SU (first-user) view of a TxVector into a
// frametab.Config for rate/duration lookups.
func (v TxVector) frametabConfig() frametab.Config {
	mcs := 0
	if len(v.PerUser) > 0 {
		mcs = v.PerUser[0].MCS
	}
	return frametab.Config{
		Format:        v.Format,
		Bandwidth:     v.Bandwidth,
		NumSTS:        v.NumSTS,
		MCS:           mcs,
		GuardInterval: v.GuardInterval,
		Coding:        v.Coding,
	}
}

// MACFrameInfo is the MAC-frame metadata block carried by a Signal (spec
// §3): per-subframe retransmission and FCS outcome flags, and the
// addresses needed for four-address detection.
type MACFrameInfo struct {
	RetryFlags    []bool
	FCSPass       []bool
	DelimiterFail []bool
	SrcAddr       addrbook.Addr
	DstAddr       addrbook.Addr
	NextHopAddr   addrbook.Addr
	FinalDestAddr addrbook.Addr
}

// PayloadInfo is one A-MPDU subframe's duration accounting (spec §4.2).
type PayloadInfo struct {
	Length           int // bytes
	Offset           clock.Clock
	Duration         clock.Clock
	OverheadDuration clock.Clock
	NumOfBits        float64
}

// AMPDULayout is the A-MPDU layout carried by a Signal (spec §3).
type AMPDULayout struct {
	SubframeCount int
	Subframe      []PayloadInfo
}

// SignalMetadata is the extracted, commonly-needed subset of a Signal
// surfaced for quick access (spec §8 scenario 1, 4: "Metadata.
// SignalPower", "Metadata.SubframeCount").
type SignalMetadata struct {
	SignalPower   float64 // dBm, as transmitted (post TX-gain/OBSS-PD cap)
	SubframeCount int
	BSSColor      int
	LimitTxPower  bool
}

// Signal is the on-air transmission descriptor (spec §3 "Signal
// descriptor"). It is owned by the originating transmitter until
// distributed; each receiver then holds an independent copy.
type Signal struct {
	SourceID         int
	SourcePos        geoutil.Position
	StartTime        clock.Clock
	PreambleDuration clock.Clock
	HeaderDuration   clock.Clock
	PayloadDuration  clock.Clock
	TxVector         TxVector
	Frame            MACFrameInfo
	AMPDU            AMPDULayout
	Metadata         SignalMetadata

	// RxPowerDbm is set by the channel collaborator (spec §6 "Channel
	// model") before the receiver sees the signal; the core never
	// computes propagation attenuation itself (spec §4.1).
	RxPowerDbm float64

	// FrequencyGHz is the operating frequency the transmitting node tags
	// the descriptor with, derived from the channel-number→frequency
	// mapping collaborator (spec §6).
	FrequencyGHz float64
}

// EndTime returns the absolute simulated time the signal's transmission
// completes.
func (s Signal) EndTime() clock.Clock {
	return s.StartTime + s.PreambleDuration + s.HeaderDuration + s.PayloadDuration
}

// Clone returns a deep-enough copy of s suitable for a receiver to hold
// independently of the sender's copy.
func (s Signal) Clone() Signal {
	c := s
	c.TxVector.PerUser = append([]UserField(nil), s.TxVector.PerUser...)
	c.Frame.RetryFlags = append([]bool(nil), s.Frame.RetryFlags...)
	c.Frame.FCSPass = append([]bool(nil), s.Frame.FCSPass...)
	c.Frame.DelimiterFail = append([]bool(nil), s.Frame.DelimiterFail...)
	c.AMPDU.Subframe = append([]PayloadInfo(nil), s.AMPDU.Subframe...)
	return c
}
