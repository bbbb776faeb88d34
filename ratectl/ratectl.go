// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package ratectl implements the rate-control (Auto-Rate-Fallback) and
// power-control (fixed) policies named in spec §4.6, expressed through
// the common Responder-shaped contract the teacher uses for its
// congestion-control algorithms (response.go's Responder interface).
package ratectl

import "github.com/heistp/dot11sim/frametab"

// RateControl is the common contract for a per-peer rate-control policy.
type RateControl interface {
	// MCS returns the current MCS index to use for data frames to peer,
	// encoded per format (HT packs the chain count into the index).
	MCS(peer int) int
	// RTSMCS returns the MCS index to use for RTS control frames.
	RTSMCS() int
	// UpdateStatus reports the outcome of an A-MPDU transmission to peer.
	UpdateStatus(peer int, status AMPDUStatus)
}

// PowerControl is the common contract for a per-peer power-control
// policy.
type PowerControl interface {
	// Power returns the transmit power, in dBm, to use for peer.
	Power(peer int, info ControlInfo) float64
}

// ControlInfo carries whatever link-state a PowerControl policy might
// consult; FixedPower ignores it entirely, per spec §4.6.
type ControlInfo struct {
	SINRDb float64
}

// AMPDUStatus summarizes one A-MPDU's per-subframe outcomes.
type AMPDUStatus struct {
	Succeeded int
	Failed    int
}

// IsFailure reports whether status counts as a rate-control failure: more
// subframes failed than succeeded, per spec §4.6.
func (s AMPDUStatus) IsFailure() bool {
	return s.Failed > s.Succeeded
}

// RTS control frames always use MCS 0 (the 6 Mbps basic rate). The
// source notes this is not standard-complete; the behavior is preserved
// as-is per spec §9's Open Questions.
const RTSMCS = 0

// initialMCS returns the maximum MCS permitted by format and chain
// count, per spec §4.6.
func initialMCS(format frametab.Format, chains int) int {
	switch format {
	case frametab.NonHT, frametab.HT:
		return 7
	case frametab.VHT:
		if chains == 3 || chains == 6 {
			return 9
		}
		return 8
	case frametab.HEExtSU:
		return 2
	case frametab.HESU:
		return 11
	default:
		return 7
	}
}

// DefaultSuccessThreshold and DefaultFailureThreshold are ARF's default
// promotion/demotion thresholds, per spec §4.6.
const (
	DefaultSuccessThreshold = 4
	DefaultFailureThreshold = 2
)

type peerState struct {
	currentIdx    int
	consecSuccess int
	consecFail    int
	prevIncrement bool
}

// ARF implements Auto-Rate-Fallback rate control (spec §4.6).
type ARF struct {
	Format           frametab.Format
	Chains           int
	SuccessThreshold int
	FailureThreshold int

	maxIdx int
	peer   map[int]*peerState
}

// NewARF returns a new ARF policy for the given format and chain count,
// with the default success/failure thresholds.
func NewARF(format frametab.Format, chains int) *ARF {
	return &ARF{
		Format:           format,
		Chains:           chains,
		SuccessThreshold: DefaultSuccessThreshold,
		FailureThreshold: DefaultFailureThreshold,
		maxIdx:           min(initialMCS(format, chains), frametab.MaxMCS(format)),
		peer:             make(map[int]*peerState),
	}
}

// Init resets every listed peer to the maximum MCS for the configured
// format and chain count, per spec §4.6.
func (a *ARF) Init(peers []int) {
	idx := initialMCS(a.Format, a.Chains)
	if idx > a.maxIdx {
		idx = a.maxIdx
	}
	a.peer = make(map[int]*peerState, len(peers))
	for _, p := range peers {
		a.peer[p] = &peerState{currentIdx: idx}
	}
}

func (a *ARF) stateFor(peer int) *peerState {
	s, ok := a.peer[peer]
	if !ok {
		idx := initialMCS(a.Format, a.Chains)
		if idx > a.maxIdx {
			idx = a.maxIdx
		}
		s = &peerState{currentIdx: idx}
		a.peer[peer] = s
	}
	return s
}

// MCS implements RateControl.
func (a *ARF) MCS(peer int) int {
	s := a.stateFor(peer)
	if a.Format == frametab.HT {
		return (a.Chains-1)*8 + s.currentIdx
	}
	return s.currentIdx
}

// CurrentIdx returns the peer's raw current MCS index, unpacked from any
// chain-count encoding (useful for tests and monotonicity checks).
func (a *ARF) CurrentIdx(peer int) int {
	return a.stateFor(peer).currentIdx
}

// RTSMCS implements RateControl.
func (a *ARF) RTSMCS() int {
	return RTSMCS
}

// UpdateStatus implements RateControl, per spec §4.6's decision table.
func (a *ARF) UpdateStatus(peer int, status AMPDUStatus) {
	s := a.stateFor(peer)
	if status.IsFailure() {
		s.consecFail++
		s.consecSuccess = 0
		if s.prevIncrement {
			a.decrement(s)
			s.prevIncrement = false
			s.consecFail = 0
		} else if s.consecFail >= a.FailureThreshold {
			a.decrement(s)
			s.consecFail = 0
		}
		return
	}
	s.consecSuccess++
	s.consecFail = 0
	s.prevIncrement = false
	if s.consecSuccess >= a.SuccessThreshold {
		a.increment(s)
		s.prevIncrement = true
		s.consecSuccess = 0
	}
}

func (a *ARF) increment(s *peerState) {
	if s.currentIdx < a.maxIdx {
		s.currentIdx++
	}
}

func (a *ARF) decrement(s *peerState) {
	if s.currentIdx > 0 {
		s.currentIdx--
	}
}

// FixedPower implements fixed power control (spec §4.6): it always
// returns the configured power, ignoring link state.
type FixedPower struct {
	DbM float64
}

// DefaultFixedPowerDbm is FixedPower's default, within the valid
// [0,30] dBm range.
const DefaultFixedPowerDbm = 15.0

// NewFixedPower returns a FixedPower policy at the default power.
func NewFixedPower() *FixedPower {
	return &FixedPower{DbM: DefaultFixedPowerDbm}
}

// Power implements PowerControl.
func (f *FixedPower) Power(peer int, info ControlInfo) float64 {
	return f.DbM
}
