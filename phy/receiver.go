// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package phy

import (
	"github.com/heistp/dot11sim/clock"
	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/ifx"
	"github.com/heistp/dot11sim/linkq"
)

// RxState is one of the receiver FSM's states (spec §4.3).
type RxState int

const (
	Idle RxState = iota
	PreambleHeader
	Payload
	Undecodable
)

// EDThreshold is the default energy-detect threshold, in dBm (spec §4.3,
// §7 defaults).
const EDThreshold = -82.0

// numHeaderAndPreambleBits is the fixed bit count used to size the
// Non-HT MCS0/BCC header-decode probability computation (spec §4.3).
const numHeaderAndPreambleBits = 24 * 8

// IndicationKind identifies which primitive the receiver emits to the
// MAC after processing an event (spec §4.3).
type IndicationKind int

const (
	NoIndication IndicationKind = iota
	RxStartIndication
	RxEndIndication
	RxErrorIndication
	CCABusyIndication
	CCAIdleIndication
)

// Indication is one primitive the receiver emits, carrying whichever
// payload its Kind needs.
type Indication struct {
	Kind     IndicationKind
	TxVector TxVector
	Frame    MACFrameInfo
}

// Receiver implements the abstracted PHY receiver state machine (spec
// §4.3): CCA/ED arbitration, preamble/header and per-subframe payload
// decode via a link-quality model, and OBSS-PD spatial-reuse filtering.
type Receiver struct {
	NodeID   int
	BSSColor int
	RxOn     bool
	CCAIdle  bool

	Model *linkq.Model
	RNG   *clock.RNG
	Intf  *ifx.Buffer

	state         RxState
	deadline      clock.Clock // absolute time the current stage expires, valid iff state != Idle
	soi           *Signal
	soiStart      clock.Clock
	subframeIdx   int
	limitTxPower  bool
	cachedP       float64
	haveCachedP   bool
	ilog          *ifx.InterferenceLog
	totalIntfTime clock.Clock
}

// NewReceiver returns a new, idle Receiver for nodeID.
func NewReceiver(nodeID int, model *linkq.Model, rng *clock.RNG, bufCapacity int) *Receiver {
	return &Receiver{
		NodeID:  nodeID,
		RxOn:    true,
		CCAIdle: true,
		Model:   model,
		RNG:     rng,
		Intf:    ifx.NewBuffer(bufCapacity),
		ilog:    ifx.NewInterferenceLog(),
	}
}

func (r *Receiver) recordFor(s *Signal) ifx.Record {
	return ifx.Record{
		SourceID:  s.SourceID,
		RxPowerW:  ifx.DbmToWatts(s.RxPowerDbm),
		StartTime: s.StartTime,
		EndTime:   s.EndTime(),
		Format:    int(s.TxVector.Format),
		Bandwidth: int(s.TxVector.Bandwidth),
		NumAnt:    s.TxVector.NumTxAntennas,
		NumSTS:    s.TxVector.NumSTS,
	}
}

// Arrive processes the arrival of sig at time now, per spec §4.3's
// arrival transitions. It returns any indication produced directly by
// the arrival (the Idle→PreambleHeader transition never itself emits
// one; see Invoke for the post-processing CCA derivation).
func (r *Receiver) Arrive(now clock.Clock, sig Signal) Indication {
	if !r.RxOn {
		return Indication{} // "Rx trigger during Tx": dropped.
	}
	rec := r.recordFor(&sig)
	if r.state == Idle && sig.RxPowerDbm >= EDThreshold && r.CCAIdle {
		r.soi = &sig
		r.soiStart = now
		r.ilog.Reset()
		for _, pre := range r.Intf.Signals() {
			r.ilog.Log(sig.StartTime, sig.EndTime(), pre)
		}
		r.Intf.Add(rec)
		r.state = PreambleHeader
		r.deadline = now + sig.PreambleDuration + sig.HeaderDuration
		r.subframeIdx = 0
		r.haveCachedP = false
		return Indication{}
	}
	// Arrival while CCA busy, or below ED threshold: counted as
	// interference only.
	r.Intf.Add(rec)
	if r.soi != nil {
		r.ilog.Log(r.soi.StartTime, r.soi.EndTime(), rec)
	}
	return Indication{}
}

// activeSignals builds the ActiveSignal list the link-quality model
// needs: every active interference record other than the signal-of-
// interest, whose power the caller passes to the model separately.
func (r *Receiver) activeSignals(now clock.Clock) []linkq.ActiveSignal {
	sigs := r.Intf.Signals()
	out := make([]linkq.ActiveSignal, 0, len(sigs))
	for _, s := range sigs {
		if r.soi != nil && s.SourceID == r.soi.SourceID && s.StartTime == r.soi.StartTime {
			continue
		}
		out = append(out, linkq.ActiveSignal{Record: s, Field: FieldData})
	}
	return out
}

// FieldData and FieldPreamble re-export linkq's field labels for callers
// that only import phy.
const (
	FieldPreamble = linkq.FieldPreamble
	FieldData     = linkq.FieldData
)

// Invoke advances the FSM at time now. It runs the current stage's expiry
// handler only if the stage's own absolute deadline has actually been
// reached at or before now (the caller may be invoked earlier, for an
// unrelated node's or the interference buffer's nearer event), then
// derives a CCA indication from the post-update interference buffer, per
// spec §4.3.
func (r *Receiver) Invoke(now clock.Clock) Indication {
	ind := Indication{}
	if r.state != Idle && now >= r.deadline {
		switch r.state {
		case PreambleHeader:
			ind = r.onHeaderExpiry(now)
		case Payload:
			ind = r.onPayloadExpiry(now)
		case Undecodable:
			r.endReception(now)
		}
	}
	r.Intf.Update(now)
	if ind.Kind == NoIndication {
		total := r.Intf.TotalPower()
		if ifx.WattsToDbm(total) >= EDThreshold && r.CCAIdle {
			r.CCAIdle = false
			ind = Indication{Kind: CCABusyIndication}
		} else if ifx.WattsToDbm(total) < EDThreshold && !r.CCAIdle {
			r.CCAIdle = true
			r.limitTxPower = false
			ind = Indication{Kind: CCAIdleIndication}
		}
	}
	return ind
}

func (r *Receiver) onHeaderExpiry(now clock.Clock) Indication {
	sig := r.soi
	sinr := r.Model.SINRDb(sig.TxVector.Bandwidth, ifx.DbmToWatts(sig.RxPowerDbm), r.activeSignals(now))
	p, err := r.Model.SuccessProbability(sinr, numHeaderAndPreambleBits/8, 0, frametab.BCC, r.Intf.NumSignals()-1)
	if err != nil {
		p = 0
	}
	rnd := r.RNG.Float64()
	if p > rnd {
		interBSS := sig.TxVector.EnableSR && sig.TxVector.BSSColor != r.BSSColor
		if interBSS && sig.Metadata.SignalPower < sig.TxVector.OBSSPDThreshold {
			r.limitTxPower = true
			r.Intf.Update(now)
			if ifx.WattsToDbm(r.Intf.TotalPower()) < sig.TxVector.OBSSPDThreshold {
				r.endReception(now)
				r.CCAIdle = true
				return Indication{Kind: CCAIdleIndication}
			}
			r.state = Undecodable
			r.deadline = now + sig.PayloadDuration
			return Indication{}
		}
		r.state = Payload
		if len(sig.AMPDU.Subframe) < 2 {
			r.deadline = now + sig.PayloadDuration
		} else {
			sf := sig.AMPDU.Subframe[0]
			r.deadline = now + sf.Duration + sf.OverheadDuration
		}
		return Indication{Kind: RxStartIndication, TxVector: sig.TxVector}
	}
	r.state = Undecodable
	r.deadline = now + sig.PayloadDuration
	return Indication{Kind: RxErrorIndication}
}

func (r *Receiver) onPayloadExpiry(now clock.Clock) Indication {
	sig := r.soi
	idx := r.subframeIdx
	sf := sig.AMPDU.Subframe[idx]
	others := r.activeSignals(now)

	var p float64
	if r.haveCachedP && len(others) == 0 && idx+1 < len(sig.AMPDU.Subframe) && sig.AMPDU.Subframe[idx+1].NumOfBits == sf.NumOfBits {
		p = r.cachedP
	} else {
		sinr := r.Model.SINRDb(sig.TxVector.Bandwidth, ifx.DbmToWatts(sig.RxPowerDbm), others)
		coding := sig.TxVector.Coding
		if sig.TxVector.Format == frametab.NonHT {
			coding = frametab.BCC
		}
		mcs := 0
		if len(sig.TxVector.PerUser) > 0 {
			mcs = sig.TxVector.PerUser[0].MCS
		}
		bytes := int(sf.NumOfBits / 8)
		var err error
		p, err = r.Model.SuccessProbability(sinr, bytes, mcs, coding, len(others))
		if err != nil {
			p = 0
		}
	}
	r.cachedP = p
	r.haveCachedP = len(others) == 0

	rnd := r.RNG.Float64()
	if idx < len(sig.Frame.FCSPass) {
		sig.Frame.FCSPass[idx] = p > rnd
		if idx < len(sig.Frame.DelimiterFail) {
			sig.Frame.DelimiterFail[idx] = !(p > rnd)
		}
	}

	last := idx+1 >= len(sig.AMPDU.Subframe)
	if last {
		ind := Indication{Kind: RxEndIndication, TxVector: sig.TxVector, Frame: sig.Frame}
		r.endReception(now)
		return ind
	}
	r.subframeIdx++
	next := sig.AMPDU.Subframe[idx+1]
	r.deadline = now + next.Duration + next.OverheadDuration
	return Indication{}
}

func (r *Receiver) endReception(now clock.Clock) {
	r.totalIntfTime += r.ilog.Total()
	r.ilog.Reset()
	r.soi = nil
	r.subframeIdx = 0
	r.state = Idle
}

// TotalInterferenceTime returns the accumulated Rx-interference time
// across completed receptions.
func (r *Receiver) TotalInterferenceTime() clock.Clock {
	return r.totalIntfTime
}

// NextInvokeTime returns the minimum of the (positive) time remaining
// until the current stage's absolute deadline and the (positive) time
// remaining until the interference-buffer's next expiry, relative to now,
// or -1 if neither is pending, per spec §4.3. Both deadlines are absolute
// times, so this stays correct however far now has fallen behind the
// deadline that was actually due (the same way ifx.Buffer's own Timer()
// tracks absolute end-times rather than a relative countdown).
func (r *Receiver) NextInvokeTime(now clock.Clock) clock.Clock {
	var candidates []clock.Clock
	if r.state != Idle {
		if d := r.deadline - now; d > 0 {
			candidates = append(candidates, d)
		}
	}
	if t := r.Intf.Timer(); t >= 0 {
		if d := t - now; d > 0 {
			candidates = append(candidates, d)
		}
	}
	return clock.MinPositive(candidates...)
}
