// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package phy

import (
	"math"

	"github.com/heistp/dot11sim/clock"
	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/geoutil"
)

// OBSSPDThresholdMin is the minimum (most restrictive) OBSS-PD level
// permitted by spatial-reuse operation, in dBm (spec §4.2).
const OBSSPDThresholdMin = -82.0

// txPowerReferenceAP and txPowerReferenceNonAP are the default transmit
// power reference levels used to compute the OBSS-PD power cap, per spec
// §4.2: an AP with more than two space-time streams references 25dBm,
// every other transmitter references 21dBm.
const (
	txPowerReferenceAP    = 25.0
	txPowerReferenceNonAP = 21.0
)

// TxStartRequest carries the TX vector for an upcoming transmission (spec
// §4.2's "macRequest" input).
type TxStartRequest struct {
	TxVector TxVector
	IsAP     bool
}

// FrameToPHY carries the framed MAC payload handed to the PHY for
// waveform assembly (spec §4.2's "frameToPHY" input).
type FrameToPHY struct {
	Frame MACFrameInfo
	// SubframeLengths is the PSDU length, in bytes, of each A-MPDU
	// subframe (length 1 for a non-aggregated frame).
	SubframeLengths []int
}

// ConfirmKind distinguishes the two confirmations the transmitter can
// emit (spec §4.2).
type ConfirmKind int

const (
	TxStartConfirm ConfirmKind = iota
	TxEndConfirm
)

// TxConfirm is a confirmation the transmitter emits back to the MAC.
type TxConfirm struct {
	Kind ConfirmKind
}

// Transmitter implements the abstracted PHY transmitter (spec §4.2): it
// holds the TX vector and spatial-reuse parameters set by a
// TxStartRequest, then assembles a complete Signal waveform descriptor
// when handed the framed payload.
type Transmitter struct {
	NodeID int
	TxGain float64

	txVector   TxVector
	isAP       bool
	txPowerRef float64
}

// NewTransmitter returns a Transmitter for nodeID with the given TX gain,
// in dB.
func NewTransmitter(nodeID int, txGain float64) *Transmitter {
	return &Transmitter{NodeID: nodeID, TxGain: txGain}
}

// HandleTxStartRequest latches req's TX vector and spatial-reuse
// parameters, and returns the immediate TxStartConfirm, per spec §4.2.
func (t *Transmitter) HandleTxStartRequest(req TxStartRequest) TxConfirm {
	t.txVector = req.TxVector
	t.isAP = req.IsAP
	if req.TxVector.EnableSR {
		if req.IsAP && req.TxVector.NumSTS > 2 {
			t.txPowerRef = txPowerReferenceAP
		} else {
			t.txPowerRef = txPowerReferenceNonAP
		}
	}
	return TxConfirm{Kind: TxStartConfirm}
}

// HandleFrameToPHY assembles the complete Signal waveform descriptor for
// frame, using the TX vector latched by the prior HandleTxStartRequest
// call, and returns it along with the TxEndConfirm, per spec §4.2.
func (t *Transmitter) HandleFrameToPHY(now clock.Clock, pos geoutil.Position, frame FrameToPHY) (TxConfirm, Signal, error) {
	cfg := t.txVector.frametabConfig()
	rt, err := frametab.GetRateTable(cfg)
	if err != nil {
		return TxConfirm{Kind: TxEndConfirm}, Signal{}, err
	}
	hdr, err := frametab.HeaderDuration(cfg)
	if err != nil {
		return TxConfirm{Kind: TxEndConfirm}, Signal{}, err
	}

	sigPower := t.userTxPower() + t.TxGain
	capped := false
	if t.txVector.EnableSR && t.txVector.OBSSPDThreshold > OBSSPDThresholdMin {
		txPowerMax := t.txPowerRef - (t.txVector.OBSSPDThreshold - OBSSPDThresholdMin)
		sigPower = math.Min(txPowerMax, t.userTxPower()+t.TxGain)
		capped = true
	}

	ampdu := buildAMPDULayout(cfg, rt, frame.SubframeLengths)
	var payload clock.Clock
	for _, sf := range ampdu.Subframe {
		payload += sf.Duration + sf.OverheadDuration
	}

	sig := Signal{
		SourceID:         t.NodeID,
		SourcePos:        pos,
		StartTime:        now,
		PreambleDuration: frametab.PreambleDuration,
		HeaderDuration:   hdr,
		PayloadDuration:  payload,
		TxVector:         t.txVector,
		Frame:            frame.Frame,
		AMPDU:            ampdu,
		Metadata: SignalMetadata{
			SignalPower:   sigPower,
			SubframeCount: ampdu.SubframeCount,
			BSSColor:      t.txVector.BSSColor,
			LimitTxPower:  capped,
		},
	}
	return TxConfirm{Kind: TxEndConfirm}, sig, nil
}

func (t *Transmitter) userTxPower() float64 {
	if len(t.txVector.PerUser) == 0 {
		return 0
	}
	return t.txVector.PerUser[0].TxPower
}

// buildAMPDULayout computes per-subframe PayloadInfo accounting, per spec
// §4.2. The first subframe carries the service and (for BCC coding) tail
// bits; later subframes carry only their MPDU payload bits. Per-subframe
// durations are rounded up to whole OFDM symbols. The total payload
// duration is the sum of those per-subframe durations, so the residual
// assigned as the last subframe's overhead is always zero and no
// subframe carries padding; total duration stays exactly consistent
// (spec §8's duration-consistency property).
func buildAMPDULayout(cfg frametab.Config, rt frametab.RateTable, lengths []int) AMPDULayout {
	n := len(lengths)
	out := AMPDULayout{SubframeCount: n, Subframe: make([]PayloadInfo, n)}
	if n == 0 {
		return out
	}

	tailBits := 0
	if cfg.Coding == frametab.BCC || cfg.Format == frametab.NonHT {
		tailBits = 6
	}

	var offset clock.Clock
	var totalDataSymbols int
	symbolsOf := make([]int, n)
	for i, l := range lengths {
		bits := l * 8
		if i == 0 {
			bits += 16 + tailBits // SERVICE field + tail bits
		}
		symbols := int(math.Ceil(float64(bits) / float64(rt.NDBPS)))
		if symbols < 1 {
			symbols = 1
		}
		symbolsOf[i] = symbols
		totalDataSymbols += symbols
	}

	totalDuration := clock.Clock(totalDataSymbols) * rt.SymbolDuration
	for i, l := range lengths {
		dur := clock.Clock(symbolsOf[i]) * rt.SymbolDuration
		overhead := clock.Clock(0)
		if i == n-1 {
			// residual padding absorbed by the last subframe keeps the
			// layout's total duration exactly equal to totalDuration.
			sum := clock.Clock(0)
			for j := 0; j < n; j++ {
				sum += clock.Clock(symbolsOf[j]) * rt.SymbolDuration
			}
			overhead = totalDuration - sum
		}
		out.Subframe[i] = PayloadInfo{
			Length:           l,
			Offset:           offset,
			Duration:         dur,
			OverheadDuration: overhead,
			NumOfBits:        float64(l * 8),
		}
		offset += dur + overhead
	}
	return out
}
