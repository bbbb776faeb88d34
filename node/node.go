// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package node implements the node composite (spec §4.7): one MAC queue
// manager, PHY receiver, PHY transmitter, and rate/power controller per
// radio interface, wired together by a minimal traffic-generating MAC
// loop (the MAC state machine proper is out of scope, per spec §6 — "the
// MAC state machine (not specified here)").
package node

import (
	"github.com/heistp/dot11sim/addrbook"
	"github.com/heistp/dot11sim/chanfreq"
	"github.com/heistp/dot11sim/clock"
	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/geoutil"
	"github.com/heistp/dot11sim/ifx"
	"github.com/heistp/dot11sim/linkq"
	"github.com/heistp/dot11sim/mac"
	"github.com/heistp/dot11sim/phy"
	"github.com/heistp/dot11sim/ratectl"
)

// TrafficConfig parameterizes a node's reference traffic generator.
type TrafficConfig struct {
	// Interval is the simulated time between successive generated
	// MSDUs; zero disables generation (a pure receiver/sink node).
	Interval  clock.Clock
	Peers     []int // candidate destination node ids, round-robin
	AC        mac.AC
	MSDULen   int
	Format    frametab.Format
	Bandwidth frametab.Bandwidth
}

// Node is one simulated station: address, position, radio parameters,
// and the per-interface MAC/PHY/queue/control stack.
type Node struct {
	ID       int
	IsAP     bool
	Pos      geoutil.Position
	BSSColor int
	Channel  int
	Band     chanfreq.Band
	TxGain   float64

	Books *addrbook.Book
	Queue *mac.QueueManager
	Rate  ratectl.RateControl
	Power ratectl.PowerControl
	Rx    *phy.Receiver
	Tx    *phy.Transmitter

	Traffic TrafficConfig

	now       clock.Clock
	nextGenAt clock.Clock
	rxDueAt   clock.Clock
	inbound   []phy.Signal
	peerIdx   int
}

// New returns a new Node. rng must be the scenario-wide shared RNG (spec
// §5 "Random-number generation is a shared service").
func New(id int, pos geoutil.Position, books *addrbook.Book, rng *clock.RNG, model *linkq.Model) *Node {
	n := &Node{
		ID:      id,
		Pos:     pos,
		Channel: 36,
		Band:    chanfreq.Band5GHz,
		TxGain:  0,
		Books:   books,
		Queue:   mac.NewQueueManager(),
		Rate:    ratectl.NewARF(frametab.NonHT, 1),
		Power:   ratectl.NewFixedPower(),
		Rx:      phy.NewReceiver(id, model, rng, ifx.DefaultCapacity),
		Tx:      phy.NewTransmitter(id, 0),
		rxDueAt: -1,
	}
	n.Rx.BSSColor = n.BSSColor
	return n
}

// Deliver places sig into the node's inbound queue for its next RunNode
// call, per spec §4.1's packet distribution policy. It must not be
// called for the node's own transmissions (self-reception is skipped by
// the kernel).
func (n *Node) Deliver(sig phy.Signal) {
	n.inbound = append(n.inbound, sig)
}

// RunNode advances the node by elapsed simulated time: it feeds any
// pending inbound signals and due receiver timer to the PHY receiver,
// runs the reference MAC loop, and (if the MAC has a frame ready) the
// PHY transmitter. It returns the node's requested nextInvokeTime (the
// minimum of the MAC's and PHY receiver's pending delays, spec §4.7) and
// any waveform it transmitted this call.
func (n *Node) RunNode(elapsed clock.Clock) (nextInvoke clock.Clock, outbound *phy.Signal) {
	n.now += elapsed

	for _, sig := range n.inbound {
		n.Rx.Arrive(n.now, sig)
	}
	n.inbound = n.inbound[:0]

	if n.rxDueAt >= 0 && n.now >= n.rxDueAt {
		ind := n.Rx.Invoke(n.now)
		n.handleIndication(ind)
	}
	if rn := n.Rx.NextInvokeTime(n.now); rn > 0 {
		n.rxDueAt = n.now + rn
	} else {
		n.rxDueAt = -1
	}

	macNext, sig := n.runMAC()

	return clock.MinPositive(macNext, n.rxDueAtRelative()), sig
}

func (n *Node) rxDueAtRelative() clock.Clock {
	if n.rxDueAt < 0 {
		return -1
	}
	return n.rxDueAt - n.now
}

// handleIndication reacts to primitives the PHY receiver emits. Only the
// reference-generator's needs are modeled here: data addressed to this
// node is simply observed (no ACK state machine, per the MAC-not-
// specified scope).
func (n *Node) handleIndication(ind phy.Indication) {
	_ = ind
}

// runMAC implements the reference traffic generator: when the
// generation interval has elapsed, it enqueues one MSDU; if the channel
// is also idle, it immediately dequeues one MSDU, hands it to the PHY
// transmitter, and returns the resulting waveform.
func (n *Node) runMAC() (clock.Clock, *phy.Signal) {
	if n.Traffic.Interval <= 0 || len(n.Traffic.Peers) == 0 {
		return -1, nil
	}
	if n.now < n.nextGenAt {
		return n.nextGenAt - n.now, nil
	}
	n.nextGenAt = n.now + n.Traffic.Interval

	peer := n.Traffic.Peers[n.peerIdx%len(n.Traffic.Peers)]
	n.peerIdx++
	dst, ok := n.Books.LookupByID(peer, 0)
	if !ok {
		return n.Traffic.Interval, nil
	}
	n.Queue.Enqueue(n.ID, n.Traffic.AC, mac.MSDU{
		Len:       n.Traffic.MSDULen,
		NextHop:   dst,
		FinalDest: dst,
	})
	if !n.Rx.CCAIdle {
		// No MAC-specific timer to report here: clock.MinPositive treats
		// 0 and negative values as absent, so returning 0 to mean "retry
		// immediately" would vanish from scheduling and could stall the
		// kernel. The PHY receiver's own NextInvokeTime already accounts
		// for the interference buffer's pending Timer() and will wake
		// this node once the channel clears.
		return -1, nil
	}
	frames := n.Queue.Dequeue([]int{n.ID}, []mac.AC{n.Traffic.AC}, 1, 1)
	if len(frames) == 0 || len(frames[0].MSDUs) == 0 {
		return n.Traffic.Interval, nil
	}
	msdu := frames[0].MSDUs[0]

	mcs := n.Rate.MCS(peer)
	power := n.Power.Power(peer, ratectl.ControlInfo{})
	tv := phy.TxVector{
		Format:    n.Traffic.Format,
		Bandwidth: n.Traffic.Bandwidth,
		NumSTS:    1,
		PerUser:   []phy.UserField{{MCS: mcs, PSDULength: msdu.MSDU.Len, TxPower: power}},
	}
	n.Tx.HandleTxStartRequest(phy.TxStartRequest{TxVector: tv, IsAP: n.IsAP})
	_, sig, err := n.Tx.HandleFrameToPHY(n.now, n.Pos, phy.FrameToPHY{
		Frame: phy.MACFrameInfo{
			RetryFlags:    []bool{msdu.RetryFlag},
			FCSPass:       make([]bool, 1),
			SrcAddr:       n.selfAddr(),
			DstAddr:       dst,
			NextHopAddr:   msdu.MSDU.NextHop,
			FinalDestAddr: msdu.MSDU.FinalDest,
		},
		SubframeLengths: []int{msdu.MSDU.Len},
	})
	if err != nil {
		return n.Traffic.Interval, nil
	}
	sig.FrequencyGHz = chanfreq.FrequencyGHz(n.Band, n.Channel, chanfreq.DefaultStartingFactor5GHz)
	return 0, &sig
}

func (n *Node) selfAddr() addrbook.Addr {
	a, _ := n.Books.LookupByID(n.ID, 0)
	return a
}
