// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package node

import (
	"github.com/heistp/dot11sim/channel"
	"github.com/heistp/dot11sim/clock"
	"github.com/heistp/dot11sim/phy"
)

// Kernel is the discrete-event simulation kernel (spec §4.1): single-
// threaded and cooperative, it steps every node with a shared
// elapsedTime each iteration and distributes transmitted waveforms
// between iterations.
type Kernel struct {
	Nodes   []*Node
	Channel *channel.LogDistanceModel

	now clock.Clock
}

// NewKernel returns a new Kernel over nodes, using model as the channel
// collaborator for received-power attenuation.
func NewKernel(nodes []*Node, model *channel.LogDistanceModel) *Kernel {
	return &Kernel{Nodes: nodes, Channel: model}
}

// Now returns the kernel's current simulated time.
func (k *Kernel) Now() clock.Clock {
	return k.now
}

type transmission struct {
	source *Node
	sig    phy.Signal
}

// Run steps the kernel until simulated time reaches or exceeds
// simulationTime, per spec §4.1's termination and time-advance rules. It
// also returns early, before simulationTime, when an iteration has no
// transmission and no node reports a positive nextInvokeTime.
func (k *Kernel) Run(simulationTime clock.Clock) {
	var elapsed clock.Clock
	for k.now < simulationTime {
		var transmitted []transmission
		minNext := clock.Clock(-1)

		for _, n := range k.Nodes {
			next, sig := n.RunNode(elapsed)
			if sig != nil {
				transmitted = append(transmitted, transmission{source: n, sig: *sig})
			}
			minNext = clock.MinPositive(minNext, next)
		}

		k.distribute(transmitted)

		if len(transmitted) > 0 {
			elapsed = 0
			continue
		}
		if minNext <= 0 {
			break // no node has a pending event; nothing more will happen.
		}
		elapsed = minNext
		k.now += elapsed
	}
}

// distribute implements spec §4.1's packet distribution policy: every
// transmission with a non-zero subframe count is copied to every other
// node's inbound queue, with received power attenuated by the channel
// model; self-reception is skipped.
func (k *Kernel) distribute(transmitted []transmission) {
	for _, t := range transmitted {
		if t.sig.AMPDU.SubframeCount == 0 {
			continue
		}
		for _, other := range k.Nodes {
			if other == t.source {
				continue
			}
			c := t.sig.Clone()
			c.RxPowerDbm = k.Channel.ReceivedPower(t.source.Pos, other.Pos, c.Metadata.SignalPower)
			other.Deliver(c)
		}
	}
}
