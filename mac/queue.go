// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package mac implements the MAC queue manager (spec §4.5): per-node,
// per-access-category transmission and retransmission queues with
// selective discard and ordered, MU-aware dequeue.
package mac

import "github.com/heistp/dot11sim/addrbook"

// AC is an 802.11e access category.
type AC int

const (
	ACVoice AC = iota
	ACVideo
	ACBestEffort
	ACBackground
)

// NumAC is the fixed number of access categories (spec §3).
const NumAC = 4

// MaxMUStations is the maximum number of users aggregated into one MU
// PPDU (spec §3).
const MaxMUStations = 9

// Default queue capacities; callers needing different limits construct a
// QueueManager with NewQueueManagerConfig.
const (
	DefaultMaxQueueLength    = 256
	DefaultMaxSubframesCount = 64
)

// MSDU is the abstracted MAC service data unit tracked by the queue
// manager. The byte payload itself is out of scope (spec §1, MAC frame
// codec is an external collaborator); only the fields the queue manager
// and four-address check need are modeled.
type MSDU struct {
	Len       int
	NextHop   addrbook.Addr
	FinalDest addrbook.Addr
}

// retrySlot is one slot of the fixed-capacity retry buffer.
type retrySlot struct {
	active    bool
	index     int
	msdu      MSDU
	retryFlag bool
}

// queueState holds the tx ring and retry buffer for one (node, AC) pair.
type queueState struct {
	pending        []MSDU // FIFO ring, front at index 0
	retry          []retrySlot
	nextRetryIndex int
}

// UserMSDU is one MSDU included in a Dequeue result, tagged with its
// retry index so a later DiscardPackets call can address it.
type UserMSDU struct {
	RetryIndex int
	MSDU       MSDU
	RetryFlag  bool
}

// UserFrame is one station's aggregate dequeued for a (possibly MU) PPDU.
type UserFrame struct {
	NodeID int
	AC     AC
	MSDUs  []UserMSDU
}

// QueueManager owns the tx and retry queues for every (node, AC) pair in
// a scenario.
type QueueManager struct {
	maxQueueLen  int
	maxSubframes int
	state        map[int]map[AC]*queueState
}

// NewQueueManager returns a QueueManager with default capacities.
func NewQueueManager() *QueueManager {
	return NewQueueManagerConfig(DefaultMaxQueueLength, DefaultMaxSubframesCount)
}

// NewQueueManagerConfig returns a QueueManager with the given capacities.
func NewQueueManagerConfig(maxQueueLength, maxSubframesCount int) *QueueManager {
	return &QueueManager{
		maxQueueLen:  maxQueueLength,
		maxSubframes: maxSubframesCount,
		state:        make(map[int]map[AC]*queueState),
	}
}

func (qm *QueueManager) stateFor(nodeID int, ac AC) *queueState {
	m, ok := qm.state[nodeID]
	if !ok {
		m = make(map[AC]*queueState)
		qm.state[nodeID] = m
	}
	qs, ok := m[ac]
	if !ok {
		qs = &queueState{retry: make([]retrySlot, qm.maxSubframes)}
		m[ac] = qs
	}
	return qs
}

// Enqueue appends packet to the tx ring of (nodeID, ac). It returns false
// if the ring is already at MaxQueueLength, per spec §4.5.
func (qm *QueueManager) Enqueue(nodeID int, ac AC, packet MSDU) bool {
	qs := qm.stateFor(nodeID, ac)
	if len(qs.pending) >= qm.maxQueueLen {
		return false
	}
	qs.pending = append(qs.pending, packet)
	return true
}

// Dequeue builds up to one aggregate UserFrame per (node, AC) pair in
// nodeList/acList (at most MaxMUStations of them), each holding up to
// numMSDU MSDUs: already-retry-resident MSDUs are read first (keeping
// their original retry index so selective discard stays addressable),
// then fresh MSDUs are pulled from the tx ring, assigned new retry
// indices, and appended to the retry buffer, per spec §4.5. numNodes
// caps how many of nodeList/acList are considered.
func (qm *QueueManager) Dequeue(nodeList []int, acList []AC, numMSDU, numNodes int) []UserFrame {
	n := min(numNodes, len(nodeList), len(acList), MaxMUStations)
	var out []UserFrame
	for i := 0; i < n; i++ {
		f := qm.dequeueOne(nodeList[i], acList[i], numMSDU)
		if len(f.MSDUs) > 0 {
			out = append(out, f)
		}
	}
	return out
}

func (qm *QueueManager) dequeueOne(nodeID int, ac AC, numMSDU int) UserFrame {
	qs := qm.stateFor(nodeID, ac)
	f := UserFrame{NodeID: nodeID, AC: ac}
	for i := range qs.retry {
		if len(f.MSDUs) >= numMSDU {
			return f
		}
		s := &qs.retry[i]
		if s.active {
			f.MSDUs = append(f.MSDUs, UserMSDU{RetryIndex: s.index, MSDU: s.msdu, RetryFlag: s.retryFlag})
		}
	}
	for len(f.MSDUs) < numMSDU && len(qs.pending) > 0 {
		slot := qm.firstInactiveRetrySlot(qs)
		if slot < 0 {
			break // retry buffer full; frame is shorter than requested.
		}
		msdu := qs.pending[0]
		qs.pending = qs.pending[1:]
		idx := qs.nextRetryIndex
		qs.nextRetryIndex++
		qs.retry[slot] = retrySlot{active: true, index: idx, msdu: msdu, retryFlag: false}
		f.MSDUs = append(f.MSDUs, UserMSDU{RetryIndex: idx, MSDU: msdu, RetryFlag: false})
	}
	return f
}

func (qm *QueueManager) firstInactiveRetrySlot(qs *queueState) int {
	for i := range qs.retry {
		if !qs.retry[i].active {
			return i
		}
	}
	return -1
}

// DiscardPackets zeros the retry slots in msduIndices[i][:numIndices[i]]
// for station i of (nodeList, acList), per spec §4.5. It returns, per
// station, the retry indices that were actually found active and
// discarded.
func (qm *QueueManager) DiscardPackets(nodeList []int, acList []AC, msduIndices [][]int, numIndices []int, numNodes int) [][]int {
	n := min(numNodes, len(nodeList), len(acList))
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		qs := qm.stateFor(nodeList[i], acList[i])
		k := min(numIndices[i], len(msduIndices[i]))
		for _, idx := range msduIndices[i][:k] {
			for s := range qs.retry {
				if qs.retry[s].active && qs.retry[s].index == idx {
					qs.retry[s] = retrySlot{}
					out[i] = append(out[i], idx)
					break
				}
			}
		}
	}
	return out
}

// PendingLength returns the number of MSDUs still waiting in the tx ring
// (not yet dequeued into the retry buffer) for (nodeID, ac).
func (qm *QueueManager) PendingLength(nodeID int, ac AC) int {
	return len(qm.stateFor(nodeID, ac).pending)
}

// RetryLength returns the number of MSDUs currently held in the retry
// buffer (dequeued, awaiting ACK or discard) for (nodeID, ac).
func (qm *QueueManager) RetryLength(nodeID int, ac AC) int {
	n := 0
	for _, s := range qm.stateFor(nodeID, ac).retry {
		if s.active {
			n++
		}
	}
	return n
}

// TxQueueLength returns the number of MSDUs still owned by (nodeID, ac):
// pending plus in-flight retry entries.
func (qm *QueueManager) TxQueueLength(nodeID int, ac AC) int {
	return qm.PendingLength(nodeID, ac) + qm.RetryLength(nodeID, ac)
}

// IsFourAddressFrame returns true iff the next-hop and final-destination
// addresses differ, per spec §4.5.
func IsFourAddressFrame(nextHop, finalDest addrbook.Addr) bool {
	return nextHop != finalDest
}

func min(v ...int) int {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
