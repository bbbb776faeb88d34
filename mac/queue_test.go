// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestQueueDiscardScenario is spec §8 scenario 5.
func TestQueueDiscardScenario(t *testing.T) {
	qm := NewQueueManager()
	for i := 0; i < 5; i++ {
		require.True(t, qm.Enqueue(3, ACBestEffort, MSDU{Len: 100}))
	}
	frames := qm.Dequeue([]int{3}, []AC{ACBestEffort}, 5, 1)
	require.Len(t, frames, 1)
	require.Len(t, frames[0].MSDUs, 5)

	discarded := qm.DiscardPackets([]int{3}, []AC{ACBestEffort}, [][]int{{2, 4}}, []int{2}, 1)
	require.Len(t, discarded, 1)
	assert.ElementsMatch(t, []int{2, 4}, discarded[0])
	assert.Equal(t, 3, qm.TxQueueLength(3, ACBestEffort))
	assert.Equal(t, 3, qm.RetryLength(3, ACBestEffort))
}

func TestEnqueueFullRingFails(t *testing.T) {
	qm := NewQueueManagerConfig(2, 8)
	require.True(t, qm.Enqueue(1, ACVoice, MSDU{}))
	require.True(t, qm.Enqueue(1, ACVoice, MSDU{}))
	assert.False(t, qm.Enqueue(1, ACVoice, MSDU{}))
}

func TestIsFourAddressFrame(t *testing.T) {
	a := [6]byte{1}
	b := [6]byte{2}
	assert.True(t, IsFourAddressFrame(a, b))
	assert.False(t, IsFourAddressFrame(a, a))
}

// TestQueueInvariant exercises spec §8's "retry + tx length equals
// distinct MSDUs owned" universal property over random operation
// sequences.
func TestQueueInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qm := NewQueueManagerConfig(20, 10)
		owned := 0
		steps := rapid.IntRange(0, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				if qm.Enqueue(1, ACBestEffort, MSDU{Len: 1}) {
					owned++
				}
			case 1:
				n := rapid.IntRange(1, 5).Draw(t, "n")
				qm.Dequeue([]int{1}, []AC{ACBestEffort}, n, 1)
			case 2:
				live := liveRetryIndices(qm, 1, ACBestEffort)
				if len(live) == 0 {
					continue
				}
				k := rapid.IntRange(1, len(live)).Draw(t, "k")
				idx := live[:k]
				d := qm.DiscardPackets([]int{1}, []AC{ACBestEffort}, [][]int{idx}, []int{len(idx)}, 1)
				owned -= len(d[0])
			}
			require.Equal(t, owned, qm.TxQueueLength(1, ACBestEffort))
		}
	})
}

func liveRetryIndices(qm *QueueManager, nodeID int, ac AC) []int {
	qs := qm.stateFor(nodeID, ac)
	var out []int
	for _, s := range qs.retry {
		if s.active {
			out = append(out, s.index)
		}
	}
	return out
}
