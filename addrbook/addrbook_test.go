// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package addrbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignAndLookup(t *testing.T) {
	b := New()
	a := Addr{0, 0, 0, 0, 0, 1}
	require.NoError(t, b.Assign(1, 0, a))

	got, ok := b.LookupByID(1, 0)
	require.True(t, ok)
	assert.Equal(t, a, got)

	id, iface, ok := b.LookupByAddr(a)
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, 0, iface)
}

func TestAssignRejectsBroadcast(t *testing.T) {
	b := New()
	assert.Error(t, b.Assign(1, 0, Broadcast))
}

func TestAssignRejectsAddressReuse(t *testing.T) {
	b := New()
	a := Addr{0, 0, 0, 0, 0, 1}
	require.NoError(t, b.Assign(1, 0, a))
	assert.Error(t, b.Assign(2, 0, a))
}

func TestBroadcastLookups(t *testing.T) {
	b := New()
	addr, ok := b.LookupByID(BroadcastNodeID, 0)
	require.True(t, ok)
	assert.Equal(t, Broadcast, addr)

	id, _, ok := b.LookupByAddr(Broadcast)
	require.True(t, ok)
	assert.Equal(t, BroadcastNodeID, id)
}
