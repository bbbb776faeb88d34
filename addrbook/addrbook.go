// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package addrbook implements the node-address registry collaborator
// named in spec §6: a (node id, interface) <-> MAC address map with a
// reserved broadcast entry, injected explicitly into whichever component
// needs it (spec §9 "Persistent address book").
package addrbook

import "fmt"

// Addr is a 6-byte MAC address.
type Addr [6]byte

// Broadcast is the reserved broadcast MAC address.
var Broadcast = Addr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// BroadcastNodeID is the reserved node id representing the broadcast
// destination.
const BroadcastNodeID = 65535

func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// key identifies one (node id, interface) pair.
type key struct {
	nodeID int
	iface  int
}

// Book is a node-address registry.
type Book struct {
	byKey  map[key]Addr
	byAddr map[Addr]key
}

// New returns an empty Book.
func New() *Book {
	return &Book{
		byKey:  make(map[key]Addr),
		byAddr: make(map[Addr]key),
	}
}

// Assign associates addr with (nodeID, iface). It is an error to assign
// the broadcast address or to reuse an address already assigned to a
// different (node, interface) pair.
func (b *Book) Assign(nodeID, iface int, addr Addr) error {
	if addr == Broadcast {
		return fmt.Errorf("addrbook: cannot assign the broadcast address")
	}
	k := key{nodeID, iface}
	if existing, ok := b.byAddr[addr]; ok && existing != k {
		return fmt.Errorf("addrbook: address %s already assigned to node %d iface %d",
			addr, existing.nodeID, existing.iface)
	}
	b.byKey[k] = addr
	b.byAddr[addr] = k
	return nil
}

// LookupByID returns the address assigned to (nodeID, iface).
func (b *Book) LookupByID(nodeID, iface int) (Addr, bool) {
	if nodeID == BroadcastNodeID {
		return Broadcast, true
	}
	a, ok := b.byKey[key{nodeID, iface}]
	return a, ok
}

// LookupByAddr returns the (node id, interface) pair owning addr.
func (b *Book) LookupByAddr(addr Addr) (nodeID, iface int, ok bool) {
	if addr == Broadcast {
		return BroadcastNodeID, 0, true
	}
	k, found := b.byAddr[addr]
	return k.nodeID, k.iface, found
}
