// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

// Package geoutil wraps golang/geo's flat-plane r2 package for node
// positions, the way a channel model needs them for distance-based path
// loss (spec §6 "Channel model").
package geoutil

import "github.com/golang/geo/r2"

// Position is a node's location on the simulated plane, in meters.
type Position = r2.Point

// NewPosition returns a Position at (x, y) meters.
func NewPosition(x, y float64) Position {
	return r2.Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between two positions, in
// meters.
func Distance(a, b Position) float64 {
	return a.Sub(b).Norm()
}
