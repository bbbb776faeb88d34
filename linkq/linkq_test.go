// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package linkq

import (
	"testing"

	"github.com/heistp/dot11sim/frametab"
	"github.com/heistp/dot11sim/ifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMACCalibrationMode(t *testing.T) {
	m := NewModel(MACCalibration)
	p, err := m.SuccessProbability(0, 1500, 7, frametab.BCC, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = m.SuccessProbability(40, 1500, 7, frametab.BCC, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestAppendix1HighSINRSucceeds(t *testing.T) {
	m := NewModel(Appendix1)
	p, err := m.SuccessProbability(60, 1500, 0, frametab.BCC, 0)
	require.NoError(t, err)
	assert.Greater(t, p, 0.99)
}

func TestAppendix1LowSINRFails(t *testing.T) {
	m := NewModel(Appendix1)
	p, err := m.SuccessProbability(-10, 1500, 9, frametab.BCC, 2)
	require.NoError(t, err)
	assert.Less(t, p, 0.01)
}

func TestAppendix1RejectsOutOfRangeMCS(t *testing.T) {
	m := NewModel(Appendix1)
	_, err := m.SuccessProbability(20, 100, 11, frametab.BCC, 0)
	assert.Error(t, err)
}

func TestSINRDbDecreasesWithInterference(t *testing.T) {
	m := NewModel(Appendix1)
	none := m.SINRDb(frametab.BW20, 1e-9, nil)
	withIntf := m.SINRDb(frametab.BW20, 1e-9, []ActiveSignal{
		{Record: ifx.Record{SourceID: 2, RxPowerW: 1e-9}, Field: FieldData},
	})
	assert.Greater(t, none, withIntf)
}
