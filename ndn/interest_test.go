/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/named-data/hobhis/ndn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestCreate(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/go/ndn"))
	assert.Equal(t, uint32(0), i.Nonce())
	assert.Equal(t, byte(0xFF), i.Scope())
	assert.Equal(t, ndn.NormalInterest, i.Nack())
	assert.False(t, i.IsNack())
	assert.Equal(t, time.Duration(0), i.Lifetime())
	assert.Equal(t, "Interest(Name=/go/ndn, Nonce=0, Lifetime=0ms)", i.String())
}

func TestInterestRoundTrip(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/a/b"))
	i.SetNonce(42)
	i.SetScope(255)
	i.SetNack(ndn.NormalInterest)
	i.SetLifetime(2 * time.Second)

	wire, err := i.Encode()
	require.NoError(t, err)
	assert.Equal(t, i.EncodedSize(), len(wire))
	assert.Equal(t, []byte{
		0x80, 0x00,
		0x00, 0x00, 0x00, 0x2A,
		0xFF,
		0x00,
		0x00, 0x02,
		0x00, 0x02, 0x00, 0x01, 'a', 0x00, 0x01, 'b',
		0x00, 0x00,
		0x00, 0x00,
	}, wire)

	decoded, err := ndn.DecodeInterest(wire)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), decoded.Nonce())
	assert.Equal(t, byte(255), decoded.Scope())
	assert.Equal(t, ndn.NormalInterest, decoded.Nack())
	assert.Equal(t, 2*time.Second, decoded.Lifetime())
	assert.True(t, decoded.Name().Equals(i.Name()))
	assert.Equal(t, "", cmp.Diff(i.String(), decoded.String()))
}

func TestInterestNackRoundTrip(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/a/1"))
	i.SetNack(ndn.NackGiveUpPit)
	wire, err := i.Encode()
	require.NoError(t, err)

	decoded, err := ndn.DecodeInterest(wire)
	require.NoError(t, err)
	assert.True(t, decoded.IsNack())
	assert.Equal(t, ndn.NackGiveUpPit, decoded.Nack())
	assert.Equal(t, "NACK_GIVEUP_PIT", decoded.Nack().String())
}

func TestInterestDecodeErrors(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/a"))
	wire, err := i.Encode()
	require.NoError(t, err)

	bad := append([]byte(nil), wire...)
	bad[0] = 0x81
	_, err = ndn.DecodeInterest(bad)
	assert.ErrorIs(t, err, ndn.ErrBadMarker)

	bad = append([]byte(nil), wire...)
	bad[1] = 0x05
	_, err = ndn.DecodeInterest(bad)
	assert.ErrorIs(t, err, ndn.ErrBadMarker)

	_, err = ndn.DecodeInterest(wire[:len(wire)-1])
	assert.ErrorIs(t, err, ndn.ErrBufferTooShort)

	_, err = ndn.DecodeInterest(wire[:5])
	assert.ErrorIs(t, err, ndn.ErrBufferTooShort)
}

func TestInterestLifetimeRange(t *testing.T) {
	i := ndn.NewInterest(ndn.MustNameFromString("/a"))
	i.SetLifetime(65536 * time.Second)
	_, err := i.Encode()
	assert.ErrorIs(t, err, ndn.ErrLifetimeRange)

	i.SetLifetime(65535 * time.Second)
	_, err = i.Encode()
	assert.NoError(t, err)

	i.SetLifetime(-time.Second)
	_, err = i.Encode()
	assert.ErrorIs(t, err, ndn.ErrLifetimeRange)
}
