/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn_test

import (
	"testing"

	"github.com/named-data/hobhis/ndn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFromString(t *testing.T) {
	n, err := ndn.NameFromString("/go/ndn/%00%01")
	require.NoError(t, err)
	assert.Equal(t, 3, n.Size())
	assert.Equal(t, ndn.NameComponent("go"), n.At(0))
	assert.Equal(t, ndn.NameComponent{0x00, 0x01}, n.At(2))
	assert.Equal(t, ndn.NameComponent("ndn"), n.At(-2))
	assert.Nil(t, n.At(3))
	assert.Equal(t, "/go/ndn/%00%01", n.String())

	root, err := ndn.NameFromString("/")
	require.NoError(t, err)
	assert.Equal(t, 0, root.Size())
	assert.Equal(t, "/", root.String())

	_, err = ndn.NameFromString("/bad/%0")
	assert.ErrorIs(t, err, ndn.ErrEscapeSequence)
}

func TestNameImmutableAppend(t *testing.T) {
	prefix := ndn.MustNameFromString("/prefix")
	a := prefix.AppendSeq(7)
	b := prefix.AppendString("x")
	assert.Equal(t, "/prefix", prefix.String())
	assert.Equal(t, "/prefix/7", a.String())
	assert.Equal(t, "/prefix/x", b.String())

	seq, err := a.Seq()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), seq)

	_, err = b.Seq()
	assert.ErrorIs(t, err, ndn.ErrNotSequence)
}

func TestNamePrefixCut(t *testing.T) {
	n := ndn.MustNameFromString("/a/b/c")
	assert.Equal(t, "/a", n.Prefix(1).String())
	assert.Equal(t, "/a/b", n.Cut(1).String())
	assert.Equal(t, "/", n.Cut(5).String())
	assert.True(t, n.Prefix(2).PrefixOf(n))
	assert.True(t, ndn.NewName().PrefixOf(n))
	assert.False(t, n.PrefixOf(n.Prefix(2)))
	assert.False(t, ndn.MustNameFromString("/a/x").PrefixOf(n))

	// Cutting must not let later appends alias the original
	cut := n.Cut(1).AppendString("z")
	assert.Equal(t, "/a/b/c", n.String())
	assert.Equal(t, "/a/b/z", cut.String())
}

func TestNameCompareEquals(t *testing.T) {
	a := ndn.MustNameFromString("/a/b")
	b := ndn.MustNameFromString("/a/b")
	c := ndn.MustNameFromString("/a/c")
	d := ndn.MustNameFromString("/a/bb")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
	assert.Equal(t, -1, a.Compare(d))
	assert.Equal(t, -1, a.Prefix(1).Compare(a))

	// Component boundaries are part of the hash
	assert.NotEqual(t, ndn.MustNameFromString("/ab/c").Hash(), ndn.MustNameFromString("/a/bc").Hash())
}
