/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
)

// NameComponent is an opaque component of a name.
type NameComponent []byte

func (c NameComponent) String() string {
	return escapeComponent(c)
}

// Equals returns whether the two components hold the same bytes.
func (c NameComponent) Equals(other NameComponent) bool {
	return bytes.Equal(c, other)
}

// Name represents an NDN name. Names are never modified once constructed.
type Name struct {
	components   []NameComponent
	cachedString string
}

// NewName constructs an empty name.
func NewName() *Name {
	n := new(Name)
	return n
}

// NameFromString decodes a name from its URI representation.
func NameFromString(str string) (*Name, error) {
	n := new(Name)

	str = strings.TrimPrefix(str, "ndn:")
	if len(str) == 0 || str == "/" {
		// Empty name
		return n, nil
	}

	components := strings.Split(strings.TrimPrefix(str, "/"), "/")
	for _, component := range components {
		if len(component) == 0 {
			continue
		}
		unescaped, err := unescapeComponent(component)
		if err != nil {
			return nil, err
		}
		n.components = append(n.components, NameComponent(unescaped))
	}
	return n, nil
}

// MustNameFromString is like NameFromString but panics on malformed input.
func MustNameFromString(str string) *Name {
	n, err := NameFromString(str)
	if err != nil {
		panic(err)
	}
	return n
}

func escapeComponent(in []byte) string {
	out := make([]byte, 0, 3*len(in)) // Capacity of 3 * len is worst case if every character has to be escaped
	nPeriods := 0
	for _, b := range in {
		switch {
		case b == '.':
			nPeriods++
			fallthrough
		case (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '-' || b == '_' || b == '~':
			out = append(out, b)
		default:
			out = append(out, '%', 0, 0)
			hex.Encode(out[len(out)-2:], []byte{b})
		}
	}
	if nPeriods == len(in) {
		out = append(out, '.', '.', '.')
	}
	return string(out)
}

func unescapeComponent(in string) ([]byte, error) {
	if strings.Trim(in, ".") == "" && len(in) >= 3 {
		// "..." denotes the empty component, "...." a single period, and so on
		return []byte(in[3:]), nil
	}
	out := make([]byte, 0, len(in)) // Capacity is worst case if nothing to be unescaped
	for i := 0; i < len(in); i++ {
		if in[i] == '%' {
			if len(in) <= i+2 {
				return nil, ErrEscapeSequence
			}
			unescaped, err := hex.DecodeString(in[i+1 : i+3])
			if err != nil {
				return nil, ErrEscapeSequence
			}
			out = append(out, unescaped...)
			i += 2
		} else {
			out = append(out, in[i])
		}
	}
	return out, nil
}

func (n *Name) String() string {
	if len(n.cachedString) > 0 {
		return n.cachedString
	}

	if n.Size() == 0 {
		return "/"
	}

	var out strings.Builder
	for _, component := range n.components {
		out.WriteString("/")
		out.WriteString(component.String())
	}
	n.cachedString = out.String()
	return n.cachedString
}

// Append returns a new name with the specified component added at the end.
func (n *Name) Append(component []byte) *Name {
	name := new(Name)
	name.components = make([]NameComponent, 0, len(n.components)+1)
	name.components = append(name.components, n.components...)
	name.components = append(name.components, NameComponent(append([]byte(nil), component...)))
	return name
}

// AppendString returns a new name with a component holding the bytes of str.
func (n *Name) AppendString(str string) *Name {
	return n.Append([]byte(str))
}

// AppendSeq returns a new name with the decimal sequence number appended.
func (n *Name) AppendSeq(seq uint32) *Name {
	return n.Append(strconv.AppendUint(nil, uint64(seq), 10))
}

// At returns the name component at the specified index. Negative indices count from the end. If out of range, nil is returned.
func (n *Name) At(index int) NameComponent {
	if index < -len(n.components) || index >= len(n.components) {
		return nil
	}

	if index < 0 {
		return n.components[len(n.components)+index]
	}
	return n.components[index]
}

// Seq parses the last component as a decimal sequence number.
func (n *Name) Seq() (uint32, error) {
	last := n.At(-1)
	if last == nil {
		return 0, ErrNotSequence
	}
	seq, err := strconv.ParseUint(string(last), 10, 32)
	if err != nil {
		return 0, ErrNotSequence
	}
	return uint32(seq), nil
}

// Compare returns the canonical order of this name against the the specified other name.
func (n *Name) Compare(other *Name) int {
	for i := 0; i < n.Size() && i < other.Size(); i++ {
		a, b := n.components[i], other.components[i]
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		if c := bytes.Compare(a, b); c != 0 {
			return c
		}
	}

	switch {
	case n.Size() < other.Size():
		return -1
	case n.Size() > other.Size():
		return 1
	}
	return 0
}

// Equals returns whether the specified name is equal to this name.
func (n *Name) Equals(other *Name) bool {
	if other == nil || n.Size() != other.Size() {
		return false
	}

	for i := 0; i < n.Size(); i++ {
		if !bytes.Equal(n.components[i], other.components[i]) {
			return false
		}
	}

	return true
}

// Prefix returns a name prefix of the specified number of components. If greater than or equal to the size of the name, this returns the name itself.
func (n *Name) Prefix(size int) *Name {
	if size >= n.Size() {
		return n
	}
	if size < 0 {
		size = 0
	}
	prefix := new(Name)
	prefix.components = n.components[:size:size]
	return prefix
}

// Cut returns the name without its last k components.
func (n *Name) Cut(k int) *Name {
	return n.Prefix(n.Size() - k)
}

// PrefixOf returns whether this name is a prefix of the specified name.
func (n *Name) PrefixOf(other *Name) bool {
	if other == nil || n.Size() > other.Size() {
		return false
	}

	for i := 0; i < n.Size(); i++ {
		if !bytes.Equal(n.components[i], other.components[i]) {
			return false
		}
	}

	return true
}

// Size returns the number of components in the name.
func (n *Name) Size() int {
	return len(n.components)
}

// Hash returns a 64-bit hash of the name, suitable as a table key.
func (n *Name) Hash() uint64 {
	h := xxhash.New()
	var length [2]byte
	for _, component := range n.components {
		length[0] = byte(len(component) >> 8)
		length[1] = byte(len(component))
		h.Write(length[:])
		h.Write(component)
	}
	return h.Sum64()
}
