/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

// NackCode is carried in the Interest header; a non-zero code turns the Interest into a NACK.
type NackCode uint8

// NACK codes
const (
	NormalInterest NackCode = 0
	NackLoop       NackCode = 10
	NackCongestion NackCode = 11
	NackGiveUpPit  NackCode = 12
)

func (c NackCode) String() string {
	switch c {
	case NormalInterest:
		return "NORMAL_INTEREST"
	case NackLoop:
		return "NACK_LOOP"
	case NackCongestion:
		return "NACK_CONGESTION"
	case NackGiveUpPit:
		return "NACK_GIVEUP_PIT"
	default:
		return "NACK_UNKNOWN"
	}
}
