// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// Package uint128 implements the fixed-width unsigned 128-bit arithmetic
// the consensus rules rely on. Every operation is built from 32-bit
// half-words and 64-bit registers only, so results are identical on every
// platform regardless of native double-width support.
package uint128

import "fmt"

const mask32 = 0xFFFFFFFF

// Uint128 is an unsigned 128-bit integer split into two 64-bit words.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// Zero is the zero value
var Zero = Uint128{}

// From64 widens v
func From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// Mul64 returns the exact 128-bit product of a and b.
func Mul64(a, b uint64) Uint128 {
	aLow := a & mask32
	aHigh := a >> 32
	bLow := b & mask32
	bHigh := b >> 32

	res := aLow * bLow
	lowRes1 := res & mask32
	carry := res >> 32

	res = aHigh*bLow + carry
	highResHigh1 := res >> 32
	highResLow1 := res & mask32

	res = aLow * bHigh
	lowRes2 := res & mask32
	carry = res >> 32

	res = aHigh*bHigh + carry
	highResHigh2 := res >> 32
	highResLow2 := res & mask32

	// sum the middle columns
	r := highResLow1 + lowRes2
	carry = r >> 32
	lo := (r << 32) | lowRes1

	r = highResHigh1 + highResLow2 + carry
	d3 := r & mask32
	carry = r >> 32

	r = highResHigh2 + carry
	hi := d3 | (r << 32)

	return Uint128{Lo: lo, Hi: hi}
}

// Div32 divides u by d and returns the quotient and remainder.
// A zero divisor panics with the runtime integer divide error.
func (u Uint128) Div32(d uint32) (Uint128, uint32) {
	divisor := uint64(d)

	// long division over the four 32-bit digits, most significant first
	digits := [4]uint64{u.Hi >> 32, u.Hi & mask32, u.Lo >> 32, u.Lo & mask32}

	var q [4]uint64
	var rem uint64
	for i, digit := range digits {
		cur := rem<<32 | digit
		q[i] = cur / divisor
		rem = cur % divisor
	}

	return Uint128{
		Hi: q[0]<<32 | q[1],
		Lo: q[2]<<32 | q[3],
	}, uint32(rem)
}

// Add64 returns u+v and reports whether the sum carried out of bit 127.
func (u Uint128) Add64(v uint64) (Uint128, bool) {
	lo := u.Lo + v
	hi := u.Hi
	if lo < u.Lo {
		hi++
		if hi == 0 {
			return Uint128{Lo: lo, Hi: hi}, true
		}
	}

	return Uint128{Lo: lo, Hi: hi}, false
}

// Add returns u+v and reports whether the sum carried out of bit 127.
func (u Uint128) Add(v Uint128) (Uint128, bool) {
	lo := u.Lo + v.Lo
	var c uint64
	if lo < u.Lo {
		c = 1
	}

	hi := u.Hi + v.Hi
	overflow := hi < u.Hi
	hi += c
	if hi < c {
		overflow = true
	}

	return Uint128{Lo: lo, Hi: hi}, overflow
}

// IsUint64 reports whether u fits into 64 bits
func (u Uint128) IsUint64() bool {
	return u.Hi == 0
}

// IsZero reports whether u is zero
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Cmp compares u and v and returns -1, 0 or +1.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}

	return 0
}

// String implements fmt.Stringer, hex formatted
func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("0x%x", u.Lo)
	}

	return fmt.Sprintf("0x%x%016x", u.Hi, u.Lo)
}
