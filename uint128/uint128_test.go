// Copyright 2018 The Gringo Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package uint128

import (
	"math"
	"math/bits"
	"math/rand"
	"testing"
)

func TestMul64(t *testing.T) {
	tests := []struct {
		a, b   uint64
		lo, hi uint64
	}{
		{0, 0, 0, 0},
		{1, 1, 1, 0},
		{math.MaxUint64, 1, math.MaxUint64, 0},
		{math.MaxUint64, 2, math.MaxUint64 - 1, 1},
		{math.MaxUint64, math.MaxUint64, 1, math.MaxUint64 - 1},
		{1 << 32, 1 << 32, 0, 1},
		{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFE00000001, 0},
		{0x123456789abcdef0, 0x0fedcba987654321, 0x2236d88fe5618cf0, 0x0121fa00ad77d742},
	}

	for _, test := range tests {
		got := Mul64(test.a, test.b)
		if got.Lo != test.lo || got.Hi != test.hi {
			t.Errorf("Mul64(%#x, %#x) = %s, want hi=%#x lo=%#x", test.a, test.b, got, test.hi, test.lo)
		}
	}
}

func TestMul64MatchesBits(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 10000; i++ {
		a, b := rnd.Uint64(), rnd.Uint64()
		if i%4 == 0 {
			// exercise small operands too
			a >>= uint(rnd.Intn(64))
		}

		hi, lo := bits.Mul64(a, b)
		got := Mul64(a, b)
		if got.Lo != lo || got.Hi != hi {
			t.Fatalf("Mul64(%#x, %#x) = %s, want hi=%#x lo=%#x", a, b, got, hi, lo)
		}
	}
}

func TestDiv32MatchesBits(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 10000; i++ {
		u := Uint128{Lo: rnd.Uint64(), Hi: rnd.Uint64()}
		d := rnd.Uint32()
		if d == 0 {
			d = 1
		}

		q, r := u.Div32(d)

		// reference: divide the high word first, then the low word with the carry
		qHi, rHi := bits.Div64(0, u.Hi, uint64(d))
		qLo, rLo := bits.Div64(rHi, u.Lo, uint64(d))
		if q.Hi != qHi || q.Lo != qLo || uint64(r) != rLo {
			t.Fatalf("%s.Div32(%d) = %s rem %d, want hi=%#x lo=%#x rem %d", u, d, q, r, qHi, qLo, rLo)
		}
	}
}

func TestDiv32RoundTrip(t *testing.T) {
	// (a*b)/b == a for any 32-bit b
	values := []uint64{0, 1, 12600000000, math.MaxUint64, 0xdeadbeefcafebabe}
	divisors := []uint32{1, 2, 3, 300000, math.MaxUint32}

	for _, a := range values {
		for _, b := range divisors {
			q, r := Mul64(a, uint64(b)).Div32(b)
			if !q.IsUint64() || q.Lo != a || r != 0 {
				t.Errorf("Mul64(%#x, %d).Div32(%d) = %s rem %d", a, b, b, q, r)
			}
		}
	}
}

func TestDiv32ByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on zero divisor")
		}
	}()

	From64(1).Div32(0)
}

func TestAdd64(t *testing.T) {
	sum, carry := From64(math.MaxUint64).Add64(1)
	if carry || sum.Hi != 1 || sum.Lo != 0 {
		t.Errorf("got %s carry=%v", sum, carry)
	}

	sum, carry = Uint128{Lo: math.MaxUint64, Hi: math.MaxUint64}.Add64(1)
	if !carry || !sum.IsZero() {
		t.Errorf("expected wrap to zero with carry, got %s carry=%v", sum, carry)
	}

	sum, carry = Uint128{Lo: 5, Hi: 9}.Add64(7)
	if carry || sum.Hi != 9 || sum.Lo != 12 {
		t.Errorf("got %s carry=%v", sum, carry)
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		u, v     Uint128
		sum      Uint128
		overflow bool
	}{
		{Uint128{Lo: 1}, Uint128{Lo: 2}, Uint128{Lo: 3}, false},
		{Uint128{Lo: math.MaxUint64}, Uint128{Lo: 1}, Uint128{Hi: 1}, false},
		{Uint128{Hi: math.MaxUint64}, Uint128{Hi: 1}, Uint128{}, true},
		{Uint128{Lo: math.MaxUint64, Hi: math.MaxUint64}, Uint128{Lo: 1}, Uint128{}, true},
	}

	for _, test := range tests {
		sum, overflow := test.u.Add(test.v)
		if sum != test.sum || overflow != test.overflow {
			t.Errorf("%s + %s = %s (overflow %v), want %s (overflow %v)",
				test.u, test.v, sum, overflow, test.sum, test.overflow)
		}
	}
}

func TestCmp(t *testing.T) {
	a := Uint128{Lo: 10, Hi: 1}
	b := Uint128{Lo: 1, Hi: 2}

	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("wrong ordering")
	}
}
