//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"testing"

	"pgregory.net/rapid"
)

func TestGfmulReduction(t *testing.T) {
	// x^127 * x = x^128 = x^7 + x^2 + x + 1
	a := Block{Hi: 1 << 63}
	b := Block{Lo: 2}

	r := Gfmul(a, b)
	exp := Block{Lo: 0x87}
	if !r.Equal(exp) {
		t.Fatalf("x^127 * x = %v, expected %v", r, exp)
	}

	// Multiplication by one is the identity.
	one := Block{Lo: 1}
	x := Block{Lo: 0x0123456789abcdef, Hi: 0xfedcba9876543210}
	if !Gfmul(one, x).Equal(x) {
		t.Fatal("1*x != x")
	}
}

func TestGfmulCommutative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawBlock(t, "a")
		b := drawBlock(t, "b")

		if !Gfmul(a, b).Equal(Gfmul(b, a)) {
			t.Fatal("gfmul is not commutative")
		}
	})
}

func TestGfmulAssociative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawBlock(t, "a")
		b := drawBlock(t, "b")
		c := drawBlock(t, "c")

		l := Gfmul(Gfmul(a, b), c)
		r := Gfmul(a, Gfmul(b, c))
		if !l.Equal(r) {
			t.Fatalf("gfmul is not associative: %v != %v", l, r)
		}
	})
}

func TestGfmulDistributive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawBlock(t, "a")
		b := drawBlock(t, "b")
		c := drawBlock(t, "c")

		l := Gfmul(a, b.Xor(c))
		r := Gfmul(a, b).Xor(Gfmul(a, c))
		if !l.Equal(r) {
			t.Fatalf("gfmul does not distribute over xor: %v != %v", l, r)
		}
	})
}

func TestInnerProductReduced(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 16).Draw(t, "n")
		a := make([]Block, n)
		b := make([]Block, n)
		for i := 0; i < n; i++ {
			a[i] = drawBlock(t, "a")
			b[i] = drawBlock(t, "b")
		}

		var exp Block
		for i := 0; i < n; i++ {
			exp = exp.Xor(Gfmul(a[i], b[i]))
		}
		if !InnerProductReduced(a, b).Equal(exp) {
			t.Fatal("inner product does not match elementwise gfmul")
		}
	})
}

func TestPowerBasis(t *testing.T) {
	basis := PowerBasis(128)
	x := Block{Lo: 2}

	// basis[i+1] = basis[i] * x
	for i := 0; i < 127; i++ {
		if !Gfmul(basis[i], x).Equal(basis[i+1]) {
			t.Fatalf("basis[%d+1] != basis[%d]*x", i, i)
		}
	}
}
