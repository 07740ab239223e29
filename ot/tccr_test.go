//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"math/bits"
	"testing"
)

func TestTCCRDeterministic(t *testing.T) {
	j := Block{Lo: 42}
	x := Block{Lo: 0xdeadbeef, Hi: 0xcafe}

	if !TCCR(j, x).Equal(TCCR(j, x)) {
		t.Fatal("tccr is not deterministic")
	}
}

func TestTCCRTweakSeparation(t *testing.T) {
	x := Block{Lo: 7}

	h0 := TCCR(NewTweak(0), x)
	h1 := TCCR(NewTweak(1), x)
	if h0.Equal(h1) {
		t.Fatal("distinct tweaks produced equal hashes")
	}
}

// The correlation keys tccr(j, x) and tccr(j, x ^ delta) must look
// unrelated: their xor should be balanced, not delta or a constant.
func TestTCCRCorrelation(t *testing.T) {
	delta := Block{Lo: 0x0102030405060708, Hi: 0x090a0b0c0d0e0f10}

	prg := NewPRG(Block{Lo: 99})

	var ones int
	const samples = 256
	for i := 0; i < samples; i++ {
		j := NewTweak(uint64(i))
		x := prg.Block()

		d := TCCR(j, x).Xor(TCCR(j, x.Xor(delta)))
		if d.Equal(delta) || d.Equal(ZeroBlock) {
			t.Fatal("correlated keys leak the correlation")
		}
		ones += bits.OnesCount64(d.Lo) + bits.OnesCount64(d.Hi)
	}

	// The xor of the two keys should be roughly balanced: expect
	// 64 set bits per sample with a wide margin.
	avg := ones / samples
	if avg < 48 || avg > 80 {
		t.Fatalf("key difference is biased: %d set bits on average", avg)
	}
}
