//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vope

import (
	"testing"

	"github.com/markkurossi/otext/ideal"
	"github.com/markkurossi/otext/ot"
)

func TestVope(t *testing.T) {
	delta := ot.Block{Lo: 0x1122334455667788, Hi: 0x99aabbccddeeff00}

	for _, d := range []int{1, 2, 3} {
		cot := ideal.NewCOTWithDelta(ot.Block{Lo: uint64(d)}, delta)

		sender := NewSender(cot)
		receiver := NewReceiver(cot)

		if err := sender.Setup(delta); err != nil {
			t.Fatal(err)
		}
		if err := receiver.Setup(); err != nil {
			t.Fatal(err)
		}

		b, err := sender.Extend(nil, d)
		if err != nil {
			t.Fatal(err)
		}
		coeffs, err := receiver.Extend(nil, d)
		if err != nil {
			t.Fatal(err)
		}
		if len(coeffs) != d+1 {
			t.Fatalf("degree %d: got %d coefficients", d, len(coeffs))
		}

		// b = sum coeffs[i] * delta^i
		var exp ot.Block
		pow := ot.Block{Lo: 1}
		for _, c := range coeffs {
			exp = exp.Xor(ot.Gfmul(c, pow))
			pow = ot.Gfmul(pow, delta)
		}
		if !b.Equal(exp) {
			t.Fatalf("degree %d: evaluation share disagrees", d)
		}

		if err := sender.Finalize(); err != nil {
			t.Fatal(err)
		}
		if err := receiver.Finalize(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestVopeInvalidDegree(t *testing.T) {
	cot := ideal.NewCOT(ot.Block{Lo: 1})

	sender := NewSender(cot)
	if err := sender.Setup(cot.Delta()); err != nil {
		t.Fatal(err)
	}
	_, err := sender.Extend(nil, 0)
	if _, ok := err.(*InvalidParametersError); !ok {
		t.Fatalf("got %v, expected invalid parameters", err)
	}

	// The role is latched after the parameter error.
	if _, err := sender.Extend(nil, 1); err == nil {
		t.Fatal("sender did not latch")
	}
}
