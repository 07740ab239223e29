//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ideal

import (
	"testing"

	"github.com/markkurossi/otext/ot"
)

func TestCOT(t *testing.T) {
	cot := NewCOT(ot.Block{Lo: 1})
	delta := cot.Delta()

	for round := 0; round < 3; round++ {
		s, err := cot.SendRandomCorrelated(nil, 100)
		if err != nil {
			t.Fatal(err)
		}
		r, err := cot.ReceiveRandomCorrelated(nil, 100)
		if err != nil {
			t.Fatal(err)
		}
		if s.ID != r.ID {
			t.Fatalf("batch ID mismatch: %d != %d", s.ID, r.ID)
		}
		for i := 0; i < 100; i++ {
			exp := s.Msgs[i]
			if r.Choices[i] {
				exp = exp.Xor(delta)
			}
			if !r.Msgs[i].Equal(exp) {
				t.Fatalf("correlation broken at %d", i)
			}
		}
	}
}

func TestCOTDeterministic(t *testing.T) {
	seed := ot.Block{Lo: 42}

	c0 := NewCOT(seed)
	c1 := NewCOT(seed)

	if !c0.Delta().Equal(c1.Delta()) {
		t.Fatal("equal seeds produced different deltas")
	}

	s0, _ := c0.SendRandomCorrelated(nil, 16)
	s1, _ := c1.SendRandomCorrelated(nil, 16)
	for i := range s0.Msgs {
		if !s0.Msgs[i].Equal(s1.Msgs[i]) {
			t.Fatal("equal seeds produced different outputs")
		}
	}
}
