//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpcot

import (
	"crypto/rand"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/otext/ideal"
	"github.com/markkurossi/otext/lpn"
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/worker"
)

var testDelta = ot.Block{
	Hi: 0x0102030405060708,
	Lo: 0x090a0b0c0d0e0f10,
}

func newTestPair(t *testing.T, seed uint64) (*Sender, *Receiver) {
	t.Helper()

	cot := ideal.NewCOTWithDelta(ot.Block{Lo: seed}, testDelta)
	pool := worker.NewPool(0)

	return NewSender(cot, pool), NewReceiver(cot, pool)
}

// runExtend runs the setup and the extension rounds of both roles
// over a connection pair and returns the per-round output vectors.
func runExtend(t *testing.T, sender *Sender, receiver *Receiver,
	typ lpn.Type, rounds [][]int, n int) ([][]ot.Block, [][]ot.Block) {

	t.Helper()

	c0, c1 := p2p.Pipe()

	vs := make([][]ot.Block, len(rounds))
	ws := make([][]ot.Block, len(rounds))
	tt := len(rounds[0])

	g := new(errgroup.Group)
	g.Go(func() error {
		defer c0.Close()

		err := sender.Setup(c0, typ, tt, testDelta, ot.Block{Lo: 11})
		if err != nil {
			return err
		}
		for i, alphas := range rounds {
			if err := sender.PreExtend(len(alphas), n); err != nil {
				return err
			}
			if vs[i], err = sender.Extend(c0); err != nil {
				return err
			}
		}
		return sender.Finalize()
	})
	g.Go(func() error {
		defer c1.Close()

		err := receiver.Setup(c1, typ, tt, ot.Block{Lo: 12}, rand.Reader)
		if err != nil {
			return err
		}
		for i, alphas := range rounds {
			if err := receiver.PreExtend(alphas, n); err != nil {
				return err
			}
			if ws[i], err = receiver.Extend(c1); err != nil {
				return err
			}
		}
		return receiver.Finalize()
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	return vs, ws
}

// verifyOutputs checks the MPCOT invariant: the correlation offset
// is delta exactly at the chosen indices.
func verifyOutputs(t *testing.T, v, w []ot.Block, alphas []int, n int) {
	t.Helper()

	if len(v) != n || len(w) != n {
		t.Fatalf("bad output sizes: %d, %d", len(v), len(w))
	}
	chosen := make(map[int]bool)
	for _, alpha := range alphas {
		chosen[alpha] = true
	}
	for i := 0; i < n; i++ {
		d := w[i].Xor(v[i])
		if chosen[i] {
			if !d.Equal(testDelta) {
				t.Fatalf("missing delta offset at %d", i)
			}
		} else if !d.Equal(ot.ZeroBlock) {
			t.Fatalf("unexpected offset at %d", i)
		}
	}
}

func TestRegular(t *testing.T) {
	sender, receiver := newTestPair(t, 1)

	alphas := []int{0, 3, 4, 7, 9}
	const n = 10

	vs, ws := runExtend(t, sender, receiver, lpn.Regular,
		[][]int{alphas}, n)

	verifyOutputs(t, vs[0], ws[0], alphas, n)
}

func TestRegularMultiRound(t *testing.T) {
	sender, receiver := newTestPair(t, 2)

	rounds := [][]int{
		{1, 17, 32, 51},
		{5, 16, 40, 62},
	}
	const n = 64

	vs, ws := runExtend(t, sender, receiver, lpn.Regular, rounds, n)

	for i, alphas := range rounds {
		verifyOutputs(t, vs[i], ws[i], alphas, n)
	}
}

func TestRegularInvalidParameters(t *testing.T) {
	sender, _ := newTestPair(t, 3)

	if err := sender.Setup(nil, lpn.Regular, 3, testDelta,
		ot.Block{Lo: 13}); err != nil {
		t.Fatal(err)
	}

	// 3 does not divide 10.
	err := sender.PreExtend(3, 10)
	if _, ok := err.(*InvalidParametersError); !ok {
		t.Fatalf("got %v, expected invalid parameters", err)
	}
}

func TestReceiverDuplicateIndices(t *testing.T) {
	_, receiver := newTestPair(t, 4)

	if err := receiver.Setup(nil, lpn.Regular, 2, ot.Block{Lo: 14},
		rand.Reader); err != nil {
		t.Fatal(err)
	}
	err := receiver.PreExtend([]int{1, 1}, 4)
	if _, ok := err.(*InvalidParametersError); !ok {
		t.Fatalf("got %v, expected invalid parameters", err)
	}
}

func TestUniform(t *testing.T) {
	sender, receiver := newTestPair(t, 5)

	alphas := []int{0, 1, 3, 4, 2}
	const n = 10

	vs, ws := runExtend(t, sender, receiver, lpn.Uniform,
		[][]int{alphas}, n)

	verifyOutputs(t, vs[0], ws[0], alphas, n)
}

func TestUniformLarge(t *testing.T) {
	sender, receiver := newTestPair(t, 6)

	// Scattered indices over a larger range.
	alphas := []int{3, 99, 117, 256, 300, 512, 777, 901, 1013, 1020}
	const n = 1024

	vs, ws := runExtend(t, sender, receiver, lpn.Uniform,
		[][]int{alphas}, n)

	verifyOutputs(t, vs[0], ws[0], alphas, n)
}
