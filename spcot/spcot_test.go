//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package spcot

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/otext/ideal"
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/worker"
)

var testDelta = ot.Block{
	Hi: 0x0102030405060708,
	Lo: 0x090a0b0c0d0e0f10,
}

func newTestPair(t *testing.T, seed uint64) (*Sender, *Receiver, ot.Block) {
	t.Helper()

	cot := ideal.NewCOTWithDelta(ot.Block{Lo: seed}, testDelta)
	pool := worker.NewPool(0)

	sender := NewSender(cot, pool)
	receiver := NewReceiver(cot, pool)

	if err := sender.Setup(testDelta, ot.Block{Lo: seed, Hi: 1}); err != nil {
		t.Fatal(err)
	}
	if err := receiver.Setup(ot.Block{Lo: seed, Hi: 2}); err != nil {
		t.Fatal(err)
	}
	return sender, receiver, testDelta
}

// runBatches runs the extension batches and one check on both roles
// over a connection pair, returning the checked outputs.
func runBatches(t *testing.T, sender *Sender, receiver *Receiver,
	alphas, hs [][]int) ([][]ot.Block, [][]ot.Block, []int) {

	t.Helper()

	c0, c1 := p2p.Pipe()

	var vs, ws [][]ot.Block
	var was []int

	g := new(errgroup.Group)
	g.Go(func() error {
		defer c0.Close()

		for _, batch := range hs {
			if err := sender.Extend(c0, batch); err != nil {
				return err
			}
		}
		var err error
		vs, err = sender.Check(c0)
		return err
	})
	g.Go(func() error {
		defer c1.Close()

		for i, batch := range hs {
			if err := receiver.Extend(c1, alphas[i], batch); err != nil {
				return err
			}
		}
		var err error
		ws, was, err = receiver.Check(c1)
		return err
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	return vs, ws, was
}

// verifyTrees checks the SPCOT invariant of every output tree.
func verifyTrees(t *testing.T, delta ot.Block,
	vs, ws [][]ot.Block, alphas []int, hs []int) {

	t.Helper()

	if len(vs) != len(hs) || len(ws) != len(hs) || len(alphas) != len(hs) {
		t.Fatalf("bad tree counts: %d, %d, %d",
			len(vs), len(ws), len(alphas))
	}
	for b, h := range hs {
		if len(vs[b]) != 1<<h || len(ws[b]) != 1<<h {
			t.Fatalf("tree %d: bad sizes %d, %d",
				b, len(vs[b]), len(ws[b]))
		}
		for i := range vs[b] {
			if i == alphas[b] {
				if !ws[b][i].Xor(vs[b][i]).Equal(delta) {
					t.Fatalf("tree %d: missing delta offset at %d", b, i)
				}
				continue
			}
			if !ws[b][i].Equal(vs[b][i]) {
				t.Fatalf("tree %d: leaves disagree at %d", b, i)
			}
		}
	}
}

func TestSingleExtend(t *testing.T) {
	sender, receiver, delta := newTestPair(t, 1)

	vs, ws, was := runBatches(t, sender, receiver,
		[][]int{{3}}, [][]int{{8}})

	if was[0] != 3 {
		t.Fatalf("bad alpha: %d", was[0])
	}
	verifyTrees(t, delta, vs, ws, was, []int{8})
}

func TestBatchedExtend(t *testing.T) {
	sender, receiver, delta := newTestPair(t, 2)

	hs := []int{8, 4, 10}
	alphas := []int{3, 2, 4}

	vs, ws, was := runBatches(t, sender, receiver,
		[][]int{alphas}, [][]int{hs})

	verifyTrees(t, delta, vs, ws, was, hs)
}

func TestStreamedExtend(t *testing.T) {
	sender, receiver, delta := newTestPair(t, 3)

	// Two extends commit before a single check.
	vs, ws, was := runBatches(t, sender, receiver,
		[][]int{{3}, {2, 1}}, [][]int{{8}, {4, 6}})

	verifyTrees(t, delta, vs, ws, was, []int{8, 4, 6})

	// The roles support further extension rounds after a check.
	vs, ws, was = runBatches(t, sender, receiver,
		[][]int{{2, 1, 3}}, [][]int{{6, 9, 8}})

	verifyTrees(t, delta, vs, ws, was, []int{6, 9, 8})
}

func TestInvalidParameters(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 4)

	err := sender.Extend(nil, []int{0})
	if _, ok := err.(*InvalidParametersError); !ok {
		t.Fatalf("got %v, expected invalid parameters", err)
	}

	// Alpha out of the tree range.
	if err := receiver.Extend(nil, []int{16}, []int{4}); err == nil {
		t.Fatal("out-of-range alpha accepted")
	}

	// Both roles are latched after the parameter error.
	if err := sender.Extend(nil, []int{4}); err == nil {
		t.Fatal("sender did not latch")
	}
}

func TestTamperedCheck(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 5)

	c0, c1 := p2p.Pipe()

	var receiverErr error

	g := new(errgroup.Group)
	g.Go(func() error {
		defer c0.Close()

		if err := sender.Extend(c0, []int{6}); err != nil {
			return err
		}

		// Drive the sender's half of the check by hand, corrupting
		// the digest before transmission.
		out, err := sender.rcot.SendRandomCorrelated(c0, CSP)
		if err != nil {
			return err
		}
		_, err = ReceiveCheckFR(c0)
		if err != nil {
			return err
		}
		_ = out

		var msg CheckFS
		msg.Digest[0] = 0xff
		if err := msg.Send(c0); err != nil {
			return err
		}
		return c0.Flush()
	})
	g.Go(func() error {
		defer c1.Close()

		if err := receiver.Extend(c1, []int{5}, []int{6}); err != nil {
			return err
		}
		_, _, receiverErr = receiver.Check(c1)
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if receiverErr != ErrConsistencyCheckFailed {
		t.Fatalf("got %v, expected consistency check failure",
			receiverErr)
	}
}
