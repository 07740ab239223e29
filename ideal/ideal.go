//
// ideal.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ideal implements an ideal random correlated OT
// functionality. The functionality is a shared in-process object:
// both protocol roles hold the same instance and draw matching
// correlated batches from it without touching the network. It is
// used by the extension protocol tests in place of a real KOS15
// oracle; the seed is injectable so that test runs are
// deterministic.
package ideal

import (
	"fmt"
	"sync"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// COT implements the ideal random correlated OT functionality.
type COT struct {
	m     sync.Mutex
	delta ot.Block
	prg   *ot.PRG
	id    uint64
	sendQ []*ot.RCOTSenderOutput
	recvQ []*ot.RCOTReceiverOutput
}

// NewCOT creates a new ideal correlated OT functionality. The delta
// and all outputs are derived deterministically from the seed.
func NewCOT(seed ot.Block) *COT {
	prg := ot.NewPRG(seed)
	return &COT{
		delta: prg.Block(),
		prg:   prg,
	}
}

// NewCOTWithDelta creates a new ideal correlated OT functionality
// with the given correlation.
func NewCOTWithDelta(seed, delta ot.Block) *COT {
	return &COT{
		delta: delta,
		prg:   ot.NewPRG(seed),
	}
}

// Delta returns the correlation.
func (c *COT) Delta() ot.Block {
	return c.delta
}

// SendRandomCorrelated returns the sender half of the next batch of
// count random correlated OTs.
func (c *COT) SendRandomCorrelated(conn *p2p.Conn, count int) (
	*ot.RCOTSenderOutput, error) {

	c.m.Lock()
	defer c.m.Unlock()

	if len(c.sendQ) == 0 {
		c.generate(count)
	}
	out := c.sendQ[0]
	if len(out.Msgs) != count {
		return nil, fmt.Errorf("ideal: count mismatch: %v vs. %v",
			len(out.Msgs), count)
	}
	c.sendQ = c.sendQ[1:]
	return out, nil
}

// ReceiveRandomCorrelated returns the receiver half of the next
// batch of count random correlated OTs.
func (c *COT) ReceiveRandomCorrelated(conn *p2p.Conn, count int) (
	*ot.RCOTReceiverOutput, error) {

	c.m.Lock()
	defer c.m.Unlock()

	if len(c.recvQ) == 0 {
		c.generate(count)
	}
	out := c.recvQ[0]
	if len(out.Msgs) != count {
		return nil, fmt.Errorf("ideal: count mismatch: %v vs. %v",
			len(out.Msgs), count)
	}
	c.recvQ = c.recvQ[1:]
	return out, nil
}

// generate creates the next batch for both roles. The first role to
// ask for a batch generates it; the batch for the other role is
// queued.
func (c *COT) generate(count int) {
	qs := make([]ot.Block, count)
	ts := make([]ot.Block, count)
	rs := make([]bool, count)

	c.prg.Blocks(qs)
	c.prg.Bools(rs)

	for i := 0; i < count; i++ {
		ts[i] = qs[i]
		if rs[i] {
			ts[i] = ts[i].Xor(c.delta)
		}
	}

	c.sendQ = append(c.sendQ, &ot.RCOTSenderOutput{
		ID:   c.id,
		Msgs: qs,
	})
	c.recvQ = append(c.recvQ, &ot.RCOTReceiverOutput{
		ID:      c.id,
		Choices: rs,
		Msgs:    ts,
	})
	c.id++
}
