//
// sender.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpcot

import (
	"github.com/markkurossi/otext/lpn"
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/spcot"
	"github.com/markkurossi/otext/worker"
)

// senderPlan is the bucket plan of one extension, computed by
// PreExtend and consumed by Extend.
type senderPlan struct {
	n     int
	t     int
	m     int
	hs    []int
	lists [][]uint32
	slots []int
}

// Sender implements the MPCOT sender role. The sender owns the inner
// SPCOT sender which owns the random correlated OT oracle.
type Sender struct {
	state state
	spcot *spcot.Sender
	typ   lpn.Type
	delta ot.Block
	hash  *cuckoo
	plan  *senderPlan
}

// NewSender creates a new MPCOT sender over the random correlated OT
// oracle.
func NewSender(rcot spcot.RCOTSender, pool *worker.Pool) *Sender {
	return &Sender{
		state: stateInitialized,
		spcot: spcot.NewSender(rcot, pool),
	}
}

func (s *Sender) fatal(err error) error {
	s.state = stateError
	return err
}

func (s *Sender) expect(st state) error {
	if s.state != st {
		s.state = stateError
		return &InvalidStateError{Expected: st.String()}
	}
	return nil
}

// Setup initializes the sender for the LPN type with the correlation
// delta and the SPCOT tree seed. The uniform variant receives the
// receiver's Cuckoo hash seed from the connection; the t argument is
// its expected noise weight.
func (s *Sender) Setup(conn *p2p.Conn, typ lpn.Type, t int,
	delta, seed ot.Block) error {

	if err := s.expect(stateInitialized); err != nil {
		return err
	}
	if err := checkType(typ); err != nil {
		return s.fatal(err)
	}
	s.typ = typ
	s.delta = delta

	if typ == lpn.Uniform {
		msg, err := ReceiveHashSeed(conn)
		if err != nil {
			return s.fatal(err)
		}
		s.hash = newCuckoo(msg.Seed, t)
	}
	if err := s.spcot.Setup(delta, seed); err != nil {
		return s.fatal(err)
	}
	s.state = statePreExtension
	return nil
}

// PreExtend computes the bucket plan for t chosen indices in
// [0, n).
func (s *Sender) PreExtend(t, n int) error {
	if err := s.expect(statePreExtension); err != nil {
		return err
	}
	plan := &senderPlan{
		n: n,
		t: t,
	}
	switch s.typ {
	case lpn.Regular:
		m, h, err := regularBuckets(t, n)
		if err != nil {
			return s.fatal(err)
		}
		plan.m = m
		plan.hs = make([]int, t)
		for i := range plan.hs {
			plan.hs[i] = h
		}

	case lpn.Uniform:
		// Simulate the Cuckoo hashing over the whole range to learn
		// the bucket shapes.
		plan.lists = s.hash.buckets(n)
		plan.slots = make([]int, len(plan.lists))
		for b, list := range plan.lists {
			if len(list) == 0 {
				plan.slots[b] = -1
				continue
			}
			plan.slots[b] = len(plan.hs)
			plan.hs = append(plan.hs, bucketDepth(len(list)))
		}
	}
	s.plan = plan
	s.state = stateExtension
	return nil
}

// Extend runs the SPCOT batch of the bucket plan and assembles the
// length-n output vector.
func (s *Sender) Extend(conn *p2p.Conn) ([]ot.Block, error) {
	if err := s.expect(stateExtension); err != nil {
		return nil, err
	}
	plan := s.plan
	s.plan = nil

	if err := s.spcot.Extend(conn, plan.hs); err != nil {
		return nil, s.fatal(err)
	}
	trees, err := s.spcot.Check(conn)
	if err != nil {
		return nil, s.fatal(err)
	}

	out := make([]ot.Block, plan.n)
	switch s.typ {
	case lpn.Regular:
		for j := 0; j < plan.t; j++ {
			copy(out[j*plan.m:(j+1)*plan.m], trees[j][:plan.m])
		}

	case lpn.Uniform:
		for x := 0; x < plan.n; x++ {
			var bs [numHashes]int
			for i := 0; i < numHashes; i++ {
				b := s.hash.hash(i, uint32(x))
				bs[i] = b

				dup := false
				for j := 0; j < i; j++ {
					if bs[j] == b {
						dup = true
						break
					}
				}
				if dup {
					continue
				}
				pos := bucketPos(plan.lists[b], uint32(x))
				out[x] = out[x].Xor(trees[plan.slots[b]][pos])
			}
		}
	}
	s.state = statePreExtension
	return out, nil
}

// Finalize completes the sender's session and the inner SPCOT.
func (s *Sender) Finalize() error {
	if err := s.expect(statePreExtension); err != nil {
		return err
	}
	if err := s.spcot.Finalize(); err != nil {
		return s.fatal(err)
	}
	s.state = stateComplete
	return nil
}
