//
// receiver.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpcot

import (
	"io"

	"github.com/markkurossi/otext/lpn"
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/spcot"
	"github.com/markkurossi/otext/worker"
)

// receiverPlan is the bucket plan of one extension, computed by
// PreExtend and consumed by Extend.
type receiverPlan struct {
	n      int
	t      int
	m      int
	alphas []int
	hs     []int
	poss   []int
	lists  [][]uint32
	slots  []int
}

// Receiver implements the MPCOT receiver role. The receiver owns the
// inner SPCOT receiver which owns the random correlated OT oracle.
type Receiver struct {
	state state
	spcot *spcot.Receiver
	typ   lpn.Type
	hash  *cuckoo
	plan  *receiverPlan
}

// NewReceiver creates a new MPCOT receiver over the random
// correlated OT oracle.
func NewReceiver(rcot spcot.RCOTReceiver, pool *worker.Pool) *Receiver {
	return &Receiver{
		state: stateInitialized,
		spcot: spcot.NewReceiver(rcot, pool),
	}
}

func (r *Receiver) fatal(err error) error {
	r.state = stateError
	return err
}

func (r *Receiver) expect(st state) error {
	if r.state != st {
		r.state = stateError
		return &InvalidStateError{Expected: st.String()}
	}
	return nil
}

// Setup initializes the receiver for the LPN type with the SPCOT
// seed and its expected noise weight t. The uniform variant samples
// a Cuckoo hash seed from rand and sends it to the sender.
func (r *Receiver) Setup(conn *p2p.Conn, typ lpn.Type, t int,
	seed ot.Block, rand io.Reader) error {

	if err := r.expect(stateInitialized); err != nil {
		return err
	}
	if err := checkType(typ); err != nil {
		return r.fatal(err)
	}
	r.typ = typ

	if typ == lpn.Uniform {
		hashSeed, err := ot.NewBlock(rand)
		if err != nil {
			return r.fatal(err)
		}
		msg := &HashSeed{
			Seed: hashSeed,
		}
		if err := msg.Send(conn); err != nil {
			return r.fatal(err)
		}
		if err := conn.Flush(); err != nil {
			return r.fatal(err)
		}
		r.hash = newCuckoo(hashSeed, t)
	}
	if err := r.spcot.Setup(seed); err != nil {
		return r.fatal(err)
	}
	r.state = statePreExtension
	return nil
}

// PreExtend computes the bucket plan for the distinct chosen indices
// alphas in [0, n).
func (r *Receiver) PreExtend(alphas []int, n int) error {
	if err := r.expect(statePreExtension); err != nil {
		return err
	}
	t := len(alphas)
	seen := make(map[int]bool)
	for _, alpha := range alphas {
		if alpha < 0 || alpha >= n || seen[alpha] {
			return r.fatal(&InvalidParametersError{
				Msg: "indices must be distinct and in range",
			})
		}
		seen[alpha] = true
	}

	plan := &receiverPlan{
		n:      n,
		t:      t,
		alphas: alphas,
	}
	switch r.typ {
	case lpn.Regular:
		m, h, err := regularBuckets(t, n)
		if err != nil {
			return r.fatal(err)
		}
		plan.m = m
		plan.hs = make([]int, t)
		plan.poss = make([]int, t)
		for j, alpha := range alphas {
			if alpha < j*m || alpha >= (j+1)*m {
				return r.fatal(&InvalidParametersError{
					Msg: "index outside its bucket",
				})
			}
			plan.hs[j] = h
			plan.poss[j] = alpha - j*m
		}

	case lpn.Uniform:
		values := make([]uint32, t)
		for j, alpha := range alphas {
			values[j] = uint32(alpha)
		}
		table, err := r.hash.insert(values)
		if err != nil {
			return r.fatal(err)
		}
		plan.lists = r.hash.buckets(n)
		plan.slots = make([]int, len(plan.lists))
		for b, list := range plan.lists {
			if len(list) == 0 {
				plan.slots[b] = -1
				continue
			}
			plan.slots[b] = len(plan.hs)
			plan.hs = append(plan.hs, bucketDepth(len(list)))

			// The bucket's chosen position is its Cuckoo item, or
			// the dummy slot past the candidate list.
			if table[b] >= 0 {
				plan.poss = append(plan.poss,
					bucketPos(list, uint32(table[b])))
			} else {
				plan.poss = append(plan.poss, len(list))
			}
		}
	}
	r.plan = plan
	r.state = stateExtension
	return nil
}

// Extend runs the SPCOT batch of the bucket plan and assembles the
// length-n output vector.
func (r *Receiver) Extend(conn *p2p.Conn) ([]ot.Block, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, err
	}
	plan := r.plan
	r.plan = nil

	if err := r.spcot.Extend(conn, plan.poss, plan.hs); err != nil {
		return nil, r.fatal(err)
	}
	trees, _, err := r.spcot.Check(conn)
	if err != nil {
		return nil, r.fatal(err)
	}

	out := make([]ot.Block, plan.n)
	switch r.typ {
	case lpn.Regular:
		for j := 0; j < plan.t; j++ {
			copy(out[j*plan.m:(j+1)*plan.m], trees[j][:plan.m])
		}

	case lpn.Uniform:
		for x := 0; x < plan.n; x++ {
			var bs [numHashes]int
			for i := 0; i < numHashes; i++ {
				b := r.hash.hash(i, uint32(x))
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
	r.state = statePreExtension
	return out, nil
}

// Finalize completes the receiver's session and the inner SPCOT.
func (r *Receiver) Finalize() error {
	if err := r.expect(statePreExtension); err != nil {
		return err
	}
	if err := r.spcot.Finalize(); err != nil {
		return r.fatal(err)
	}
	r.state = stateComplete
	return nil
}
