//
// sender.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package spcot

import (
	"github.com/zeebo/blake3"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/worker"
)

// Sender implements the SPCOT sender role. The sender owns its
// random correlated OT oracle; the correlation delta of the oracle
// and the sender must agree.
type Sender struct {
	state state
	rcot  RCOTSender
	pool  *worker.Pool

	delta ot.Block
	prg   *ot.PRG
	exec  uint64

	unchecked [][]ot.Block
}

// NewSender creates a new SPCOT sender over the random correlated OT
// oracle.
func NewSender(rcot RCOTSender, pool *worker.Pool) *Sender {
	return &Sender{
		state: stateInitialized,
		rcot:  rcot,
		pool:  pool,
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

// Setup initializes the sender with the correlation delta and the
// seed of the GGM tree roots.
func (s *Sender) Setup(delta, seed ot.Block) error {
	if err := s.expect(stateInitialized); err != nil {
		return err
	}
	s.delta = delta
	s.prg = ot.NewPRG(seed)
	s.state = stateExtension
	return nil
}

// Extend performs one batched extension: one GGM tree per element of
// hs, consuming sum(hs) correlated OTs. The fresh trees are not
// usable until Check has passed.
func (s *Sender) Extend(conn *p2p.Conn, hs []int) error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	var total int
	for _, h := range hs {
		if h < 1 || h > 30 {
			return s.fatal(&InvalidParametersError{
				Msg: "tree depth out of range",
			})
		}
		total += h
	}

	out, err := s.rcot.SendRandomCorrelated(conn, total)
	if err != nil {
		return s.fatal(err)
	}

	mask, err := ReceiveMaskBits(conn)
	if err != nil {
		return s.fatal(err)
	}
	if mask.ID != out.ID {
		return s.fatal(&IDMismatchError{
			Expected: out.ID,
			Got:      mask.ID,
		})
	}
	if mask.Count != total || len(mask.Bits) < (total+7)/8 {
		return s.fatal(ErrInvalidPayload)
	}

	// The tree roots come from the setup PRG; sample them before
	// the parallel expansion.
	roots := make([]ot.Block, len(hs))
	for b := range roots {
		roots[b] = s.prg.Block()
	}

	offs := offsets(hs)
	m0 := make([]ot.Block, total)
	m1 := make([]ot.Block, total)
	cs := make([]ot.Block, len(hs))
	trees := make([][]ot.Block, len(hs))
	execBase := s.exec

	err = s.pool.ForEach(len(hs), func(b int) error {
		h := hs[b]
		off := offs[b]
		exec := execBase + uint64(b)

		leaves, k0, k1 := ggmExpand(h, roots[b])

		for i := 0; i < h; i++ {
			q := out.Msgs[off+i]
			tw := tweak(exec, i)
			hq := ot.TCCR(tw, q)
			hqd := ot.TCCR(tw, q.Xor(s.delta))

			if (mask.Bits[(off+i)/8]>>((off+i)%8))&1 == 1 {
				m0[off+i] = k0[i].Xor(hqd)
				m1[off+i] = k1[i].Xor(hq)
			} else {
				m0[off+i] = k0[i].Xor(hq)
				m1[off+i] = k1[i].Xor(hqd)
			}
		}

		c := s.delta
		for _, l := range leaves {
			c = c.Xor(l)
		}
		cs[b] = c
		trees[b] = leaves
		return nil
	})
	if err != nil {
		return s.fatal(err)
	}
	s.exec += uint64(len(hs))
	s.unchecked = append(s.unchecked, trees...)

	msg := &ExtendFS{
		M0: m0,
		M1: m1,
		C:  cs,
	}
	if err := msg.Send(conn); err != nil {
		return s.fatal(err)
	}
	return conn.Flush()
}

// Check runs the batch consistency check over all extensions since
// the previous check. It consumes CSP sacrificial correlated OTs and
// returns the checked trees in extension order.
func (s *Sender) Check(conn *p2p.Conn) ([][]ot.Block, error) {
	if err := s.expect(stateExtension); err != nil {
		return nil, err
	}

	out, err := s.rcot.SendRandomCorrelated(conn, CSP)
	if err != nil {
		return nil, s.fatal(err)
	}

	fr, err := ReceiveCheckFR(conn)
	if err != nil {
		return nil, s.fatal(err)
	}
	if fr.ID != out.ID {
		return nil, s.fatal(&IDMismatchError{
			Expected: out.ID,
			Got:      fr.ID,
		})
	}
	if len(fr.XPrime) < CSP/8 {
		return nil, s.fatal(ErrInvalidPayload)
	}

	var v ot.Block
	err = s.pool.Run(func() error {
		chiPrg := ot.NewPRG(fr.ChiSeed)

		var lo, hi ot.Block
		for _, tree := range s.unchecked {
			for _, leaf := range tree {
				l, h := ot.Clmul(leaf, chiPrg.Block())
				lo = lo.Xor(l)
				hi = hi.Xor(h)
			}
		}
		v = ot.Reduce(lo, hi)

		ys := make([]ot.Block, CSP)
		for i := 0; i < CSP; i++ {
			y := out.Msgs[i]
			if (fr.XPrime[i/8]>>(i%8))&1 == 1 {
				y = y.Xor(s.delta)
			}
			ys[i] = y
		}
		v = v.Xor(ot.InnerProductReduced(ys, ot.PowerBasis(CSP)))
		return nil
	})
	if err != nil {
		return nil, s.fatal(err)
	}

	var buf ot.BlockData
	msg := &CheckFS{
		Digest: blake3.Sum256(v.Bytes(&buf)),
	}
	if err := msg.Send(conn); err != nil {
		return nil, s.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return nil, s.fatal(err)
	}

	output := s.unchecked
	s.unchecked = nil
	return output, nil
}

// Finalize completes the sender's session.
func (s *Sender) Finalize() error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	s.state = stateComplete
	return nil
}

func offsets(hs []int) []int {
	offs := make([]int, len(hs))
	var off int
	for i, h := range hs {
		offs[i] = off
		off += h
	}
	return offs
}
