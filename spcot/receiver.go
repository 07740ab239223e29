//
// receiver.go
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

// Receiver implements the SPCOT receiver role. The receiver owns its
// random correlated OT oracle.
type Receiver struct {
	state state
	rcot  RCOTReceiver
	pool  *worker.Pool

	prg  *ot.PRG
	exec uint64

	unchecked [][]ot.Block
	alphas    []int
}

// NewReceiver creates a new SPCOT receiver over the random
// correlated OT oracle.
func NewReceiver(rcot RCOTReceiver, pool *worker.Pool) *Receiver {
	return &Receiver{
		state: stateInitialized,
		rcot:  rcot,
		pool:  pool,
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

// Setup initializes the receiver with the seed of the check weight
// seeds.
func (r *Receiver) Setup(seed ot.Block) error {
	if err := r.expect(stateInitialized); err != nil {
		return err
	}
	r.prg = ot.NewPRG(seed)
	r.state = stateExtension
	return nil
}

// Extend performs one batched extension: a GGM tree of depth hs[b]
// with the chosen position alphas[b] per bucket, consuming sum(hs)
// correlated OTs. The fresh trees are not usable until Check has
// passed.
func (r *Receiver) Extend(conn *p2p.Conn, alphas, hs []int) error {
	if err := r.expect(stateExtension); err != nil {
		return err
	}
	if len(alphas) != len(hs) {
		return r.fatal(&InvalidParametersError{
			Msg: "alpha and depth counts do not match",
		})
	}
	var total int
	for b, h := range hs {
		if h < 1 || h > 30 {
			return r.fatal(&InvalidParametersError{
				Msg: "tree depth out of range",
			})
		}
		if alphas[b] < 0 || alphas[b] >= 1<<h {
			return r.fatal(&InvalidParametersError{
				Msg: "alpha out of range",
			})
		}
		total += h
	}

	out, err := r.rcot.ReceiveRandomCorrelated(conn, total)
	if err != nil {
		return r.fatal(err)
	}

	// mask = r ^ alpha_bit ^ 1, alpha bits MSB-first.
	offs := offsets(hs)
	bits := make([]byte, (total+7)/8)
	for b, h := range hs {
		off := offs[b]
		for i := 0; i < h; i++ {
			abit := (alphas[b]>>(h-1-i))&1 == 1
			if out.Choices[off+i] == abit {
				bits[(off+i)/8] |= 1 << ((off + i) % 8)
			}
		}
	}
	mask := &MaskBits{
		ID:    out.ID,
		Count: total,
		Bits:  bits,
	}
	if err := mask.Send(conn); err != nil {
		return r.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return r.fatal(err)
	}

	fs, err := ReceiveExtendFS(conn)
	if err != nil {
		return r.fatal(err)
	}
	if len(fs.M0) != total || len(fs.M1) != total || len(fs.C) != len(hs) {
		return r.fatal(ErrInvalidPayload)
	}

	trees := make([][]ot.Block, len(hs))
	execBase := r.exec

	err = r.pool.ForEach(len(hs), func(b int) error {
		h := hs[b]
		off := offs[b]
		alpha := alphas[b]
		exec := execBase + uint64(b)

		// Decrypt the sibling sum of every level along the co-path
		// of alpha.
		ks := make([]ot.Block, h)
		for i := 0; i < h; i++ {
			ht := ot.TCCR(tweak(exec, i), out.Msgs[off+i])
			if (alpha>>(h-1-i))&1 == 1 {
				ks[i] = fs.M0[off+i].Xor(ht)
			} else {
				ks[i] = fs.M1[off+i].Xor(ht)
			}
		}

		leaves := ggmReconstruct(h, alpha, ks)

		// Recover the blinded leaf from the consistency block.
		sum := fs.C[b]
		for _, l := range leaves {
			sum = sum.Xor(l)
		}
		leaves[alpha] = sum

		trees[b] = leaves
		return nil
	})
	if err != nil {
		return r.fatal(err)
	}
	r.exec += uint64(len(hs))
	r.unchecked = append(r.unchecked, trees...)
	r.alphas = append(r.alphas, alphas...)

	return nil
}

// Check runs the batch consistency check over all extensions since
// the previous check. It consumes CSP sacrificial correlated OTs and
// returns the checked trees and their chosen positions in extension
// order.
func (r *Receiver) Check(conn *p2p.Conn) ([][]ot.Block, []int, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, nil, err
	}

	out, err := r.rcot.ReceiveRandomCorrelated(conn, CSP)
	if err != nil {
		return nil, nil, r.fatal(err)
	}

	chiSeed := r.prg.Block()

	var w, sumChiAlpha ot.Block
	err = r.pool.Run(func() error {
		chiPrg := ot.NewPRG(chiSeed)

		var lo, hi ot.Block
		for l, tree := range r.unchecked {
			for i, leaf := range tree {
				chi := chiPrg.Block()
				if i == r.alphas[l] {
					sumChiAlpha = sumChiAlpha.Xor(chi)
				}
				plo, phi := ot.Clmul(leaf, chi)
				lo = lo.Xor(plo)
				hi = hi.Xor(phi)
			}
		}
		w = ot.Reduce(lo, hi)
		w = w.Xor(ot.InnerProductReduced(out.Msgs, ot.PowerBasis(CSP)))
		return nil
	})
	if err != nil {
		return nil, nil, r.fatal(err)
	}

	// Mask the sacrificial choices with the bits of the chi sum of
	// the chosen positions.
	xPrime := make([]byte, CSP/8)
	for i := 0; i < CSP; i++ {
		if out.Choices[i] != (sumChiAlpha.Bit(i) == 1) {
			xPrime[i/8] |= 1 << (i % 8)
		}
	}
	fr := &CheckFR{
		ID:      out.ID,
		ChiSeed: chiSeed,
		XPrime:  xPrime,
	}
	if err := fr.Send(conn); err != nil {
		return nil, nil, r.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return nil, nil, r.fatal(err)
	}

	fs, err := ReceiveCheckFS(conn)
	if err != nil {
		return nil, nil, r.fatal(err)
	}

	var buf ot.BlockData
	if blake3.Sum256(w.Bytes(&buf)) != fs.Digest {
		return nil, nil, r.fatal(ErrConsistencyCheckFailed)
	}

	trees := r.unchecked
	alphas := r.alphas
	r.unchecked = nil
	r.alphas = nil
	return trees, alphas, nil
}

// Finalize completes the receiver's session.
func (r *Receiver) Finalize() error {
	if err := r.expect(stateExtension); err != nil {
		return err
	}
	r.state = stateComplete
	return nil
}
