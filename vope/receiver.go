//
// receiver.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vope

import (
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/spcot"
)

// Receiver implements the VOPE receiver (the prover): it obtains the
// coefficient shares a_0..a_d of the evaluation polynomial.
type Receiver struct {
	state state
	rcot  spcot.RCOTReceiver
	exec  uint64
}

// NewReceiver creates a new VOPE receiver over the random correlated
// OT oracle.
func NewReceiver(rcot spcot.RCOTReceiver) *Receiver {
	return &Receiver{
		state: stateInitialized,
		rcot:  rcot,
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

// Setup initializes the receiver.
func (r *Receiver) Setup() error {
	if err := r.expect(stateInitialized); err != nil {
		return err
	}
	r.state = stateExtension
	return nil
}

// Extend performs one VOPE extension of degree d and returns the
// coefficient shares a_0..a_d.
func (r *Receiver) Extend(conn *p2p.Conn, d int) ([]ot.Block, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, err
	}
	if d < 1 {
		return nil, r.fatal(&InvalidParametersError{
			Msg: "degree must be positive",
		})
	}

	out, err := r.rcot.ReceiveRandomCorrelated(conn, (2*d-1)*CSP)
	if err != nil {
		return nil, r.fatal(err)
	}

	// Recombine every CSP-block chunk on the power basis. Each
	// chunk contributes a degree-1 share m + x*Delta of the
	// sender's combined block.
	basis := ot.PowerBasis(CSP)
	ms := make([]ot.Block, 2*d-1)
	xs := make([]ot.Block, 2*d-1)
	for i := range ms {
		ms[i] = ot.InnerProductReduced(out.Msgs[i*CSP:(i+1)*CSP], basis)

		var x ot.Block
		for j := 0; j < CSP; j++ {
			if out.Choices[i*CSP+j] {
				x = x.Xor(basis[j])
			}
		}
		xs[i] = x
	}

	// Expand the sender's Horner recurrence symbolically in Delta.
	poly := []ot.Block{ms[0], xs[0]}
	for i := 0; i < d-1; i++ {
		next := make([]ot.Block, len(poly)+1)
		for j, c := range poly {
			next[j] = next[j].Xor(ot.Gfmul(c, ms[i+1]))
			next[j+1] = next[j+1].Xor(ot.Gfmul(c, xs[i+1]))
		}
		next[0] = next[0].Xor(ms[d+i])
		next[1] = next[1].Xor(xs[d+i])
		poly = next
	}

	r.exec++
	return poly, nil
}

// Finalize completes the receiver's session.
func (r *Receiver) Finalize() error {
	if err := r.expect(stateExtension); err != nil {
		return err
	}
	r.state = stateComplete
	return nil
}
