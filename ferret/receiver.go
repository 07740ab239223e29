//
// receiver.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ferret

import (
	"io"

	"github.com/markkurossi/otext/lpn"
	"github.com/markkurossi/otext/mpcot"
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
	"github.com/markkurossi/otext/spcot"
	"github.com/markkurossi/otext/worker"
)

// Receiver implements the Ferret receiver role. The receiver owns
// the inner MPCOT receiver which owns SPCOT and the extension-time
// random correlated OT oracle.
type Receiver struct {
	state state
	mpcot *mpcot.Receiver
	pool  *worker.Pool
	rand  io.Reader

	params  lpn.Parameters
	typ     lpn.Type
	encoder *lpn.Encoder
	lpnSeed ot.Block

	us         []bool
	ws         []ot.Block
	iter       uint64
	transferID uint64

	choiceBuffer []bool
	msgBuffer    []ot.Block
}

// NewReceiver creates a new Ferret receiver over the random
// correlated OT oracle.
func NewReceiver(rcot spcot.RCOTReceiver, pool *worker.Pool,
	rand io.Reader) *Receiver {

	return &Receiver{
		state: stateInitialized,
		mpcot: mpcot.NewReceiver(rcot, pool),
		pool:  pool,
		rand:  rand,
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

// Setup initializes the receiver for the LPN parameters: the inner
// MPCOT is set up for the LPN type, the k base OTs are drawn from
// the setup oracle, and the LPN matrix seed is sampled and sent to
// the sender.
func (r *Receiver) Setup(conn *p2p.Conn, setup spcot.RCOTReceiver,
	params lpn.Parameters, typ lpn.Type) error {

	if err := r.expect(stateInitialized); err != nil {
		return err
	}
	if err := params.Validate(typ); err != nil {
		return r.fatal(err)
	}

	seed, err := ot.NewBlock(r.rand)
	if err != nil {
		return r.fatal(err)
	}
	if err := r.mpcot.Setup(conn, typ, params.T, seed, r.rand); err != nil {
		return r.fatal(err)
	}

	out, err := setup.ReceiveRandomCorrelated(conn, params.K)
	if err != nil {
		return r.fatal(err)
	}

	lpnSeed, err := ot.NewBlock(r.rand)
	if err != nil {
		return r.fatal(err)
	}
	msg := &LpnSeed{
		Seed: lpnSeed,
	}
	if err := msg.Send(conn); err != nil {
		return r.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return r.fatal(err)
	}

	r.params = params
	r.typ = typ
	r.lpnSeed = lpnSeed
	r.encoder = lpn.NewEncoder(params, lpnSeed, r.pool)
	r.us = out.Choices
	r.ws = out.Msgs

	r.state = stateExtension
	return nil
}

// Extend runs one Ferret iteration, producing l = n - k fresh random
// correlated OT choices and messages. The first k encoded outputs
// re-seed the next iteration's base and are never handed out.
func (r *Receiver) Extend(conn *p2p.Conn) ([]bool, []ot.Block, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, nil, err
	}

	alphas := queryAlphas(r.lpnSeed, r.iter, r.typ == lpn.Uniform,
		r.params.N, r.params.T)

	if err := r.mpcot.PreExtend(alphas, r.params.N); err != nil {
		return nil, nil, r.fatal(err)
	}
	rVec, err := r.mpcot.Extend(conn)
	if err != nil {
		return nil, nil, r.fatal(err)
	}

	eBits := make([]bool, r.params.N)
	for _, alpha := range alphas {
		eBits[alpha] = true
	}

	choices, err := r.encoder.EncodeBits(eBits, r.us)
	if err != nil {
		return nil, nil, r.fatal(err)
	}
	msgs, err := r.encoder.Encode(rVec, r.ws)
	if err != nil {
		return nil, nil, r.fatal(err)
	}

	r.us = append([]bool{}, choices[:r.params.K]...)
	r.ws = append([]ot.Block{}, msgs[:r.params.K]...)
	r.iter++

	return choices[r.params.K:], msgs[r.params.K:], nil
}

// ReceiveRandomCorrelated returns count random correlated OTs,
// looping the extension iteration as needed and buffering any
// leftover for the next call.
func (r *Receiver) ReceiveRandomCorrelated(conn *p2p.Conn, count int) (
	*ot.RCOTReceiverOutput, error) {

	for len(r.msgBuffer) < count {
		choices, msgs, err := r.Extend(conn)
		if err != nil {
			return nil, err
		}
		r.choiceBuffer = append(r.choiceBuffer, choices...)
		r.msgBuffer = append(r.msgBuffer, msgs...)
	}
	choices := append([]bool{}, r.choiceBuffer[:count]...)
	msgs := append([]ot.Block{}, r.msgBuffer[:count]...)
	r.choiceBuffer = r.choiceBuffer[count:]
	r.msgBuffer = r.msgBuffer[count:]

	id := r.transferID
	r.transferID++

	return &ot.RCOTReceiverOutput{
		ID:      id,
		Choices: choices,
		Msgs:    msgs,
	}, nil
}

// Finalize completes the receiver's session and the inner MPCOT.
func (r *Receiver) Finalize() error {
	if err := r.expect(stateExtension); err != nil {
		return err
	}
	if err := r.mpcot.Finalize(); err != nil {
		return r.fatal(err)
	}
	r.state = stateComplete
	return nil
}
