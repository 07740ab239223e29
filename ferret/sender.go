//
// sender.go
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

// Sender implements the Ferret sender role. The sender owns the
// inner MPCOT sender which owns SPCOT and the extension-time random
// correlated OT oracle.
type Sender struct {
	state state
	mpcot *mpcot.Sender
	pool  *worker.Pool
	rand  io.Reader

	delta   ot.Block
	params  lpn.Parameters
	typ     lpn.Type
	encoder *lpn.Encoder
	lpnSeed ot.Block

	ms         []ot.Block
	iter       uint64
	transferID uint64
	buffer     []ot.Block
}

// NewSender creates a new Ferret sender over the random correlated
// OT oracle.
func NewSender(rcot spcot.RCOTSender, pool *worker.Pool,
	rand io.Reader) *Sender {

	return &Sender{
		state: stateInitialized,
		mpcot: mpcot.NewSender(rcot, pool),
		pool:  pool,
		rand:  rand,
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

// Delta returns the sender's correlation.
func (s *Sender) Delta() ot.Block {
	return s.delta
}

// Setup initializes the sender for the LPN parameters: the inner
// MPCOT is set up for the LPN type, the k base OTs are drawn from
// the setup oracle, and the LPN matrix seed is received from the
// receiver.
func (s *Sender) Setup(conn *p2p.Conn, setup spcot.RCOTSender,
	delta ot.Block, params lpn.Parameters, typ lpn.Type) error {

	if err := s.expect(stateInitialized); err != nil {
		return err
	}
	if err := params.Validate(typ); err != nil {
		return s.fatal(err)
	}

	seed, err := ot.NewBlock(s.rand)
	if err != nil {
		return s.fatal(err)
	}
	if err := s.mpcot.Setup(conn, typ, params.T, delta, seed); err != nil {
		return s.fatal(err)
	}

	out, err := setup.SendRandomCorrelated(conn, params.K)
	if err != nil {
		return s.fatal(err)
	}

	msg, err := ReceiveLpnSeed(conn)
	if err != nil {
		return s.fatal(err)
	}

	s.delta = delta
	s.params = params
	s.typ = typ
	s.lpnSeed = msg.Seed
	s.encoder = lpn.NewEncoder(params, msg.Seed, s.pool)
	s.ms = out.Msgs

	s.state = stateExtension
	return nil
}

// Extend runs one Ferret iteration, producing l = n - k fresh random
// correlated OT messages. The first k encoded outputs re-seed the
// next iteration's base and are never handed out.
func (s *Sender) Extend(conn *p2p.Conn) ([]ot.Block, error) {
	if err := s.expect(stateExtension); err != nil {
		return nil, err
	}

	if err := s.mpcot.PreExtend(s.params.T, s.params.N); err != nil {
		return nil, s.fatal(err)
	}
	sVec, err := s.mpcot.Extend(conn)
	if err != nil {
		return nil, s.fatal(err)
	}

	y, err := s.encoder.Encode(sVec, s.ms)
	if err != nil {
		return nil, s.fatal(err)
	}

	s.ms = append([]ot.Block{}, y[:s.params.K]...)
	s.iter++

	return y[s.params.K:], nil
}

// SendRandomCorrelated returns count random correlated OTs, looping
// the extension iteration as needed and buffering any leftover for
// the next call.
func (s *Sender) SendRandomCorrelated(conn *p2p.Conn, count int) (
	*ot.RCOTSenderOutput, error) {

	for len(s.buffer) < count {
		out, err := s.Extend(conn)
		if err != nil {
			return nil, err
		}
		s.buffer = append(s.buffer, out...)
	}
	msgs := append([]ot.Block{}, s.buffer[:count]...)
	s.buffer = s.buffer[count:]

	id := s.transferID
	s.transferID++

	return &ot.RCOTSenderOutput{
		ID:   id,
		Msgs: msgs,
	}, nil
}

// Finalize completes the sender's session and the inner MPCOT.
func (s *Sender) Finalize() error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	if err := s.mpcot.Finalize(); err != nil {
		return s.fatal(err)
	}
	s.state = stateComplete
	return nil
}
