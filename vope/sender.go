//
// sender.go
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

// Sender implements the VOPE sender (the verifier): it holds the
// global correlation Delta and obtains the evaluation share b.
type Sender struct {
	state state
	rcot  spcot.RCOTSender
	delta ot.Block
	bs    []ot.Block
	exec  uint64
}

// NewSender creates a new VOPE sender over the random correlated OT
// oracle.
func NewSender(rcot spcot.RCOTSender) *Sender {
	return &Sender{
		state: stateInitialized,
		rcot:  rcot,
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

// Setup initializes the sender with the correlation delta of the OT
// oracle.
func (s *Sender) Setup(delta ot.Block) error {
	if err := s.expect(stateInitialized); err != nil {
		return err
	}
	s.delta = delta
	s.state = stateExtension
	return nil
}

// Extend performs one VOPE extension of degree d and returns the
// evaluation share b.
func (s *Sender) Extend(conn *p2p.Conn, d int) (ot.Block, error) {
	if err := s.expect(stateExtension); err != nil {
		return ot.ZeroBlock, err
	}
	if d < 1 {
		return ot.ZeroBlock, s.fatal(&InvalidParametersError{
			Msg: "degree must be positive",
		})
	}

	out, err := s.rcot.SendRandomCorrelated(conn, (2*d-1)*CSP)
	if err != nil {
		return ot.ZeroBlock, s.fatal(err)
	}

	// Recombine every CSP-block chunk on the power basis.
	basis := ot.PowerBasis(CSP)
	ks := make([]ot.Block, 2*d-1)
	for i := range ks {
		ks[i] = ot.InnerProductReduced(out.Msgs[i*CSP:(i+1)*CSP], basis)
	}

	b := ks[0]
	for i := 0; i < d-1; i++ {
		b = ot.Gfmul(b, ks[i+1]).Xor(ks[d+i])
	}

	s.bs = append(s.bs, b)
	s.exec++

	return b, nil
}

// Finalize completes the sender's session.
func (s *Sender) Finalize() error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	s.state = stateComplete
	return nil
}
