//
// rcot.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kos

import (
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// This file implements the connection-level protocol drivers. Each
// driver performs the message exchange of one protocol phase over
// the ordered connection; the peers must call the matching drivers
// in the same order. The drivers also expose the KOS15 roles as
// random correlated OT oracles for the Ferret protocol family.

// RunExtend runs one extension and check round over the connection,
// making at least count additional OTs usable on top of the CSP+SSP
// sacrifice.
func (s *Sender) RunExtend(conn *p2p.Conn, count int) error {
	n := roundUp64(count) + CSP + SSP

	ext, err := ReceiveExtend(conn)
	if err != nil {
		return s.fatal(err)
	}
	if err := s.Extend(n, ext); err != nil {
		return err
	}

	chiSeed, err := cointossSender(conn, s.rand)
	if err != nil {
		return s.fatal(err)
	}

	check, err := ReceiveCheck(conn)
	if err != nil {
		return s.fatal(err)
	}
	return s.Check(chiSeed, check)
}

// RunExtend runs one extension and check round over the connection,
// making at least count additional OTs usable on top of the CSP+SSP
// sacrifice.
func (r *Receiver) RunExtend(conn *p2p.Conn, count int) error {
	n := roundUp64(count) + CSP + SSP

	ext, err := r.Extend(n)
	if err != nil {
		return err
	}
	if err := ext.Send(conn); err != nil {
		return r.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return r.fatal(err)
	}

	chiSeed, err := cointossReceiver(conn, r.rand)
	if err != nil {
		return r.fatal(err)
	}

	check, err := r.Check(chiSeed)
	if err != nil {
		return err
	}
	if err := check.Send(conn); err != nil {
		return r.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return r.fatal(err)
	}
	return nil
}

// SendRandomCorrelated returns count random correlated OTs,
// extending over the connection as needed: the batch messages are
// the raw extension rows q with q ^ Delta as the correlated
// counterpart.
func (s *Sender) SendRandomCorrelated(conn *p2p.Conn, count int) (
	*ot.RCOTSenderOutput, error) {

	for len(s.qs) < count {
		if err := s.RunExtend(conn, count-len(s.qs)); err != nil {
			return nil, err
		}
	}
	msgs := append([]ot.Block{}, s.qs[:count]...)
	s.qs = s.qs[count:]
	s.qTweaks = s.qTweaks[count:]

	id := s.transferID
	s.transferID++

	return &ot.RCOTSenderOutput{
		ID:   id,
		Msgs: msgs,
	}, nil
}

// ReceiveRandomCorrelated returns count random correlated OTs,
// extending over the connection as needed: the batch messages are
// the raw extension rows t = q ^ c*Delta for the random choices c.
func (r *Receiver) ReceiveRandomCorrelated(conn *p2p.Conn, count int) (
	*ot.RCOTReceiverOutput, error) {

	for len(r.ts) < count {
		if err := r.RunExtend(conn, count-len(r.ts)); err != nil {
			return nil, err
		}
	}
	choices := append([]bool{}, r.choices[:count]...)
	msgs := append([]ot.Block{}, r.ts[:count]...)
	r.ts = r.ts[count:]
	r.keys = r.keys[count:]
	r.choices = r.choices[count:]

	id := r.transferID
	r.transferID++

	return &ot.RCOTReceiverOutput{
		ID:      id,
		Choices: choices,
		Msgs:    msgs,
	}, nil
}

// SendRandomKeys returns count random OT key pairs derived with the
// TCCR hash, extending over the connection as needed. Random keys
// serve consumers that want random OTs rather than the raw
// correlation.
func (s *Sender) SendRandomKeys(conn *p2p.Conn, count int) (
	uint64, [][2]ot.Block, error) {

	for len(s.qs) < count {
		if err := s.RunExtend(conn, count-len(s.qs)); err != nil {
			return 0, nil, err
		}
	}
	keys := make([][2]ot.Block, count)
	for j := 0; j < count; j++ {
		q := s.qs[j]
		tweak := ot.NewTweak(s.qTweaks[j])
		keys[j] = [2]ot.Block{
			ot.TCCR(tweak, q),
			ot.TCCR(tweak, q.Xor(s.delta)),
		}
	}
	s.qs = s.qs[count:]
	s.qTweaks = s.qTweaks[count:]

	id := s.transferID
	s.transferID++

	return id, keys, nil
}

// ReceiveRandomKeys returns count random OT keys and the random
// choices selecting them, extending over the connection as needed.
func (r *Receiver) ReceiveRandomKeys(conn *p2p.Conn, count int) (
	uint64, []bool, []ot.Block, error) {

	for len(r.keys) < count {
		if err := r.RunExtend(conn, count-len(r.keys)); err != nil {
			return 0, nil, nil, err
		}
	}
	choices := append([]bool{}, r.choices[:count]...)
	keys := append([]ot.Block{}, r.keys[:count]...)
	r.ts = r.ts[count:]
	r.keys = r.keys[count:]
	r.choices = r.choices[count:]

	id := r.transferID
	r.transferID++

	return id, choices, keys, nil
}

// SendChosen obliviously transfers the message pairs over the
// connection, correcting the receiver's random extension choices
// with Beaver derandomization. The required OTs must have been
// extended and checked.
func (s *Sender) SendChosen(conn *p2p.Conn, msgs [][2]ot.Block) error {
	derand, err := ReceiveDerandomize(conn)
	if err != nil {
		return s.fatal(err)
	}
	payload, err := s.Send(msgs, derand)
	if err != nil {
		return err
	}
	if err := payload.Send(conn); err != nil {
		return s.fatal(err)
	}
	return conn.Flush()
}

// ReceiveChosen obliviously receives the messages selected by the
// choices over the connection. The required OTs must have been
// extended and checked.
func (r *Receiver) ReceiveChosen(conn *p2p.Conn, choices []bool) (
	[]ot.Block, error) {

	derand, err := r.Derandomize(choices)
	if err != nil {
		return nil, err
	}
	if err := derand.Send(conn); err != nil {
		return nil, r.fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return nil, r.fatal(err)
	}
	payload, err := ReceiveSenderPayload(conn)
	if err != nil {
		return nil, r.fatal(err)
	}
	return r.Receive(payload)
}

// RunReveal sends the receiver's commitment opening to the sender.
func (r *Receiver) RunReveal(conn *p2p.Conn) error {
	reveal, err := r.Reveal()
	if err != nil {
		return err
	}
	if err := reveal.Send(conn); err != nil {
		return r.fatal(err)
	}
	return conn.Flush()
}

// RunVerify receives the receiver's commitment opening and verifies
// it against the recorded transcript, returning the verified
// choices.
func (s *Sender) RunVerify(conn *p2p.Conn) ([]bool, error) {
	reveal, err := ReceiveReceiverReveal(conn)
	if err != nil {
		return nil, s.fatal(err)
	}
	return s.Verify(reveal)
}
