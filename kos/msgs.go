//
// msgs.go
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

// Protocol message kinds.
const (
	opExtend = iota + 1
	opCheck
	opDerandomize
	opSenderPayload
	opCommitment
	opCoinShare
	opReceiverReveal
)

// Extend is the extension message sent by the receiver.
type Extend struct {
	// Count is the number of OTs to set up.
	Count int

	// Us contains the receiver's setup vectors: CSP rows of
	// Count/8 bytes.
	Us []byte
}

// Send sends the message to the connection.
func (m *Extend) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opExtend); err != nil {
		return err
	}
	if err := conn.SendUint64(uint64(m.Count)); err != nil {
		return err
	}
	return conn.SendData(m.Us)
}

// ReceiveExtend receives an Extend message from the connection.
func ReceiveExtend(conn *p2p.Conn) (*Extend, error) {
	if err := conn.ExpectKind(opExtend); err != nil {
		return nil, err
	}
	count, err := conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}
	us, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	return &Extend{
		Count: int(count),
		Us:    us,
	}, nil
}

// Check is the correlation check sent by the receiver.
type Check struct {
	X  ot.Block
	T0 ot.Block
	T1 ot.Block
}

// Send sends the message to the connection.
func (m *Check) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opCheck); err != nil {
		return err
	}
	if err := conn.SendBlock(m.X); err != nil {
		return err
	}
	if err := conn.SendBlock(m.T0); err != nil {
		return err
	}
	return conn.SendBlock(m.T1)
}

// ReceiveCheck receives a Check message from the connection.
func ReceiveCheck(conn *p2p.Conn) (*Check, error) {
	if err := conn.ExpectKind(opCheck); err != nil {
		return nil, err
	}
	var m Check
	var err error

	if m.X, err = conn.ReceiveBlock(); err != nil {
		return nil, err
	}
	if m.T0, err = conn.ReceiveBlock(); err != nil {
		return nil, err
	}
	if m.T1, err = conn.ReceiveBlock(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Derandomize carries the receiver's choice corrections: Flip packs
// Count bits, LSB-first, each the xor of the random extension choice
// and the receiver's real choice.
type Derandomize struct {
	Count int
	Flip  []byte
}

// Send sends the message to the connection.
func (m *Derandomize) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opDerandomize); err != nil {
		return err
	}
	if err := conn.SendUint64(uint64(m.Count)); err != nil {
		return err
	}
	return conn.SendData(m.Flip)
}

// ReceiveDerandomize receives a Derandomize message from the
// connection.
func ReceiveDerandomize(conn *p2p.Conn) (*Derandomize, error) {
	if err := conn.ExpectKind(opDerandomize); err != nil {
		return nil, err
	}
	count, err := conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}
	flip, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	return &Derandomize{
		Count: int(count),
		Flip:  flip,
	}, nil
}

// SenderPayload carries the sender's ciphertexts, two per
// transferred message.
type SenderPayload struct {
	Ciphertexts []ot.Block
}

// Send sends the message to the connection.
func (m *SenderPayload) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opSenderPayload); err != nil {
		return err
	}
	return conn.SendBlocks(m.Ciphertexts)
}

// ReceiveSenderPayload receives a SenderPayload message from the
// connection.
func ReceiveSenderPayload(conn *p2p.Conn) (*SenderPayload, error) {
	if err := conn.ExpectKind(opSenderPayload); err != nil {
		return nil, err
	}
	cts, err := conn.ReceiveBlocks()
	if err != nil {
		return nil, err
	}
	return &SenderPayload{
		Ciphertexts: cts,
	}, nil
}

// ReceiverReveal opens the receiver's extension for tape
// verification: the base OT seed pairs, the derandomized choices of
// all transferred OTs (bit-packed, LSB-first), and the receiver's
// ciphertext digest tape.
type ReceiverReveal struct {
	Seeds   [][2]ot.Block
	Count   int
	Choices []byte
	Digests [][32]byte
}

// Send sends the message to the connection.
func (m *ReceiverReveal) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opReceiverReveal); err != nil {
		return err
	}
	for _, pair := range m.Seeds {
		if err := conn.SendBlock(pair[0]); err != nil {
			return err
		}
		if err := conn.SendBlock(pair[1]); err != nil {
			return err
		}
	}
	if err := conn.SendUint64(uint64(m.Count)); err != nil {
		return err
	}
	if err := conn.SendData(m.Choices); err != nil {
		return err
	}
	if err := conn.SendUint32(len(m.Digests)); err != nil {
		return err
	}
	for _, d := range m.Digests {
		if err := conn.SendData(d[:]); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveReceiverReveal receives a ReceiverReveal message from the
// connection.
func ReceiveReceiverReveal(conn *p2p.Conn) (*ReceiverReveal, error) {
	if err := conn.ExpectKind(opReceiverReveal); err != nil {
		return nil, err
	}
	m := &ReceiverReveal{
		Seeds: make([][2]ot.Block, CSP),
	}
	var err error
	for i := 0; i < CSP; i++ {
		if m.Seeds[i][0], err = conn.ReceiveBlock(); err != nil {
			return nil, err
		}
		if m.Seeds[i][1], err = conn.ReceiveBlock(); err != nil {
			return nil, err
		}
	}
	count, err := conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}
	m.Count = int(count)
	if m.Choices, err = conn.ReceiveData(); err != nil {
		return nil, err
	}
	numDigests, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	m.Digests = make([][32]byte, numDigests)
	for i := 0; i < numDigests; i++ {
		data, err := conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		if len(data) != 32 {
			return nil, ErrInvalidPayload
		}
		copy(m.Digests[i][:], data)
	}
	return m, nil
}
