//
// msgs.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package spcot

import (
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// Protocol message kinds.
const (
	opMaskBits = iota + 1
	opExtendFS
	opCheckFR
	opCheckFS
)

// MaskBits carries the receiver's mask bits of one batched
// extension: for every bucket b and level i, the bit is the xor of
// the correlated OT choice, the alpha bit (MSB-first), and one. The
// shape of the bit vector is fixed by the tree depths both parties
// passed to Extend. The ID binds the message to the receiver's
// correlated OT batch.
type MaskBits struct {
	ID    uint64
	Count int
	Bits  []byte
}

// Send sends the message to the connection.
func (m *MaskBits) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opMaskBits); err != nil {
		return err
	}
	if err := conn.SendUint64(m.ID); err != nil {
		return err
	}
	if err := conn.SendUint64(uint64(m.Count)); err != nil {
		return err
	}
	return conn.SendData(m.Bits)
}

// ReceiveMaskBits receives a MaskBits message from the connection.
func ReceiveMaskBits(conn *p2p.Conn) (*MaskBits, error) {
	if err := conn.ExpectKind(opMaskBits); err != nil {
		return nil, err
	}
	id, err := conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}
	count, err := conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}
	bits, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	return &MaskBits{
		ID:    id,
		Count: int(count),
		Bits:  bits,
	}, nil
}

// ExtendFS is the sender's extension message: the encrypted sibling
// sums M0, M1 of every bucket level, and one consistency block per
// bucket, the XOR of all tree leaves and Delta.
type ExtendFS struct {
	M0 []ot.Block
	M1 []ot.Block
	C  []ot.Block
}

// Send sends the message to the connection.
func (m *ExtendFS) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opExtendFS); err != nil {
		return err
	}
	if err := conn.SendBlocks(m.M0); err != nil {
		return err
	}
	if err := conn.SendBlocks(m.M1); err != nil {
		return err
	}
	return conn.SendBlocks(m.C)
}

// ReceiveExtendFS receives an ExtendFS message from the connection.
func ReceiveExtendFS(conn *p2p.Conn) (*ExtendFS, error) {
	if err := conn.ExpectKind(opExtendFS); err != nil {
		return nil, err
	}
	var m ExtendFS
	var err error

	if m.M0, err = conn.ReceiveBlocks(); err != nil {
		return nil, err
	}
	if m.M1, err = conn.ReceiveBlocks(); err != nil {
		return nil, err
	}
	if m.C, err = conn.ReceiveBlocks(); err != nil {
		return nil, err
	}
	return &m, nil
}

// CheckFR is the receiver's half of the batch check: the seed of the
// check weights and the receiver's masked choice bits of the CSP
// sacrificial OTs.
type CheckFR struct {
	ID      uint64
	ChiSeed ot.Block
	XPrime  []byte
}

// Send sends the message to the connection.
func (m *CheckFR) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opCheckFR); err != nil {
		return err
	}
	if err := conn.SendUint64(m.ID); err != nil {
		return err
	}
	if err := conn.SendBlock(m.ChiSeed); err != nil {
		return err
	}
	return conn.SendData(m.XPrime)
}

// ReceiveCheckFR receives a CheckFR message from the connection.
func ReceiveCheckFR(conn *p2p.Conn) (*CheckFR, error) {
	if err := conn.ExpectKind(opCheckFR); err != nil {
		return nil, err
	}
	var m CheckFR
	var err error

	if m.ID, err = conn.ReceiveUint64(); err != nil {
		return nil, err
	}
	if m.ChiSeed, err = conn.ReceiveBlock(); err != nil {
		return nil, err
	}
	if m.XPrime, err = conn.ReceiveData(); err != nil {
		return nil, err
	}
	return &m, nil
}

// CheckFS is the sender's half of the batch check: the digest of the
// sender's check value.
type CheckFS struct {
	Digest [32]byte
}

// Send sends the message to the connection.
func (m *CheckFS) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opCheckFS); err != nil {
		return err
	}
	return conn.SendData(m.Digest[:])
}

// ReceiveCheckFS receives a CheckFS message from the connection.
func ReceiveCheckFS(conn *p2p.Conn) (*CheckFS, error) {
	if err := conn.ExpectKind(opCheckFS); err != nil {
		return nil, err
	}
	data, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(data) != 32 {
		return nil, ErrInvalidPayload
	}
	var m CheckFS
	copy(m.Digest[:], data)
	return &m, nil
}
