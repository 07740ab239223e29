//
// msgs.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpcot

import (
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// Protocol message kinds.
const (
	opHashSeed = iota + 1
)

// HashSeed carries the receiver's Cuckoo hash seed. It is sent only
// by the uniform variant.
type HashSeed struct {
	Seed ot.Block
}

// Send sends the message to the connection.
func (m *HashSeed) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opHashSeed); err != nil {
		return err
	}
	return conn.SendBlock(m.Seed)
}

// ReceiveHashSeed receives a HashSeed message from the connection.
func ReceiveHashSeed(conn *p2p.Conn) (*HashSeed, error) {
	if err := conn.ExpectKind(opHashSeed); err != nil {
		return nil, err
	}
	seed, err := conn.ReceiveBlock()
	if err != nil {
		return nil, err
	}
	return &HashSeed{
		Seed: seed,
	}, nil
}
