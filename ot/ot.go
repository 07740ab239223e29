//
// ot.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package ot implements the primitives and base interfaces of the
// oblivious transfer extension protocols: 128-bit blocks with
// carry-less and GF(2^128) arithmetic, the fixed-key AES TCCR hash,
// bit-packed matrices, seed-expanding PRGs, the base 1-out-of-2 OT
// interface with a Chou-Orlandi instantiation, and the random
// correlated OT output types shared by the extension protocols.
package ot

// OT defines the base 1-out-of-2 Oblivious Transfer protocol. The
// sender uses the Send function to send a []Wire array where each
// wire has zero and one Block. The receiver calls Receive with a
// []bool array of selection bits. The higher level protocol must
// ensure the []Wire and []bool array lengths match.
type OT interface {
	// InitSender initializes the OT sender.
	InitSender(io IO) error

	// InitReceiver initializes the OT receiver.
	InitReceiver(io IO) error

	// Send sends the wire blocks with OT.
	Send(wires []Wire) error

	// Receive receives the wire blocks with OT based on the flag
	// values.
	Receive(flags []bool, result []Block) error
}

// Wire implements a wire with 0 and 1 blocks.
type Wire struct {
	B0 Block
	B1 Block
}

// IO defines an I/O interface to communicate between peers.
type IO interface {
	// SendData sends binary data.
	SendData(val []byte) error

	// SendUint32 sends an uint32 value.
	SendUint32(val int) error

	// Flush flushed any pending data in the connection.
	Flush() error

	// ReceiveData receives binary data.
	ReceiveData() ([]byte, error)

	// ReceiveUint32 receives an uint32 value.
	ReceiveUint32() (int, error)
}

// RCOTSenderOutput contains one batch of random correlated OTs for
// the sender: Msgs[i] and Msgs[i] ^ Delta are the two random
// messages of OT i. The ID is a monotonically increasing batch
// number that must match the receiver's batch ID.
type RCOTSenderOutput struct {
	ID   uint64
	Msgs []Block
}

// RCOTReceiverOutput contains one batch of random correlated OTs for
// the receiver: Msgs[i] is the message selected by the random choice
// bit Choices[i].
type RCOTReceiverOutput struct {
	ID      uint64
	Choices []bool
	Msgs    []Block
}
