//
// spcot.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package spcot implements the single-point correlated OT protocol
// of the Ferret paper (Yang et al., CCS 2020). For a tree depth h
// and a receiver-chosen index alpha, the sender obtains a vector v
// of 2^h blocks and the receiver obtains w with w[i] = v[i] for all
// i != alpha and w[alpha] = v[alpha] ^ Delta, with alpha hidden from
// the sender.
//
// The protocol consumes a random correlated OT oracle: h OTs per
// tree for the GGM sibling keys, and CSP further OTs for the batch
// consistency check. Extension is batched; the check covers all
// extensions since the previous check. Extension and check are
// serialized per role.
package spcot

import (
	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// CSP is the computational security parameter.
const CSP = 128

// RCOTSender provides random correlated OTs to the sender role.
type RCOTSender interface {
	SendRandomCorrelated(conn *p2p.Conn, count int) (
		*ot.RCOTSenderOutput, error)
}

// RCOTReceiver provides random correlated OTs to the receiver role.
type RCOTReceiver interface {
	ReceiveRandomCorrelated(conn *p2p.Conn, count int) (
		*ot.RCOTReceiverOutput, error)
}

type state int

const (
	stateInitialized state = iota
	stateExtension
	stateComplete
	stateError
)

var states = map[state]string{
	stateInitialized: "Initialized",
	stateExtension:   "Extension",
	stateComplete:    "Complete",
	stateError:       "Error",
}

func (s state) String() string {
	name, ok := states[s]
	if ok {
		return name
	}
	return "Unknown"
}

// tweak returns the TCCR tweak of the mask i of the exec'th tree
// expansion. Every tree of the session gets distinct tweaks.
func tweak(exec uint64, i int) ot.Block {
	return ot.Block{
		Hi: exec,
		Lo: uint64(i),
	}
}
