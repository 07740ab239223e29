//
// ferret.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package ferret implements the Ferret pseudorandom correlated OT
// generator (Yang et al., CCS 2020). Setup consumes k base random
// correlated OTs and a shared LPN seed; every extension iteration
// obtains t-point correlated vectors from MPCOT, encodes them with
// the sparse LPN code, re-seeds the first k outputs as the next
// iteration's base, and hands the remaining l = n - k outputs to the
// caller.
//
// The roles expose the streaming random correlated OT interface:
// SendRandomCorrelated and ReceiveRandomCorrelated loop the
// iteration until the requested count is produced, buffering any
// leftover for the next call. Output batches carry monotonically
// increasing IDs that must match between the peers.
package ferret

import (
	"fmt"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

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

// InvalidStateError is returned when a role is invoked in the wrong
// state. The error is not recoverable: the role latches into the
// error state.
type InvalidStateError struct {
	Expected string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("ferret: invalid state: expected %s", e.Expected)
}

// Protocol message kinds.
const (
	opLpnSeed = iota + 1
)

// LpnSeed carries the receiver's seed of the shared LPN matrix.
type LpnSeed struct {
	Seed ot.Block
}

// Send sends the message to the connection.
func (m *LpnSeed) Send(conn *p2p.Conn) error {
	if err := conn.SendKind(opLpnSeed); err != nil {
		return err
	}
	return conn.SendBlock(m.Seed)
}

// ReceiveLpnSeed receives an LpnSeed message from the connection.
func ReceiveLpnSeed(conn *p2p.Conn) (*LpnSeed, error) {
	if err := conn.ExpectKind(opLpnSeed); err != nil {
		return nil, err
	}
	seed, err := conn.ReceiveBlock()
	if err != nil {
		return nil, err
	}
	return &LpnSeed{
		Seed: seed,
	}, nil
}

// queryAlphas derives the chosen indices of one MPCOT query. The
// indices are pseudorandom, derived from the LPN seed and the
// iteration counter so that repeated runs are deterministic: for the
// regular type one index per n/t bucket, for the uniform type t
// distinct indices in [0, n).
func queryAlphas(lpnSeed ot.Block, iter uint64, uniform bool,
	n, t int) []int {

	prg := ot.NewPRG(ot.TCCR(ot.NewTweak(iter), lpnSeed))

	alphas := make([]int, 0, t)
	if uniform {
		seen := make(map[int]bool)
		for len(alphas) < t {
			v := int(prg.Uint32() % uint32(n))
			if seen[v] {
				continue
			}
			seen[v] = true
			alphas = append(alphas, v)
		}
	} else {
		m := n / t
		for j := 0; j < t; j++ {
			alphas = append(alphas, j*m+int(prg.Uint32()%uint32(m)))
		}
	}
	return alphas
}
