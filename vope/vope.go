//
// vope.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package vope implements vector oblivious polynomial evaluation
// over GF(2^128) (Figure 4 of Weng et al., eprint 2021/076). One
// extension of degree d consumes (2d-1)*CSP random correlated OTs
// and produces a sender evaluation share b and receiver coefficient
// shares a_0..a_d with
//
//	b = a_0 ^ a_1*Delta ^ ... ^ a_d*Delta^d
//
// where Delta is the correlation of the underlying OT oracle. The
// protocol is local recombination over the correlated randomness; no
// messages beyond the OT extension itself are exchanged. The
// construction is only suitable for small degrees d.
package vope

import (
	"fmt"
)

// CSP is the computational security parameter.
const CSP = 128

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
// state. The error is not recoverable.
type InvalidStateError struct {
	Expected string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("vope: invalid state: expected %s", e.Expected)
}

// InvalidParametersError is returned when the polynomial degree is
// out of range.
type InvalidParametersError struct {
	Msg string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("vope: invalid parameters: %s", e.Msg)
}
