//
// mpcot.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package mpcot implements the multi-point correlated OT protocol of
// the Ferret paper: for t distinct indices alpha_1..alpha_t in
// [0, n), the parties obtain correlated length-n vectors whose
// correlation offset is Delta exactly at the chosen indices.
//
// The protocol layers over batched SPCOT. The regular variant
// partitions [0, n) into t equal buckets with one chosen index per
// bucket. The uniform variant Cuckoo-hashes the chosen indices into
// about 1.5*t buckets under a receiver-chosen hash seed; the sender
// simulates the hashing over all of [0, n) to learn the bucket
// shapes.
package mpcot

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/markkurossi/otext/lpn"
)

type state int

const (
	stateInitialized state = iota
	statePreExtension
	stateExtension
	stateComplete
	stateError
)

var states = map[state]string{
	stateInitialized:  "Initialized",
	statePreExtension: "PreExtension",
	stateExtension:    "Extension",
	stateComplete:     "Complete",
	stateError:        "Error",
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
	return fmt.Sprintf("mpcot: invalid state: expected %s", e.Expected)
}

// InvalidParametersError is returned when the extension parameters
// violate an invariant.
type InvalidParametersError struct {
	Msg string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("mpcot: invalid parameters: %s", e.Msg)
}

// ErrInvalidPayload is returned on a malformed protocol message.
var ErrInvalidPayload = errors.New("mpcot: invalid payload")

// regularBuckets computes the bucket size and the SPCOT tree depth
// of the regular variant. The noise weight t must divide the code
// length n and every bucket must hold at least two positions.
func regularBuckets(t, n int) (m, h int, err error) {
	if t <= 0 || n <= 0 || n%t != 0 {
		return 0, 0, &InvalidParametersError{
			Msg: "number of indices does not divide range",
		}
	}
	m = n / t
	if m < 2 {
		return 0, 0, &InvalidParametersError{
			Msg: "bucket size too small",
		}
	}
	return m, bits.Len(uint(m - 1)), nil
}

func checkType(typ lpn.Type) error {
	switch typ {
	case lpn.Uniform, lpn.Regular:
		return nil
	default:
		return &InvalidParametersError{
			Msg: "unknown LPN type",
		}
	}
}
