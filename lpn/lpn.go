//
// lpn.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package lpn implements the sparse binary linear code of the Ferret
// protocol. The code is an n x k matrix A with D ones per row,
// derived deterministically from a shared seed so that both peers
// expand the same matrix. Encoding computes A*v + s over blocks
// (GF(2^128) vectors) and A*u + e over choice bits (GF(2) vectors).
package lpn

import (
	"fmt"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/worker"
)

// D is the number of nonzero entries per code row.
const D = 10

// Type selects the LPN noise distribution.
type Type int

// LPN noise distributions.
const (
	// Uniform noise: t uniformly random distinct noisy positions in
	// [0, n).
	Uniform Type = iota

	// Regular noise: [0, n) is partitioned into t equal buckets with
	// one noisy position per bucket.
	Regular
)

var types = map[Type]string{
	Uniform: "Uniform",
	Regular: "Regular",
}

func (t Type) String() string {
	name, ok := types[t]
	if ok {
		return name
	}
	return "Unknown"
}

// Parameters contains the LPN parameters: the code length N, the
// dimension K, and the noise weight T.
type Parameters struct {
	N int
	K int
	T int
}

// InvalidParametersError is returned when the parameters violate an
// invariant of the LPN type.
type InvalidParametersError struct {
	Msg string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("lpn: invalid parameters: %s", e.Msg)
}

// Validate checks the parameter invariants: n > k >= t > 0,
// t <= n - k, and for the regular noise distribution t must divide n.
func (p Parameters) Validate(typ Type) error {
	if p.K <= 0 || p.T <= 0 {
		return &InvalidParametersError{
			Msg: "dimension and noise weight must be positive",
		}
	}
	if p.N <= p.K {
		return &InvalidParametersError{
			Msg: "code length must exceed dimension",
		}
	}
	if p.T > p.K {
		return &InvalidParametersError{
			Msg: "noise weight exceeds dimension",
		}
	}
	if p.T > p.N-p.K {
		return &InvalidParametersError{
			Msg: "noise weight exceeds output length",
		}
	}
	if typ == Regular && p.N%p.T != 0 {
		return &InvalidParametersError{
			Msg: "noise weight does not divide code length",
		}
	}
	return nil
}

// Encoder expands a seed into the sparse code matrix and computes
// products against it.
type Encoder struct {
	params Parameters
	pool   *worker.Pool
	idx    []uint32
}

// NewEncoder creates a new encoder for the parameters, expanding the
// row indices from the seed.
func NewEncoder(params Parameters, seed ot.Block, pool *worker.Pool) *Encoder {
	idx := make([]uint32, params.N*D)

	prg := ot.NewPRG(seed)
	for i := range idx {
		idx[i] = prg.Uint32() % uint32(params.K)
	}
	return &Encoder{
		params: params,
		pool:   pool,
		idx:    idx,
	}
}

// Encode computes out[i] = s[i] ^ sum_d v[A[i][d]] for the length-n
// input s and the length-k base v.
func (e *Encoder) Encode(s, v []ot.Block) ([]ot.Block, error) {
	if len(s) != e.params.N || len(v) != e.params.K {
		return nil, &InvalidParametersError{
			Msg: "input length does not match code",
		}
	}
	out := make([]ot.Block, e.params.N)
	err := e.pool.ForEach(e.params.N, func(i int) error {
		acc := s[i]
		for d := 0; d < D; d++ {
			acc = acc.Xor(v[e.idx[i*D+d]])
		}
		out[i] = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeBits computes the GF(2) product out[i] = eBits[i] ^
// xor_d u[A[i][d]] for the length-n noise eBits and the length-k
// base u.
func (e *Encoder) EncodeBits(eBits, u []bool) ([]bool, error) {
	if len(eBits) != e.params.N || len(u) != e.params.K {
		return nil, &InvalidParametersError{
			Msg: "input length does not match code",
		}
	}
	out := make([]bool, e.params.N)
	err := e.pool.ForEach(e.params.N, func(i int) error {
		acc := eBits[i]
		for d := 0; d < D; d++ {
			acc = acc != u[e.idx[i*D+d]]
		}
		out[i] = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
