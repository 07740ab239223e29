//
// worker.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package worker offloads CPU-bound protocol work (matrix transpose,
// GGM tree expansion, LPN encoding) from the protocol goroutines to a
// bounded set of workers. The protocol roles are single-threaded;
// their only suspension points are connection I/O and pool waits.
package worker

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs CPU-bound work on a bounded number of goroutines.
type Pool struct {
	limit int
}

// NewPool creates a new pool. If limit is non-positive, the pool size
// is the number of usable CPUs.
func NewPool(limit int) *Pool {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		limit: limit,
	}
}

// Run executes f on a worker goroutine and waits for its completion.
func (p *Pool) Run(f func() error) error {
	ch := make(chan error, 1)
	go func() {
		ch <- f()
	}()
	return <-ch
}

// ForEach runs f for every index in [0, n), sharded over the pool,
// and waits for all shards. The function f must not touch shared
// state of other indices.
func (p *Pool) ForEach(n int, f func(i int) error) error {
	g := new(errgroup.Group)
	g.SetLimit(p.limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return f(i)
		})
	}
	return g.Wait()
}
