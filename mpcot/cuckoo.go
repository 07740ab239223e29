//
// cuckoo.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpcot

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"math/bits"
	"sort"

	"github.com/markkurossi/otext/ot"
)

// The uniform variant hashes indices with three AES-derived hash
// functions into m = ceil(1.5*t) buckets.
const (
	numHashes = 3
)

type cuckoo struct {
	m      int
	cipher cipher.Block
}

func newCuckoo(seed ot.Block, t int) *cuckoo {
	var key ot.BlockData
	seed.GetData(&key)

	c, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	return &cuckoo{
		m:      (3*t + 1) / 2,
		cipher: c,
	}
}

// hash computes the i'th hash of the value.
func (c *cuckoo) hash(i int, x uint32) int {
	in := ot.Block{
		Hi: uint64(i),
		Lo: uint64(x),
	}
	var buf ot.BlockData
	in.GetData(&buf)
	c.cipher.Encrypt(buf[:], buf[:])

	return int(binary.BigEndian.Uint32(buf[12:16]) % uint32(c.m))
}

// insert places the values into the table with Cuckoo eviction. It
// returns the table: the value held by each bucket, or -1 for an
// empty bucket.
func (c *cuckoo) insert(values []uint32) ([]int64, error) {
	table := make([]int64, c.m)
	hashes := make([]int, c.m)
	for i := range table {
		table[i] = -1
	}

	maxIter := 100 * (len(values) + 1)
	for _, v := range values {
		cur := v
		hidx := 0
		for iter := 0; ; iter++ {
			if iter > maxIter {
				return nil, &InvalidParametersError{
					Msg: "cuckoo insertion failed",
				}
			}
			b := c.hash(hidx, cur)
			if table[b] < 0 {
				table[b] = int64(cur)
				hashes[b] = hidx
				break
			}
			// Evict the occupant and reinsert it with its next
			// hash function.
			old := uint32(table[b])
			oldHash := hashes[b]
			table[b] = int64(cur)
			hashes[b] = hidx

			cur = old
			hidx = (oldHash + 1) % numHashes
		}
	}
	return table, nil
}

// buckets computes the candidate list of every bucket: the values in
// [0, n) hashing into the bucket with any of the hash functions,
// ascending, each value listed once.
func (c *cuckoo) buckets(n int) [][]uint32 {
	lists := make([][]uint32, c.m)

	var bs [numHashes]int
	for x := 0; x < n; x++ {
		for i := 0; i < numHashes; i++ {
			b := c.hash(i, uint32(x))
			bs[i] = b

			dup := false
			for j := 0; j < i; j++ {
				if bs[j] == b {
					dup = true
					break
				}
			}
			if !dup {
				lists[b] = append(lists[b], uint32(x))
			}
		}
	}
	return lists
}

// bucketDepth returns the SPCOT tree depth of a bucket: the domain
// must cover the candidate list plus one dummy slot.
func bucketDepth(size int) int {
	return bits.Len(uint(size))
}

// bucketPos returns the position of the value in the bucket's
// candidate list.
func bucketPos(list []uint32, x uint32) int {
	return sort.Search(len(list), func(i int) bool {
		return list[i] >= x
	})
}
