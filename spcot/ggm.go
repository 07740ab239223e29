//
// ggm.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package spcot

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/markkurossi/otext/ot"
)

// The GGM tree derives the two children of a node with the
// length-doubling PRG
//
//	left = pi0(s) ^ s, right = pi1(s) ^ s
//
// where pi0 and pi1 are AES encryptions under two fixed, publicly
// known keys: the second and third 16-byte groups of the binary
// expansion of the fractional part of pi. (The first group keys the
// TCCR hash.)
var (
	ggmKey0 = [16]byte{
		0xa4, 0x09, 0x38, 0x22, 0x29, 0x9f, 0x31, 0xd0,
		0x08, 0x2e, 0xfa, 0x98, 0xec, 0x4e, 0x6c, 0x89,
	}
	ggmKey1 = [16]byte{
		0x45, 0x28, 0x21, 0xe6, 0x38, 0xd0, 0x13, 0x77,
		0xbe, 0x54, 0x66, 0xcf, 0x34, 0xe9, 0x0c, 0x6c,
	}

	ggmAES0 cipher.Block
	ggmAES1 cipher.Block
)

func init() {
	var err error
	ggmAES0, err = aes.NewCipher(ggmKey0[:])
	if err != nil {
		panic(err)
	}
	ggmAES1, err = aes.NewCipher(ggmKey1[:])
	if err != nil {
		panic(err)
	}
}

func ggmChildren(s ot.Block) (left, right ot.Block) {
	var buf ot.BlockData

	s.GetData(&buf)
	ggmAES0.Encrypt(buf[:], buf[:])
	left.SetData(&buf)
	left = left.Xor(s)

	s.GetData(&buf)
	ggmAES1.Encrypt(buf[:], buf[:])
	right.SetData(&buf)
	right = right.Xor(s)

	return
}

// ggmExpand expands a GGM tree of depth h from the seed. It returns
// the 2^h leaves and the per-level sibling sums: k0[i] is the XOR of
// all left children at depth i+1 and k1[i] the XOR of all right
// children.
func ggmExpand(h int, seed ot.Block) (leaves, k0, k1 []ot.Block) {
	k0 = make([]ot.Block, h)
	k1 = make([]ot.Block, h)

	nodes := []ot.Block{seed}
	for i := 0; i < h; i++ {
		next := make([]ot.Block, 0, len(nodes)*2)
		for _, n := range nodes {
			l, r := ggmChildren(n)
			k0[i] = k0[i].Xor(l)
			k1[i] = k1[i].Xor(r)
			next = append(next, l, r)
		}
		nodes = next
	}
	return nodes, k0, k1
}

// ggmReconstruct reconstructs all leaves of a depth-h GGM tree
// except the one at alpha. The ks are the recovered sibling sums:
// ks[i] is k0[i] when bit i of alpha (MSB-first) is set, k1[i]
// otherwise. The leaf at alpha is left zero; reconstruction is
// deterministic and consumes exactly h sibling sums.
func ggmReconstruct(h, alpha int, ks []ot.Block) []ot.Block {
	level := make([]ot.Block, 1)
	path := 0

	for i := 0; i < h; i++ {
		bit := (alpha >> (h - 1 - i)) & 1

		next := make([]ot.Block, len(level)*2)
		var sum ot.Block
		for j, n := range level {
			if j == path {
				continue
			}
			l, r := ggmChildren(n)
			next[2*j] = l
			next[2*j+1] = r
			if bit == 1 {
				sum = sum.Xor(l)
			} else {
				sum = sum.Xor(r)
			}
		}

		// Recover the sibling of the path node from the level's
		// sibling sum.
		sib := ks[i].Xor(sum)
		if bit == 1 {
			next[2*path] = sib
			path = 2*path + 1
		} else {
			next[2*path+1] = sib
			path = 2 * path
		}
		level = next
	}
	return level
}
