//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/aes"
	"crypto/cipher"
)

// The fixed, publicly known AES key of the TCCR permutation pi. The
// value is the first 16 bytes of the binary expansion of the
// fractional part of pi, i.e. a nothing-up-my-sleeve constant. Both
// peers must use the same key or no derived OT key will agree.
var fixedKey = [BlockSize]byte{
	0x24, 0x3f, 0x6a, 0x88, 0x85, 0xa3, 0x08, 0xd3,
	0x13, 0x19, 0x8a, 0x2e, 0x03, 0x70, 0x73, 0x44,
}

var fixedAES cipher.Block

func init() {
	var err error
	fixedAES, err = aes.NewCipher(fixedKey[:])
	if err != nil {
		panic(err)
	}
}

// sigma is the orthomorphic permutation sigma(hi, lo) = (hi^lo, hi).
func sigma(b Block) Block {
	return Block{
		Hi: b.Hi ^ b.Lo,
		Lo: b.Hi,
	}
}

// TCCR computes the tweakable circular correlation-robust hash
//
//	tccr(j, x) = pi(x ^ sigma(j)) ^ sigma(j)
//
// where pi is AES encryption under the fixed key and j is the tweak.
// The extension protocols key every random OT with a session counter
// tweak so that no two OTs share a hash instance.
func TCCR(j, x Block) Block {
	s := sigma(j)
	t := x.Xor(s)

	var buf BlockData
	t.GetData(&buf)
	fixedAES.Encrypt(buf[:], buf[:])

	var r Block
	r.SetData(&buf)
	return r.Xor(s)
}
