//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// PRG implements a deterministic pseudo-random generator expanding a
// 16-byte seed block into an unbounded byte stream.
type PRG struct {
	stream cipher.Stream
}

// NewPRG creates an AES-CTR PRG from the seed.
func NewPRG(seed Block) *PRG {
	var key BlockData
	seed.GetData(&key)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	var iv [aes.BlockSize]byte

	return &PRG{
		stream: cipher.NewCTR(block, iv[:]),
	}
}

// NewChaChaPRG creates a ChaCha20 PRG from the seed. The 32-byte
// cipher key is the 16-byte seed copied cyclically and the nonce is
// zero. The stretch is part of the wire contract: the extension
// transcripts of the two peers agree only if both expand their base
// OT seeds this way.
func NewChaChaPRG(seed Block) *PRG {
	var data BlockData
	seed.GetData(&data)

	var key [32]byte
	for i := range key {
		key[i] = data[i%BlockSize]
	}
	var nonce [chacha20.NonceSize]byte

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic(err)
	}
	return &PRG{
		stream: c,
	}
}

// Fill fills buf with pseudo-random bytes.
func (g *PRG) Fill(buf []byte) {
	// Clear buffer as it may be shared between different caller's
	// iterations.
	for i := 0; i < len(buf); i++ {
		buf[i] = 0
	}
	g.stream.XORKeyStream(buf, buf)
}

// Read implements io.Reader, making a PRG usable as an injectable
// randomness source in tests.
func (g *PRG) Read(p []byte) (int, error) {
	g.Fill(p)
	return len(p), nil
}

// Block returns the next pseudo-random block.
func (g *PRG) Block() Block {
	var buf BlockData
	g.Fill(buf[:])

	var b Block
	b.SetData(&buf)
	return b
}

// Blocks fills out with pseudo-random blocks.
func (g *PRG) Blocks(out []Block) {
	for i := range out {
		out[i] = g.Block()
	}
}

// Uint32 returns the next pseudo-random 32-bit value.
func (g *PRG) Uint32() uint32 {
	var buf [4]byte
	g.Fill(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

// Bools fills out with pseudo-random bits, expanded from bytes
// LSB-first.
func (g *PRG) Bools(out []bool) {
	buf := make([]byte, (len(out)+7)/8)
	g.Fill(buf)
	for i := range out {
		out[i] = (buf[i/8]>>(i%8))&1 == 1
	}
}
