//
// conn.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the peer-to-peer message channel of the OT
// extension protocols: an ordered, typed, length-prefixed framing
// over any reliable byte stream, and an in-memory pipe for tests.
package p2p

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/otext/ot"
)

// Conn implements an ordered peer connection. All values are encoded
// big-endian; binary data is length-prefixed and protocol messages
// start with a kind tag.
type Conn struct {
	closer io.Closer
	io     *bufio.ReadWriter
	Stats  IOStats
}

// IOStats counts the bytes sent and received on the connection.
type IOStats struct {
	Sent  uint64
	Recvd uint64
}

// Sub returns the difference of the stats.
func (stats IOStats) Sub(o IOStats) IOStats {
	return IOStats{
		Sent:  stats.Sent - o.Sent,
		Recvd: stats.Recvd - o.Recvd,
	}
}

// Sum returns the sum of the sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent + stats.Recvd
}

// NewConn creates a new connection over the I/O stream.
func NewConn(conn io.ReadWriter) *Conn {
	closer, _ := conn.(io.Closer)

	return &Conn{
		closer: closer,
		io: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
	}
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	return c.io.Flush()
}

// Close flushes and closes the connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	err := binary.Write(c.io, binary.BigEndian, uint32(val))
	if err != nil {
		return err
	}
	c.Stats.Sent += 4
	return nil
}

// SendUint64 sends an uint64 value.
func (c *Conn) SendUint64(val uint64) error {
	err := binary.Write(c.io, binary.BigEndian, val)
	if err != nil {
		return err
	}
	c.Stats.Sent += 8
	return nil
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	err := c.SendUint32(len(val))
	if err != nil {
		return err
	}
	_, err = c.io.Write(val)
	if err != nil {
		return err
	}
	c.Stats.Sent += uint64(len(val))
	return nil
}

// SendBlock sends a block.
func (c *Conn) SendBlock(b ot.Block) error {
	var buf ot.BlockData
	b.GetData(&buf)

	_, err := c.io.Write(buf[:])
	if err != nil {
		return err
	}
	c.Stats.Sent += ot.BlockSize
	return nil
}

// SendBlocks sends a length-prefixed array of blocks.
func (c *Conn) SendBlocks(blocks []ot.Block) error {
	if err := c.SendUint32(len(blocks)); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := c.SendBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	var buf [4]byte

	_, err := io.ReadFull(c.io, buf[:])
	if err != nil {
		return 0, err
	}
	c.Stats.Recvd += 4

	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// ReceiveUint64 receives an uint64 value.
func (c *Conn) ReceiveUint64() (uint64, error) {
	var buf [8]byte

	_, err := io.ReadFull(c.io, buf[:])
	if err != nil {
		return 0, err
	}
	c.Stats.Recvd += 8

	return binary.BigEndian.Uint64(buf[:]), nil
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	len, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}

	result := make([]byte, len)
	_, err = io.ReadFull(c.io, result)
	if err != nil {
		return nil, err
	}
	c.Stats.Recvd += uint64(len)

	return result, nil
}

// ReceiveBlock receives a block.
func (c *Conn) ReceiveBlock() (ot.Block, error) {
	var buf ot.BlockData
	var b ot.Block

	_, err := io.ReadFull(c.io, buf[:])
	if err != nil {
		return b, err
	}
	c.Stats.Recvd += ot.BlockSize

	b.SetData(&buf)
	return b, nil
}

// ReceiveBlocks receives a length-prefixed array of blocks.
func (c *Conn) ReceiveBlocks() ([]ot.Block, error) {
	count, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	blocks := make([]ot.Block, count)
	for i := 0; i < count; i++ {
		blocks[i], err = c.ReceiveBlock()
		if err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

// SendKind sends a protocol message kind tag.
func (c *Conn) SendKind(kind int) error {
	return c.SendUint32(kind)
}

// ExpectKind receives a message kind tag and verifies it against the
// expected kind. The protocols send their messages in a fixed order;
// an unexpected kind is a fatal protocol error.
func (c *Conn) ExpectKind(kind int) error {
	got, err := c.ReceiveUint32()
	if err != nil {
		return err
	}
	if got != kind {
		return fmt.Errorf("p2p: unexpected message kind %v, expected %v",
			got, kind)
	}
	return nil
}
