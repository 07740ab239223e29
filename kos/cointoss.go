//
// cointoss.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kos

import (
	"bytes"
	"io"

	"github.com/zeebo/blake3"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// The correlation check seed must be unbiased: neither party may
// choose it alone. The seed is agreed with a commit-then-reveal coin
// toss where the sender commits to its share before seeing the
// receiver's. The toss runs strictly after the receiver's last
// outstanding Extend message.

func cointossSender(conn *p2p.Conn, rand io.Reader) (ot.Block, error) {
	share, err := ot.NewBlock(rand)
	if err != nil {
		return ot.ZeroBlock, err
	}
	var buf ot.BlockData
	commitment := blake3.Sum256(share.Bytes(&buf))

	if err := conn.SendKind(opCommitment); err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.SendData(commitment[:]); err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.Flush(); err != nil {
		return ot.ZeroBlock, err
	}

	if err := conn.ExpectKind(opCoinShare); err != nil {
		return ot.ZeroBlock, err
	}
	peer, err := conn.ReceiveBlock()
	if err != nil {
		return ot.ZeroBlock, err
	}

	if err := conn.SendKind(opCoinShare); err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.SendBlock(share); err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.Flush(); err != nil {
		return ot.ZeroBlock, err
	}

	return share.Xor(peer), nil
}

func cointossReceiver(conn *p2p.Conn, rand io.Reader) (ot.Block, error) {
	if err := conn.ExpectKind(opCommitment); err != nil {
		return ot.ZeroBlock, err
	}
	commitment, err := conn.ReceiveData()
	if err != nil {
		return ot.ZeroBlock, err
	}

	share, err := ot.NewBlock(rand)
	if err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.SendKind(opCoinShare); err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.SendBlock(share); err != nil {
		return ot.ZeroBlock, err
	}
	if err := conn.Flush(); err != nil {
		return ot.ZeroBlock, err
	}

	if err := conn.ExpectKind(opCoinShare); err != nil {
		return ot.ZeroBlock, err
	}
	peer, err := conn.ReceiveBlock()
	if err != nil {
		return ot.ZeroBlock, err
	}

	var buf ot.BlockData
	digest := blake3.Sum256(peer.Bytes(&buf))
	if !bytes.Equal(digest[:], commitment) {
		return ot.ZeroBlock, ErrConsistencyCheckFailed
	}

	return share.Xor(peer), nil
}
