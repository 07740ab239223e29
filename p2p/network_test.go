//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/otext/ot"
)

func TestNetwork(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	block := ot.Block{Lo: 1, Hi: 2}
	var recvd ot.Block

	g := new(errgroup.Group)
	g.Go(func() error {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.SendBlock(block); err != nil {
			return err
		}
		return conn.Flush()
	})
	g.Go(func() error {
		conn, err := Dial(l.Addr())
		if err != nil {
			return err
		}
		defer conn.Close()

		recvd, err = conn.ReceiveBlock()
		return err
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if !recvd.Equal(block) {
		t.Fatalf("got %v, expected %v", recvd, block)
	}
}
