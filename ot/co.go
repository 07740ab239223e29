//
// co.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/elliptic"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

var _ OT = &CO{}

// CO implements the Chou-Orlandi simplest OT protocol as the OT
// interface. It is used to bootstrap the base OTs of the extension
// protocols.
type CO struct {
	curve    elliptic.Curve
	rand     io.Reader
	io       IO
	sender   bool
	receiver bool
	id       uint64
}

// NewCO creates a new Chou-Orlandi OT over the NIST P-256 curve.
func NewCO(rand io.Reader) *CO {
	return &CO{
		curve: elliptic.P256(),
		rand:  rand,
	}
}

// InitSender implements OT.InitSender.
func (co *CO) InitSender(io IO) error {
	if co.sender || co.receiver {
		return fmt.Errorf("ot: already initialized")
	}
	co.io = io
	co.sender = true
	return nil
}

// InitReceiver implements OT.InitReceiver.
func (co *CO) InitReceiver(io IO) error {
	if co.sender || co.receiver {
		return fmt.Errorf("ot: already initialized")
	}
	co.io = io
	co.receiver = true
	return nil
}

// Send implements OT.Send.
func (co *CO) Send(wires []Wire) error {
	if !co.sender {
		return fmt.Errorf("ot: not initialized as sender")
	}
	params := co.curve.Params()

	// a <- Zp, A = G^a
	a, err := crand.Int(co.rand, params.N)
	if err != nil {
		return err
	}
	Ax, Ay := co.curve.ScalarBaseMult(a.Bytes())

	// AaInv = (A^a)^-1
	Aax, Aay := co.curve.ScalarMult(Ax, Ay, a.Bytes())
	AaInvy := new(big.Int).Sub(params.P, Aay)

	if err := co.io.SendData(Ax.Bytes()); err != nil {
		return err
	}
	if err := co.io.SendData(Ay.Bytes()); err != nil {
		return err
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	// Read all B points before replying: the receiver sends every
	// point before it reads any ciphertext.
	Bs := make([][2]*big.Int, len(wires))
	for i := range wires {
		bx, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		by, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		Bx := new(big.Int).SetBytes(bx)
		By := new(big.Int).SetBytes(by)
		if !co.curve.IsOnCurve(Bx, By) {
			return fmt.Errorf("ot: point not on curve")
		}
		Bs[i] = [2]*big.Int{Bx, By}
	}

	var buf BlockData
	for i := range wires {
		// k0 = H(B^a), k1 = H(B^a * (A^a)^-1)
		kx, ky := co.curve.ScalarMult(Bs[i][0], Bs[i][1], a.Bytes())
		e0 := kdf(kx, ky, co.id).Xor(wires[i].B0)

		k1x, k1y := co.curve.Add(kx, ky, Aax, AaInvy)
		e1 := kdf(k1x, k1y, co.id).Xor(wires[i].B1)
		co.id++

		if err := co.io.SendData(e0.Bytes(&buf)); err != nil {
			return err
		}
		if err := co.io.SendData(e1.Bytes(&buf)); err != nil {
			return err
		}
	}
	return co.io.Flush()
}

// Receive implements OT.Receive.
func (co *CO) Receive(flags []bool, result []Block) error {
	if !co.receiver {
		return fmt.Errorf("ot: not initialized as receiver")
	}
	params := co.curve.Params()

	ax, err := co.io.ReceiveData()
	if err != nil {
		return err
	}
	ay, err := co.io.ReceiveData()
	if err != nil {
		return err
	}
	Ax := new(big.Int).SetBytes(ax)
	Ay := new(big.Int).SetBytes(ay)
	if !co.curve.IsOnCurve(Ax, Ay) {
		return fmt.Errorf("ot: point not on curve")
	}

	bs := make([]*big.Int, len(flags))
	for i, flag := range flags {
		b, err := crand.Int(co.rand, params.N)
		if err != nil {
			return err
		}
		bs[i] = b

		// B = G^b, or A * G^b when the choice bit is set.
		Bx, By := co.curve.ScalarBaseMult(b.Bytes())
		if flag {
			Bx, By = co.curve.Add(Bx, By, Ax, Ay)
		}
		if err := co.io.SendData(Bx.Bytes()); err != nil {
			return err
		}
		if err := co.io.SendData(By.Bytes()); err != nil {
			return err
		}
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	for i, flag := range flags {
		e0, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		e1, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		if len(e0) != BlockSize || len(e1) != BlockSize {
			return fmt.Errorf("ot: invalid ciphertext")
		}

		// k = H(A^b)
		kx, ky := co.curve.ScalarMult(Ax, Ay, bs[i].Bytes())
		mask := kdf(kx, ky, co.id)
		co.id++

		var e Block
		if flag {
			e.SetBytes(e1)
		} else {
			e.SetBytes(e0)
		}
		result[i] = e.Xor(mask)
	}
	return nil
}

// kdf derives a block mask from the curve point and the transfer
// number.
func kdf(x, y *big.Int, id uint64) Block {
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], id)

	h := sha256.New()
	h.Write(x.Bytes())
	h.Write(y.Bytes())
	h.Write(idBuf[:])

	var b Block
	b.SetBytes(h.Sum(nil)[:BlockSize])
	return b
}
