//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kos

import (
	"errors"
	"testing"

	"github.com/markkurossi/otext/ot"
)

// newTestPair creates a sender and receiver pair with matching base
// setup, all randomness derived from the seed.
func newTestPair(t *testing.T, seed uint64,
	sc SenderConfig, rc ReceiverConfig) (*Sender, *Receiver, ot.Block) {

	t.Helper()

	prg := ot.NewPRG(ot.Block{Lo: seed})

	delta := prg.Block()
	seeds := make([][2]ot.Block, CSP)
	senderSeeds := make([]ot.Block, CSP)
	for i := range seeds {
		seeds[i] = [2]ot.Block{prg.Block(), prg.Block()}
		senderSeeds[i] = seeds[i][delta.Bit(i)]
	}

	sender := NewSender(sc, ot.NewPRG(ot.Block{Lo: seed, Hi: 1}))
	receiver := NewReceiver(rc, ot.NewPRG(ot.Block{Lo: seed, Hi: 2}))

	if err := sender.BaseSetup(delta, senderSeeds); err != nil {
		t.Fatal(err)
	}
	if err := receiver.BaseSetup(seeds); err != nil {
		t.Fatal(err)
	}
	return sender, receiver, delta
}

// extendAndCheck streams the extension rounds and runs the check.
func extendAndCheck(t *testing.T, sender *Sender, receiver *Receiver,
	chiSeed ot.Block, counts ...int) {

	t.Helper()

	for _, count := range counts {
		ext, err := receiver.Extend(count)
		if err != nil {
			t.Fatal(err)
		}
		if err := sender.Extend(count, ext); err != nil {
			t.Fatal(err)
		}
	}
	check, err := receiver.Check(chiSeed)
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.Check(chiSeed, check); err != nil {
		t.Fatal(err)
	}
}

// verifyPools checks the random correlated OT invariant and the key
// agreement of the checked pools.
func verifyPools(t *testing.T, sender *Sender, receiver *Receiver,
	delta ot.Block) {

	t.Helper()

	if len(sender.qs) != len(receiver.ts) {
		t.Fatalf("pool sizes disagree: %d != %d",
			len(sender.qs), len(receiver.ts))
	}
	for j := range sender.qs {
		exp := sender.qs[j]
		if receiver.choices[j] {
			exp = exp.Xor(delta)
		}
		if !receiver.ts[j].Equal(exp) {
			t.Fatalf("correlation broken at %d", j)
		}

		key := ot.TCCR(ot.NewTweak(sender.qTweaks[j]), exp)
		if !receiver.keys[j].Equal(key) {
			t.Fatalf("key disagreement at %d", j)
		}
	}
}

func TestExtendCheck(t *testing.T) {
	sender, receiver, delta := newTestPair(t, 1,
		SenderConfig{}, ReceiverConfig{})

	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0x1111}, 1024)

	if len(sender.qs) != 1024-(CSP+SSP) {
		t.Fatalf("bad pool size: %d", len(sender.qs))
	}
	verifyPools(t, sender, receiver, delta)
}

func TestExtendStreaming(t *testing.T) {
	sender, receiver, delta := newTestPair(t, 2,
		SenderConfig{}, ReceiverConfig{})

	// Multiple extends commit before a single check.
	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0x2222}, 192, 256, 64)

	if len(sender.qs) != 512-(CSP+SSP) {
		t.Fatalf("bad pool size: %d", len(sender.qs))
	}
	verifyPools(t, sender, receiver, delta)

	// A second extend-check round accumulates into the pools with
	// the session counter still increasing.
	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0x3333}, 320)
	if len(sender.qs) != 256+64 {
		t.Fatalf("bad pool size: %d", len(sender.qs))
	}
	verifyPools(t, sender, receiver, delta)

	if receiver.counter != 832 || sender.counter != 832 {
		t.Fatalf("bad session counters: %d, %d",
			receiver.counter, sender.counter)
	}
}

func TestExtendRoundUp(t *testing.T) {
	_, receiver, _ := newTestPair(t, 3, SenderConfig{}, ReceiverConfig{})

	ext, err := receiver.Extend(100)
	if err != nil {
		t.Fatal(err)
	}
	if ext.Count != 128 {
		t.Fatalf("count not rounded up: %d", ext.Count)
	}
	if len(ext.Us) != CSP*128/8 {
		t.Fatalf("bad us size: %d", len(ext.Us))
	}
}

func TestExtendZero(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 4,
		SenderConfig{}, ReceiverConfig{})

	ext, err := receiver.Extend(0)
	if err != nil {
		t.Fatal(err)
	}
	if ext.Count != 0 {
		t.Fatalf("bad count: %d", ext.Count)
	}
	if err := sender.Extend(0, ext); err != nil {
		t.Fatal(err)
	}
	if len(sender.uncheckedQs) != 0 || len(receiver.uncheckedTs) != 0 {
		t.Fatal("extend(0) extended OTs")
	}
	if sender.counter != 0 || receiver.counter != 0 {
		t.Fatal("extend(0) advanced the counter")
	}
}

func TestCountMismatch(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 5,
		SenderConfig{}, ReceiverConfig{})

	ext, err := receiver.Extend(128)
	if err != nil {
		t.Fatal(err)
	}
	err = sender.Extend(256, ext)

	var mismatch *CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, expected count mismatch", err)
	}

	// The error is fatal: the sender is latched.
	var invalid *InvalidStateError
	if !errors.As(sender.Extend(128, ext), &invalid) {
		t.Fatal("sender did not latch into the error state")
	}
}

func TestDerandomizedTransfer(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 6,
		SenderConfig{}, ReceiverConfig{})

	const count = 128
	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0x6666},
		count+CSP+SSP)

	// Chosen messages (0, 1) per slot; choices 0x55...
	msgs := make([][2]ot.Block, count)
	choices := make([]bool, count)
	for i := 0; i < count; i++ {
		msgs[i] = [2]ot.Block{{}, {Lo: 1}}
		choices[i] = i%2 == 0
	}

	derand, err := receiver.Derandomize(choices)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := sender.Send(msgs, derand)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Ciphertexts) != 2*count {
		t.Fatalf("bad payload size: %d", len(payload.Ciphertexts))
	}
	plaintexts, err := receiver.Receive(payload)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range choices {
		exp := ot.Block{}
		if c {
			exp = ot.Block{Lo: 1}
		}
		if !plaintexts[i].Equal(exp) {
			t.Fatalf("plaintext %d: got %v, expected %v",
				i, plaintexts[i], exp)
		}
	}
}

func TestMultiRoundTransfer(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 7,
		SenderConfig{}, ReceiverConfig{})

	// Transfers crossing a second extend-check round must still
	// agree on the per-OT keys.
	for round := 0; round < 3; round++ {
		const count = 64
		extendAndCheck(t, sender, receiver,
			ot.Block{Lo: 0x7000 + uint64(round)}, count+CSP+SSP)

		msgs := make([][2]ot.Block, count)
		choices := make([]bool, count)
		for i := 0; i < count; i++ {
			msgs[i] = [2]ot.Block{
				{Lo: uint64(round)},
				{Lo: uint64(round), Hi: 1},
			}
			choices[i] = (i+round)%3 == 0
		}
		derand, err := receiver.Derandomize(choices)
		if err != nil {
			t.Fatal(err)
		}
		payload, err := sender.Send(msgs, derand)
		if err != nil {
			t.Fatal(err)
		}
		plaintexts, err := receiver.Receive(payload)
		if err != nil {
			t.Fatal(err)
		}
		for i, c := range choices {
			exp := msgs[i][0]
			if c {
				exp = msgs[i][1]
			}
			if !plaintexts[i].Equal(exp) {
				t.Fatalf("round %d plaintext %d: got %v, expected %v",
					round, i, plaintexts[i], exp)
			}
		}
	}
}

func TestCheckFailure(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 8,
		SenderConfig{}, ReceiverConfig{})

	ext, err := receiver.Extend(512)
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.Extend(512, ext); err != nil {
		t.Fatal(err)
	}

	chiSeed := ot.Block{Lo: 0x8888}
	check, err := receiver.Check(chiSeed)
	if err != nil {
		t.Fatal(err)
	}

	// Tamper with the check before transmission.
	check.T1.Lo ^= 1

	if err := sender.Check(chiSeed, check); err != ErrConsistencyCheckFailed {
		t.Fatalf("got %v, expected consistency check failure", err)
	}

	// The sender must not produce output after the failed check.
	derand := &Derandomize{
		Count: 1,
		Flip:  []byte{0},
	}
	_, err = sender.Send([][2]ot.Block{{{}, {}}}, derand)
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, expected invalid state", err)
	}
}

func TestInsufficientSetup(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 9,
		SenderConfig{}, ReceiverConfig{})

	choices := make([]bool, 64)
	_, err := receiver.Derandomize(choices)

	var insufficient *InsufficientSetupError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, expected insufficient setup", err)
	}

	// The error is recoverable: extend and retry.
	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0x9999}, 64+CSP+SSP)
	if _, err := receiver.Derandomize(choices); err != nil {
		t.Fatal(err)
	}
}

func TestInvalidState(t *testing.T) {
	sender := NewSender(SenderConfig{}, ot.NewPRG(ot.Block{Lo: 10}))

	_, err := sender.Send(nil, &Derandomize{})
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, expected invalid state", err)
	}

	// Once latched, even the base setup fails.
	if err := sender.BaseSetup(ot.Block{}, nil); err == nil {
		t.Fatal("base setup succeeded after error")
	}
}

func TestReceiverCommit(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 11,
		SenderConfig{ReceiverCommit: true},
		ReceiverConfig{ReceiverCommit: true})

	const count = 64
	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0xbbbb},
		count+CSP+SSP)

	msgs := make([][2]ot.Block, count)
	choices := make([]bool, count)
	for i := 0; i < count; i++ {
		msgs[i] = [2]ot.Block{{Lo: 2}, {Lo: 3}}
		choices[i] = i%5 == 0
	}
	derand, err := receiver.Derandomize(choices)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := sender.Send(msgs, derand)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := receiver.Receive(payload); err != nil {
		t.Fatal(err)
	}

	if err := sender.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := receiver.Finalize(); err != nil {
		t.Fatal(err)
	}

	reveal, err := receiver.Reveal()
	if err != nil {
		t.Fatal(err)
	}
	verified, err := sender.Verify(reveal)
	if err != nil {
		t.Fatal(err)
	}
	if len(verified) != count {
		t.Fatalf("bad verified count: %d", len(verified))
	}
	for i, c := range choices {
		if verified[i] != c {
			t.Fatalf("verified choice %d disagrees", i)
		}
	}
}

func TestReceiverCommitTamper(t *testing.T) {
	sender, receiver, _ := newTestPair(t, 12,
		SenderConfig{ReceiverCommit: true},
		ReceiverConfig{ReceiverCommit: true})

	const count = 64
	extendAndCheck(t, sender, receiver, ot.Block{Lo: 0xcccc},
		count+CSP+SSP)

	msgs := make([][2]ot.Block, count)
	choices := make([]bool, count)
	for i := 0; i < count; i++ {
		msgs[i] = [2]ot.Block{{}, {Lo: 1}}
		choices[i] = i%2 == 1
	}
	derand, err := receiver.Derandomize(choices)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := sender.Send(msgs, derand)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := receiver.Receive(payload); err != nil {
		t.Fatal(err)
	}
	if err := sender.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := receiver.Finalize(); err != nil {
		t.Fatal(err)
	}

	reveal, err := receiver.Reveal()
	if err != nil {
		t.Fatal(err)
	}

	// Claiming flipped choices must be rejected.
	reveal.Choices[0] ^= 1

	if _, err := sender.Verify(reveal); err != ErrInconsistentReveal {
		t.Fatalf("got %v, expected inconsistent reveal", err)
	}
}
