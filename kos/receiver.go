//
// receiver.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kos

import (
	"io"

	"github.com/zeebo/blake3"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// ReceiverConfig contains the receiver's configuration.
type ReceiverConfig struct {
	// ReceiverCommit enables the receiver commitment: the receiver
	// records a digest tape of all received ciphertext batches and
	// can later open its seeds and choices with Reveal.
	ReceiverCommit bool
}

// Receiver implements the KOS15 receiver role.
type Receiver struct {
	config ReceiverConfig
	rand   io.Reader
	state  state

	baseSeeds [][2]ot.Block
	rngs      [][2]*ot.PRG

	// Checked OTs: the raw extension rows, their TCCR keys, and the
	// random choices.
	ts      []ot.Block
	keys    []ot.Block
	choices []bool

	// The session counter. It increases by the extended count on
	// every Extend and never resets.
	counter    uint64
	transferID uint64

	uncheckedTs      []ot.Block
	uncheckedKeys    []ot.Block
	uncheckedChoices []bool

	choiceLog []bool
	tape      [][32]byte
}

// NewReceiver creates a new KOS15 receiver. The rand source provides
// the random extension choices and coin-toss shares.
func NewReceiver(config ReceiverConfig, rand io.Reader) *Receiver {
	return &Receiver{
		config: config,
		rand:   rand,
		state:  stateInitialized,
	}
}

func (r *Receiver) fatal(err error) error {
	r.state = stateError
	return err
}

func (r *Receiver) expect(st state) error {
	if r.state != st {
		r.state = stateError
		return &InvalidStateError{Expected: st.String()}
	}
	return nil
}

// BaseSetup completes the base setup phase with the CSP seed block
// pairs the receiver transferred via the base OTs.
func (r *Receiver) BaseSetup(seeds [][2]ot.Block) error {
	if err := r.expect(stateInitialized); err != nil {
		return err
	}
	if len(seeds) != CSP {
		return r.fatal(ErrInvalidPayload)
	}
	if r.config.ReceiverCommit {
		r.baseSeeds = seeds
	}
	r.rngs = make([][2]*ot.PRG, CSP)
	for i := 0; i < CSP; i++ {
		r.rngs[i][0] = ot.NewChaChaPRG(seeds[i][0])
		r.rngs[i][1] = ot.NewChaChaPRG(seeds[i][1])
	}
	r.state = stateExtension
	return nil
}

// Init runs the base OT phase over the connection: the receiver
// samples CSP random seed pairs and sends them via the base OT.
func (r *Receiver) Init(conn *p2p.Conn, base ot.OT) error {
	if err := base.InitSender(conn); err != nil {
		return r.fatal(err)
	}
	seeds := make([][2]ot.Block, CSP)
	wires := make([]ot.Wire, CSP)
	for i := 0; i < CSP; i++ {
		b0, err := ot.NewBlock(r.rand)
		if err != nil {
			return r.fatal(err)
		}
		b1, err := ot.NewBlock(r.rand)
		if err != nil {
			return r.fatal(err)
		}
		seeds[i] = [2]ot.Block{b0, b1}
		wires[i] = ot.Wire{
			B0: b0,
			B1: b1,
		}
	}
	if err := base.Send(wires); err != nil {
		return r.fatal(err)
	}
	return r.BaseSetup(seeds)
}

// Extend performs one extension round of count OTs, rounded up to a
// multiple of 64. It samples fresh random choices, derives the
// extension rows and their TCCR keys, and returns the Extend message
// for the sender. The fresh OTs stay in the unchecked pool until
// Check passes.
func (r *Receiver) Extend(count int) (*Extend, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, err
	}
	count = roundUp64(count)
	if count == 0 {
		return &Extend{}, nil
	}
	rowBytes := count / 8

	choiceBuf := make([]byte, rowBytes)
	if _, err := io.ReadFull(r.rand, choiceBuf); err != nil {
		return nil, r.fatal(err)
	}

	ts := ot.NewZeroBitMatrix(CSP, rowBytes)
	us := ot.NewZeroBitMatrix(CSP, rowBytes)

	for i := 0; i < CSP; i++ {
		t := ts.Row(i)
		u := us.Row(i)
		r.rngs[i][0].Fill(t)
		r.rngs[i][1].Fill(u)

		// u = t0 ^ t1 ^ r
		for j := range u {
			u[j] ^= t[j] ^ choiceBuf[j]
		}
	}
	ts.TransposeBits()

	for j := 0; j < count; j++ {
		tb := ot.BlockFromRow(ts.Row(j))
		r.uncheckedTs = append(r.uncheckedTs, tb)
		r.uncheckedKeys = append(r.uncheckedKeys,
			ot.TCCR(ot.NewTweak(r.counter+uint64(j)), tb))
		r.uncheckedChoices = append(r.uncheckedChoices,
			(choiceBuf[j/8]>>(j%8))&1 == 1)
	}
	r.counter += uint64(count)

	return &Extend{
		Count: count,
		Us:    us.Take().Data(),
	}, nil
}

// Check computes the receiver's correlation check over all
// outstanding unchecked OTs. The chiSeed must be unbiased and agreed
// only after the last outstanding Extend message has been sent. On
// success the last CSP+SSP rows are sacrificed and the remaining OTs
// become usable.
func (r *Receiver) Check(chiSeed ot.Block) (*Check, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, err
	}
	if len(r.uncheckedTs) < CSP+SSP {
		return nil, &InsufficientSetupError{
			Expected: CSP + SSP,
			Actual:   len(r.uncheckedTs),
		}
	}

	prg := ot.NewChaChaPRG(chiSeed)

	var x, t0, t1 ot.Block
	for j, t := range r.uncheckedTs {
		chi := prg.Block()
		if r.uncheckedChoices[j] {
			x = x.Xor(chi)
		}
		lo, hi := ot.Clmul(t, chi)
		t0 = t0.Xor(lo)
		t1 = t1.Xor(hi)
	}

	// Strip off the rows sacrificed for the consistency check.
	n := len(r.uncheckedTs) - (CSP + SSP)
	r.ts = append(r.ts, r.uncheckedTs[:n]...)
	r.keys = append(r.keys, r.uncheckedKeys[:n]...)
	r.choices = append(r.choices, r.uncheckedChoices[:n]...)
	r.uncheckedTs = nil
	r.uncheckedKeys = nil
	r.uncheckedChoices = nil

	return &Check{
		X:  x,
		T0: t0,
		T1: t1,
	}, nil
}

// Derandomize corrects the random extension choices to the
// receiver's real choices. The choices are consumed by the following
// Receive.
func (r *Receiver) Derandomize(choices []bool) (*Derandomize, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, err
	}
	if len(choices) > len(r.choices) {
		return nil, &InsufficientSetupError{
			Expected: len(choices),
			Actual:   len(r.choices),
		}
	}
	flip := make([]byte, (len(choices)+7)/8)
	for j, c := range choices {
		if c != r.choices[j] {
			flip[j/8] |= 1 << (j % 8)
		}
	}
	if r.config.ReceiverCommit {
		r.choiceLog = append(r.choiceLog, choices...)
	}
	return &Derandomize{
		Count: len(choices),
		Flip:  flip,
	}, nil
}

// Receive obliviously receives the sender's messages, decrypting the
// slot selected by the stored random choice of each OT.
func (r *Receiver) Receive(payload *SenderPayload) ([]ot.Block, error) {
	if err := r.expect(stateExtension); err != nil {
		return nil, err
	}
	if len(payload.Ciphertexts)%2 != 0 {
		return nil, r.fatal(ErrInvalidPayload)
	}
	count := len(payload.Ciphertexts) / 2
	if count > len(r.keys) {
		return nil, r.fatal(&CountMismatchError{
			Expected: len(r.keys),
			Got:      count,
		})
	}

	if r.config.ReceiverCommit {
		r.tape = append(r.tape, digestCiphertexts(payload.Ciphertexts))
	}

	plaintexts := make([]ot.Block, count)
	for j := 0; j < count; j++ {
		ct := payload.Ciphertexts[2*j]
		if r.choices[j] {
			ct = payload.Ciphertexts[2*j+1]
		}
		plaintexts[j] = r.keys[j].Xor(ct)
	}
	r.ts = r.ts[count:]
	r.keys = r.keys[count:]
	r.choices = r.choices[count:]

	return plaintexts, nil
}

// Finalize completes the receiver's session.
func (r *Receiver) Finalize() error {
	if err := r.expect(stateExtension); err != nil {
		return err
	}
	r.state = stateComplete
	return nil
}

// Reveal opens the receiver's base seeds, derandomized choices, and
// ciphertext digest tape for the sender's Verify.
func (r *Receiver) Reveal() (*ReceiverReveal, error) {
	if !r.config.ReceiverCommit {
		return nil, ErrNoReceiverCommit
	}
	if err := r.expect(stateComplete); err != nil {
		return nil, err
	}
	choices := make([]byte, (len(r.choiceLog)+7)/8)
	for j, c := range r.choiceLog {
		if c {
			choices[j/8] |= 1 << (j % 8)
		}
	}
	return &ReceiverReveal{
		Seeds:   r.baseSeeds,
		Count:   len(r.choiceLog),
		Choices: choices,
		Digests: r.tape,
	}, nil
}

// digestCiphertexts computes the tape digest of a ciphertext batch.
func digestCiphertexts(cts []ot.Block) [32]byte {
	h := blake3.New()

	var buf ot.BlockData
	for _, ct := range cts {
		h.Write(ct.Bytes(&buf))
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
