//
// sender.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kos

import (
	"io"

	"github.com/markkurossi/otext/ot"
	"github.com/markkurossi/otext/p2p"
)

// SenderConfig contains the sender's configuration.
type SenderConfig struct {
	// ReceiverCommit enables the receiver commitment: the sender
	// records the extension transcript and can later verify the
	// receiver's revealed choices with Verify.
	ReceiverCommit bool
}

// Sender implements the KOS15 sender role.
type Sender struct {
	config SenderConfig
	rand   io.Reader
	state  state

	delta ot.Block
	seeds []ot.Block
	rngs  []*ot.PRG

	// Checked OTs and the session counter values keying them.
	qs      []ot.Block
	qTweaks []uint64

	// The session counter. It increases by the extended count on
	// every Extend and never resets; it keys the TCCR hash of every
	// OT of the session.
	counter    uint64
	transferID uint64

	uncheckedQs     []ot.Block
	uncheckedTweaks []uint64

	log []*logEvent
}

// Transcript events recorded in receiver-commitment mode.
const (
	logExtend = iota
	logCheck
	logSend
)

type logEvent struct {
	kind   int
	count  int
	us     []byte
	flip   []byte
	digest [32]byte
}

// NewSender creates a new KOS15 sender. The rand source is used for
// the coin-toss shares of the connection-level helpers.
func NewSender(config SenderConfig, rand io.Reader) *Sender {
	return &Sender{
		config: config,
		rand:   rand,
		state:  stateInitialized,
	}
}

// Delta returns the sender's correlation.
func (s *Sender) Delta() ot.Block {
	return s.delta
}

func (s *Sender) fatal(err error) error {
	s.state = stateError
	return err
}

func (s *Sender) expect(st state) error {
	if s.state != st {
		s.state = stateError
		return &InvalidStateError{Expected: st.String()}
	}
	return nil
}

// BaseSetup completes the base setup phase with the sender's secret
// delta and the CSP seed blocks received via the base OTs with the
// bits of delta as the choices.
func (s *Sender) BaseSetup(delta ot.Block, seeds []ot.Block) error {
	if err := s.expect(stateInitialized); err != nil {
		return err
	}
	if len(seeds) != CSP {
		return s.fatal(ErrInvalidPayload)
	}
	s.delta = delta
	s.seeds = seeds
	s.rngs = make([]*ot.PRG, CSP)
	for i := 0; i < CSP; i++ {
		s.rngs[i] = ot.NewChaChaPRG(seeds[i])
	}
	s.state = stateExtension
	return nil
}

// Init runs the base OT phase over the connection: the sender
// samples a random delta and receives the CSP base seeds with the
// bits of delta as its choices.
func (s *Sender) Init(conn *p2p.Conn, base ot.OT) error {
	delta, err := ot.NewBlock(s.rand)
	if err != nil {
		return s.fatal(err)
	}
	if err := base.InitReceiver(conn); err != nil {
		return s.fatal(err)
	}
	flags := make([]bool, CSP)
	for i := 0; i < CSP; i++ {
		flags[i] = delta.Bit(i) == 1
	}
	seeds := make([]ot.Block, CSP)
	if err := base.Receive(flags, seeds); err != nil {
		return s.fatal(err)
	}
	return s.BaseSetup(delta, seeds)
}

// Extend processes the receiver's extension message, expanding count
// additional unchecked OTs. The count is rounded up to a multiple of
// 64 and must match the receiver's count. Extension can be streamed
// with multiple Extend calls before a single Check; the fresh OTs
// are not usable until the check has passed.
func (s *Sender) Extend(count int, extend *Extend) error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	count = roundUp64(count)
	if extend.Count != count {
		return s.fatal(&CountMismatchError{
			Expected: count,
			Got:      extend.Count,
		})
	}
	if count == 0 {
		return nil
	}
	rowBytes := count / 8
	if len(extend.Us) != CSP*rowBytes {
		return s.fatal(ErrInvalidPayload)
	}

	qs := ot.NewZeroBitMatrix(CSP, rowBytes)
	us := ot.NewBitMatrix(extend.Us, rowBytes)

	zero := make([]byte, rowBytes)
	for i := 0; i < CSP; i++ {
		q := qs.Row(i)
		s.rngs[i].Fill(q)

		// Select the all-zero row when the delta bit is clear so
		// that both branches touch a full row.
		u := zero
		if s.delta.Bit(i) == 1 {
			u = us.Row(i)
		}
		for j := range q {
			q[j] ^= u[j]
		}
	}
	qs.TransposeBits()

	for j := 0; j < count; j++ {
		s.uncheckedQs = append(s.uncheckedQs, ot.BlockFromRow(qs.Row(j)))
		s.uncheckedTweaks = append(s.uncheckedTweaks, s.counter+uint64(j))
	}
	s.counter += uint64(count)

	if s.config.ReceiverCommit {
		s.log = append(s.log, &logEvent{
			kind:  logExtend,
			count: count,
			us:    append([]byte{}, extend.Us...),
		})
	}
	return nil
}

// Check verifies the receiver's correlation check over all
// outstanding unchecked OTs. The chiSeed must be unbiased: it is
// agreed with a coin toss only after the receiver has sent all its
// outstanding Extend messages. On success the last CSP+SSP rows are
// sacrificed and the remaining OTs become usable.
func (s *Sender) Check(chiSeed ot.Block, check *Check) error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	if len(s.uncheckedQs) < CSP+SSP {
		return &InsufficientSetupError{
			Expected: CSP + SSP,
			Actual:   len(s.uncheckedQs),
		}
	}

	prg := ot.NewChaChaPRG(chiSeed)

	var vlo, vhi ot.Block
	for _, q := range s.uncheckedQs {
		chi := prg.Block()
		lo, hi := ot.Clmul(q, chi)
		vlo = vlo.Xor(lo)
		vhi = vhi.Xor(hi)
	}
	lo, hi := ot.Clmul(check.X, s.delta)
	vlo = vlo.Xor(lo)
	vhi = vhi.Xor(hi)

	if !vlo.Equal(check.T0) || !vhi.Equal(check.T1) {
		return s.fatal(ErrConsistencyCheckFailed)
	}

	// Strip off the rows sacrificed for the consistency check.
	n := len(s.uncheckedQs) - (CSP + SSP)
	s.qs = append(s.qs, s.uncheckedQs[:n]...)
	s.qTweaks = append(s.qTweaks, s.uncheckedTweaks[:n]...)
	s.uncheckedQs = nil
	s.uncheckedTweaks = nil

	if s.config.ReceiverCommit {
		s.log = append(s.log, &logEvent{
			kind: logCheck,
		})
	}
	return nil
}

// Send obliviously transfers the message pairs to the receiver,
// applying Beaver derandomization to correct the receiver's random
// extension choices.
func (s *Sender) Send(msgs [][2]ot.Block, derand *Derandomize) (
	*SenderPayload, error) {

	if err := s.expect(stateExtension); err != nil {
		return nil, err
	}
	if derand.Count < len(msgs) {
		return nil, s.fatal(&CountMismatchError{
			Expected: len(msgs),
			Got:      derand.Count,
		})
	}
	if len(derand.Flip) < (derand.Count+7)/8 {
		return nil, s.fatal(ErrInvalidPayload)
	}
	if len(msgs) > len(s.qs) {
		return nil, &InsufficientSetupError{
			Expected: len(msgs),
			Actual:   len(s.qs),
		}
	}

	cts := make([]ot.Block, 0, 2*len(msgs))
	for j, m := range msgs {
		q := s.qs[j]
		tweak := ot.NewTweak(s.qTweaks[j])

		k0 := ot.TCCR(tweak, q)
		k1 := ot.TCCR(tweak, q.Xor(s.delta))

		if (derand.Flip[j/8]>>(j%8))&1 == 1 {
			cts = append(cts, k0.Xor(m[1]), k1.Xor(m[0]))
		} else {
			cts = append(cts, k0.Xor(m[0]), k1.Xor(m[1]))
		}
	}
	s.qs = s.qs[len(msgs):]
	s.qTweaks = s.qTweaks[len(msgs):]

	payload := &SenderPayload{
		Ciphertexts: cts,
	}
	if s.config.ReceiverCommit {
		s.log = append(s.log, &logEvent{
			kind:   logSend,
			count:  len(msgs),
			flip:   append([]byte{}, derand.Flip...),
			digest: digestCiphertexts(cts),
		})
	}
	return payload, nil
}

// Finalize completes the sender's session.
func (s *Sender) Finalize() error {
	if err := s.expect(stateExtension); err != nil {
		return err
	}
	s.state = stateComplete
	return nil
}

// Verify checks the receiver's revealed seeds and choices against
// the recorded transcript: the extension is replayed from the
// revealed base seeds, the receiver's random choice vector is
// recomputed from the recorded Extend messages, and the claimed
// choices and ciphertext digests are compared against the replay.
// It returns the verified choices.
func (s *Sender) Verify(reveal *ReceiverReveal) ([]bool, error) {
	if !s.config.ReceiverCommit {
		return nil, ErrNoReceiverCommit
	}
	if err := s.expect(stateComplete); err != nil {
		return nil, err
	}
	if len(reveal.Seeds) != CSP {
		return nil, ErrInvalidPayload
	}

	// The revealed seed pairs must contain the seeds the sender
	// received via the base OTs.
	for i := 0; i < CSP; i++ {
		if !reveal.Seeds[i][s.delta.Bit(i)].Equal(s.seeds[i]) {
			return nil, ErrInconsistentReveal
		}
	}

	rngs := make([][2]*ot.PRG, CSP)
	for i := 0; i < CSP; i++ {
		rngs[i][0] = ot.NewChaChaPRG(reveal.Seeds[i][0])
		rngs[i][1] = ot.NewChaChaPRG(reveal.Seeds[i][1])
	}

	var kept, pending, choices []bool
	var digests int

	for _, e := range s.log {
		switch e.kind {
		case logExtend:
			rowBytes := e.count / 8
			t0 := make([]byte, rowBytes)
			t1 := make([]byte, rowBytes)
			r := make([]byte, rowBytes)

			for i := 0; i < CSP; i++ {
				rngs[i][0].Fill(t0)
				rngs[i][1].Fill(t1)
				u := e.us[i*rowBytes : (i+1)*rowBytes]
				for j := range r {
					row := t0[j] ^ t1[j] ^ u[j]
					if i == 0 {
						r[j] = row
					} else if r[j] != row {
						// The receiver used different choices on
						// different base OT rows.
						return nil, ErrInconsistentReveal
					}
				}
			}
			for j := 0; j < e.count; j++ {
				pending = append(pending, (r[j/8]>>(j%8))&1 == 1)
			}

		case logCheck:
			n := len(pending) - (CSP + SSP)
			kept = append(kept, pending[:n]...)
			pending = nil

		case logSend:
			for j := 0; j < e.count; j++ {
				flip := (e.flip[j/8]>>(j%8))&1 == 1
				choices = append(choices, kept[j] != flip)
			}
			kept = kept[e.count:]

			if digests >= len(reveal.Digests) ||
				reveal.Digests[digests] != e.digest {
				return nil, ErrInconsistentReveal
			}
			digests++
		}
	}
	if digests != len(reveal.Digests) {
		return nil, ErrInconsistentReveal
	}

	if reveal.Count != len(choices) {
		return nil, ErrInconsistentReveal
	}
	if len(reveal.Choices) < (reveal.Count+7)/8 {
		return nil, ErrInvalidPayload
	}
	for j, c := range choices {
		if ((reveal.Choices[j/8]>>(j%8))&1 == 1) != c {
			return nil, ErrInconsistentReveal
		}
	}
	s.state = stateComplete
	return choices, nil
}
