package tec

import (
	"bytes"
	"errors"
)

// loopSerial feeds scripted host bytes to the device and records what the
// device writes back.
type loopSerial struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newLoopSerial(host ...byte) *loopSerial {
	return &loopSerial{in: bytes.NewReader(host)}
}

func (s *loopSerial) ReadByte() (byte, error) { return s.in.ReadByte() }
func (s *loopSerial) WriteByte(c byte) error  { return s.out.WriteByte(c) }

// rampConverter returns raw readings 0, 4, 8, ... so the n-th sample is n%256.
type rampConverter struct {
	reads int
}

func (c *rampConverter) Read() uint16 {
	raw := uint16(c.reads*4) & converterMask
	c.reads++
	return raw
}

type pwmCall struct {
	period   uint16
	duty     uint16
	polarity Polarity
}

type fakePWM struct {
	calls []pwmCall
	err   error
}

func (p *fakePWM) Configure(period, duty uint16, polarity Polarity) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, pwmCall{period: period, duty: duty, polarity: polarity})
	return nil
}

func (p *fakePWM) last() pwmCall { return p.calls[len(p.calls)-1] }

type fakePin struct {
	on     bool
	writes int
}

func (p *fakePin) Set(on bool) {
	p.on = on
	p.writes++
}

type fakeEdge struct {
	acks int
}

func (e *fakeEdge) Ack() { e.acks++ }

// recoverError runs f and returns the error it panicked with, if any.
func recoverError(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				e = errors.New("non-error panic")
			}
			err = e
		}
	}()
	f()
	return nil
}
