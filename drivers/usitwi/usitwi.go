// Package usitwi implements a bit-banged I2C (TWI) bus master on top of the
// Universal Serial Interface found in ATtiny parts. The USI only provides a
// shift register with a 4-bit edge counter; start/stop conditions, clock
// synchronisation and ACK handling are done in software:
//
//	m := usitwi.New(port)
//	m.Configure()
//	err := m.Transfer(buf) // buf[0] = addr<<1 | R/W
//
// All register access goes through the Port interface so the protocol engine
// runs unchanged against real hardware (internal/platform) or the simulator
// in package usisim.
//
// NOTE: the engine is synchronous and single-master. A Master must not be
// used from more than one goroutine, and with the default Spin waiter a slave
// that holds SCL low forever hangs the calling goroutine.
package usitwi

import (
	"usitwi-go/errcode"
)

// Line selects one of the two bus wires.
type Line uint8

const (
	SCL Line = iota
	SDA
)

func (l Line) String() string {
	if l == SCL {
		return "scl"
	}
	return "sda"
}

// Port is the hardware capability the master drives: the two port pins
// (latch, direction, input level) and the USI shift register with its counter.
type Port interface {
	// Setup selects two-wire mode, external positive-edge shift clock and
	// software counter strobe, and clears all status flags.
	Setup()
	// SetOutput configures the line as output (true) or input (false).
	SetOutput(l Line, out bool)
	// Set writes the port latch of the line.
	Set(l Line, high bool)
	// Get reads the physical level of the line.
	Get(l Line) bool
	// Load writes the shift register.
	Load(b byte)
	// Data reads the shift register.
	Data() byte
	// Arm clears the overflow flag and primes the counter to overflow after
	// the given number of bit times (two clock edges per bit).
	Arm(bits uint8)
	// Strobe toggles SCL and advances the counter by one edge.
	Strobe()
	// Overflow reports the counter overflow flag.
	Overflow() bool
}

// Errors returned by the master. Both are errcode values so callers can map
// them with errcode.Of.
var (
	ErrNack    = errcode.Nack
	ErrTimeout = errcode.Timeout
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Timing overrides the build-time bus timing when non-zero.
	Timing Timing
	// Wait supplies the delays and the SCL-high wait. Defaults to Spin,
	// which never gives up.
	Wait Waiter
}

// Master drives one USI bus. There is exactly one per physical bus.
type Master struct {
	port   Port
	timing Timing
	wait   Waiter

	sclHigh func() bool // cached so waits do not allocate
	scratch []byte      // reused by Tx, Probe and Scan
}

// New creates a master bound to port. It does not touch the hardware; call
// Configure before the first transfer.
func New(port Port) *Master {
	m := &Master{
		port:    port,
		timing:  DefaultTiming(),
		wait:    Spin{},
		scratch: make([]byte, 0, 16),
	}
	m.sclHigh = func() bool { return m.port.Get(SCL) }
	return m
}

// Configure applies optional config and initialises the bus: both lines are
// driven high (idle), the shift register is loaded with 0xFF and the USI is
// put into two-wire mode. It cannot fail and may be called again to re-apply
// the configuration.
func (m *Master) Configure(cfgs ...Config) {
	if len(cfgs) > 0 {
		c := cfgs[0]
		if !c.Timing.IsZero() {
			m.timing = c.Timing
		}
		if c.Wait != nil {
			m.wait = c.Wait
		}
	}

	p := m.port
	// Latches first so enabling the drivers does not glitch the lines low.
	p.Set(SCL, true)
	p.Set(SDA, true)
	p.SetOutput(SDA, true)
	p.SetOutput(SCL, true)
	p.Load(0xFF)
	p.Setup()
}

// Timing returns the bus timing in use.
func (m *Master) Timing() Timing { return m.timing }
