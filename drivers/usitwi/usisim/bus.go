// Package usisim simulates a USI peripheral in two-wire mode together with an
// open-drain I2C bus and slave devices. It implements usitwi.Port so the
// protocol engine can be exercised bit for bit on the host.
//
// Modelled behaviour:
//   - Strobe toggles the SCL latch and advances the 4-bit edge counter.
//   - The shift register samples SDA on every SCL rising edge.
//   - The SDA output latch follows the register MSB while SCL is low and is
//     frozen while SCL is high.
//   - Both lines are wired-AND between master and slave; released lines read
//     high (pull-ups).
//   - START and STOP are detected as SDA edges while SCL is high.
//
// Slaves may stretch the clock: SCL stays low until the master has polled it
// the configured number of times.
package usisim

import (
	"usitwi-go/drivers/usitwi"
)

var _ usitwi.Port = (*Bus)(nil)

type slaveState uint8

const (
	stIdle slaveState = iota // ignoring the bus until the next START
	stAddr                   // receiving the address byte
	stRecv                   // master writes, selected device receives
	stSend                   // master reads, selected device transmits
)

// Bus is a simulated USI port with attached slave devices. Not safe for
// concurrent use, like the hardware it stands in for.
type Bus struct {
	// Master side: port registers and USI.
	ddr   [2]bool
	latch [2]bool
	usi   bool // two-wire mode enabled
	dr    byte
	out   bool // SDA output latch
	cnt   uint8
	ovf   bool

	// Evaluated line levels.
	scl, sda bool

	// Slave side.
	devs      []Device
	sel       Device
	state     slaveState
	read      bool
	bits      uint8
	shift     byte
	tx        byte
	ackSlot   bool
	masterAck bool
	drive     bool // slave pulls SDA low

	stretch int // polls to hold SCL after each falling edge
	hold    int // remaining polls; -1 holds forever
	polls   int // SCL polls answered low because of a hold

	trace []Event
}

// New returns an idle bus (both lines released high) with devs attached.
func New(devs ...Device) *Bus {
	return &Bus{
		devs: devs,
		scl:  true,
		sda:  true,
		out:  true,
	}
}

// Attach adds a device to the bus.
func (b *Bus) Attach(d Device) { b.devs = append(b.devs, d) }

// Stretch makes the selected slave hold SCL low for n polls after every
// falling edge. Zero disables stretching.
func (b *Bus) Stretch(n int) {
	if n < 0 {
		n = 0
	}
	b.stretch = n
}

// Hang holds SCL low until Release is called.
func (b *Bus) Hang() {
	b.hold = -1
	b.settle()
}

// Release drops any clock hold.
func (b *Bus) Release() {
	b.hold = 0
	b.settle()
}

// Lines returns the current SCL and SDA levels.
func (b *Bus) Lines() (scl, sda bool) { return b.scl, b.sda }

// StretchedPolls returns how many SCL polls were answered low by a hold.
func (b *Bus) StretchedPolls() int { return b.polls }

// Trace returns the recorded bus events.
func (b *Bus) Trace() []Event { return b.trace }

// ResetTrace clears the recorded events.
func (b *Bus) ResetTrace() { b.trace = b.trace[:0] }

// ---- usitwi.Port ----

func (b *Bus) Setup() {
	b.usi = true
	b.cnt = 0
	b.ovf = false
	b.out = b.dr&0x80 != 0
	b.settle()
}

func (b *Bus) SetOutput(l usitwi.Line, out bool) {
	b.ddr[l] = out
	b.settle()
}

func (b *Bus) Set(l usitwi.Line, high bool) {
	b.latch[l] = high
	b.settle()
}

func (b *Bus) Get(l usitwi.Line) bool {
	if l == usitwi.SDA {
		return b.sda
	}
	if b.hold != 0 {
		b.polls++
		if b.hold > 0 {
			b.hold--
			if b.hold == 0 {
				b.settle()
			}
		}
	}
	return b.scl
}

func (b *Bus) Load(v byte) {
	b.dr = v
	if !b.scl {
		b.out = v&0x80 != 0
	}
	b.settle()
}

func (b *Bus) Data() byte { return b.dr }

func (b *Bus) Arm(bits uint8) {
	if bits == 0 || bits > 8 {
		bits = 8
	}
	b.cnt = 16 - 2*bits
	b.ovf = false
}

func (b *Bus) Strobe() {
	b.latch[usitwi.SCL] = !b.latch[usitwi.SCL]
	b.cnt++
	if b.cnt >= 16 {
		b.cnt = 0
		b.ovf = true
	}
	b.settle()
}

func (b *Bus) Overflow() bool { return b.ovf }

// ---- line evaluation ----

func (b *Bus) masterSCL() bool {
	return !b.ddr[usitwi.SCL] || b.latch[usitwi.SCL]
}

func (b *Bus) masterSDA() bool {
	if !b.ddr[usitwi.SDA] {
		return true
	}
	if !b.usi {
		return b.latch[usitwi.SDA]
	}
	return b.latch[usitwi.SDA] && b.out
}

// settle re-evaluates both lines and processes edges until they are stable.
// Only one line changes per step so edge order is well defined.
func (b *Bus) settle() {
	for i := 0; i < 8; i++ {
		scl := b.masterSCL() && b.hold == 0
		if scl != b.scl {
			b.scl = scl
			if scl {
				b.rise()
			} else {
				b.fall()
			}
			continue
		}
		sda := b.masterSDA() && !b.drive
		if sda != b.sda {
			b.sda = sda
			if b.scl {
				if sda {
					b.onStop()
				} else {
					b.onStart()
				}
			}
			continue
		}
		return
	}
}

func bit(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// rise: both ends sample SDA.
func (b *Bus) rise() {
	if b.usi {
		b.dr = b.dr<<1 | bit(b.sda)
	}

	switch b.state {
	case stAddr, stRecv:
		if !b.ackSlot {
			b.shift = b.shift<<1 | bit(b.sda)
			b.bits++
		}
	case stSend:
		if !b.ackSlot {
			b.bits++
			return
		}
		b.masterAck = !b.sda
		b.record(Event{Kind: KindRead, Byte: b.tx, Ack: b.masterAck})
	}
}

// fall: the master output latch opens and the slave changes SDA.
func (b *Bus) fall() {
	b.out = b.dr&0x80 != 0

	switch b.state {
	case stAddr:
		switch {
		case b.ackSlot:
			b.ackSlot = false
			b.drive = false
			b.bits, b.shift = 0, 0
			if b.read {
				b.state = stSend
				b.loadTx()
			} else {
				b.state = stRecv
			}
		case b.bits == 8:
			b.address(b.shift)
		}
	case stRecv:
		switch {
		case b.ackSlot:
			b.ackSlot = false
			b.drive = false
			b.bits, b.shift = 0, 0
		case b.bits == 8:
			ack := b.sel.Write(b.shift)
			b.record(Event{Kind: KindWrite, Byte: b.shift, Ack: ack})
			b.acknowledge(ack)
		}
	case stSend:
		switch {
		case b.ackSlot:
			b.ackSlot = false
			if b.masterAck {
				b.loadTx()
			} else {
				b.drive = false
				b.state = stIdle
			}
		case b.bits == 8:
			b.drive = false
			b.ackSlot = true
		case b.bits > 0:
			b.drive = (b.tx<<b.bits)&0x80 == 0
		}
	}

	if b.state != stIdle && b.stretch > 0 && b.hold == 0 {
		b.hold = b.stretch
	}
}

func (b *Bus) address(v byte) {
	addr, read := v>>1, v&0x01 != 0
	b.read = read
	for _, d := range b.devs {
		if d.Address(addr, read) {
			b.sel = d
			b.record(Event{Kind: KindAddr, Byte: v, Ack: true})
			b.acknowledge(true)
			return
		}
	}
	b.record(Event{Kind: KindAddr, Byte: v, Ack: false})
	b.acknowledge(false)
}

func (b *Bus) acknowledge(ack bool) {
	if !ack {
		b.drive = false
		b.state = stIdle
		return
	}
	b.drive = true
	b.ackSlot = true
}

func (b *Bus) loadTx() {
	b.tx = b.sel.Read()
	b.bits = 0
	b.drive = b.tx&0x80 == 0
}

func (b *Bus) onStart() {
	b.endSelection()
	b.record(Event{Kind: KindStart})
	b.state = stAddr
	b.bits, b.shift = 0, 0
	b.ackSlot = false
	b.drive = false
}

func (b *Bus) onStop() {
	b.endSelection()
	b.record(Event{Kind: KindStop})
	b.state = stIdle
	b.ackSlot = false
	b.drive = false
}

func (b *Bus) endSelection() {
	if b.sel != nil {
		b.sel.Stop()
		b.sel = nil
	}
}

func (b *Bus) record(ev Event) { b.trace = append(b.trace, ev) }
