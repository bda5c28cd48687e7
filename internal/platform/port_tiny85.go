//go:build attiny25 || attiny45 || attiny85

package platform

import (
	"device/avr"
	"runtime/volatile"

	"usitwi-go/drivers/usitwi"
	"usitwi-go/internal/platform/boards"
)

// USICR: two-wire mode, software clock strobe.
const (
	usiWM1  = 0x20
	usiCS1  = 0x08
	usiCLK  = 0x02
	usiTC   = 0x01
	usiCtrl = usiWM1 | usiCS1 | usiCLK
)

// USISR flags; writing one clears them.
const (
	usiSIF   = 0x80
	usiOIF   = 0x40
	usiPF    = 0x20
	usiDC    = 0x10
	usiFlags = usiSIF | usiOIF | usiPF | usiDC
)

type usiPort struct {
	ddr, port, pin *volatile.Register8
	mask           [2]uint8
}

// NewPort returns the USI of the ATtiny25/45/85 on port B.
func NewPort() usitwi.Port {
	f := boards.Selected
	p := &usiPort{ddr: avr.DDRB, port: avr.PORTB, pin: avr.PINB}
	p.mask[usitwi.SCL] = f.SCLMask()
	p.mask[usitwi.SDA] = f.SDAMask()
	return p
}

func (p *usiPort) Setup() {
	avr.USICR.Set(usiCtrl)
	avr.USISR.Set(usiFlags)
}

func (p *usiPort) SetOutput(l usitwi.Line, out bool) {
	if out {
		p.ddr.SetBits(p.mask[l])
	} else {
		p.ddr.ClearBits(p.mask[l])
	}
}

func (p *usiPort) Set(l usitwi.Line, high bool) {
	if high {
		p.port.SetBits(p.mask[l])
	} else {
		p.port.ClearBits(p.mask[l])
	}
}

func (p *usiPort) Get(l usitwi.Line) bool { return p.pin.HasBits(p.mask[l]) }

func (p *usiPort) Load(v byte) { avr.USIDR.Set(v) }

func (p *usiPort) Data() byte { return avr.USIDR.Get() }

// Arm clears the flags and preloads the counter so it overflows after
// bits clock cycles (two edges each).
func (p *usiPort) Arm(bits uint8) {
	avr.USISR.Set(usiFlags | (16-2*bits)&0x0F)
}

func (p *usiPort) Strobe() { avr.USICR.Set(usiCtrl | usiTC) }

func (p *usiPort) Overflow() bool { return avr.USISR.HasBits(usiOIF) }
