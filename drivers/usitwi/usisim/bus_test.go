package usisim

import (
	"testing"

	"usitwi-go/drivers/usitwi"
)

// clockBits strobes the simulated USI the way the master does and returns
// the shift register once the counter overflows.
func clockBits(b *Bus, bits uint8) byte {
	b.Arm(bits)
	for {
		b.Strobe()
		for !b.Get(usitwi.SCL) {
		}
		b.Strobe()
		if b.Overflow() {
			return b.Data()
		}
	}
}

func start(b *Bus) {
	b.Set(usitwi.SCL, true)
	b.SetOutput(usitwi.SDA, true)
	b.SetOutput(usitwi.SCL, true)
	b.Set(usitwi.SDA, false)
	b.Set(usitwi.SCL, false)
	b.Set(usitwi.SDA, true)
}

func configured(devs ...Device) *Bus {
	b := New(devs...)
	b.Set(usitwi.SCL, true)
	b.Set(usitwi.SDA, true)
	b.SetOutput(usitwi.SDA, true)
	b.SetOutput(usitwi.SCL, true)
	b.Load(0xFF)
	b.Setup()
	return b
}

func TestIdleConfigurationIsGlitchFree(t *testing.T) {
	b := configured()
	if scl, sda := b.Lines(); !scl || !sda {
		t.Fatalf("lines = %v %v", scl, sda)
	}
	if len(b.Trace()) != 0 {
		t.Fatalf("unexpected events: %v", b.Trace())
	}
}

func TestStartAndAddressAck(t *testing.T) {
	e := NewExpander(0x20)
	b := configured(e)
	start(b)

	b.Load(0x40)
	if got := clockBits(b, 8); got != 0x40 {
		t.Fatalf("shift register after own byte = %#x", got)
	}
	b.SetOutput(usitwi.SDA, false)
	if ack := clockBits(b, 1); ack&1 != 0 {
		t.Fatal("expander did not ACK its address")
	}
	tr := b.Trace()
	if len(tr) != 2 || tr[0].Kind != KindStart || tr[1] != (Event{Kind: KindAddr, Byte: 0x40, Ack: true}) {
		t.Fatalf("trace = %v", tr)
	}
}

func TestCounterOverflow(t *testing.T) {
	b := configured()
	b.Arm(1)
	b.Strobe()
	if b.Overflow() {
		t.Fatal("overflow after one edge")
	}
	b.Strobe()
	if !b.Overflow() {
		t.Fatal("no overflow after two edges")
	}
}

func TestStretchHoldsClock(t *testing.T) {
	b := configured(NewExpander(0x20))
	b.Stretch(2)
	start(b)
	b.Load(0x40)
	b.Arm(8)
	b.Strobe()
	if b.Get(usitwi.SCL) {
		t.Fatal("clock released on first poll")
	}
	if !b.Get(usitwi.SCL) {
		t.Fatal("clock still held after stretch")
	}
	if b.StretchedPolls() != 2 {
		t.Fatalf("stretched polls = %d", b.StretchedPolls())
	}
}

func TestHangAndRelease(t *testing.T) {
	b := configured()
	b.Hang()
	if b.Get(usitwi.SCL) {
		t.Fatal("hung bus reads SCL high")
	}
	b.Release()
	if !b.Get(usitwi.SCL) {
		t.Fatal("released bus reads SCL low")
	}
}

func TestMemoryPageWrap(t *testing.T) {
	m := NewMemory(0x50, 256, 4)
	if !m.Address(0x50, false) {
		t.Fatal("memory did not answer")
	}
	for _, v := range []byte{0x02, 1, 2, 3, 4} {
		m.Write(v)
	}
	m.Stop()
	got := m.Bytes()[0:4]
	if got[0] != 3 || got[1] != 4 || got[2] != 1 || got[3] != 2 {
		t.Fatalf("page wrap = % x", got)
	}
}

func TestMemoryBusyAfterWrite(t *testing.T) {
	m := NewMemory(0x50, 256, 8)
	m.Busy = 2
	m.Address(0x50, false)
	m.Write(0)
	m.Write(0xAA)
	m.Stop()
	if m.Address(0x50, false) || m.Address(0x50, false) {
		t.Fatal("memory acknowledged during write cycle")
	}
	if !m.Address(0x50, false) {
		t.Fatal("memory still busy")
	}
}

func TestMemoryBlocks(t *testing.T) {
	m := NewMemory(0x50, 1024, 16)
	if !m.Address(0x53, false) || m.Address(0x54, false) || m.Address(0x4F, false) {
		t.Fatal("block range incorrect")
	}
	m.Write(0x10)
	m.Write(0x77)
	if m.Bytes()[3*256+0x10] != 0x77 {
		t.Fatal("write landed in wrong block")
	}
}

func TestEventString(t *testing.T) {
	if s := (Event{Kind: KindRead, Byte: 0x5A}).String(); s != "READ 0x5a NACK" {
		t.Fatalf("String = %q", s)
	}
	if s := (Event{Kind: KindStop}).String(); s != "STOP" {
		t.Fatalf("String = %q", s)
	}
}
