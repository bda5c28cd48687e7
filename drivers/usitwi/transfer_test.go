package usitwi_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"usitwi-go/drivers/usitwi"
	"usitwi-go/drivers/usitwi/usisim"
	"usitwi-go/errcode"
)

// countWait skips real delays but keeps the SCL-high wait unbounded.
type countWait struct{ delays, waits int }

func (w *countWait) Delay(time.Duration) { w.delays++ }

func (w *countWait) Until(ready func() bool) error {
	w.waits++
	for !ready() {
	}
	return nil
}

func newMaster(t *testing.T, devs ...usisim.Device) (*usitwi.Master, *usisim.Bus, *countWait) {
	t.Helper()
	bus := usisim.New(devs...)
	w := &countWait{}
	m := usitwi.New(bus)
	m.Configure(usitwi.Config{Wait: w})
	if scl, sda := bus.Lines(); !scl || !sda {
		t.Fatalf("bus not idle after Configure: scl=%v sda=%v", scl, sda)
	}
	return m, bus, w
}

func traceString(evs []usisim.Event) string {
	s := make([]string, len(evs))
	for i, e := range evs {
		s[i] = e.String()
	}
	return strings.Join(s, ", ")
}

func expectTrace(t *testing.T, bus *usisim.Bus, want string) {
	t.Helper()
	if got := traceString(bus.Trace()); got != want {
		t.Fatalf("trace mismatch\n got: %s\nwant: %s", got, want)
	}
}

func expectIdle(t *testing.T, bus *usisim.Bus) {
	t.Helper()
	if scl, sda := bus.Lines(); !scl || !sda {
		t.Fatalf("bus not released: scl=%v sda=%v", scl, sda)
	}
}

func TestWriteTransfer(t *testing.T) {
	mem := usisim.NewMemory(0x50, 256, 8)
	m, bus, _ := newMaster(t, mem)

	if err := m.Transfer([]byte{0xA0, 0x10, 0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := mem.Bytes()[0x10:0x13]; !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("memory = % x", got)
	}
	expectTrace(t, bus, "START, ADDR 0xa0 ACK, WRITE 0x10 ACK, WRITE 0x1 ACK, WRITE 0x2 ACK, WRITE 0x3 ACK, STOP")
	expectIdle(t, bus)
}

func TestReadThreeBytes(t *testing.T) {
	mem := usisim.NewMemory(0x20, 256, 8)
	copy(mem.Bytes(), []byte{0x11, 0x22, 0x33})
	m, bus, _ := newMaster(t, mem)

	buf := []byte{0x20<<1 | usitwi.DirRead, 0, 0, 0}
	if buf[0] != 0x41 {
		t.Fatalf("address byte = %#x", buf[0])
	}
	if err := m.Transfer(buf); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x41, 0x11, 0x22, 0x33}) {
		t.Fatalf("buf = % x", buf)
	}
	// Master ACKs every byte except the last.
	expectTrace(t, bus, "START, ADDR 0x41 ACK, READ 0x11 ACK, READ 0x22 ACK, READ 0x33 NACK, STOP")
	expectIdle(t, bus)
}

func TestReadSingleByteIsNacked(t *testing.T) {
	mem := usisim.NewMemory(0x20, 256, 8)
	mem.Bytes()[0] = 0x5A
	m, bus, _ := newMaster(t, mem)

	buf := []byte{0x41, 0}
	if err := m.Transfer(buf); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if buf[1] != 0x5A {
		t.Fatalf("read %#x", buf[1])
	}
	expectTrace(t, bus, "START, ADDR 0x41 ACK, READ 0x5a NACK, STOP")
}

func TestAddressNack(t *testing.T) {
	cases := map[string]struct {
		buf  []byte
		want string
	}{
		"write": {[]byte{0xA0, 0x01, 0x02}, "START, ADDR 0xa0 NACK"},
		"read":  {[]byte{0xA1, 0xEE, 0xEE}, "START, ADDR 0xa1 NACK"},
	}
	for name, tc := range cases {
		m, bus, _ := newMaster(t)
		orig := append([]byte(nil), tc.buf...)

		err := m.Transfer(tc.buf)
		if !errors.Is(err, usitwi.ErrNack) || errcode.Of(err) != errcode.Nack {
			t.Fatalf("%s: expected NACK, got %v", name, err)
		}
		if !bytes.Equal(tc.buf, orig) {
			t.Fatalf("%s: buffer modified: % x", name, tc.buf)
		}
		// Aborted without STOP, lines released.
		expectTrace(t, bus, tc.want)
		expectIdle(t, bus)
	}
}

func TestDataNackStopsWrite(t *testing.T) {
	mem := usisim.NewMemory(0x50, 256, 8)
	mem.WriteProtect = true
	m, bus, _ := newMaster(t, mem)

	err := m.Transfer([]byte{0xA0, 0x00, 0x01, 0x02})
	if !errors.Is(err, usitwi.ErrNack) {
		t.Fatalf("expected NACK, got %v", err)
	}
	if !strings.Contains(err.Error(), "write byte 2") {
		t.Fatalf("error should name the refused byte: %v", err)
	}
	expectTrace(t, bus, "START, ADDR 0xa0 ACK, WRITE 0x0 ACK, WRITE 0x1 NACK")
	if mem.Bytes()[0] != 0xFF || mem.Bytes()[1] != 0xFF {
		t.Fatal("write-protected memory changed")
	}
	expectIdle(t, bus)
}

func TestSendByteMatchesTransfer(t *testing.T) {
	e1 := usisim.NewExpander(0x50)
	m1, b1, _ := newMaster(t, e1)
	if err := m1.SendByte(0x50, 0xAB); err != nil {
		t.Fatalf("SendByte: %v", err)
	}

	e2 := usisim.NewExpander(0x50)
	m2, b2, _ := newMaster(t, e2)
	if err := m2.Transfer([]byte{0xA0, 0xAB}); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if traceString(b1.Trace()) != traceString(b2.Trace()) {
		t.Fatalf("traces differ:\n%s\n%s", traceString(b1.Trace()), traceString(b2.Trace()))
	}
	if e1.Out != 0xAB || e2.Out != 0xAB {
		t.Fatalf("expander outputs %#x %#x", e1.Out, e2.Out)
	}
}

func TestSendByteRejectsWideAddress(t *testing.T) {
	m, bus, _ := newMaster(t)
	if err := m.SendByte(0x80, 0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
	if len(bus.Trace()) != 0 {
		t.Fatal("bus touched on invalid address")
	}
}

func TestEmptyRequest(t *testing.T) {
	m, bus, _ := newMaster(t)
	if err := m.Transfer(nil); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params, got %v", err)
	}
	if len(bus.Trace()) != 0 {
		t.Fatal("bus touched on empty request")
	}
}

func TestAddressOnlyProbe(t *testing.T) {
	m, bus, _ := newMaster(t, usisim.NewExpander(0x27))

	buf := []byte{0x27 << 1}
	if err := m.Transfer(buf); err != nil {
		t.Fatalf("present slave: %v", err)
	}
	expectTrace(t, bus, "START, ADDR 0x4e ACK, STOP")

	bus.ResetTrace()
	if err := m.Transfer([]byte{0x28 << 1}); !errors.Is(err, usitwi.ErrNack) {
		t.Fatalf("absent slave: expected NACK, got %v", err)
	}
	if buf[0] != 0x4E {
		t.Fatal("address byte modified")
	}
}

func TestClockStretching(t *testing.T) {
	mem := usisim.NewMemory(0x50, 256, 8)
	m, bus, _ := newMaster(t, mem)
	bus.Stretch(3)

	if err := m.Transfer([]byte{0xA0, 0x40, 0xDE, 0xAD}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.Transfer([]byte{0xA0, 0x40}); err != nil {
		t.Fatalf("set address: %v", err)
	}
	buf := []byte{0xA1, 0, 0}
	if err := m.Transfer(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if buf[1] != 0xDE || buf[2] != 0xAD {
		t.Fatalf("read back % x", buf[1:])
	}
	if bus.StretchedPolls() == 0 {
		t.Fatal("expected the master to wait on a stretched clock")
	}
	expectIdle(t, bus)
}

func TestBoundedWaitTimesOut(t *testing.T) {
	bus := usisim.New(usisim.NewExpander(0x20))
	m := usitwi.New(bus)
	m.Configure(usitwi.Config{Wait: usitwi.Bounded{Limit: time.Millisecond}})

	bus.Hang()
	err := m.Transfer([]byte{0x40, 0x01})
	if !errors.Is(err, usitwi.ErrTimeout) || errcode.Of(err) != errcode.Timeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "scl held low") {
		t.Fatalf("timeout message: %v", err)
	}

	bus.Release()
	if err := m.Transfer([]byte{0x40, 0x01}); err != nil {
		t.Fatalf("transfer after release: %v", err)
	}
}

// failWait gives up on the first SCL wait with its own error.
type failWait struct{ err error }

func (failWait) Delay(time.Duration) {}

func (w failWait) Until(func() bool) error { return w.err }

func TestWaiterErrorKeepsItsCause(t *testing.T) {
	bus := usisim.New(usisim.NewExpander(0x20))
	m := usitwi.New(bus)
	cause := errors.New("scheduler yielded")
	m.Configure(usitwi.Config{Wait: failWait{err: cause}})

	err := m.Transfer([]byte{0x40, 0x01})
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	if strings.Contains(err.Error(), "scl held low") || !strings.Contains(err.Error(), "scheduler yielded") {
		t.Fatalf("message does not describe the cause: %v", err)
	}
	if errcode.Of(err) != errcode.Error {
		t.Fatalf("code = %s", errcode.Of(err))
	}
	expectIdle(t, bus)
}

func TestDelaysUseInjectedWaiter(t *testing.T) {
	m, _, w := newMaster(t, usisim.NewExpander(0x20))
	if err := m.SendByte(0x20, 0x55); err != nil {
		t.Fatalf("SendByte: %v", err)
	}
	// 18 bit times each wait on SCL, plus START and two in STOP.
	if w.waits != 18+1+2 {
		t.Fatalf("SCL waits = %d", w.waits)
	}
	if w.delays == 0 {
		t.Fatal("no delays issued")
	}
}
