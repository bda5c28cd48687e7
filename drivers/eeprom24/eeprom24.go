// Package eeprom24 provides a driver for 24Cxx serial EEPROMs (24C01 to
// 24C16). Parts larger than 256 bytes expose each 256-byte block on its own
// slave address (A0..A2 become block-select bits), so the driver derives the
// slave address from the memory offset.
//
// The driver works on any tinygo drivers.I2C. It does not need a repeated
// start: reads set the word address with a write transaction and then read
// from the device's internal address counter.
package eeprom24

import (
	"io"
	"time"

	"tinygo.org/x/drivers"

	"usitwi-go/errcode"
)

// I2C base address (A2..A0 tied low).
const Address = 0x50

const blockSize = 256

// Errors returned by the driver.
var (
	ErrTimeout = &errcode.E{C: errcode.Timeout, Op: "eeprom24", Msg: "write cycle did not complete", Err: errcode.Timeout}
	ErrOffset  = &errcode.E{C: errcode.OutOfRange, Op: "eeprom24", Msg: "negative offset", Err: errcode.OutOfRange}
)

// Config describes the part. All fields are optional; the zero value is a
// 24C02 (256 bytes, 8-byte pages) at 0x50.
type Config struct {
	Address  uint16
	Size     int
	PageSize int
	// WriteTimeout bounds ACK polling after each page write. Default 10 ms,
	// twice the worst-case write cycle of common parts.
	WriteTimeout time.Duration
	// PollInterval is the pause between ACK polls. Default 200 µs.
	PollInterval time.Duration
}

// Conf24C02 and friends describe common parts.
var (
	Conf24C02 = Config{Size: 256, PageSize: 8}
	Conf24C04 = Config{Size: 512, PageSize: 16}
	Conf24C08 = Config{Size: 1024, PageSize: 16}
	Conf24C16 = Config{Size: 2048, PageSize: 16}
)

// Device wraps an I2C connection to a 24Cxx EEPROM.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	buf []byte // word address + one page
}

// New creates a Device for the given bus. It does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure applies optional config. It may be called with no cfg.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.Size <= 0 {
		c.Size = Conf24C02.Size
	}
	if c.PageSize <= 0 {
		c.PageSize = Conf24C02.PageSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Microsecond
	}
	c.Address = d.Address
	d.cfg = c
	d.buf = make([]byte, 1+c.PageSize)
}

// Size returns the capacity in bytes.
func (d *Device) Size() int {
	d.ensure()
	return d.cfg.Size
}

func (d *Device) ensure() {
	if d.buf == nil {
		d.Configure()
	}
}

// slave returns the bus address and word address for a memory offset.
func (d *Device) slave(off int) (uint16, byte) {
	return d.Address + uint16(off/blockSize), byte(off % blockSize)
}

// ReadAt implements io.ReaderAt. Reading past the end returns the bytes up to
// the end and io.EOF.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	d.ensure()
	if off < 0 {
		return 0, ErrOffset
	}
	size := int64(d.cfg.Size)
	if off >= size {
		return 0, io.EOF
	}
	want := p
	if off+int64(len(p)) > size {
		want = p[:size-off]
	}

	n := 0
	for n < len(want) {
		pos := int(off) + n
		addr, word := d.slave(pos)
		chunk := blockSize - int(word)
		if chunk > len(want)-n {
			chunk = len(want) - n
		}
		d.buf[0] = word
		if err := d.bus.Tx(addr, d.buf[:1], want[n:n+chunk]); err != nil {
			return n, err
		}
		n += chunk
	}
	if len(want) < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Data is split on page boundaries and each
// page write waits for the device's write cycle by ACK polling.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	d.ensure()
	if off < 0 {
		return 0, ErrOffset
	}
	size := int64(d.cfg.Size)
	if off > size || (off == size && len(p) > 0) {
		return 0, io.EOF
	}
	src := p
	if off+int64(len(p)) > size {
		src = p[:size-off]
	}

	page := d.cfg.PageSize
	n := 0
	for n < len(src) {
		pos := int(off) + n
		chunk := page - pos%page
		if chunk > len(src)-n {
			chunk = len(src) - n
		}
		addr, word := d.slave(pos)
		d.buf[0] = word
		copy(d.buf[1:], src[n:n+chunk])
		if err := d.bus.Tx(addr, d.buf[:1+chunk], nil); err != nil {
			return n, err
		}
		if err := d.waitWrite(addr); err != nil {
			return n, err
		}
		n += chunk
	}
	if len(src) < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Ready reports whether the device acknowledges its base address, i.e. no
// write cycle is in progress.
func (d *Device) Ready() bool {
	d.ensure()
	return d.bus.Tx(d.Address, nil, nil) == nil
}

// waitWrite polls the block address until it is acknowledged again. Any bus
// error counts as busy.
func (d *Device) waitWrite(addr uint16) error {
	deadline := time.Now().Add(d.cfg.WriteTimeout)
	for {
		if d.bus.Tx(addr, nil, nil) == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}
