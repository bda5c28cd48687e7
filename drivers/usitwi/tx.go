package usitwi

import (
	"errors"

	"tinygo.org/x/drivers"

	"usitwi-go/errcode"
)

// Ensure the master can stand in for a TinyGo I2C bus.
var _ drivers.I2C = (*Master)(nil)

// Scan range: 0x00..0x07 and 0x78..0x7F are reserved addresses.
const (
	ScanFirst = 0x08
	ScanLast  = 0x77
)

// Tx implements tinygo drivers.I2C. When w is non-empty (or both w and r are
// empty) a write transaction is issued; when r is non-empty a read
// transaction follows. Each transaction ends with its own STOP: there is no
// repeated start, so devices that need one for register reads will not work.
func (m *Master) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "usitwi: tx", "10-bit addresses are not supported")
	}
	a := byte(addr) << 1

	if len(w) > 0 || len(r) == 0 {
		m.scratch = append(m.scratch[:0], a|DirWrite)
		m.scratch = append(m.scratch, w...)
		if err := m.Transfer(m.scratch); err != nil {
			return err
		}
	}

	if len(r) > 0 {
		m.scratch = append(m.scratch[:0], a|DirRead)
		m.scratch = append(m.scratch, r...) // sizes the request; contents are overwritten
		if err := m.Transfer(m.scratch); err != nil {
			return err
		}
		copy(r, m.scratch[1:])
	}
	return nil
}

// Probe addresses the slave with an empty write and reports whether it
// acknowledged. Errors other than NACK are returned.
func (m *Master) Probe(addr byte) (bool, error) {
	if addr > 0x7F {
		return false, errcode.Wrap(errcode.InvalidParams, "usitwi: probe", "address out of 7-bit range")
	}
	m.scratch = append(m.scratch[:0], addr<<1|DirWrite)
	err := m.Transfer(m.scratch)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNack):
		return false, nil
	default:
		return false, err
	}
}

// Scan probes every non-reserved address and returns those that answered,
// in ascending order.
func (m *Master) Scan() ([]byte, error) {
	var found []byte
	for a := byte(ScanFirst); a <= ScanLast; a++ {
		ok, err := m.Probe(a)
		if err != nil {
			return found, err
		}
		if ok {
			found = append(found, a)
		}
	}
	return found, nil
}
