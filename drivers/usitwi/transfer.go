package usitwi

import (
	"usitwi-go/errcode"
	"usitwi-go/x/strconvx"
)

const opTransfer = "usitwi: transfer"

// Direction bit in the address byte.
const (
	DirWrite = 0x00
	DirRead  = 0x01
)

// phase is the state of a single transfer. The address byte is always sent
// as a write; its R/W bit then fixes the phase for every remaining byte.
type phase uint8

const (
	phaseAddress phase = iota
	phaseWrite
	phaseRead
)

func (p phase) String() string {
	switch p {
	case phaseAddress:
		return "address"
	case phaseWrite:
		return "write"
	case phaseRead:
		return "read"
	default:
		return "unknown"
	}
}

func phaseOf(addr byte) phase {
	if addr&DirRead == 0 {
		return phaseWrite
	}
	return phaseRead
}

// Transfer runs one complete bus transaction. buf[0] holds the 7-bit slave
// address in bits 7..1 and the direction in bit 0 (0 write, 1 read). In a
// write every following byte is sent to the slave; in a read every following
// byte is overwritten with data from the slave, the last one answered with
// NACK.
//
// A NACK from the slave aborts immediately: both lines are released high
// without a STOP and an error with code errcode.Nack is returned. A
// one-byte buf only addresses the slave and so probes for its presence.
func (m *Master) Transfer(buf []byte) error {
	if len(buf) == 0 {
		return errcode.Wrap(errcode.InvalidParams, opTransfer, "empty request")
	}

	if err := m.start(); err != nil {
		return m.abort(err)
	}

	ack, err := m.send(buf[0])
	if err != nil {
		return m.abort(err)
	}
	if !ack {
		return m.nack(phaseAddress, 0)
	}

	switch phaseOf(buf[0]) {
	case phaseWrite:
		err = m.writeLoop(buf[1:])
	case phaseRead:
		err = m.readLoop(buf[1:])
	}
	if err != nil {
		return err
	}

	if err := m.stop(); err != nil {
		return m.abort(err)
	}
	return nil
}

// SendByte writes a single data byte to the slave at addr (0x00..0x7F).
func (m *Master) SendByte(addr, data byte) error {
	if addr > 0x7F {
		return errcode.Wrap(errcode.InvalidParams, "usitwi: send", "address out of 7-bit range")
	}
	buf := [2]byte{addr<<1 | DirWrite, data}
	return m.Transfer(buf[:])
}

func (m *Master) writeLoop(data []byte) error {
	for i, b := range data {
		ack, err := m.send(b)
		if err != nil {
			return m.abort(err)
		}
		if !ack {
			return m.nack(phaseWrite, i+1)
		}
	}
	return nil
}

func (m *Master) readLoop(data []byte) error {
	p := m.port
	for i := range data {
		p.SetOutput(SDA, false)
		b, err := m.clock(8)
		if err != nil {
			return m.abort(err)
		}
		data[i] = b

		p.SetOutput(SDA, true)
		if i == len(data)-1 {
			p.Load(0xFF) // NACK: no more data wanted
		} else {
			p.Load(0x00) // ACK
		}
		if _, err := m.clock(1); err != nil {
			return m.abort(err)
		}
	}
	return nil
}

// send shifts one byte out and samples the slave's acknowledge bit. On ACK
// the data line is driven again; on NACK it is left as input.
func (m *Master) send(b byte) (bool, error) {
	p := m.port
	p.Set(SCL, false)
	p.Load(b)
	if _, err := m.clock(8); err != nil {
		return false, err
	}

	p.SetOutput(SDA, false)
	r, err := m.clock(1)
	if err != nil {
		return false, err
	}
	if r&0x01 != 0 {
		return false, nil
	}
	p.SetOutput(SDA, true)
	return true, nil
}

// clock strobes SCL until the counter armed for bits overflows and returns
// the shift register. Each bit waits for SCL to read high after the rising
// strobe, which is where a stretching slave holds the master.
func (m *Master) clock(bits uint8) (byte, error) {
	p := m.port
	p.Arm(bits)
	for {
		m.wait.Delay(m.timing.Low)
		p.Strobe() // rising edge
		if err := m.wait.Until(m.sclHigh); err != nil {
			return 0, err
		}
		m.wait.Delay(m.timing.High)
		p.Strobe() // falling edge
		if p.Overflow() {
			break
		}
	}
	m.wait.Delay(m.timing.Low)
	return p.Data(), nil
}

// start generates a START: SDA falls while SCL is high.
func (m *Master) start() error {
	p := m.port
	p.Set(SCL, true)
	if err := m.wait.Until(m.sclHigh); err != nil {
		return err
	}
	m.wait.Delay(m.timing.Setup)

	p.SetOutput(SDA, true)
	p.SetOutput(SCL, true)
	p.Set(SDA, false)
	m.wait.Delay(m.timing.High)
	p.Set(SCL, false)
	m.wait.Delay(m.timing.Low)
	p.Set(SDA, true)
	return nil
}

// stop generates a STOP (SDA rises while SCL is high) and leaves both lines
// released.
func (m *Master) stop() error {
	p := m.port
	p.Set(SDA, false)
	m.wait.Delay(m.timing.Low)
	p.SetOutput(SCL, false)
	if err := m.wait.Until(m.sclHigh); err != nil {
		return err
	}
	m.wait.Delay(m.timing.High)
	p.SetOutput(SDA, false)
	return m.wait.Until(m.sclHigh)
}

// release returns both latches high, leaving the bus idle.
func (m *Master) release() {
	m.port.Set(SCL, true)
	m.port.Set(SDA, true)
}

func (m *Master) nack(ph phase, idx int) error {
	m.release()
	msg := ph.String() + " byte " + strconvx.Itoa(idx)
	return errcode.Wrap(errcode.Nack, opTransfer, msg)
}

func (m *Master) abort(err error) error {
	m.release()
	c := errcode.Of(err)
	msg := "scl held low"
	if c != errcode.Timeout {
		msg = "wait: " + err.Error()
	}
	return &errcode.E{C: c, Op: opTransfer, Msg: msg, Err: err}
}
