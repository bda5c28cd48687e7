package usisim

import "usitwi-go/x/strconvx"

// Kind classifies a recorded bus event.
type Kind uint8

const (
	KindStart Kind = iota
	KindStop
	KindAddr  // address byte; Ack is the slave's answer
	KindWrite // data byte from master; Ack is the slave's answer
	KindRead  // data byte from slave; Ack is the master's answer
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "START"
	case KindStop:
		return "STOP"
	case KindAddr:
		return "ADDR"
	case KindWrite:
		return "WRITE"
	case KindRead:
		return "READ"
	default:
		return "?"
	}
}

// Event is one entry of the bus trace.
type Event struct {
	Kind Kind
	Byte byte
	Ack  bool
}

func (e Event) String() string {
	switch e.Kind {
	case KindStart, KindStop:
		return e.Kind.String()
	}
	s := e.Kind.String() + " 0x" + strconvx.FormatUint(uint64(e.Byte), 16)
	if e.Ack {
		return s + " ACK"
	}
	return s + " NACK"
}
