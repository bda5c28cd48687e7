package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"usitwi-go/drivers/eeprom24"
	"usitwi-go/drivers/usitwi"
	"usitwi-go/drivers/usitwi/usisim"
	"usitwi-go/x/conv"
	"usitwi-go/x/strconvx"
)

var errQuit = errors.New("quit")

type session struct {
	bus    *usisim.Bus
	master *usitwi.Master
	rom    *eeprom24.Device // nil when no memory is configured
	out    io.Writer
}

func newSession(conf config, cfg usitwi.Config, out io.Writer) (*session, error) {
	devs, err := conf.build()
	if err != nil {
		return nil, err
	}
	bus := usisim.New(devs...)
	bus.Stretch(conf.Stretch)

	m := usitwi.New(bus)
	m.Configure(cfg)

	s := &session{bus: bus, master: m, out: out}
	if d, ok := conf.eeprom(); ok {
		a, _ := strconvx.ParseUint(d.Address, 0, 7)
		rom := eeprom24.New(m)
		rom.Configure(eeprom24.Config{Address: uint16(a), Size: d.Size, PageSize: d.Page})
		s.rom = &rom
	}
	return s, nil
}

type command struct {
	usage string
	min   int // minimum argument count
	run   func(s *session, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"scan":   {"scan", 0, (*session).scan},
		"probe":  {"probe ADDR", 1, (*session).probe},
		"send":   {"send ADDR BYTE", 2, (*session).send},
		"write":  {"write ADDR BYTE...", 2, (*session).write},
		"read":   {"read ADDR N", 2, (*session).read},
		"xfer":   {"xfer ADDRBYTE [BYTE...]  (raw Transfer, 8-bit address byte)", 1, (*session).xfer},
		"eeprom": {"eeprom read OFF N | eeprom write OFF BYTE...", 2, (*session).eeprom},
		"trace":  {"trace", 0, (*session).trace},
		"help":   {"help", 0, (*session).help},
		"quit":   {"quit", 0, func(*session, []string) error { return errQuit }},
	}
}

// exec runs one command line. Blank lines and # comments are ignored.
func (s *session) exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return errors.Wrap(err, "parse")
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return errors.Errorf("unknown command %q (try help)", args[0])
	}
	if len(args)-1 < cmd.min {
		return errors.Errorf("usage: %s", cmd.usage)
	}
	log.WithField("cmd", args[0]).Debug(strings.Join(args[1:], " "))
	err = cmd.run(s, args[1:])
	if err == nil || err == errQuit {
		return err
	}
	return errors.Wrap(err, args[0])
}

func (s *session) printHex(p []byte) {
	var buf [64]byte
	fmt.Fprintln(s.out, string(conv.AppendHex(buf[:0], p)))
}

func parseByte(s string) (byte, error) {
	v, err := strconvx.ParseUint(s, 0, 8)
	if err != nil {
		return 0, errors.Wrapf(err, "byte %q", s)
	}
	return byte(v), nil
}

func parseAddr(s string) (uint16, error) {
	v, err := strconvx.ParseUint(s, 0, 7)
	if err != nil {
		return 0, errors.Wrapf(err, "address %q", s)
	}
	return uint16(v), nil
}

func parseBytes(args []string) ([]byte, error) {
	p := make([]byte, len(args))
	for i, a := range args {
		b, err := parseByte(a)
		if err != nil {
			return nil, err
		}
		p[i] = b
	}
	return p, nil
}

func parseCount(s string) (int, error) {
	v, err := strconvx.ParseUint(s, 0, 16)
	if err != nil || v == 0 {
		return 0, errors.Errorf("count %q", s)
	}
	return int(v), nil
}

func (s *session) scan([]string) error {
	found, err := s.master.Scan()
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(s.out, "no devices")
		return nil
	}
	s.printHex(found)
	return nil
}

func (s *session) probe(args []string) error {
	a, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	ok, err := s.master.Probe(byte(a))
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(s.out, "ack")
	} else {
		fmt.Fprintln(s.out, "nack")
	}
	return nil
}

func (s *session) send(args []string) error {
	a, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	d, err := parseByte(args[1])
	if err != nil {
		return err
	}
	return s.master.SendByte(byte(a), d)
}

func (s *session) write(args []string) error {
	a, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	p, err := parseBytes(args[1:])
	if err != nil {
		return err
	}
	return s.master.Tx(a, p, nil)
}

func (s *session) read(args []string) error {
	a, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := parseCount(args[1])
	if err != nil {
		return err
	}
	p := make([]byte, n)
	if err := s.master.Tx(a, nil, p); err != nil {
		return err
	}
	s.printHex(p)
	return nil
}

func (s *session) xfer(args []string) error {
	p, err := parseBytes(args)
	if err != nil {
		return err
	}
	if err := s.master.Transfer(p); err != nil {
		return err
	}
	if p[0]&usitwi.DirRead != 0 {
		s.printHex(p[1:])
	}
	return nil
}

func (s *session) eeprom(args []string) error {
	if s.rom == nil {
		return errors.New("no memory device configured")
	}
	off, err := strconvx.ParseUint(args[1], 0, 16)
	if err != nil {
		return errors.Wrapf(err, "offset %q", args[1])
	}
	switch args[0] {
	case "read":
		if len(args) < 3 {
			return errors.New("usage: eeprom read OFF N")
		}
		n, err := parseCount(args[2])
		if err != nil {
			return err
		}
		p := make([]byte, n)
		got, err := s.rom.ReadAt(p, int64(off))
		if got > 0 {
			s.printHex(p[:got])
		}
		return err
	case "write":
		p, err := parseBytes(args[2:])
		if err != nil {
			return err
		}
		n, err := s.rom.WriteAt(p, int64(off))
		log.WithField("bytes", n).Debug("eeprom write")
		return err
	default:
		return errors.Errorf("eeprom: unknown op %q", args[0])
	}
}

func (s *session) trace([]string) error {
	for _, ev := range s.bus.Trace() {
		fmt.Fprintln(s.out, ev.String())
	}
	s.bus.ResetTrace()
	return nil
}

func (s *session) help([]string) error {
	for _, name := range []string{"scan", "probe", "send", "write", "read", "xfer", "eeprom", "trace", "help", "quit"} {
		fmt.Fprintln(s.out, " ", commands[name].usage)
	}
	return nil
}
