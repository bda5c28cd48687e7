// Package boards lists the USI pin wiring of the supported ATtiny families.
// A Family carries no register addresses; the platform package binds those.
package boards

import "usitwi-go/errcode"

// Family describes where a chip family exposes the USI two-wire pins.
// SDA and SCL are bit numbers within Port.
type Family struct {
	Name     string
	Port     byte // 'A' or 'B'
	SDA, SCL uint8
}

// SDAMask returns the port bit mask of the SDA pin.
func (f Family) SDAMask() uint8 { return 1 << f.SDA }

// SCLMask returns the port bit mask of the SCL pin.
func (f Family) SCLMask() uint8 { return 1 << f.SCL }

// Pin returns a datasheet-style pin name such as "PB0".
func (f Family) Pin(bit uint8) string {
	return "P" + string(rune(f.Port)) + string(rune('0'+bit))
}

var (
	tiny85   = Family{Name: "attiny25/45/85", Port: 'B', SDA: 0, SCL: 2}
	tiny84   = Family{Name: "attiny24/44/84", Port: 'A', SDA: 6, SCL: 4}
	tiny2313 = Family{Name: "attiny2313/4313", Port: 'B', SDA: 5, SCL: 7}
)

var families = map[string]Family{
	"attiny25":   tiny85,
	"attiny45":   tiny85,
	"attiny85":   tiny85,
	"attiny24":   tiny84,
	"attiny44":   tiny84,
	"attiny84":   tiny84,
	"attiny2313": tiny2313,
	"attiny4313": tiny2313,
}

// Lookup returns the family of a chip name (e.g. "attiny45").
func Lookup(name string) (Family, error) {
	f, ok := families[name]
	if !ok {
		return Family{}, errcode.Wrap(errcode.UnknownChip, "boards", name)
	}
	return f, nil
}
