package usisim

// Device is a simulated slave. The bus calls Address after every address
// byte; a device that returns true is selected and receives the data phase
// until the next STOP or START.
type Device interface {
	// Address reports whether the device acknowledges the 7-bit address in
	// the given direction.
	Address(addr uint8, read bool) bool
	// Write delivers one byte written by the master and returns the ACK bit.
	Write(b byte) bool
	// Read returns the next byte to transmit to the master.
	Read() byte
	// Stop ends the selection.
	Stop()
}

// Memory is a 24Cxx-style serial EEPROM. Every 256-byte block answers on
// its own address starting at Base; the first byte of a write sets the word
// address within the block and later bytes are stored with wrap-around inside
// the current page.
type Memory struct {
	Base uint8
	// Busy is the number of address attempts NACKed after a write cycle,
	// mimicking the internal programming time seen by ACK polling.
	Busy int
	// WriteProtect makes the device NACK data bytes (word address is still
	// acknowledged).
	WriteProtect bool

	mem   []byte
	page  int
	ptr   int
	block int
	first bool
	wrote bool
	busy  int
}

// NewMemory returns an erased (0xFF) memory of size bytes with the given
// page size. size is rounded up to a multiple of 256.
func NewMemory(base uint8, size, page int) *Memory {
	if size <= 0 {
		size = 256
	}
	size = (size + 255) &^ 255
	if page <= 0 {
		page = 8
	}
	m := &Memory{Base: base, mem: make([]byte, size), page: page}
	for i := range m.mem {
		m.mem[i] = 0xFF
	}
	return m
}

// Bytes exposes the backing store.
func (m *Memory) Bytes() []byte { return m.mem }

func (m *Memory) blocks() int { return len(m.mem) / 256 }

func (m *Memory) Address(addr uint8, read bool) bool {
	if addr < m.Base || int(addr) >= int(m.Base)+m.blocks() {
		return false
	}
	if m.busy > 0 {
		m.busy--
		return false
	}
	m.block = int(addr - m.Base)
	m.first = !read
	return true
}

func (m *Memory) Write(b byte) bool {
	if m.first {
		m.first = false
		m.ptr = m.block*256 + int(b)
		return true
	}
	if m.WriteProtect {
		return false
	}
	m.mem[m.ptr] = b
	pageBase := m.ptr - m.ptr%m.page
	m.ptr = pageBase + (m.ptr-pageBase+1)%m.page
	m.wrote = true
	return true
}

func (m *Memory) Read() byte {
	b := m.mem[m.ptr]
	m.ptr = (m.ptr + 1) % len(m.mem)
	return b
}

func (m *Memory) Stop() {
	if m.wrote {
		m.wrote = false
		m.busy = m.Busy
	}
}

// Expander is a PCF8574-style 8-bit quasi-bidirectional port. Writes set the
// output latch; reads return the pin levels, which are the external inputs
// AND-ed with the latch.
type Expander struct {
	Addr uint8
	Out  byte
	In   byte

	writes []byte
}

// NewExpander returns an expander whose pins all read high.
func NewExpander(addr uint8) *Expander {
	return &Expander{Addr: addr, Out: 0xFF, In: 0xFF}
}

// Writes returns every byte the master wrote, in order.
func (e *Expander) Writes() []byte { return e.writes }

func (e *Expander) Address(addr uint8, _ bool) bool { return addr == e.Addr }

func (e *Expander) Write(b byte) bool {
	e.Out = b
	e.writes = append(e.writes, b)
	return true
}

func (e *Expander) Read() byte { return e.In & e.Out }

func (e *Expander) Stop() {}
