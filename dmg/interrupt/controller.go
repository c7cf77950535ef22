// Package interrupt implements the DMG interrupt controller: the IE and IF
// registers, the master enable flag (IME) with its one-instruction EI latency,
// and the halt state that pending requests wake the CPU from.
package interrupt

import (
	"fmt"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// ServiceCycles is the cost of dispatching an interrupt, equivalent to a CALL.
const ServiceCycles = 20

// ifUnusedBits always read back as 1.
const ifUnusedBits = 0xE0

const sourceMask = 0x1F

// Servicer is the CPU side of an interrupt dispatch: push the current PC and jump.
type Servicer interface {
	Call(vector uint16)
}

// Controller tracks interrupt requests and decides when they are serviced.
type Controller struct {
	enable  uint8 // IE
	request uint8 // IF, low 5 bits

	ime bool
	// imeDelay counts down to IME being set after EI. EI loads 2, every Check
	// decrements it, so the instruction following EI still runs with IME clear.
	imeDelay int

	halted bool
}

func New() *Controller {
	return &Controller{}
}

// Request sets the request bit for the interrupt and wakes a halted CPU,
// regardless of the master enable flag.
func (c *Controller) Request(i addr.Interrupt) {
	if i >= addr.InterruptCount {
		panic(fmt.Sprintf("unknown interrupt: %d", i))
	}
	c.request |= i.Mask()
	c.halted = false
}

// Check runs once per instruction step. It applies a pending EI, then services
// the highest priority interrupt that is both requested and enabled, if IME allows.
// Returns the extra cycles spent dispatching (0 when nothing was serviced).
func (c *Controller) Check(s Servicer) int {
	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.ime = true
		}
	}

	if !c.ime {
		return 0
	}

	pending := c.Pending()
	if pending == 0 {
		return 0
	}

	for i := addr.Interrupt(0); i < addr.InterruptCount; i++ {
		if bit.IsSet(uint8(i), pending) {
			c.service(i, s)
			return ServiceCycles
		}
	}

	return 0
}

func (c *Controller) service(i addr.Interrupt, s Servicer) {
	c.ime = false
	c.request = bit.Reset(uint8(i), c.request)
	s.Call(i.Vector())
}

// Pending returns the interrupts that are both requested and enabled.
func (c *Controller) Pending() uint8 {
	return c.enable & c.request & sourceMask
}

// EnableMaster schedules IME to be set after the next instruction completes (EI).
func (c *Controller) EnableMaster() {
	if c.ime || c.imeDelay > 0 {
		return
	}
	c.imeDelay = 2
}

// EnableMasterNow sets IME immediately (RETI).
func (c *Controller) EnableMasterNow() {
	c.ime = true
	c.imeDelay = 0
}

// DisableMaster clears IME and cancels a pending EI (DI).
func (c *Controller) DisableMaster() {
	c.ime = false
	c.imeDelay = 0
}

func (c *Controller) MasterEnabled() bool { return c.ime }

// Halt suspends instruction fetching until the next interrupt request.
// A request that is already pending and enabled resumes immediately.
func (c *Controller) Halt() {
	if c.Pending() != 0 {
		return
	}
	c.halted = true
}

func (c *Controller) Halted() bool { return c.halted }

func (c *Controller) Read(address uint16) byte {
	switch address {
	case addr.IF:
		return c.request | ifUnusedBits
	case addr.IE:
		return c.enable
	default:
		panic(fmt.Sprintf("interrupt: invalid read address 0x%04X", address))
	}
}

func (c *Controller) Write(address uint16, value byte) {
	switch address {
	case addr.IF:
		c.request = value & sourceMask
		if c.Pending() != 0 {
			c.halted = false
		}
	case addr.IE:
		c.enable = value
		if c.Pending() != 0 {
			c.halted = false
		}
	default:
		panic(fmt.Sprintf("interrupt: invalid write address 0x%04X", address))
	}
}
