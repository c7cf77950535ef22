// Package dmg wires the hardware components of a Game Boy into a Machine and
// drives them one instruction at a time.
package dmg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valerio/dmgcore/dmg/audio"
	"github.com/valerio/dmgcore/dmg/cpu"
	"github.com/valerio/dmgcore/dmg/interrupt"
	"github.com/valerio/dmgcore/dmg/memory"
	"github.com/valerio/dmgcore/dmg/serial"
	"github.com/valerio/dmgcore/dmg/timer"
	"github.com/valerio/dmgcore/dmg/timing"
	"github.com/valerio/dmgcore/dmg/video"
)

// divSeed is the internal divider value when the boot ROM hands over control.
const divSeed = 0xABCC

// Machine owns every component. Components never reference each other
// directly, they talk through the MMU and the interrupt controller.
type Machine struct {
	cpu    *cpu.CPU
	mmu    *memory.MMU
	gpu    *video.GPU
	timer  *timer.Timer
	apu    *audio.APU
	serial *serial.LogSink
	irq    *interrupt.Controller
	cart   *memory.Cartridge

	logger  *slog.Logger
	trace   bool
	limiter timing.Limiter

	frames       int
	instructions uint64

	// err is the first fatal error, returned by every Step after it
	err error
}

// New creates a machine with the given cartridge image inserted.
func New(rom []byte, opts ...Option) (*Machine, error) {
	if len(rom) == 0 {
		return nil, ErrNoCartridge
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	cart, err := memory.NewCartridge(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to load cartridge: %w", err)
	}

	m := &Machine{
		cart:    cart,
		logger:  cfg.logger,
		trace:   cfg.trace,
		limiter: cfg.limiter,
	}

	m.irq = interrupt.New()
	m.timer = timer.New(m.irq)
	m.gpu = video.NewGpu(m.irq)
	m.apu = audio.New()
	m.serial = serial.NewLogSink(
		serial.WithLogger(cfg.logger),
		serial.WithLineLogging(cfg.serialOutput),
	)
	m.mmu = memory.New(cart, memory.Devices{
		Video:      m.gpu,
		Timer:      m.timer,
		Interrupts: m.irq,
		Audio:      m.apu,
		Serial:     m.serial,
	}, m.irq)
	m.cpu = cpu.New(m.mmu, m.irq)

	if cfg.bootState {
		m.cpu.Boot()
		m.timer.SetSeed(divSeed)
	}

	m.logger.Info("Cartridge loaded",
		"title", cart.Title,
		"mbc", cart.MBC,
		"rom_banks", cart.ROMBanks,
		"ram_banks", cart.RAMBanks,
		"battery", cart.HasBattery,
		"header_checksum_ok", cart.HeaderChecksumValid())

	return m, nil
}

// Step executes one instruction, advances the peripherals by its cost and
// services a pending interrupt. It returns the cycles spent, interrupt
// dispatch included. After a fatal error the machine stops and every call
// returns that error.
func (m *Machine) Step() (int, error) {
	if m.err != nil {
		return 0, m.err
	}

	halted := m.irq.Halted()
	if m.trace && !halted {
		m.traceInstruction()
	}

	cycles, err := m.cpu.Step()
	if err != nil {
		m.err = err
		m.logger.Error("Emulation stopped", "error", err, "instructions", m.instructions)
		return 0, err
	}
	if !halted {
		m.instructions++
	}
	m.tick(cycles)

	if extra := m.irq.Check(m.cpu); extra > 0 {
		m.tick(extra)
		cycles += extra
	}

	return cycles, nil
}

func (m *Machine) tick(cycles int) {
	m.timer.Tick(cycles)
	m.gpu.Tick(cycles)
	m.apu.Tick(cycles)
}

func (m *Machine) traceInstruction() {
	line := cpu.Disassemble(m.mmu, m.cpu.Registers().PC)
	m.logger.Debug("exec",
		"pc", fmt.Sprintf("0x%04X", line.Address),
		"instr", line.Instruction,
		"regs", m.cpu.Registers().String())
}

// RunUntilFrame steps until the PPU completes a frame. With the display off
// no frame ever completes, so it gives up after one frame's worth of cycles.
func (m *Machine) RunUntilFrame() error {
	elapsed := 0
	for elapsed < timing.CyclesPerFrame {
		cycles, err := m.Step()
		if err != nil {
			return err
		}
		elapsed += cycles
		if m.gpu.FrameReady() {
			break
		}
	}
	m.frames++
	return nil
}

// Run emulates frames until ctx is done, onFrame returns an error or the
// machine hits a fatal error. onFrame may be nil.
func (m *Machine) Run(ctx context.Context, onFrame func(*video.FrameBuffer) error) error {
	m.limiter.Reset()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := m.RunUntilFrame(); err != nil {
			return err
		}
		if onFrame != nil {
			if err := onFrame(m.gpu.FrameBuffer()); err != nil {
				return err
			}
		}
		m.limiter.WaitForNextFrame()
	}
}

// Press holds down a joypad key.
func (m *Machine) Press(key memory.JoypadKey) {
	m.mmu.Joypad().Press(key)
}

// Release lets go of a joypad key.
func (m *Machine) Release(key memory.JoypadKey) {
	m.mmu.Joypad().Release(key)
}

// FrameBuffer returns the PPU output. It is updated in place as scanlines
// are drawn.
func (m *Machine) FrameBuffer() *video.FrameBuffer {
	return m.gpu.FrameBuffer()
}

// Frames returns how many times RunUntilFrame has completed.
func (m *Machine) Frames() int { return m.frames }

// Instructions returns how many instructions have been executed.
func (m *Machine) Instructions() uint64 { return m.instructions }

// Cartridge returns the inserted cartridge.
func (m *Machine) Cartridge() *memory.Cartridge { return m.cart }

// Registers returns a copy of the CPU registers.
func (m *Machine) Registers() cpu.Registers { return *m.cpu.Registers() }

// Read returns the byte at address as the CPU would see it.
func (m *Machine) Read(address uint16) byte { return m.mmu.Read(address) }

// SerialOutput returns everything sent over the serial port so far.
func (m *Machine) SerialOutput() string { return m.serial.Output() }

// Err returns the fatal error that stopped the machine, if any.
func (m *Machine) Err() error { return m.err }
