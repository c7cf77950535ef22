// Package serial provides the link port as seen by test ROMs: a sink that
// accepts outgoing bytes and logs them as text.
package serial

import (
	"log/slog"
	"strings"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
)

// scUnusedBits read back as 1 on DMG.
const scUnusedBits = 0x7E

// LogSink implements a dummy serial device that just logs outgoing bytes as text.
// Handy for debugging test roms that output to serial.
//
// Transfers complete immediately and no other end is connected, so the
// received byte is always 0xFF. The serial interrupt is never raised.
type LogSink struct {
	sb, sc byte
	logger *slog.Logger

	// settings
	logLines bool

	// line buffers outgoing text until a line terminator
	line []byte
	// output is everything sent since the last Reset
	output strings.Builder
}

type LogSinkOption func(*LogSink)

// WithLogger sets the logger completed lines are written to.
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// WithLineLogging turns logging of completed lines on or off. Output is
// recorded either way.
func WithLineLogging(enabled bool) LogSinkOption {
	return func(s *LogSink) { s.logLines = enabled }
}

// NewLogSink creates a new logging serial device.
func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger:   slog.Default(),
		logLines: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *LogSink) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value & 0x81
		s.maybeStartTransfer()
	}
}

func (s *LogSink) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc | scUnusedBits
	default:
		return 0xFF
	}
}

// Output returns the text sent through the port since the last Reset.
func (s *LogSink) Output() string {
	return s.output.String()
}

func (s *LogSink) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.line = s.line[:0]
	s.output.Reset()
}

func (s *LogSink) maybeStartTransfer() {
	// a transfer should start when bit 7 (start) and bit 0 (clock source) of SC are set.
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	// log the outgoing byte as text; buffer until newline for readability
	b := s.sb
	if b != 0 {
		s.output.WriteByte(b)
	}
	if b == 0 || b == '\n' || b == '\r' {
		s.flushLine()
	} else {
		s.line = append(s.line, b)
	}

	s.completeTransfer()
}

func (s *LogSink) flushLine() {
	if len(s.line) == 0 {
		return
	}
	if s.logLines {
		s.logger.Info("serial", "line", string(s.line))
	}
	s.line = s.line[:0]
}

func (s *LogSink) completeTransfer() {
	s.sb = 0xFF
	// Clear start bit (bit7) to indicate completion
	s.sc = bit.Reset(7, s.sc)
}
