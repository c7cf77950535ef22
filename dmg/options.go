package dmg

import (
	"log/slog"

	"github.com/valerio/dmgcore/dmg/timing"
)

type config struct {
	logger       *slog.Logger
	trace        bool
	serialOutput bool
	bootState    bool
	limiter      timing.Limiter
}

func defaultConfig() config {
	return config{
		logger:    slog.Default(),
		bootState: true,
		limiter:   timing.NewNoOpLimiter(),
	}
}

// Option configures a Machine.
type Option func(*config)

// WithLogger sets the logger used by the machine and its serial port.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(c *config) { c.trace = enabled }
}

// WithSerialOutput logs each line sent over the serial port, which is how
// most test ROMs report their results.
func WithSerialOutput(enabled bool) Option {
	return func(c *config) { c.serialOutput = enabled }
}

// WithBootState controls whether the registers and I/O are set to the values
// the boot ROM leaves behind. When disabled execution starts at 0x0000 with
// everything cleared.
func WithBootState(enabled bool) Option {
	return func(c *config) { c.bootState = enabled }
}

// WithLimiter paces Run. Without one Run goes as fast as it can.
func WithLimiter(limiter timing.Limiter) Option {
	return func(c *config) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}
