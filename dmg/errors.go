package dmg

import "errors"

// ErrNoCartridge is returned by New when there is no cartridge image to run.
var ErrNoCartridge = errors.New("no cartridge loaded")
