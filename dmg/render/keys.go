package render

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/dmgcore/dmg/memory"
)

// keyTimeout is how long a key stays held after its last key event. Terminals
// report presses and auto-repeats but never releases, so a key counts as
// released once it stops repeating.
const keyTimeout = 100 * time.Millisecond

var keyMapping = map[tcell.Key]memory.JoypadKey{
	tcell.KeyEnter: memory.JoypadStart,
	tcell.KeyTab:   memory.JoypadSelect,
	tcell.KeyUp:    memory.JoypadUp,
	tcell.KeyDown:  memory.JoypadDown,
	tcell.KeyLeft:  memory.JoypadLeft,
	tcell.KeyRight: memory.JoypadRight,
}

var runeMapping = map[rune]memory.JoypadKey{
	'z': memory.JoypadA,
	'x': memory.JoypadB,
	'w': memory.JoypadUp,
	's': memory.JoypadDown,
	'a': memory.JoypadLeft,
	'd': memory.JoypadRight,
}

type command uint8

const (
	cmdNone command = iota
	cmdQuit
	cmdPause
	cmdSnapshot
)

var commandKeys = map[tcell.Key]command{
	tcell.KeyEscape: cmdQuit,
	tcell.KeyCtrlC:  cmdQuit,
	tcell.KeyF9:     cmdSnapshot,
}

var commandRunes = map[rune]command{
	'q': cmdQuit,
	'p': cmdPause,
	' ': cmdPause,
}

// Joypad receives the key state changes.
type Joypad interface {
	Press(key memory.JoypadKey)
	Release(key memory.JoypadKey)
}

// keyTracker turns the stream of terminal key events into joypad presses
// and releases.
type keyTracker struct {
	lastSeen map[memory.JoypadKey]time.Time
	held     map[memory.JoypadKey]bool
}

func newKeyTracker() *keyTracker {
	return &keyTracker{
		lastSeen: make(map[memory.JoypadKey]time.Time),
		held:     make(map[memory.JoypadKey]bool),
	}
}

func isDpad(key memory.JoypadKey) bool {
	return key <= memory.JoypadDown
}

// seen records a key event. A d-pad direction cancels the other directions,
// since a terminal can only report one of them at a time.
func (k *keyTracker) seen(key memory.JoypadKey, now time.Time) {
	if isDpad(key) {
		for dir := memory.JoypadRight; dir <= memory.JoypadDown; dir++ {
			delete(k.lastSeen, dir)
		}
	}
	k.lastSeen[key] = now
}

// update presses keys seen within keyTimeout and releases the rest.
func (k *keyTracker) update(now time.Time, pad Joypad) {
	for key, last := range k.lastSeen {
		if now.Sub(last) >= keyTimeout {
			delete(k.lastSeen, key)
			continue
		}
		if !k.held[key] {
			pad.Press(key)
			k.held[key] = true
		}
	}

	for key := range k.held {
		if _, ok := k.lastSeen[key]; !ok {
			pad.Release(key)
			delete(k.held, key)
		}
	}
}
