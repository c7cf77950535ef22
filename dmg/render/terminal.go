// Package render is a terminal frontend: it draws frames with half block
// characters and feeds the keyboard to the joypad.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/dmgcore/dmg/snapshot"
	"github.com/valerio/dmgcore/dmg/timing"
	"github.com/valerio/dmgcore/dmg/video"
)

const (
	// the screen is drawn below the status line
	screenTop = 1
	// rows taken by the screen, two pixel rows per terminal row
	screenRows = (video.FramebufferHeight + 1) / 2
	logsTop    = screenTop + screenRows + 1
)

var shadeColors = []tcell.Color{
	tcell.ColorBlack,
	tcell.ColorGray,
	tcell.ColorSilver,
	tcell.ColorWhite,
}

// Machine is what the terminal drives.
type Machine interface {
	Joypad
	RunUntilFrame() error
	FrameBuffer() *video.FrameBuffer
}

// Config holds the optional parts of a Terminal.
type Config struct {
	// Title is shown on the status line.
	Title string
	// Limiter paces frames. Defaults to no limit.
	Limiter timing.Limiter
	// SnapshotDir is where F9 saves PNG snapshots. Defaults to the working directory.
	SnapshotDir string
	// Logs are shown below the screen when set.
	Logs *LogBuffer
}

// Terminal runs a machine in a terminal.
type Terminal struct {
	screen  tcell.Screen
	machine Machine
	config  Config

	keys      *keyTracker
	paused    bool
	snapshots int
	now       func() time.Time
}

// New initializes screen and returns a terminal drawing to it.
func New(screen tcell.Screen, machine Machine, config Config) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if config.Limiter == nil {
		config.Limiter = timing.NewNoOpLimiter()
	}

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	return &Terminal{
		screen:  screen,
		machine: machine,
		config:  config,
		keys:    newKeyTracker(),
		now:     time.Now,
	}, nil
}

// Run shows frames until ctx is done, the user quits or the machine fails.
// The screen is released on return.
func (t *Terminal) Run(ctx context.Context) error {
	defer func() {
		slog.Info("Finishing terminal")
		t.screen.Fini()
	}()

	t.config.Limiter.Reset()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		running, err := t.Frame()
		if err != nil || !running {
			return err
		}
		t.config.Limiter.WaitForNextFrame()
	}
}

// Frame handles pending input, emulates one frame unless paused and draws
// it. It reports false once the user asked to quit.
func (t *Terminal) Frame() (bool, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if t.handleKey(ev, now) == cmdQuit {
				return false, nil
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
	t.keys.update(now, t.machine)

	if !t.paused {
		if err := t.machine.RunUntilFrame(); err != nil {
			return false, err
		}
	}

	t.draw(t.machine.FrameBuffer())
	t.screen.Show()
	return true, nil
}

func (t *Terminal) handleKey(ev *tcell.EventKey, now time.Time) command {
	cmd := commandKeys[ev.Key()]
	if ev.Key() == tcell.KeyRune {
		if key, ok := runeMapping[ev.Rune()]; ok {
			t.keys.seen(key, now)
			return cmdNone
		}
		cmd = commandRunes[ev.Rune()]
	} else if key, ok := keyMapping[ev.Key()]; ok {
		t.keys.seen(key, now)
		return cmdNone
	}

	switch cmd {
	case cmdPause:
		t.paused = !t.paused
		slog.Info("Pause toggled", "paused", t.paused)
	case cmdSnapshot:
		t.saveSnapshot()
	}
	return cmd
}

func (t *Terminal) saveSnapshot() {
	dir := t.config.SnapshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("Failed to create snapshot directory", "dir", dir, "error", err)
		return
	}

	t.snapshots++
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%03d.png", t.snapshots))
	if err := snapshot.Save(path, t.machine.FrameBuffer(), snapshot.Metadata{}); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
		return
	}
	slog.Info("Snapshot saved", "path", path)
}

func (t *Terminal) draw(frame *video.FrameBuffer) {
	t.screen.Clear()

	status := t.config.Title
	if t.paused {
		status += " [PAUSED]"
	}
	t.drawText(0, 0, status, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))

	for _, cell := range snapshot.HalfBlocks(frame) {
		t.screen.SetContent(cell.X, screenTop+cell.Y, cell.Char, nil, cellStyle(cell))
	}

	t.drawLogs()
}

// cellStyle colors a half block so the glyph shows the top pixel and the
// background the bottom one.
func cellStyle(cell snapshot.Cell) tcell.Style {
	top, bottom := shadeColors[cell.Top], shadeColors[cell.Bottom]
	switch {
	case cell.Top == cell.Bottom:
		return tcell.StyleDefault.Foreground(top).Background(tcell.ColorDefault)
	case cell.Top == 3:
		// lower half block, the glyph is the bottom pixel
		return tcell.StyleDefault.Foreground(bottom).Background(top)
	default:
		return tcell.StyleDefault.Foreground(top).Background(bottom)
	}
}

func (t *Terminal) drawLogs() {
	if t.config.Logs == nil {
		return
	}

	width, height := t.screen.Size()
	rows := height - logsTop
	if rows <= 0 {
		return
	}

	for i, entry := range t.config.Logs.Recent(rows) {
		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch {
		case entry.Level >= slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		case entry.Level >= slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case entry.Level < slog.LevelInfo:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}

		text := []rune(entry.String())
		if len(text) > width {
			text = text[:width]
		}
		t.drawText(0, logsTop+i, string(text), style)
	}
}

func (t *Terminal) drawText(x, y int, text string, style tcell.Style) {
	for _, ch := range text {
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
