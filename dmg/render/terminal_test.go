package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/dmgcore/dmg/memory"
	"github.com/valerio/dmgcore/dmg/video"
)

type fakeMachine struct {
	recordingPad
	frame  *video.FrameBuffer
	frames int
	err    error
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{frame: video.NewFrameBuffer()}
}

func (m *fakeMachine) RunUntilFrame() error {
	if m.err != nil {
		return m.err
	}
	m.frames++
	return nil
}

func (m *fakeMachine) FrameBuffer() *video.FrameBuffer { return m.frame }

func newTestTerminal(t *testing.T, machine Machine, config Config) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := New(screen, machine, config)
	require.NoError(t, err)
	screen.SetSize(video.FramebufferWidth, logsTop+4)
	return term, screen
}

func rowText(screen tcell.Screen, y, width int) string {
	runes := make([]rune, 0, width)
	for x := 0; x < width; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		runes = append(runes, ch)
	}
	return string(runes)
}

func TestTerminal_drawsFrame(t *testing.T) {
	machine := newFakeMachine()
	machine.frame.SetPixel(0, 0, video.BlackColor)
	machine.frame.SetPixel(1, 1, video.DarkGreyColor)

	term, screen := newTestTerminal(t, machine, Config{Title: "TETRIS"})

	running, err := term.Frame()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, 1, machine.frames)

	assert.Contains(t, rowText(screen, 0, 20), "TETRIS")

	ch, _, style, _ := screen.GetContent(0, screenTop)
	fg, bg, _ := style.Decompose()
	assert.Equal(t, '▀', ch)
	assert.Equal(t, tcell.ColorBlack, fg)
	assert.Equal(t, tcell.ColorWhite, bg)

	ch, _, style, _ = screen.GetContent(1, screenTop)
	fg, bg, _ = style.Decompose()
	assert.Equal(t, '▄', ch)
	assert.Equal(t, tcell.ColorGray, fg)
	assert.Equal(t, tcell.ColorWhite, bg)

	ch, _, _, _ = screen.GetContent(5, screenTop+10)
	assert.Equal(t, '█', ch)
}

func TestTerminal_keys(t *testing.T) {
	machine := newFakeMachine()
	term, screen := newTestTerminal(t, machine, Config{})

	now := time.Unix(100, 0)
	term.now = func() time.Time { return now }

	screen.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	_, err := term.Frame()
	require.NoError(t, err)
	assert.ElementsMatch(t, []padEvent{{memory.JoypadA, true}, {memory.JoypadStart, true}}, machine.events)

	machine.events = nil
	now = now.Add(keyTimeout)
	_, err = term.Frame()
	require.NoError(t, err)
	assert.ElementsMatch(t, []padEvent{{memory.JoypadA, false}, {memory.JoypadStart, false}}, machine.events)
}

func TestTerminal_pause(t *testing.T) {
	machine := newFakeMachine()
	term, screen := newTestTerminal(t, machine, Config{Title: "GAME"})

	screen.InjectKey(tcell.KeyRune, 'p', tcell.ModNone)
	_, err := term.Frame()
	require.NoError(t, err)
	assert.Equal(t, 0, machine.frames, "paused terminals do not emulate")
	assert.Contains(t, rowText(screen, 0, 20), "[PAUSED]")

	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	_, err = term.Frame()
	require.NoError(t, err)
	assert.Equal(t, 1, machine.frames)
}

func TestTerminal_quit(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
	}{
		{"escape", tcell.KeyEscape, 0},
		{"q", tcell.KeyRune, 'q'},
		{"ctrl-c", tcell.KeyCtrlC, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := newFakeMachine()
			term, screen := newTestTerminal(t, machine, Config{})

			screen.InjectKey(tt.key, tt.r, tcell.ModNone)
			running, err := term.Frame()
			require.NoError(t, err)
			assert.False(t, running)
			assert.Equal(t, 0, machine.frames)
		})
	}
}

func TestTerminal_snapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	machine := newFakeMachine()
	term, screen := newTestTerminal(t, machine, Config{SnapshotDir: dir})

	screen.InjectKey(tcell.KeyF9, 0, tcell.ModNone)
	_, err := term.Frame()
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "snapshot_001.png"))
	assert.NoError(t, err)
}

func TestTerminal_logs(t *testing.T) {
	logs := NewLogBuffer(10)
	logs.Add(LogEntry{Time: time.Unix(0, 0), Message: "older"})
	logs.Add(LogEntry{Time: time.Unix(0, 0), Message: "newest"})

	term, screen := newTestTerminal(t, newFakeMachine(), Config{Logs: logs})
	_, err := term.Frame()
	require.NoError(t, err)

	assert.Contains(t, rowText(screen, logsTop, video.FramebufferWidth), "newest")
	assert.Contains(t, rowText(screen, logsTop+1, video.FramebufferWidth), "older")
}

func TestTerminal_Run(t *testing.T) {
	t.Run("machine error", func(t *testing.T) {
		machine := newFakeMachine()
		machine.err = errors.New("boom")
		term, _ := newTestTerminal(t, machine, Config{})

		assert.ErrorIs(t, term.Run(context.Background()), machine.err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		term, _ := newTestTerminal(t, newFakeMachine(), Config{})

		assert.NoError(t, term.Run(ctx))
	})

	t.Run("quit key", func(t *testing.T) {
		machine := newFakeMachine()
		term, screen := newTestTerminal(t, machine, Config{})
		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

		assert.NoError(t, term.Run(context.Background()))
	})
}
