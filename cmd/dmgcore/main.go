package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"
	"github.com/valerio/dmgcore/dmg"
	"github.com/valerio/dmgcore/dmg/render"
	"github.com/valerio/dmgcore/dmg/rom"
	"github.com/valerio/dmgcore/dmg/snapshot"
	"github.com/valerio/dmgcore/dmg/timing"
	"github.com/valerio/dmgcore/dmg/video"
)

// errFramesDone stops a headless run once the requested frames are done.
var errFramesDone = errors.New("requested frames completed")

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file (.gb, .zip, .7z or .gz)",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a terminal interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction (needs --log-level debug)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "snapshot-format",
			Usage: "Snapshot format, txt or png",
			Value: "txt",
		},
		cli.BoolFlag{
			Name:  "hash",
			Usage: "Print the hash of the last frame after a headless run",
		},
		cli.StringFlag{
			Name:  "dump-vram",
			Usage: "Write the VRAM tiles as a PNG to this path after a headless run",
		},
		cli.BoolFlag{
			Name:  "serial",
			Usage: "Log lines written to the serial port",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Frame pacing in terminal mode: adaptive, ticker or none",
			Value: "adaptive",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	level, err := parseLogLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	// the terminal owns stdout, so logs go to a buffer drawn under the screen
	var logs *render.LogBuffer
	if c.Bool("headless") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	} else {
		logs = render.NewLogBuffer(100)
		slog.SetDefault(slog.New(logs.Handler(level)))
	}

	data, err := rom.Load(romPath)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	m, err := dmg.New(data,
		dmg.WithLogger(slog.Default()),
		dmg.WithTrace(c.Bool("trace")),
		dmg.WithSerialOutput(c.Bool("serial")))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("headless") {
		cfg := headlessConfig{
			frames:           c.Int("frames"),
			snapshotInterval: c.Int("snapshot-interval"),
			snapshotDir:      c.String("snapshot-dir"),
			snapshotFormat:   c.String("snapshot-format"),
			hash:             c.Bool("hash"),
			vramPath:         c.String("dump-vram"),
			name:             romName(romPath),
		}
		return runHeadless(ctx, m, cfg, os.Stdout)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	term, err := render.New(screen, m, render.Config{
		Title:       m.Cartridge().Title,
		Limiter:     timing.New(c.String("limiter")),
		SnapshotDir: c.String("snapshot-dir"),
		Logs:        logs,
	})
	if err != nil {
		return err
	}
	return term.Run(ctx)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// romName is the file name without directories or extension, used to name
// snapshots.
func romName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type headlessConfig struct {
	frames           int
	snapshotInterval int
	snapshotDir      string
	snapshotFormat   string
	hash             bool
	vramPath         string
	name             string
}

func runHeadless(ctx context.Context, m *dmg.Machine, cfg headlessConfig, out io.Writer) error {
	if cfg.frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	ext := strings.ToLower(cfg.snapshotFormat)
	if ext != "txt" && ext != "png" {
		return fmt.Errorf("unknown snapshot format %q", cfg.snapshotFormat)
	}

	if cfg.snapshotInterval > 0 {
		if cfg.snapshotDir == "" {
			dir, err := os.MkdirTemp("", "dmgcore-snapshots-*")
			if err != nil {
				return fmt.Errorf("failed to create snapshot directory: %w", err)
			}
			cfg.snapshotDir = dir
		} else if err := os.MkdirAll(cfg.snapshotDir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	slog.Info("Running headless mode", "frames", cfg.frames, "snapshot_interval", cfg.snapshotInterval, "snapshot_dir", cfg.snapshotDir)

	done := 0
	err := m.Run(ctx, func(frame *video.FrameBuffer) error {
		done++

		if cfg.snapshotInterval > 0 && done%cfg.snapshotInterval == 0 {
			path := filepath.Join(cfg.snapshotDir, fmt.Sprintf("%s_frame_%d.%s", cfg.name, done, ext))
			meta := snapshot.Metadata{Frame: done, Instructions: m.Instructions()}
			if err := snapshot.Save(path, frame, meta); err != nil {
				slog.Error("Failed to save snapshot", "frame", done, "path", path, "error", err)
			} else {
				slog.Info("Saved frame snapshot", "frame", done, "path", path)
			}
		}

		if done%60 == 0 {
			slog.Debug("Frame progress", "completed", done, "total", cfg.frames)
		}

		if done >= cfg.frames {
			return errFramesDone
		}
		return nil
	})
	if !errors.Is(err, errFramesDone) {
		return err
	}

	slog.Info("Headless execution completed", "frames", done, "instructions", m.Instructions())
	if cfg.hash {
		fmt.Fprintf(out, "%016x\n", snapshot.Hash(m.FrameBuffer()))
	}
	if cfg.vramPath != "" {
		return dumpVRAM(cfg.vramPath, m)
	}
	return nil
}

func dumpVRAM(path string, mem snapshot.MemoryReader) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	err = snapshot.WriteTileSheet(file, mem)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		slog.Info("Saved VRAM tile sheet", "path", path)
	}
	return err
}
