// Package rom reads cartridge images from disk, unpacking the archive formats
// ROMs are commonly distributed in.
package rom

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/valerio/dmgcore/dmg/memory"
)

// ErrEmptyArchive is returned for archives that contain no files.
var ErrEmptyArchive = errors.New("archive contains no files")

var romExtensions = []string{".gb", ".gbc"}

// Load reads the image at path. Files ending in .zip, .7z or .gz are
// decompressed, anything else is returned as is. For multi-file archives
// the first .gb/.gbc entry is picked, falling back to the first file.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(filepath.Base(path), data)
}

// Decode unpacks data according to the extension of name.
func Decode(name string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", name, err)
		}
		defer r.Close()
		return readLimited(r)
	case ".zip":
		return decodeZip(name, data)
	case ".7z":
		return decode7z(name, data)
	default:
		return data, nil
	}
}

func decodeZip(name string, data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip %s: %w", name, err)
	}

	entries := make([]entry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, entry{name: f.Name, dir: f.FileInfo().IsDir(), open: f.Open})
	}
	return readEntry(name, entries)
}

func decode7z(name string, data []byte) ([]byte, error) {
	sr, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("7z %s: %w", name, err)
	}

	entries := make([]entry, 0, len(sr.File))
	for _, f := range sr.File {
		entries = append(entries, entry{name: f.Name, dir: f.FileInfo().IsDir(), open: f.Open})
	}
	return readEntry(name, entries)
}

// entry is the part of an archive file both zip and 7z readers provide.
type entry struct {
	name string
	dir  bool
	open func() (io.ReadCloser, error)
}

func pick(entries []entry) (entry, bool) {
	var first *entry
	for i := range entries {
		e := &entries[i]
		if e.dir {
			continue
		}
		if first == nil {
			first = e
		}
		ext := strings.ToLower(filepath.Ext(e.name))
		for _, romExt := range romExtensions {
			if ext == romExt {
				return *e, true
			}
		}
	}
	if first == nil {
		return entry{}, false
	}
	return *first, true
}

func readEntry(archive string, entries []entry) ([]byte, error) {
	e, ok := pick(entries)
	if !ok {
		return nil, fmt.Errorf("%s: %w", archive, ErrEmptyArchive)
	}

	rc, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", archive, e.name, err)
	}
	defer rc.Close()

	data, err := readLimited(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", archive, e.name, err)
	}
	return data, nil
}

// readLimited reads at most one byte past the largest supported cartridge.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, memory.MaxROMSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > memory.MaxROMSize {
		return nil, fmt.Errorf("%w: decompressed image exceeds %d bytes", memory.ErrROMTooLarge, memory.MaxROMSize)
	}
	return data, nil
}
