package memory

import (
	"strings"
	"unicode"
)

// cleanGameboyTitle turns the raw header title into something printable:
// NUL padding becomes spaces, non-printable bytes become '?', and the result
// is trimmed.
func cleanGameboyTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))

	for _, b := range titleBytes {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}

	return title
}
