// Package excerpt reconstructs byte context around an indexed match and
// highlights pattern occurrences inside it. The index stores only
// (path, offset, value); everything shown around a hit is re-read from the
// original file at display time.
package excerpt

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Default context sizes, in bytes, left and right of the match.
const (
	DefaultLeft  = 64
	DefaultRight = 128
)

// Window is a decoded slice of the source file around one match.
type Window struct {
	// Text is the permissively decoded window content.
	Text string
	// Start is the byte offset in the file where the window begins.
	Start uint64
	// SingleByte is set when Text was decoded byte-per-rune (Latin-1
	// fallback), which makes rune indexes equal byte offsets.
	SingleByte bool
}

// Read opens the file and returns up to matchLen+left+right bytes starting
// at max(0, offset-left), decoded permissively. A short read at EOF is not
// an error; the window is simply smaller. Negative context sizes are treated
// as zero.
func Read(path string, offset uint64, matchLen, left, right int) (Window, error) {
	left = max(left, 0)
	right = max(right, 0)
	matchLen = max(matchLen, 0)

	f, err := os.Open(path)
	if err != nil {
		return Window{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	start := uint64(0)
	if offset > uint64(left) {
		start = offset - uint64(left)
	}
	if _, err := f.Seek(int64(start), io.SeekStart); err != nil {
		return Window{}, fmt.Errorf("seek %s: %w", path, err)
	}

	buf := make([]byte, matchLen+left+right)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Window{}, fmt.Errorf("read %s: %w", path, err)
	}

	text, single := decode(buf[:n])
	return Window{Text: text, Start: start, SingleByte: single}, nil
}

// decode prefers strict UTF-8 and falls back to Latin-1 so binary or garbled
// regions never abort the read. Latin-1 maps every byte to exactly one rune,
// so the fallback cannot fail.
func decode(b []byte) (string, bool) {
	if utf8.Valid(b) {
		return string(b), false
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b), false
	}
	return string(s), true
}

// runeIndex converts a byte offset within the window's raw bytes to a rune
// index into Text. Returns -1 when the offset lies outside the window.
func (w Window) runeIndex(byteOff int) int {
	if byteOff < 0 {
		return -1
	}
	if w.SingleByte {
		if byteOff > utf8.RuneCountInString(w.Text) {
			return -1
		}
		return byteOff
	}
	// Strict decode keeps Text's bytes identical to the file's.
	if byteOff > len(w.Text) {
		return -1
	}
	return utf8.RuneCountInString(w.Text[:byteOff])
}
