package excerpt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBytes(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestReadWindowBounds(t *testing.T) {
	content := make([]byte, 300)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	path := writeBytes(t, content)

	t.Run("mid-file", func(t *testing.T) {
		w, err := Read(path, 100, 7, DefaultLeft, DefaultRight)
		require.NoError(t, err)
		assert.Equal(t, uint64(36), w.Start)
		assert.Len(t, w.Text, 7+64+128)
		assert.Equal(t, string(content[36:36+199]), w.Text)
	})

	t.Run("near start clamps to zero", func(t *testing.T) {
		w, err := Read(path, 10, 7, DefaultLeft, DefaultRight)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), w.Start)
		assert.Len(t, w.Text, 199)
	})

	t.Run("near end is short", func(t *testing.T) {
		w, err := Read(path, 290, 7, DefaultLeft, DefaultRight)
		require.NoError(t, err)
		assert.Equal(t, uint64(226), w.Start)
		assert.Len(t, w.Text, 300-226)
	})

	t.Run("custom offsets", func(t *testing.T) {
		w, err := Read(path, 100, 5, 10, 20)
		require.NoError(t, err)
		assert.Equal(t, uint64(90), w.Start)
		assert.Len(t, w.Text, 35)
	})

	t.Run("negative offsets read the match alone", func(t *testing.T) {
		w, err := Read(path, 100, 7, -64, -128)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), w.Start)
		assert.Equal(t, string(content[100:107]), w.Text)
	})

	t.Run("negative match length yields empty window", func(t *testing.T) {
		w, err := Read(path, 100, -7, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, w.Text)
	})
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "gone"), 0, 1, 4, 4)
	assert.Error(t, err)
}

func TestDecodeFallback(t *testing.T) {
	valid, single := decode([]byte("plain ascii"))
	assert.Equal(t, "plain ascii", valid)
	assert.False(t, single)

	utf, single := decode([]byte("héllo"))
	assert.Equal(t, "héllo", utf)
	assert.False(t, single)

	// Invalid UTF-8: every byte becomes exactly one rune.
	garbled, single := decode([]byte{0xff, 0xfe, 'a', 'b'})
	assert.True(t, single)
	assert.Equal(t, 4, len([]rune(garbled)))
}

func TestClassifyPrecedence(t *testing.T) {
	pattern, err := CompileHighlight(`[a-zA-Z0-9._%+-]{1,256}@[a-zA-Z0-9.-]{1,256}\.[a-zA-Z]{2,10}`)
	require.NoError(t, err)

	//               0123456789...
	text := "first: a@b.com then c@d.com and again a@b.com end"
	w := Window{Text: text, Start: 1000}
	matchOffset := uint64(1000 + strings.Index(text, "a@b.com"))

	spans := Classify(w, pattern, matchOffset, "a@b.com")
	require.Len(t, spans, 3)

	assert.Equal(t, SpanTarget, spans[0].Kind)
	assert.Equal(t, SpanOther, spans[1].Kind)
	assert.Equal(t, SpanSameValue, spans[2].Kind)

	targets := 0
	for _, sp := range spans {
		if sp.Kind == SpanTarget {
			targets++
		}
	}
	assert.Equal(t, 1, targets, "exactly one occurrence is the exact target")
}

func TestClassifyCaseInsensitive(t *testing.T) {
	pattern, err := CompileHighlight(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	require.NoError(t, err)

	text := "id DEADBEEF-0000-1111-2222-333344445555 seen"
	w := Window{Text: text}
	spans := Classify(w, pattern, uint64(3), "deadbeef-0000-1111-2222-333344445555")
	require.Len(t, spans, 1)
	// Same pattern hit, but the text differs in case from the stored value,
	// so it cannot be promoted past "other".
	assert.Equal(t, SpanOther, spans[0].Kind)
}

func TestClassifyLookbehindPattern(t *testing.T) {
	// The domains highlight pattern rejects domains glued to an '@'.
	pattern, err := CompileHighlight(`(?<![a-zA-Z0-9.-@])\b[a-zA-Z0-9.-]{1,256}\.[a-zA-Z]{2,32}\b`)
	require.NoError(t, err)

	text := "visit example.org or mail root@example.org now"
	w := Window{Text: text}
	spans := Classify(w, pattern, uint64(strings.Index(text, "example.org")), "example.org")
	require.Len(t, spans, 1)
	assert.Equal(t, SpanTarget, spans[0].Kind)
}

func TestClassifyMultibytePrefix(t *testing.T) {
	pattern, err := CompileHighlight(`[a-z]+@[a-z]+\.[a-z]{2,10}`)
	require.NoError(t, err)

	// Two-byte runes before the match: byte offset and rune index diverge.
	text := "héllo wörld a@b.com"
	w := Window{Text: text, Start: 0}
	byteOff := uint64(strings.Index(text, "a@b.com"))

	spans := Classify(w, pattern, byteOff, "a@b.com")
	require.Len(t, spans, 1)
	assert.Equal(t, SpanTarget, spans[0].Kind)
}

func TestRender(t *testing.T) {
	w := Window{Text: "x a@b.com y a@b.com z c@d.com w"}
	pattern, err := CompileHighlight(`[a-z]+@[a-z]+\.[a-z]{2,10}`)
	require.NoError(t, err)

	spans := Classify(w, pattern, 2, "a@b.com")
	out := Render(w, spans)

	// ANSI profile is pinned, so the escape codes are stable: green for the
	// target, blue for the duplicate value, red for the unrelated match.
	assert.Equal(t, 1, strings.Count(out, "\x1b[32m"))
	assert.Equal(t, 1, strings.Count(out, "\x1b[34m"))
	assert.Equal(t, 1, strings.Count(out, "\x1b[31m"))

	// Stripping the escapes yields the original window.
	stripped := out
	for _, code := range []string{"\x1b[32m", "\x1b[34m", "\x1b[31m", "\x1b[0m"} {
		stripped = strings.ReplaceAll(stripped, code, "")
	}
	assert.Equal(t, w.Text, stripped)
}

func TestRenderNoSpans(t *testing.T) {
	w := Window{Text: "nothing to see"}
	assert.Equal(t, w.Text, Render(w, nil))
}
