package excerpt

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dlclark/regexp2"
	"github.com/muesli/termenv"
)

// SpanKind ranks a pattern occurrence against the indexed match. A context
// window frequently contains several instances of the pattern (repeated
// emails in a log); the operator needs to tell the exact hit the index
// pointed to apart from coincidental matches nearby.
type SpanKind int

const (
	// SpanTarget: position and text both coincide with the indexed match.
	SpanTarget SpanKind = iota
	// SpanSameValue: same text, different position in the window.
	SpanSameValue
	// SpanOther: matches the pattern but carries a different value.
	SpanOther
)

// Span is one classified occurrence, as rune offsets into Window.Text.
type Span struct {
	Start, End int
	Kind       SpanKind
}

// CompileHighlight compiles a schema's highlight pattern. regexp2 is used
// because highlight patterns may carry PCRE lookbehinds, and matching is
// case-insensitive per the retrieval contract.
func CompileHighlight(pattern string) (*regexp2.Regexp, error) {
	return regexp2.Compile(pattern, regexp2.IgnoreCase)
}

// Classify scans the window with the highlight pattern and classifies every
// occurrence against the indexed match at matchOffset (a file byte offset).
// At most one span can be the target: the one whose position and text both
// line up.
func Classify(w Window, pattern *regexp2.Regexp, matchOffset uint64, match string) []Span {
	targetStart := -1
	if matchOffset >= w.Start {
		targetStart = w.runeIndex(int(matchOffset - w.Start))
	}

	var spans []Span
	m, err := pattern.FindStringMatch(w.Text)
	for m != nil && err == nil {
		kind := SpanOther
		if m.String() == match {
			if m.Index == targetStart {
				kind = SpanTarget
			} else {
				kind = SpanSameValue
			}
		}
		spans = append(spans, Span{Start: m.Index, End: m.Index + m.Length, Kind: kind})
		m, err = pattern.FindNextMatch(m)
	}
	return spans
}

// The renderer is pinned to the ANSI profile: highlight output must carry
// escape codes even when stdout is piped, same as the legacy tooling this
// replaces.
var renderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(os.Stdout)
	r.SetColorProfile(termenv.ANSI)
	return r
}()

var spanStyles = map[SpanKind]lipgloss.Style{
	SpanTarget:    renderer.NewStyle().Foreground(lipgloss.Color("2")), // green
	SpanSameValue: renderer.NewStyle().Foreground(lipgloss.Color("4")), // blue
	SpanOther:     renderer.NewStyle().Foreground(lipgloss.Color("1")), // red
}

// Render colors the classified spans into the window text.
func Render(w Window, spans []Span) string {
	runes := []rune(w.Text)
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		if sp.Start < last || sp.End > len(runes) || sp.Start > sp.End {
			continue
		}
		b.WriteString(string(runes[last:sp.Start]))
		b.WriteString(spanStyles[sp.Kind].Render(string(runes[sp.Start:sp.End])))
		last = sp.End
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}
