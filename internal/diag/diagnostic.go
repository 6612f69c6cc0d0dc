package diag

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/width"
)

// Label attaches a message to a span; Diagnostic.Secondary holds zero
// or more of these in addition to the primary label.
type Label struct {
	Span    Span
	Message string
}

// Suggestion is one ordered, actionable fix derived from a problem diff
// (spec §7: "suggestions are derived from the structural diff between
// expected and found").
type Suggestion struct {
	Message     string
	Replacement string // optional: textual replacement, empty if purely advisory
}

// Diagnostic is the canonical structured diagnostic emitted by every
// phase. It mirrors the teacher's Report type (internal/errors.Report in
// the ailang sources) generalized with secondary labels and suggestions
// per spec §7.
type Diagnostic struct {
	Code       Code
	Severity   Severity
	Span       Span
	Primary    string
	Secondary  []Label
	Notes      []string
	Suggestions []Suggestion
}

// New creates a diagnostic with the code's default severity.
func New(code Code, span Span, primary string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: code.defaultSeverity(), Span: span, Primary: primary}
}

func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

func (d *Diagnostic) WithSecondary(span Span, message string) *Diagnostic {
	d.Secondary = append(d.Secondary, Label{Span: span, Message: message})
	return d
}

func (d *Diagnostic) WithSuggestion(message string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, Suggestion{Message: message})
	return d
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Code, d.Primary)
}

// ColorEnabled reports whether colored rendering should be used when
// writing to f: true only when f is a real terminal, covering both
// Unix PTYs and Windows' Cygwin/MSYS pty layer. Piped or redirected
// output (the common case for build logs) degrades to plain text.
func ColorEnabled(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Render renders the diagnostic for a terminal. When color is disabled
// (non-TTY, see diag.ColorEnabled) it falls back to plain text so piped
// build logs stay greppable.
func (d *Diagnostic) Render(colorEnabled bool) string {
	var b strings.Builder

	headColor := color.New(color.FgRed, color.Bold)
	if d.Severity == SeverityWarning {
		headColor = color.New(color.FgYellow, color.Bold)
	}
	noteColor := color.New(color.FgCyan)
	fixColor := color.New(color.FgGreen)
	if !colorEnabled {
		headColor.DisableColor()
		noteColor.DisableColor()
		fixColor.DisableColor()
	}

	kind := "error"
	if d.Severity == SeverityWarning {
		kind = "warning"
	}
	fmt.Fprintf(&b, "%s\n", headColor.Sprintf("%s[%s]: %s", kind, d.Code, d.Primary))
	fmt.Fprintf(&b, "  --> %s\n", d.Span)
	for _, s := range d.Secondary {
		fmt.Fprintf(&b, "  %s: %s (%s)\n", noteColor.Sprint("note"), s.Message, s.Span)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "  %s: %s\n", noteColor.Sprint("note"), n)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(&b, "  %s: %s\n", fixColor.Sprint("help"), s.Message)
	}
	return b.String()
}

// RenderWithSource is like Render but also prints the offending source
// line followed by a caret underline beneath the span, when source is
// non-empty and the span's start line is found within it. Wide
// East-Asian runes (spanning two display columns in a monospace
// terminal) are measured via golang.org/x/text/width so the caret still
// lands under the right character in multi-byte source lines.
func (d *Diagnostic) RenderWithSource(colorEnabled bool, source []byte) string {
	base := d.Render(colorEnabled)
	line := sourceLine(source, d.Span.StartLine)
	if line == "" {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	fmt.Fprintf(&b, "  %s\n", line)
	fmt.Fprintf(&b, "  %s\n", caretLine(line, d.Span.StartCol, d.Span.EndCol))
	return b.String()
}

// sourceLine returns the 1-indexed line's text from source, or "" if
// line is out of range.
func sourceLine(source []byte, line int) string {
	if line <= 0 {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(source))
	n := 0
	for scanner.Scan() {
		n++
		if n == line {
			return scanner.Text()
		}
	}
	return ""
}

// displayWidth returns how many terminal columns r occupies: 2 for
// East-Asian wide/fullwidth runes, 1 otherwise.
func displayWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// caretLine builds a "^" underline beneath lineText, aligned to the
// span's 1-indexed [startCol, endCol) display columns rather than byte
// or rune offsets.
func caretLine(lineText string, startCol, endCol int) string {
	if startCol <= 0 {
		startCol = 1
	}
	if endCol <= startCol {
		endCol = startCol + 1
	}

	var b strings.Builder
	col := 1
	runes := []rune(lineText)
	i := 0
	for col < endCol {
		w := 1
		if i < len(runes) {
			w = displayWidth(runes[i])
			i++
		}
		if col < startCol {
			b.WriteString(strings.Repeat(" ", w))
		} else {
			b.WriteString(strings.Repeat("^", w))
		}
		col += w
	}
	return b.String()
}

// Accumulator collects diagnostics across a phase that practices
// accumulation-over-fast-fail (spec §7: the type checker keeps going
// after an error, substituting the ERROR sentinel so later diagnostics
// still surface).
type Accumulator struct {
	diags []*Diagnostic
}

func (a *Accumulator) Add(d *Diagnostic) { a.diags = append(a.diags, d) }

func (a *Accumulator) HasErrors() bool {
	for _, d := range a.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (a *Accumulator) All() []*Diagnostic { return a.diags }

// Sorted returns diagnostics ordered by file, then line, then column —
// deterministic regardless of discovery order.
func (a *Accumulator) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(a.diags))
	copy(out, a.diags)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Span, out[j].Span
		if si.File != sj.File {
			return si.File < sj.File
		}
		if si.StartLine != sj.StartLine {
			return si.StartLine < sj.StartLine
		}
		return si.StartCol < sj.StartCol
	})
	return out
}
