// Package diag carries positioned generation diagnostics.
//
// Every failure the generator reports to a user is a Diagnostic anchored at
// the source location the user has to edit: the interface declaration for
// capture failures, the fill or derive directive for completion failures.
package diag

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/portrait/errors"
)

// Severity indicates how a diagnostic affects the run
type Severity string

const (
	SeverityError   Severity = "error"   // Generation for the affected file is aborted
	SeverityWarning Severity = "warning" // Output is written, the user should look
	SeverityNote    Severity = "note"    // Informational
)

// Kind categorizes diagnostics for programmatic handling
type Kind string

const (
	KindParse       Kind = "parse"       // Malformed directive, member or argument
	KindConsistency Kind = "consistency" // Provided member not in the interface
	KindCapability  Kind = "capability"  // Generator cannot produce the member kind
	KindAggregation Kind = "aggregation" // Ambiguous result combination
	KindShape       Kind = "shape"       // Signature incompatible with the type's shape
	KindResolve     Kind = "resolve"     // Symbol or portrait lookup failed
	KindIO          Kind = "io"          // Reading or writing files
)

// Format selects how a diagnostic renders
type Format int

const (
	FormatPlain Format = iota
	FormatTerminal
)

// Diagnostic is a positioned generation failure
type Diagnostic struct {
	Err         error
	Kind        Kind
	Severity    Severity
	Message     string
	Pos         token.Position
	Suggestions []string
}

// New creates an error-severity diagnostic
func New(kind Kind, message string) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Severity: SeverityError,
		Message:  message,
	}
}

// Newf creates an error-severity diagnostic with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Diagnostic {
	return New(kind, fmt.Sprintf(format, args...))
}

// At anchors the diagnostic at pos
func (d *Diagnostic) At(pos token.Position) *Diagnostic {
	d.Pos = pos
	return d
}

// WithSeverity overrides the severity
func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev
	return d
}

// WithSuggestion adds a possible fix
func (d *Diagnostic) WithSuggestion(s string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, s)
	return d
}

// WithErr attaches the underlying error for errors.Is/As
func (d *Diagnostic) WithErr(err error) *Diagnostic {
	d.Err = err
	return d
}

// Error implements error
func (d *Diagnostic) Error() string {
	return d.Format(FormatPlain)
}

// Unwrap for errors.Is/As compatibility
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// IsError reports whether the diagnostic aborts generation
func (d *Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Format renders the diagnostic for logs or a terminal
func (d *Diagnostic) Format(f Format) string {
	if f == FormatTerminal {
		return d.formatTerminal()
	}
	return d.formatPlain()
}

func (d *Diagnostic) location() string {
	if !d.Pos.IsValid() && d.Pos.Filename == "" {
		return ""
	}
	return d.Pos.String() + ": "
}

func (d *Diagnostic) formatPlain() string {
	msg := d.location() + d.Message
	if len(d.Suggestions) > 0 {
		msg += " (" + strings.Join(d.Suggestions, "; ") + ")"
	}
	return msg
}

func (d *Diagnostic) formatTerminal() string {
	var sev string
	switch d.Severity {
	case SeverityError:
		sev = pterm.Red(string(d.Severity))
	case SeverityWarning:
		sev = pterm.Yellow(string(d.Severity))
	default:
		sev = pterm.LightCyan(string(d.Severity))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s: %s", pterm.Bold.Sprint(d.location()), sev, d.Message)
	for _, s := range d.Suggestions {
		fmt.Fprintf(&b, "\n  %s %s", pterm.Green("hint:"), s)
	}
	return b.String()
}

// From converts err into a diagnostic anchored at pos. Diagnostics already
// carrying a position keep it; other errors are classified by sentinel and
// their hints become suggestions.
func From(err error, pos token.Position) *Diagnostic {
	var d *Diagnostic
	if errors.As(err, &d) {
		if d.Pos.Filename == "" && !d.Pos.IsValid() {
			d.Pos = pos
		}
		return d
	}
	out := New(classify(err), err.Error()).At(pos).WithErr(err)
	out.Suggestions = append(out.Suggestions, errors.GetAllHints(err)...)
	return out
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, errors.ErrParse):
		return KindParse
	case errors.Is(err, errors.ErrUnknownMember):
		return KindConsistency
	case errors.Is(err, errors.ErrUnsupported):
		return KindCapability
	case errors.Is(err, errors.ErrAggregation):
		return KindAggregation
	case errors.Is(err, errors.ErrShape):
		return KindShape
	case errors.IsAny(err, errors.ErrUnresolved, errors.ErrNoPortrait, errors.ErrIncompatible):
		return KindResolve
	default:
		return KindIO
	}
}

// List collects diagnostics from one run
type List []*Diagnostic

// Add appends d
func (l *List) Add(d *Diagnostic) {
	*l = append(*l, d)
}

// HasErrors reports whether any diagnostic has error severity
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by file, line and column
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Err returns the list as an error when it contains errors, else nil
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return listError(l)
}

type listError List

func (e listError) Error() string {
	lines := make([]string, 0, len(e))
	for _, d := range e {
		if d.IsError() {
			lines = append(lines, d.Error())
		}
	}
	return strings.Join(lines, "\n")
}
