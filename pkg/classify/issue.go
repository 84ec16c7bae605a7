package classify

import (
	"fmt"
	"strings"
)

// Kind categorizes an analysis issue so callers can offer a targeted fix.
type Kind string

const (
	EngineNotFound    Kind = "engine_not_found"
	DependencyMissing Kind = "dependency_missing"
	ParseError        Kind = "parse_error"
	GitUnavailable    Kind = "git_unavailable"
	Timeout           Kind = "timeout"
	Cancelled         Kind = "cancelled"
	AlreadyRunning    Kind = "already_running"
	Unknown           Kind = "unknown"
)

// Kinds lists every issue kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		EngineNotFound, DependencyMissing, ParseError, GitUnavailable,
		Timeout, Cancelled, AlreadyRunning, Unknown,
	}
}

// Title returns a short human-readable name for the kind.
func (k Kind) Title() string {
	switch k {
	case EngineNotFound:
		return "Analysis engine not found"
	case DependencyMissing:
		return "Missing dependency"
	case ParseError:
		return "Parse error"
	case GitUnavailable:
		return "Git unavailable"
	case Timeout:
		return "Timed out"
	case Cancelled:
		return "Cancelled"
	case AlreadyRunning:
		return "Analysis already in progress"
	default:
		return "Analysis failed"
	}
}

// Remediation returns the suggested next step for the kind.
func (k Kind) Remediation() string {
	switch k {
	case EngineNotFound:
		return "Install the analysis engine or point engine.command in heron.yml at it"
	case DependencyMissing:
		return "Install the missing package into the interpreter used for analysis"
	case ParseError:
		return "Fix the syntax error in the reported file and run the analysis again"
	case GitUnavailable:
		return "Run git analytics inside a git repository that has at least one commit"
	case Timeout:
		return "Increase engine.timeout or analyze a smaller part of the project"
	case Cancelled:
		return "Run the analysis again when ready"
	case AlreadyRunning:
		return "Wait for the running analysis to finish"
	default:
		return "Re-run with --verbose and check the engine output"
	}
}

// SourceLocation points at the file and line an issue refers to.
type SourceLocation struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

func (l SourceLocation) String() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return l.File
}

// Issue is one error or warning detected while running an analysis.
type Issue struct {
	Kind     Kind            `json:"kind" yaml:"kind"`
	Message  string          `json:"message" yaml:"message"`
	Location *SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

// Error formats the issue; it lets an Issue travel as an error value.
func (i Issue) Error() string {
	if i.Location != nil {
		return fmt.Sprintf("%s (%s): %s", i.Kind, i.Location, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Issues is an ordered list of issues.
type Issues []Issue

// Has reports whether any issue is of kind k.
func (is Issues) Has(k Kind) bool {
	for _, i := range is {
		if i.Kind == k {
			return true
		}
	}
	return false
}

// Error joins all issues, one per line.
func (is Issues) Error() string {
	if len(is) == 0 {
		return "no issues"
	}
	lines := make([]string, len(is))
	for n, i := range is {
		lines[n] = i.Error()
	}
	return strings.Join(lines, "\n")
}
