// Package classify turns the raw output of an analysis engine run into a
// success flag, typed errors and warnings, and whatever JSON payload could
// be recovered.
//
// Failure and data presence are independent: a run that exited non-zero
// may still carry a usable payload, and a payload is never discarded
// because of an error.
package classify

import (
	"bytes"
	"fmt"

	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

// Result is the classification of one engine run.
type Result struct {
	Succeeded bool
	Errors    Issues
	Warnings  Issues
	Payload   payload.Value    // Absent when nothing could be recovered
	Recovery  payload.Recovery // How Payload was obtained
}

// PartialDataAvailable reports whether the payload has at least one
// non-empty top-level section, regardless of Succeeded.
func (r *Result) PartialDataAvailable() bool {
	return r.Payload.HasData()
}

// Classify inspects stdout, stderr and the exit code of a finished run.
//
// Stderr heuristics are errors when the run failed (non-zero exit or no
// payload) and warnings when it exited cleanly with a payload. A non-zero
// exit that no heuristic explains yields one Unknown error.
func Classify(stdout, stderr []byte, exitCode int) Result {
	doc, recovery := payload.Recover(stdout)
	res := Result{Payload: doc, Recovery: recovery}
	hasPayload := doc.Present()
	matched := Scan(stderr)

	switch {
	case exitCode != 0:
		res.Errors = append(res.Errors, matched...)
		if len(matched) == 0 {
			msg := lastLine(stderr)
			if msg == "" {
				msg = fmt.Sprintf("engine exited with code %d", exitCode)
			}
			res.Errors = append(res.Errors, Issue{Kind: Unknown, Message: msg})
		}
	case hasPayload:
		res.Warnings = append(res.Warnings, matched...)
	default:
		res.Errors = append(res.Errors, matched...)
		if len(matched) == 0 {
			res.Errors = append(res.Errors, noPayloadIssue(stdout))
		}
	}

	res.Warnings = append(res.Warnings, payloadWarnings(doc, recovery)...)
	res.Succeeded = exitCode == 0 && hasPayload && len(res.Errors) == 0
	return res
}

// Partial salvages whatever payload a terminated run left on stdout. It
// never reports errors or success; the caller knows why the run ended.
func Partial(stdout []byte) Result {
	doc, recovery := payload.Recover(stdout)
	return Result{
		Payload:  doc,
		Recovery: recovery,
		Warnings: payloadWarnings(doc, recovery),
	}
}

func payloadWarnings(doc payload.Value, recovery payload.Recovery) Issues {
	var out Issues
	switch recovery {
	case payload.RecoveryEmbedded:
		out = append(out, Issue{
			Kind:    ParseError,
			Message: "engine output contained text around the JSON result; extra text was ignored",
		})
	case payload.RecoveryTruncated:
		out = append(out, Issue{
			Kind:    ParseError,
			Message: "engine output was cut off; showing the data received before the cut",
		})
	}
	if doc.Present() {
		out = append(out, Diagnostics(doc)...)
	}
	return out
}

func noPayloadIssue(stdout []byte) Issue {
	if len(bytes.TrimSpace(stdout)) == 0 {
		return Issue{Kind: Unknown, Message: "engine produced no output"}
	}
	return Issue{Kind: ParseError, Message: "engine output is not valid JSON"}
}

// Diagnostics converts the payload's own "errors" and "warnings" arrays into
// issues. Entries may be plain strings or objects with type, message, file
// and line fields.
func Diagnostics(doc payload.Value) Issues {
	var out Issues
	for _, section := range []string{"errors", "warnings"} {
		for _, entry := range doc.Get(section).List() {
			if issue, ok := diagnostic(entry); ok {
				out = append(out, issue)
			}
		}
	}
	return out
}

func diagnostic(entry payload.Value) (Issue, bool) {
	if entry.IsString() || entry.IsNumber() {
		msg := entry.String("")
		if msg == "" {
			return Issue{}, false
		}
		kind, ok := kindOf(msg)
		if !ok {
			kind = Unknown
		}
		return Issue{Kind: kind, Message: truncate(msg)}, true
	}
	if !entry.IsObject() {
		return Issue{}, false
	}

	typ := entry.First("type", "error_type", "kind").String("")
	msg := entry.First("message", "error", "msg").String("")
	if msg == "" && typ == "" {
		return Issue{}, false
	}
	if msg == "" {
		msg = typ
	} else if typ != "" {
		msg = typ + ": " + msg
	}

	kind, ok := kindOf(msg)
	if !ok {
		kind = Unknown
	}
	issue := Issue{Kind: kind, Message: truncate(msg)}
	if file := entry.First("file", "file_path", "path").String(""); file != "" {
		issue.Location = &SourceLocation{
			File: file,
			Line: max(entry.First("line", "line_number", "lineno").Int(0), 0),
		}
	}
	return issue, true
}
