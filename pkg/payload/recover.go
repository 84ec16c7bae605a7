package payload

import (
	"bytes"
	"encoding/json"
)

// Recovery describes how a document was obtained from engine output.
type Recovery int

const (
	// RecoveryNone means no JSON object could be recovered.
	RecoveryNone Recovery = iota
	// RecoveryExact means the whole output parsed as one document.
	RecoveryExact
	// RecoveryEmbedded means a complete object was found surrounded by other text.
	RecoveryEmbedded
	// RecoveryTruncated means a cut-off object was closed at its last complete element.
	RecoveryTruncated
)

func (r Recovery) String() string {
	switch r {
	case RecoveryExact:
		return "exact"
	case RecoveryEmbedded:
		return "embedded"
	case RecoveryTruncated:
		return "truncated"
	default:
		return "none"
	}
}

const (
	maxCandidates     = 256
	maxRepairAttempts = 64
)

// Recover extracts the largest JSON object it can find in data.
//
// It tries, in order: the whole input, complete objects starting at the
// first '{' or at the beginning of a line, and finally a repair of a
// truncated object. Only objects are accepted; a bare scalar or array is
// not an engine document.
func Recover(data []byte) (Value, Recovery) {
	if v, err := Parse(data); err == nil {
		if v.IsObject() {
			return v, RecoveryExact
		}
		return Value{}, RecoveryNone
	}
	if v, ok := embedded(data); ok {
		return v, RecoveryEmbedded
	}
	if v, ok := repairTruncated(data); ok {
		return v, RecoveryTruncated
	}
	return Value{}, RecoveryNone
}

// candidateOffsets returns the first '{' and every '{' that begins a line.
func candidateOffsets(data []byte) []int {
	var offsets []int
	first := bytes.IndexByte(data, '{')
	if first < 0 {
		return nil
	}
	offsets = append(offsets, first)
	lineStart := true
	for i, c := range data {
		switch {
		case c == '\n':
			lineStart = true
		case c == ' ' || c == '\t' || c == '\r':
		case c == '{' && lineStart:
			if i != first {
				offsets = append(offsets, i)
			}
			lineStart = false
		default:
			lineStart = false
		}
		if len(offsets) >= maxCandidates {
			break
		}
	}
	return offsets
}

// embedded decodes an object at each candidate offset and keeps the one
// spanning the most input.
func embedded(data []byte) (Value, bool) {
	var best Value
	bestSpan := int64(0)
	for _, off := range candidateOffsets(data) {
		dec := json.NewDecoder(bytes.NewReader(data[off:]))
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil || raw == nil {
			continue
		}
		if span := dec.InputOffset(); span > bestSpan {
			bestSpan = span
			best = From(raw)
		}
	}
	return best, bestSpan > 0
}

// cut is a position where the document can be closed: the prefix up to pos
// followed by closers is valid JSON if everything before pos was.
type cut struct {
	pos     int
	closers []byte
}

func closersFor(stack []byte) []byte {
	out := make([]byte, len(stack))
	for i := range stack {
		if stack[len(stack)-1-i] == '{' {
			out[i] = '}'
		} else {
			out[i] = ']'
		}
	}
	return out
}

// repairTruncated closes an object that was cut off mid-write. It records
// every point where a member or element has just completed and retries
// from the last one backwards.
func repairTruncated(data []byte) (Value, bool) {
	start := bytes.IndexByte(data, '{')
	if start < 0 {
		return Value{}, false
	}

	var (
		stack    []byte
		cuts     []cut
		inString bool
		escaped  bool
	)
scan:
	for i := start; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
			cuts = append(cuts, cut{pos: i + 1, closers: closersFor(stack)})
		case '}', ']':
			if len(stack) == 0 {
				break scan
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break scan
			}
			cuts = append(cuts, cut{pos: i + 1, closers: closersFor(stack)})
		case ',':
			cuts = append(cuts, cut{pos: i, closers: closersFor(stack)})
		}
	}

	for n, attempts := len(cuts)-1, 0; n >= 0 && attempts < maxRepairAttempts; n, attempts = n-1, attempts+1 {
		c := cuts[n]
		candidate := make([]byte, 0, c.pos-start+len(c.closers))
		candidate = append(candidate, data[start:c.pos]...)
		candidate = append(candidate, c.closers...)

		var raw map[string]any
		if err := json.Unmarshal(candidate, &raw); err == nil && raw != nil {
			return From(raw), true
		}
	}
	return Value{}, false
}
