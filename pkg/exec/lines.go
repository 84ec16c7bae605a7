package exec

import (
	"bytes"
	"io"
)

// lineWriter copies everything to w and additionally hands each complete
// line to onLine. Incomplete trailing data is held until the next Write or
// Flush.
type lineWriter struct {
	w      io.Writer
	onLine func(string)
	buffer []byte
}

func newLineWriter(w io.Writer, onLine func(string)) *lineWriter {
	return &lineWriter{w: w, onLine: onLine}
}

func (l *lineWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if err != nil || l.onLine == nil {
		return n, err
	}

	l.buffer = append(l.buffer, p...)
	for {
		i := bytes.IndexByte(l.buffer, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(l.buffer[:i], "\r")
		l.onLine(string(line))
		l.buffer = l.buffer[i+1:]
	}
	return n, nil
}

// Flush delivers any buffered partial line.
func (l *lineWriter) Flush() {
	if l.onLine != nil && len(l.buffer) > 0 {
		l.onLine(string(l.buffer))
	}
	l.buffer = nil
}
