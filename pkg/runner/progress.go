package runner

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/simonhull/firebird-suite/heron/pkg/logger"
)

// ProgressListener receives progress notifications on a goroutine owned by
// the run. Start and completion are always delivered, completion possibly
// after Run has returned; anything in between may be dropped. A listener that
// blocks only delays its own notifications.
type ProgressListener interface {
	OnProgress(message string, percent int)
}

// ProgressFunc adapts a function to ProgressListener.
type ProgressFunc func(message string, percent int)

// OnProgress calls f.
func (f ProgressFunc) OnProgress(message string, percent int) { f(message, percent) }

type progressEvent struct {
	message string
	percent int
}

// pump delivers events to a listener from its own goroutine. Nothing on the
// run side ever waits for the listener. A nil pump discards everything.
type pump struct {
	mu     sync.Mutex
	closed bool
	events chan progressEvent
	final  progressEvent // Written before events is closed
}

const pumpBuffer = 16

// startPump starts delivery and queues the start event, which always fits
// in the fresh buffer.
func startPump(l ProgressListener, log logger.Logger, message string, percent int) *pump {
	if l == nil {
		return nil
	}
	p := &pump{events: make(chan progressEvent, pumpBuffer)}
	p.events <- progressEvent{message, percent}
	go func() {
		for ev := range p.events {
			deliver(l, ev, log)
		}
		deliver(l, p.final, log)
	}()
	return p
}

func deliver(l ProgressListener, ev progressEvent, log logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Progress listener panicked", logger.F("panic", fmt.Sprint(r)))
		}
	}()
	l.OnProgress(ev.message, ev.percent)
}

// offer queues an event if there is room and drops it otherwise. Stray
// stderr lines arriving after finish are dropped too.
func (p *pump) offer(message string, percent int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.events <- progressEvent{message, percent}:
	default:
	}
}

// finish hands over the completion event, delivered after everything queued
// before it. It returns at once.
func (p *pump) finish(message string, percent int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.final = progressEvent{message, percent}
		close(p.events)
	}
}

// parseProgress reads an engine stderr line of the form
// "PROGRESS <percent> <message>".
func parseProgress(line string) (string, int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "PROGRESS ")
	if !ok {
		return "", 0, false
	}
	num, msg, _ := strings.Cut(strings.TrimSpace(rest), " ")
	pct, err := strconv.Atoi(strings.TrimSuffix(num, "%"))
	if err != nil {
		return "", 0, false
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "Analyzing"
	}
	return msg, min(max(pct, 0), 100), true
}
