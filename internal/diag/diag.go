// Package diag accumulates compiler diagnostics. It follows the shape of
// the teacher's util.perror (src/util/perror.go): a background goroutine
// owns the buffer, fed over a channel and guarded by a mutex, so that
// semantic analysis passes running over independent compilation units can
// report errors without explicit locking at call sites. Unlike perror,
// a Bag is capped (spec §7: "no more than 99 diagnostics survive a single
// run") and distinguishes errors from warnings.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MaxDiagnostics is the hard cap spec §7 places on a single compilation
// run; the 100th and further diagnostics are dropped with a final
// "too many errors" entry instead.
const MaxDiagnostics = 99

// Severity distinguishes a hard error from a warning. Only errors cause
// Bag.Failed to report true.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported problem, carrying the source position the
// way every compiler message in spec §7 is prefixed.
type Diagnostic struct {
	Severity Severity
	Pos      string
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Err)
}

type listenMsg struct {
	d     Diagnostic
	order int
	ack   chan struct{} // closed by run once d has been recorded (or dropped by the cap).
}

// Bag is a single-threaded diagnostic accumulator, safe for concurrent
// Report calls the way perror is safe for concurrent Append calls.
type Bag struct {
	listen chan listenMsg
	stop   chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	items     []Diagnostic
	capped    bool
	nextOrder int
}

// NewBag starts a Bag's background listener goroutine.
func NewBag() *Bag {
	b := &Bag{
		listen: make(chan listenMsg),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bag) run() {
	defer close(b.done)
	for {
		select {
		case msg := <-b.listen:
			b.mu.Lock()
			if len(b.items) < MaxDiagnostics {
				b.items = append(b.items, msg.d)
			} else if !b.capped {
				b.capped = true
				b.items = append(b.items, Diagnostic{
					Severity: Error,
					Pos:      msg.d.Pos,
					Err:      errors.New("too many errors, stopping"),
				})
			}
			b.mu.Unlock()
			close(msg.ack)
		case <-b.stop:
			return
		}
	}
}

// Stop shuts down the listener goroutine. Report must not be called
// after Stop.
func (b *Bag) Stop() {
	close(b.stop)
	<-b.done
}

// Reportf wraps a formatted message with errors.Errorf and records it at
// the given position and severity.
func (b *Bag) Reportf(sev Severity, pos string, format string, args ...interface{}) {
	b.report(sev, pos, errors.Errorf(format, args...))
}

// Report records err, wrapped with its source position via
// errors.WithMessage so the original cause survives for %+v formatting.
func (b *Bag) Report(sev Severity, pos string, err error) {
	b.report(sev, pos, errors.WithMessage(err, pos))
}

func (b *Bag) report(sev Severity, pos string, err error) {
	ack := make(chan struct{})
	b.listen <- listenMsg{d: Diagnostic{Severity: sev, Pos: pos, Err: err}, ack: ack}
	<-ack
}

// Len returns the number of recorded diagnostics, mirroring perror.Len.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Failed reports whether any diagnostic at Error severity was recorded.
func (b *Bag) Failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns a stable, position-sorted snapshot of every diagnostic
// recorded so far.
func (b *Bag) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out
}
