package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/luthersystems/cool/analysis"
)

// Version is reported as the creator of callgrind profiles.
var Version = "devel"

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprint(ew.w, s)
}

// A profiler implementation that builds Callgrind files.  Each analysis phase
// is written as a file and each event name as a function, so checking a
// method appears as a call made while checking its class.  The resulting
// files can be opened in KCacheGrind or QCacheGrind.
type callgrindProfiler struct {
	profiler
	sync.Mutex
	writer     io.Writer
	writeErr   error
	startTime  time.Time
	refs       map[string]int
	refCounter int
	current    *callRef
}

var _ Profiler = &callgrindProfiler{}

// NewCallgrindProfiler returns a callgrind profiler writing to w.  A nil
// writer must be replaced with SetFile before the profiler is enabled.
func NewCallgrindProfiler(w io.Writer, opts ...Option) *callgrindProfiler {
	p := &callgrindProfiler{writer: w}
	p.applyConfigs(opts...)
	return p
}

// Represents something that got called
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
	file        string
}

func (p *callgrindProfiler) Enable() error {
	p.Lock()
	if p.writer == nil {
		p.Unlock()
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.writer}
	w.printf("version: 1\ncreator: cool %s (Go %s)\n", Version, runtime.Version())
	w.printf("cmd: Check\npart: 1\npositions: line\n\n")
	w.printf("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		p.Unlock()
		return w.err
	}
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.refCounter = 0
	p.current = nil
	p.Unlock()
	p.push("ENTRYPOINT", "-")
	return p.profiler.Enable()
}

// SetFile directs output to a newly created file.  The file is closed by
// Complete.
func (p *callgrindProfiler) SetFile(filename string) error {
	p.Lock()
	defer p.Unlock()
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	f, err := os.Create(filename) //#nosec G304
	if err != nil {
		return err
	}
	p.writer = f
	return nil
}

func (p *callgrindProfiler) Complete() error {
	p.Lock()
	defer p.Unlock()
	if !p.enabled {
		return errors.New("profiler not enabled")
	}
	// Unwind anything left open, then the entrypoint itself.
	for p.current != nil && p.current.prev != nil {
		p.writeEntry(p.pop())
	}
	ref := p.pop()
	if p.writeErr != nil {
		return p.writeErr
	}
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	p.writeChildren(w, ref, 0)
	w.print("\n")
	duration := time.Since(p.startTime)
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", duration.Nanoseconds(), ms.TotalAlloc)
	p.enabled = false
	if w.err != nil {
		return w.err
	}
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *callgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	p.refCounter++
	p.refs[name] = p.refCounter
	return fmt.Sprintf("(%d) %s", p.refCounter, name)
}

func (p *callgrindProfiler) Start(phase analysis.Phase, name string) func(error) {
	if p.skipTrace(phase, name) {
		return nopEnd
	}
	p.Lock()
	ref := p.push(p.label(phase, name), phase.String())
	p.Unlock()
	return func(error) {
		p.end(ref)
	}
}

// push records entry into a new call nested inside the current one.  The
// caller must hold the lock unless the profiler is not yet enabled.
func (p *callgrindProfiler) push(name, file string) *callRef {
	ref := &callRef{
		name: name,
		file: file,
		prev: p.current,
	}
	if ref.prev != nil {
		ref.prev.children = append(ref.prev.children, ref)
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.startMemory = ms.TotalAlloc
	ref.start = time.Now()
	p.current = ref
	return ref
}

func (p *callgrindProfiler) pop() *callRef {
	ref := p.current
	if ref == nil {
		panic("callgrind profiler: call stack underflow")
	}
	p.current = ref.prev
	return ref
}

func (p *callgrindProfiler) end(ref *callRef) {
	p.Lock()
	defer p.Unlock()
	if !p.enabled {
		return
	}
	// Close calls nested inside ref which never reported their end.
	for p.current != nil && p.current != ref {
		p.writeEntry(p.pop())
	}
	if p.current == nil {
		return
	}
	p.writeEntry(p.pop())
}

func (p *callgrindProfiler) writeEntry(ref *callRef) {
	if p.writeErr != nil {
		return
	}
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	memory := ms.TotalAlloc - ref.startMemory
	w := &errWriter{w: p.writer}
	// Write what we've been observing and where to find it
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, memory)
	p.writeChildren(w, ref, memory)
	// and end the entry
	w.print("\n")
	if w.err != nil {
		p.writeErr = w.err
	}
}

func (p *callgrindProfiler) writeChildren(w *errWriter, ref *callRef, memory uint64) {
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", 0, entry.duration, memory)
	}
}
