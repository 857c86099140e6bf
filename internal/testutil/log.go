package testutil

import (
	"fmt"
	"sync"
)

// LogRecorder captures compiler diagnostics for assertions.
type LogRecorder struct {
	mu    sync.Mutex
	lines []string
}

// Logf records a formatted line. Suitable as a Logf func for compilers.
func (r *LogRecorder) Logf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the recorded lines.
func (r *LogRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
