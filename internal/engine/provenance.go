package engine

import (
	"fmt"
	"runtime"
	"strings"
)

const maxProvenanceFrames = 32

// captureProvenance renders the caller's stack, one "function file:line"
// entry per line, starting skip frames above its own caller.
func captureProvenance(skip int) string {
	pcs := make([]uintptr, maxProvenanceFrames)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return "unknown"
	}

	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s:%d", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
