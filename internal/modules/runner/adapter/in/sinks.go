package in

import (
	"fmt"
	"io"
	"sync"

	runnerin "devlaunch/internal/modules/runner/port/in"
)

// BufferSink keeps every line in memory.
type BufferSink struct {
	mu    sync.Mutex
	lines []string
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) AppendLine(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
}

func (s *BufferSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink writes each line followed by a newline.
func NewWriterSink(w io.Writer) runnerin.LogSink {
	return &writerSink{w: w}
}

func (s *writerSink) AppendLine(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, text)
}
