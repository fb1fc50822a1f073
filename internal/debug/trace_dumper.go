package debug

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// TraceDumper writes one execution-trace line per instruction, optionally
// filtered by program counter and capped at a maximum line count.
type TraceDumper struct {
	w         *bufio.Writer
	closer    io.Closer
	enabled   bool
	lineCount uint64
	maxLines  uint64
	pcFilter  func(pc uint16) bool
}

// NewTraceDumper creates a dumper writing to w. A maxLines of 0 means unlimited.
func NewTraceDumper(w io.Writer, maxLines uint64) *TraceDumper {
	td := &TraceDumper{
		w:        bufio.NewWriter(w),
		enabled:  true,
		maxLines: maxLines,
	}
	if c, ok := w.(io.Closer); ok && w != os.Stdout && w != os.Stderr {
		td.closer = c
	}
	return td
}

// CreateTraceFile opens a new trace file in outputDir named after the ROM and start time
func CreateTraceFile(outputDir, romName string, maxLines uint64) (*TraceDumper, string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create trace directory: %w", err)
	}
	base := filepath.Base(romName)
	base = base[:len(base)-len(filepath.Ext(base))]
	filename := fmt.Sprintf("%s_%s.log", base, time.Now().Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create trace file: %w", err)
	}
	return NewTraceDumper(file, maxLines), path, nil
}

// Enable resumes writing
func (td *TraceDumper) Enable() {
	td.enabled = true
}

// Disable pauses writing without closing the sink
func (td *TraceDumper) Disable() {
	td.enabled = false
}

// SetPCFilter restricts output to instructions whose PC satisfies filter
func (td *TraceDumper) SetPCFilter(filter func(pc uint16) bool) {
	td.pcFilter = filter
}

// Lines returns how many lines were written
func (td *TraceDumper) Lines() uint64 {
	return td.lineCount
}

// Full reports whether the line cap has been reached
func (td *TraceDumper) Full() bool {
	return td.maxLines > 0 && td.lineCount >= td.maxLines
}

// WriteTrace records a trace line for the instruction at pc
func (td *TraceDumper) WriteTrace(pc uint16, line string) error {
	if !td.enabled || td.Full() {
		return nil
	}
	if td.pcFilter != nil && !td.pcFilter(pc) {
		return nil
	}
	if _, err := td.w.WriteString(line); err != nil {
		return fmt.Errorf("failed to write trace line: %w", err)
	}
	if err := td.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write trace line: %w", err)
	}
	td.lineCount++
	return nil
}

// Close flushes buffered lines and closes the underlying file if one was opened
func (td *TraceDumper) Close() error {
	if err := td.w.Flush(); err != nil {
		return err
	}
	if td.closer != nil {
		return td.closer.Close()
	}
	return nil
}

// CreateRangeFilter creates a PC filter for an inclusive address range
func CreateRangeFilter(lo, hi uint16) func(pc uint16) bool {
	return func(pc uint16) bool {
		return pc >= lo && pc <= hi
	}
}
