package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends one JSON line per record to <root>/audit/<date>.jsonl,
// rotating by UTC date — the same one-file-per-key-per-day layout
// internal/agentloop.FileCheckpointStore and (per spec.md §6) the
// transcript store both use, applied here with date as the only key since
// audit records interleave across sessions by design (a correlation id,
// not the file boundary, is what ties one turn's records together).
type FileSink struct {
	mu   sync.Mutex
	root string

	day  string
	file *os.File
}

// NewFileSink builds a FileSink rooted at root. The first Write opens
// (or creates) the file for the current UTC date.
func NewFileSink(root string) *FileSink {
	return &FileSink{root: root}
}

// Write appends rec as one JSON line. A write failure is logged, not
// returned or panicked on — Sink.Write has no error return because losing
// one audit line must never abort the operation being audited.
func (f *FileSink) Write(rec Record) {
	f.mu.Lock()
	defer f.mu.Unlock()

	day := rec.Time.Format("2006-01-02")
	if f.file == nil || day != f.day {
		if f.file != nil {
			f.file.Close()
		}
		dir := filepath.Join(f.root, "audit")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("[audit] create audit dir failed: %v", err)
			return
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.jsonl", day))
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("[audit] open audit file failed: %v", err)
			return
		}
		f.file = file
		f.day = day
	}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[audit] marshal record failed: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := f.file.Write(data); err != nil {
		log.Printf("[audit] write record failed: %v", err)
	}
}

// Close releases the currently open file handle, if any.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
