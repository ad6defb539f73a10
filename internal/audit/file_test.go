package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSink_WritesOneJSONLinePerRecord(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	defer sink.Close()

	sink.Write(Record{Seq: 1, Time: time.Now().UTC(), Family: CommandInvoked, SessionID: "s1", CorrelationID: "c1"})
	sink.Write(Record{Seq: 2, Time: time.Now().UTC(), Family: ExecutionCompleted, SessionID: "s1", CorrelationID: "c1"})

	path := filepath.Join(dir, "audit", time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected audit file to exist: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Errorf("line is not a valid Record: %v (%q)", err, line)
		}
	}
}

func TestFileSink_AppendsAcrossMultipleSinksSameDay(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	sink.Write(Record{Seq: 1, Time: time.Now().UTC(), Family: CommandInvoked})
	sink.Close()

	sink2 := NewFileSink(dir)
	defer sink2.Close()
	sink2.Write(Record{Seq: 2, Time: time.Now().UTC(), Family: ExecutionCompleted})

	path := filepath.Join(dir, "audit", time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected audit file: %v", err)
	}
	lineCount := 0
	for _, b := range data {
		if b == '\n' {
			lineCount++
		}
	}
	if lineCount != 2 {
		t.Errorf("expected 2 appended lines across sink instances, got %d", lineCount)
	}
}
