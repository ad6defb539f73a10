package audit

import (
	"encoding/json"
	"testing"
)

type recordingSink struct {
	written []Record
}

func (s *recordingSink) Write(r Record) {
	s.written = append(s.written, r)
}

func TestAppend_ForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	s := NewStore(0, sink)

	corr := NewCorrelationID()
	s.Append("sess1", CommandInvoked, corr, map[string]string{"command": "ls"})

	if len(sink.written) != 1 {
		t.Fatalf("expected 1 record forwarded, got %d", len(sink.written))
	}
	if sink.written[0].CorrelationID != corr {
		t.Errorf("expected correlation id preserved, got %q", sink.written[0].CorrelationID)
	}
	var data map[string]string
	if err := json.Unmarshal(sink.written[0].Data, &data); err != nil {
		t.Fatalf("expected valid JSON payload: %v", err)
	}
	if data["command"] != "ls" {
		t.Errorf("expected payload preserved, got %v", data)
	}
}

func TestAppend_SeqIsStrictlyIncreasing(t *testing.T) {
	s := NewStore(0, nil)
	r1 := s.Append("sess1", CommandInvoked, "c1", nil)
	r2 := s.Append("sess1", ExecutionCompleted, "c1", nil)
	if r2.Seq <= r1.Seq {
		t.Errorf("expected strictly increasing Seq, got %d then %d", r1.Seq, r2.Seq)
	}
}

func TestRecent_RingBufferEvictsOldest(t *testing.T) {
	s := NewStore(3, nil)
	for i := 0; i < 5; i++ {
		s.Append("sess1", CommandInvoked, "c1", i)
	}
	recent := s.Recent("sess1")
	if len(recent) != 3 {
		t.Fatalf("expected ring buffer capped at 3, got %d", len(recent))
	}
	var vals [3]int
	for i, r := range recent {
		json.Unmarshal(r.Data, &vals[i])
	}
	if vals != [3]int{2, 3, 4} {
		t.Errorf("expected the 3 most recent values [2 3 4], got %v", vals)
	}
}

func TestRecent_DefensiveCopy(t *testing.T) {
	s := NewStore(0, nil)
	s.Append("sess1", CommandInvoked, "c1", nil)

	recent := s.Recent("sess1")
	recent[0].Family = "tampered"

	again := s.Recent("sess1")
	if again[0].Family == "tampered" {
		t.Error("expected Recent to return a defensive copy")
	}
}

func TestRecent_UnknownSessionReturnsNil(t *testing.T) {
	s := NewStore(0, nil)
	if got := s.Recent("unknown"); got != nil {
		t.Errorf("expected nil for unknown session, got %v", got)
	}
}

func TestDelete_ClearsSessionButNotSink(t *testing.T) {
	sink := &recordingSink{}
	s := NewStore(0, sink)
	s.Append("sess1", CommandInvoked, "c1", nil)
	s.Delete("sess1")

	if got := s.Recent("sess1"); got != nil {
		t.Errorf("expected session cleared, got %v", got)
	}
	if len(sink.written) != 1 {
		t.Errorf("expected durable sink untouched by Delete, got %d records", len(sink.written))
	}
}

func TestAppend_MarshalFailureStillRecordsDiagnostic(t *testing.T) {
	s := NewStore(0, nil)
	// channels aren't JSON-marshalable.
	rec := s.Append("sess1", CommandInvoked, "c1", make(chan int))

	var data map[string]string
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		t.Fatalf("expected a diagnostic JSON payload even on marshal failure: %v", err)
	}
	if data["marshal_error"] == "" {
		t.Error("expected a marshal_error field describing the failure")
	}
}
