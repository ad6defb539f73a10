package tool

import (
	"context"
	"encoding/json"
	"testing"
)

// dummyTool is a minimal Tool implementation for testing.
type dummyTool struct {
	name string
}

func (d *dummyTool) Name() string                 { return d.name }
func (d *dummyTool) Description() string          { return "test tool" }
func (d *dummyTool) InputSchema() json.RawMessage { return nil }
func (d *dummyTool) Execute(_ context.Context, _ json.RawMessage) (ToolResult, error) {
	return ToolResult{}, nil
}
func (d *dummyTool) Init(_ context.Context) error { return nil }
func (d *dummyTool) Close() error                 { return nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&dummyTool{name: "original"})

	if _, ok := r.Get("original"); !ok {
		t.Error("expected registered tool to be retrievable")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected unregistered tool to be absent")
	}
}

func TestRegistry_RegisterOverwritesExisting(t *testing.T) {
	r := NewRegistry()
	first := &dummyTool{name: "shared"}
	second := &dummyTool{name: "shared"} // same name, different instance
	r.Register(first)
	r.Register(second)

	got, ok := r.Get("shared")
	if !ok {
		t.Fatal("shared tool should exist")
	}
	if got != second {
		t.Error("expected the later Register call to win")
	}
}

func TestRegistry_ListSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&dummyTool{name: "zebra"})
	r.Register(&dummyTool{name: "apple"})

	list := r.List()
	if len(list) != 2 || list[0].Name() != "apple" || list[1].Name() != "zebra" {
		t.Errorf("expected [apple, zebra], got %v", list)
	}
}
