package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenemedic/internal/repair"
)

func TestFileSink_InfersFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "json", file: "out.json"},
		{name: "ndjson", file: "out.ndjson"},
		{name: "jsonl", file: "out.jsonl"},
		{name: "unknown", file: "out.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFileSink(filepath.Join(t.TempDir(), tt.file), "")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFileSink returned error: %v", err)
			}
			_ = s.Close()
		})
	}
}

func TestFileSink_JSONAggregate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}

	_ = s.Write(Event{Type: "run.started", Records: 1})
	_ = s.Write(repair.Result{Scene: "001", Status: repair.StatusPublished})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var results []repair.Result
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(results) != 1 || results[0].Scene != "001" {
		t.Fatalf("unexpected aggregate: %+v", results)
	}
}

func TestFileSink_NDJSONStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatalf("NewFileSink returned error: %v", err)
	}

	_ = s.Write(Event{Type: "run.started", Records: 1})
	_ = s.Write(repair.Result{Scene: "001", Status: repair.StatusPublished})
	_ = s.Write(Event{Type: "run.finished", Updated: 1})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), data)
	}
}
