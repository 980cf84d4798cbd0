package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"scenemedic/internal/repair"
)

func TestEmitSink_RejectsBadInputs(t *testing.T) {
	if _, err := NewEmitSink(nil, "json"); err == nil {
		t.Fatal("expected error for nil writer")
	}
	var buf bytes.Buffer
	if _, err := NewEmitSink(&buf, "yaml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEmitSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	_ = s.Write(Event{Type: "run.started", Records: 2})
	_ = s.Write(repair.Result{Scene: "1", Status: repair.StatusPublished})
	_ = s.Write(repair.Result{Scene: "2", Status: repair.StatusGenFailed, Message: "quota"})
	_ = s.Write(Event{Type: "run.finished", Records: 2, Updated: 1})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	// JSON mode aggregates record results only; lifecycle events are dropped.
	var got []repair.Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal json output: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Scene != "1" || got[0].Status != repair.StatusPublished {
		t.Fatalf("unexpected first result: %+v", got[0])
	}
}

func TestEmitSink_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	_ = s.Write(Event{Type: "run.started", Records: 1})
	_ = s.Write(repair.Result{Scene: "7", Status: repair.StatusPublished, Reference: "https://x/7.png"})
	_ = s.Write(Event{Type: "run.finished", Records: 1, Updated: 1})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 ndjson lines, got %d: %q", len(lines), buf.String())
	}

	var mid Event
	if err := json.Unmarshal([]byte(lines[1]), &mid); err != nil {
		t.Fatalf("invalid json line %q: %v", lines[1], err)
	}
	if mid.Type != "record.result" {
		t.Fatalf("expected event type record.result, got %q", mid.Type)
	}
	if mid.Result == nil || mid.Result.Status != repair.StatusPublished {
		t.Fatalf("expected event to carry the result, got %+v", mid.Result)
	}

	var last Event
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("invalid json line %q: %v", lines[2], err)
	}
	if last.Type != "run.finished" || last.Updated != 1 {
		t.Fatalf("unexpected final event: %+v", last)
	}
}

func TestEmitSink_NDJSON_FlushesPerWrite(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()
	defer pw.Close()

	bw := bufio.NewWriterSize(pw, 64*1024)
	s, err := NewEmitSink(bw, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		r := bufio.NewReader(pr)
		line, err := r.ReadString('\n')
		if err != nil {
			errCh <- err
			return
		}
		lineCh <- line
	}()

	if err := s.Write(Event{Type: "run.started"}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	select {
	case line := <-lineCh:
		if !strings.Contains(line, "\"type\":\"run.started\"") {
			t.Fatalf("expected run.started event, got %q", line)
		}
	case err := <-errCh:
		t.Fatalf("read error: %v", err)
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("timed out waiting for ndjson line; writer likely not flushing")
	}
}
