package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"scenemedic/internal/repair"
)

var statusColors = map[repair.Status]*color.Color{
	repair.StatusPublished:     color.New(color.FgGreen),
	repair.StatusPublishFailed: color.New(color.FgYellow),
	repair.StatusGenFailed:     color.New(color.FgRed),
	repair.StatusSkipped:       color.New(color.FgHiBlack),
	repair.StatusNoPrompt:      color.New(color.FgHiBlack),
}

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	results         []repair.Result // For JSON array output
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			// Normalize for case-insensitive comparison; statuses are
			// "PUBLISHED", "PUBLISH_FAILED", "GEN_FAILED", "SKIPPED", "NO_PROMPT".
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	// Apply filtering if configured
	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(repair.Result); ok {
			if !s.allowedStatuses[string(r.Status)] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		r, ok := v.(repair.Result)
		if !ok {
			// Ignore non-result events in JSON console mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case repair.Result:
			e := eventFromResult(t)
			if err := encoder.Encode(e); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		r, ok := v.(repair.Result)
		if !ok {
			// Ignore lifecycle events in text mode.
			return nil
		}
		status := string(r.Status)
		if c, ok := statusColors[r.Status]; ok {
			status = c.Sprint(status)
		}
		line := fmt.Sprintf("[%s] scene %s", status, r.Scene)
		if r.Reference != "" {
			line += " -> " + r.Reference
		}
		if r.Message != "" {
			line += " - " + r.Message
		}
		if _, err := fmt.Fprintln(s.writer, line); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.results); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
