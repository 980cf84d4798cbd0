package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"scenemedic/internal/repair"
)

// ReportSink aggregates the run into a Markdown summary written on Close.
type ReportSink struct {
	path     string
	file     *os.File
	mu       sync.Mutex
	results  []repair.Result
	records  int
	manifest string
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path: path,
		file: f,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case repair.Result:
		s.results = append(s.results, t)
	case Event:
		if t.Type == "run.started" {
			s.records = t.Records
		}
		if t.Type == "run.finished" && t.Manifest != "" {
			s.manifest = t.Manifest
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[repair.Status]int)
	updated := 0
	for _, r := range s.results {
		counts[r.Status]++
		if r.Updated() {
			updated++
		}
	}

	var b strings.Builder
	b.WriteString("# Scene Repair Report\n\n")
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Records: %d\n", s.records)
	fmt.Fprintf(&b, "- Updated: %d\n", updated)
	for _, st := range []repair.Status{
		repair.StatusPublished,
		repair.StatusPublishFailed,
		repair.StatusGenFailed,
		repair.StatusNoPrompt,
		repair.StatusSkipped,
	} {
		if counts[st] > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", st, counts[st])
		}
	}
	if s.manifest != "" {
		fmt.Fprintf(&b, "- Output manifest: `%s`\n", s.manifest)
	}

	if updated > 0 {
		b.WriteString("\n## Repaired Scenes\n\n")
		b.WriteString("| Scene | Status | Reference | Artifact |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, r := range s.results {
			if !r.Updated() {
				continue
			}
			ref := r.Reference
			if ref == "" {
				ref = "(unchanged)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Scene, r.Status, ref, r.Artifact)
		}
	}

	var failures []repair.Result
	for _, r := range s.results {
		if r.Status == repair.StatusGenFailed || r.Status == repair.StatusNoPrompt {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, r := range failures {
			fmt.Fprintf(&b, "- scene %s: %s", r.Scene, r.Status)
			if r.Message != "" {
				fmt.Fprintf(&b, ": %s", r.Message)
			}
			b.WriteString("\n")
		}
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
