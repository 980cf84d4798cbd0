package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a manifest file into its ordered record sequence.
// A missing file or malformed document is fatal to the run; everything after
// loading is handled per record.
func Load(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse manifest %s: expected a JSON array of scene records: %w", path, err)
	}

	records := make([]*Record, 0, len(raws))
	for i, raw := range raws {
		r, err := parseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("parse manifest %s: record %d: %w", path, i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Save writes the record sequence as a pretty-printed JSON array.
// Indentation is two spaces; HTML escaping is off so non-ASCII prompt text is
// written as-is rather than \u-escaped.
func Save(path string, records []*Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// OutputPath derives the output manifest path from the input path by
// inserting suffix before the extension: final.json -> final_updated.json.
// Inputs without an extension get the suffix appended.
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		return input + suffix
	}
	return strings.TrimSuffix(input, ext) + suffix + ext
}
