package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestLoad_MalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not_json", body: "plainly not json"},
		{name: "object_not_array", body: `{"scene":1}`},
		{name: "array_of_scalars", body: `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenes.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestLoad_PreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.json")
	body := `[{"scene":3},{"scene":1},{"scene":2}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"3", "1", "2"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, id := range want {
		if records[i].SceneID() != id {
			t.Fatalf("record %d has id %q, want %q", i, records[i].SceneID(), id)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scenes.json")
	body := `[{"scene":1,"prompt":"ночь, улица","image_url":"https://ok/1.png","extra":{"z":1,"a":2}}]`
	if err := os.WriteFile(in, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Load(in)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	out := filepath.Join(dir, "scenes_updated.json")
	if err := Save(out, records); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	// Pretty-printed with two-space indentation.
	if !strings.Contains(got, "\n  {") {
		t.Fatalf("output not indented:\n%s", got)
	}
	// Non-ASCII preserved rather than escaped.
	if !strings.Contains(got, "ночь, улица") {
		t.Fatalf("non-ASCII text escaped:\n%s", got)
	}
	// Untouched record keeps its key order.
	if strings.Index(got, `"scene"`) > strings.Index(got, `"prompt"`) {
		t.Fatalf("key order changed:\n%s", got)
	}

	// The written manifest loads again.
	again, err := Load(out)
	if err != nil {
		t.Fatalf("reloading saved manifest: %v", err)
	}
	if len(again) != 1 || again[0].ImageURL() != "https://ok/1.png" {
		t.Fatalf("round trip lost data: %+v", again)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		suffix string
		want   string
	}{
		{name: "simple", input: "final.json", suffix: "_updated", want: "final_updated.json"},
		{name: "with_dirs", input: "a/b/final.json", suffix: "_updated", want: "a/b/final_updated.json"},
		{name: "dotted_name", input: "final.v2.json", suffix: "_updated", want: "final.v2_updated.json"},
		{name: "no_extension", input: "final", suffix: "_updated", want: "final_updated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath(tt.input, tt.suffix); got != tt.want {
				t.Fatalf("OutputPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
			}
		})
	}
}
