package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one scene entry from the manifest. The original JSON object is
// kept verbatim; fields the repair tool cares about are parsed out alongside
// it so that records left alone survive the round trip with their full field
// set and numeric literals intact.
type Record struct {
	raw json.RawMessage

	sceneID  string
	prompt   string
	imageURL string

	updated bool
}

// recordProbe extracts the keys the repair tool reads. The scene id may be a
// number or a string in producer manifests.
type recordProbe struct {
	Scene    any     `json:"scene"`
	Prompt   *string `json:"prompt"`
	ImageURL *string `json:"image_url"`
}

func parseRecord(raw json.RawMessage) (*Record, error) {
	var probe recordProbe
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}

	r := &Record{raw: raw}

	switch id := probe.Scene.(type) {
	case string:
		r.sceneID = id
	case json.Number:
		r.sceneID = id.String()
	case nil:
		// Label-only field; a missing id is tolerated.
	default:
		return nil, fmt.Errorf("scene id must be a number or string, got %T", probe.Scene)
	}

	if probe.Prompt != nil {
		r.prompt = *probe.Prompt
	}
	if probe.ImageURL != nil {
		r.imageURL = *probe.ImageURL
	}
	return r, nil
}

// SceneID returns the record's id as a string label ("" when absent).
func (r *Record) SceneID() string { return r.sceneID }

// Prompt returns the stored generation prompt ("" when absent or null).
func (r *Record) Prompt() string { return r.prompt }

// ImageURL returns the current image reference ("" when absent or null).
func (r *Record) ImageURL() string { return r.imageURL }

// Updated reports whether SetImageURL has been applied to this record.
func (r *Record) Updated() bool { return r.updated }

// SetImageURL rewrites the record's image_url field, preserving every other
// field. Numeric literals elsewhere in the record pass through untouched
// (decoded as json.Number, never float64).
func (r *Record) SetImageURL(url string) error {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(r.raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("patch record %s: %w", r.sceneID, err)
	}
	fields["image_url"] = url

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return fmt.Errorf("patch record %s: %w", r.sceneID, err)
	}

	r.raw = json.RawMessage(bytes.TrimSpace(buf.Bytes()))
	r.imageURL = url
	r.updated = true
	return nil
}

// MarshalJSON emits the record's raw object, original bytes for untouched
// records and the patched object for updated ones.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.raw, nil
}
