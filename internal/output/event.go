package output

import "scenemedic/internal/repair"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - record.result
// - run.finished
//
// JSON mode remains an aggregate of repair.Result values.
type Event struct {
	Type  string `json:"type"`
	Scene string `json:"scene,omitempty"`
	*repair.Result
	Records  int    `json:"records,omitempty"`
	Updated  int    `json:"updated,omitempty"`
	Manifest string `json:"manifest,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

func eventFromResult(r repair.Result) Event {
	return Event{Type: "record.result", Scene: r.Scene, Result: &r}
}
