package repair

// Status is the terminal outcome of one record in a repair run.
type Status string

const (
	// StatusSkipped covers records whose reference is already satisfied.
	StatusSkipped Status = "SKIPPED"

	// StatusNoPrompt covers records selected for repair without a usable prompt.
	StatusNoPrompt Status = "NO_PROMPT"

	// StatusGenFailed covers provider-side generation failures.
	StatusGenFailed Status = "GEN_FAILED"

	// StatusPublished means a new artifact was generated and uploaded, and the
	// record's reference now points at the durable URL.
	StatusPublished Status = "PUBLISHED"

	// StatusPublishFailed means the artifact was generated and saved locally but
	// not uploaded. The record's prior reference is left unchanged unless the
	// local-path fallback is enabled.
	StatusPublishFailed Status = "PUBLISH_FAILED"
)

// Result is the per-record outcome record written to the output sinks.
type Result struct {
	Scene   string `json:"scene"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	// Artifact is the local path of the generated image, when one exists.
	Artifact string `json:"artifact,omitempty"`

	// Reference is the value written into the record's image_url, when it
	// changed.
	Reference string `json:"reference,omitempty"`
}

// Updated reports whether this outcome counts toward writing the output
// manifest. Any successful generation counts, published or not: a local
// artifact now exists even when the reference field did not change.
func (r Result) Updated() bool {
	return r.Status == StatusPublished || r.Status == StatusPublishFailed
}
