package scene

import "strings"

// Decision is the repair selector's verdict for one record.
type Decision int

const (
	// DecisionRepair selects the record for regeneration.
	DecisionRepair Decision = iota

	// DecisionSatisfied leaves the record alone: its reference is present and
	// does not mark a failure.
	DecisionSatisfied

	// DecisionNoPrompt skips a record that needs repair but has no usable
	// prompt to regenerate from.
	DecisionNoPrompt
)

func (d Decision) String() string {
	switch d {
	case DecisionRepair:
		return "repair"
	case DecisionSatisfied:
		return "satisfied"
	case DecisionNoPrompt:
		return "no-prompt"
	default:
		return "unknown"
	}
}

// PromptSentinel marks prompts that were themselves never produced; there is
// nothing to regenerate from.
const PromptSentinel = "Failed to generate"

// Classify decides whether a record needs its image regenerated. Pure; no
// side effects.
//
// A reference is satisfied when it is present and does not contain "fail" or
// "error" case-insensitively. Known fragility carried over from the manifest
// producer contract: a legitimate URL containing the word "error" is
// misclassified as needing repair.
func Classify(r *Record) Decision {
	ref := strings.ToLower(r.ImageURL())
	if ref != "" && !strings.Contains(ref, "fail") && !strings.Contains(ref, "error") {
		return DecisionSatisfied
	}
	if r.Prompt() == "" || strings.HasPrefix(r.Prompt(), PromptSentinel) {
		return DecisionNoPrompt
	}
	return DecisionRepair
}
