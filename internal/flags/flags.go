package flags

// Package flags defines canonical CLI flag names shared across the CLI and engine.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. help text and validation error
// messages).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Storage.Bucket, flags.FlagBucket, "", "...")
//	arg := "--" + flags.FlagBucket
const (
	// Source
	FlagSuffix = "suffix"
	FlagOutput = "output"
	FlagDryRun = "dry-run"

	// Generation
	FlagProject     = "project"
	FlagLocation    = "location"
	FlagModel       = "model"
	FlagAspectRatio = "aspect-ratio"
	FlagAPIKey      = "api-key"
	FlagGenRetries  = "gen-retries"

	// Storage
	FlagBucket   = "bucket"
	FlagLocalRef = "local-ref"

	// Artifacts
	FlagArtifactDir = "artifact-dir"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagPause   = "pause"
	FlagTimeout = "timeout"
)
