package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect repair
	// behavior, keep the CLI flags in internal/cli/repair.go in sync.
	Source     Source
	Generation Generation
	Storage    Storage
	Artifacts  Artifacts
	Output     Output
	Runtime    Runtime
}

type Source struct {
	// Manifest is the path to the scene manifest: a JSON array of scene records.
	Manifest string

	// Suffix is inserted before the manifest extension to derive the output
	// path (see --suffix). Ignored when Output is set.
	Suffix string

	// Output overrides the derived output path entirely (see --output).
	Output string

	// DryRun classifies records and prints the repair plan without calling the
	// provider or writing anything (see --dry-run).
	DryRun bool
}

type Generation struct {
	// Project is the Google Cloud project used for the Vertex AI backend
	// (see --project; env GOOGLE_CLOUD_PROJECT).
	Project string

	// Location is the Vertex AI region (see --location; env GOOGLE_CLOUD_LOCATION).
	// Left empty by New() so the environment can supply it; Validate falls back
	// to us-central1 when neither flag nor env set one.
	Location string

	// APIKey selects the Gemini API backend instead of Vertex AI
	// (see --api-key; env GEMINI_API_KEY). Mutually exclusive with Project.
	APIKey string

	// Model is the image generation model name (see --model).
	Model string

	// AspectRatio is the fixed aspect ratio for every generated image
	// (see --aspect-ratio).
	AspectRatio string

	// Retries is the number of additional generation attempts after a provider
	// failure (see --gen-retries). 0 means a single attempt.
	Retries int
}

type Storage struct {
	// Bucket is the object store bucket to publish artifacts to (see --bucket;
	// env SCENE_IMAGE_BUCKET). Empty disables publishing; that is a valid mode,
	// records then keep their prior references.
	Bucket string

	// LocalRef, when publishing is disabled or fails, rewrites the record
	// reference to the absolute local artifact path (see --local-ref).
	LocalRef bool
}

type Artifacts struct {
	// Dir is the local directory for generated images (see --artifact-dir).
	// Created if absent. Artifacts are kept across runs.
	Dir string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by record status (see --console-filter-status).
	// Allowed values: PUBLISHED, PUBLISH_FAILED, GEN_FAILED, SKIPPED, NO_PROMPT.
	ConsoleFilterStatus []string

	// Report writes a Markdown run report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	// Use with --emit/--out/--report for machine-readable output.
	NoConsole bool
}

type Runtime struct {
	// Pause is the fixed pause after each successful generation (see --pause).
	// This is the batch's only throttling mechanism.
	Pause time.Duration

	// Timeout is the global run timeout (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose enables more detailed diagnostics (full provider errors,
	// per-record prompt previews on skip).
	Verbose bool
}

func New() *Config {
	return &Config{
		Source: Source{
			Suffix: "_updated",
		},
		Generation: Generation{
			Model:       "imagen-4.0-ultra-generate-001",
			AspectRatio: "16:9",
		},
		Artifacts: Artifacts{
			Dir: "recovered_images",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Pause:   30 * time.Second,
			Timeout: 30 * time.Minute,
		},
	}
}

// ApplyEnv fills unset credential and targeting fields from the environment.
// A .env file in the working directory is honored if present. Flags already
// parsed into the config win over environment values.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if c.Generation.Project == "" {
		c.Generation.Project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if loc := os.Getenv("GOOGLE_CLOUD_LOCATION"); loc != "" && c.Generation.Location == "" {
		c.Generation.Location = loc
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = os.Getenv("SCENE_IMAGE_BUCKET")
	}
}

func (c *Config) Validate() error {
	c.Source.Manifest = strings.TrimSpace(c.Source.Manifest)
	if c.Source.Manifest == "" {
		return errors.New("a scene manifest path is required")
	}
	if strings.TrimSpace(c.Source.Suffix) == "" && c.Source.Output == "" {
		return errors.New("--suffix must not be empty (or set --output)")
	}

	// Generation validation. Dry runs never build a client, so credentials are
	// only required for real runs.
	if !c.Source.DryRun {
		if c.Generation.APIKey == "" && c.Generation.Project == "" {
			return errors.New("generation credentials required: set --project (Vertex AI) or --api-key (Gemini API)")
		}
		if c.Generation.APIKey != "" && c.Generation.Project != "" {
			return errors.New("--project and --api-key are mutually exclusive")
		}
	}
	// The region fallback lives here, after ApplyEnv has had its chance, so
	// GOOGLE_CLOUD_LOCATION is not shadowed by a constructor default.
	if strings.TrimSpace(c.Generation.Location) == "" {
		c.Generation.Location = "us-central1"
	}
	if strings.TrimSpace(c.Generation.Model) == "" {
		return errors.New("--model must not be empty")
	}
	if err := validateAspectRatio(c.Generation.AspectRatio); err != nil {
		return err
	}
	if c.Generation.Retries < 0 {
		return errors.New("--gen-retries must be >= 0")
	}

	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		return errors.New("--artifact-dir must not be empty")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	c.Output.Emit = splitCommaList(c.Output.Emit)
	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
	}
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)
	for i, st := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(st)
		switch v {
		case "PUBLISHED", "PUBLISH_FAILED", "GEN_FAILED", "SKIPPED", "NO_PROMPT":
			c.Output.ConsoleFilterStatus[i] = v
		default:
			return fmt.Errorf("unsupported --console-filter-status value: %s (must be one of: PUBLISHED, PUBLISH_FAILED, GEN_FAILED, SKIPPED, NO_PROMPT)", st)
		}
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Pause < 0 {
		return errors.New("--pause must be >= 0")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

// validateAspectRatio accepts the W:H form the provider expects ("16:9", "2:3").
func validateAspectRatio(raw string) error {
	left, right, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
		return fmt.Errorf("invalid --aspect-ratio %q: expected W:H (e.g. 16:9)", raw)
	}
	for _, part := range []string{left, right} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return fmt.Errorf("invalid --aspect-ratio %q: expected W:H (e.g. 16:9)", raw)
			}
		}
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
