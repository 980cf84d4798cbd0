package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenemedic/internal/config"
	"scenemedic/internal/engine"
	"scenemedic/internal/flags"
	"scenemedic/internal/imagen"
	"scenemedic/internal/store"
)

var cfg = config.New()

const repairHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	SceneMedic reads generation and storage settings from the environment when
	the matching flags are unset. A .env file in the working directory is
	honored if present.

	GOOGLE_CLOUD_PROJECT    Vertex AI project (same as --project)
	GOOGLE_CLOUD_LOCATION   Vertex AI region (same as --location)
	GEMINI_API_KEY          Gemini API key backend (same as --api-key)
	SCENE_IMAGE_BUCKET      object store bucket (same as --bucket)

	Vertex AI authenticates via application-default credentials
	(gcloud auth application-default login).

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var repairCmd = &cobra.Command{
	Use:   "repair <manifest.json>",
	Short: "Regenerate failed images for a scene manifest",
	Long: `Repair a scene manifest: regenerate images for records whose reference is
missing or marks a failure, and write an updated manifest next to the input.

Selection:
	A record is repaired when its image_url is absent or contains "fail" or
	"error" (case-insensitive). Records without a usable prompt (absent, or
	starting with "Failed to generate") are logged and skipped.

Publishing:
	With --bucket, each generated image is uploaded and the record's image_url
	is replaced with the public object URL. Without a bucket, images are only
	saved locally and references are left unchanged (pass --local-ref to point
	references at the local files instead).

Pacing:
	The loop pauses --pause after every successful generation to stay under
	provider rate limits. There is no other throttling and no retry unless
	--gen-retries is set.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown run summary
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events
	with a "type" field (run.started, record.result, run.finished).

Exit codes:
	0 = run completed (including runs with per-record generation or publish failures)
	1 = fatal error (invalid flags, manifest missing or unparsable, client setup failed)

Examples:
  # Vertex AI backend, publish to a bucket
  export GOOGLE_CLOUD_PROJECT=my-project
  scenemedic repair final.json --bucket scene-images

  # Gemini API backend, keep images local only
  scenemedic repair final.json --api-key "$GEMINI_API_KEY"

  # Machine-readable stream for automation
  scenemedic repair final.json --project my-project --no-console --emit ndjson
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg.Source.Manifest = args[0]
		cfg.ApplyEnv()

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
		defer cancel()

		var eng *engine.Engine
		var gcs *store.GCS
		if cfg.Source.DryRun {
			// Dry runs classify only; no clients are built.
			eng = engine.New(nil, nil)
		} else {
			gen, err := imagen.NewClient(ctx, cfg.Generation)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			var up store.Uploader = store.Disabled{}
			if cfg.Storage.Bucket != "" {
				gcs, err = store.NewGCS(ctx, cfg.Storage.Bucket)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				up = gcs
			}
			eng = engine.New(gen, up)
		}

		// os.Exit skips deferred calls, so the storage client is closed
		// explicitly once the run is done.
		code := eng.Run(ctx, cfg)
		if gcs != nil {
			_ = gcs.Close()
		}
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
	repairCmd.SetHelpTemplate(repairHelpTemplate)

	// Source
	repairCmd.Flags().StringVar(&cfg.Source.Suffix, flags.FlagSuffix, cfg.Source.Suffix, "Suffix inserted before the manifest extension for the output path")
	repairCmd.Flags().StringVar(&cfg.Source.Output, flags.FlagOutput, "", "Write the updated manifest to this exact path instead of deriving one")
	repairCmd.Flags().BoolVar(&cfg.Source.DryRun, flags.FlagDryRun, false, "Classify records and print the repair plan without generating anything")

	// Generation
	repairCmd.Flags().StringVar(&cfg.Generation.Project, flags.FlagProject, "", "Google Cloud project for the Vertex AI backend")
	repairCmd.Flags().StringVar(&cfg.Generation.Location, flags.FlagLocation, "", "Vertex AI region (falls back to GOOGLE_CLOUD_LOCATION, then us-central1)")
	repairCmd.Flags().StringVar(&cfg.Generation.APIKey, flags.FlagAPIKey, "", "Gemini API key backend (mutually exclusive with --project)")
	repairCmd.Flags().StringVar(&cfg.Generation.Model, flags.FlagModel, cfg.Generation.Model, "Image generation model name")
	repairCmd.Flags().StringVar(&cfg.Generation.AspectRatio, flags.FlagAspectRatio, cfg.Generation.AspectRatio, "Aspect ratio for every generated image (W:H)")
	repairCmd.Flags().IntVar(&cfg.Generation.Retries, flags.FlagGenRetries, 0, "Additional generation attempts after a provider failure (0 = none)")

	// Storage
	repairCmd.Flags().StringVar(&cfg.Storage.Bucket, flags.FlagBucket, "", "Object store bucket to publish images to (empty = local only)")
	repairCmd.Flags().BoolVar(&cfg.Storage.LocalRef, flags.FlagLocalRef, false, "When publishing is off or fails, point the record reference at the local artifact")

	// Artifacts
	repairCmd.Flags().StringVar(&cfg.Artifacts.Dir, flags.FlagArtifactDir, cfg.Artifacts.Dir, "Directory for locally saved images (created if absent)")

	// Output
	repairCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	repairCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (PUBLISHED, PUBLISH_FAILED, GEN_FAILED, SKIPPED, NO_PROMPT). Comma-separated.")
	repairCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown run report to this path")
	repairCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	repairCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	repairCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	repairCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	repairCmd.Flags().DurationVar(&cfg.Runtime.Pause, flags.FlagPause, cfg.Runtime.Pause, "Pause after each successful generation (rate-limit protection)")
	repairCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout for the whole run")
}
