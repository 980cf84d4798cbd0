package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "scenemedic",
	Short: "Repair scene manifests whose image generation previously failed",
	Long: `SceneMedic scans a scene manifest (a JSON array of scene records), finds
records whose image reference is missing or marks a failure, regenerates each
image from the record's stored prompt, optionally publishes it to an object
store bucket, and writes an updated manifest.

Records with a healthy reference are never touched; their JSON passes through
the round trip with the full field set intact.

Examples:
	# Show available commands and global flags
	scenemedic --help

	# Repair a manifest against Vertex AI, publishing to a bucket
	scenemedic repair final.json --project my-project --bucket scene-images

	# Preview what would be repaired
	scenemedic repair final.json --dry-run

	# Print build info
	scenemedic version

Output:
	By default, commands write human-readable output to stdout.
	The repair command supports structured output via emitter flags (see
	"scenemedic repair --help").`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints prompt previews in plans and full provider error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
