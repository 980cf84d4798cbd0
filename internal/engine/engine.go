package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scenemedic/internal/config"
	"scenemedic/internal/imagen"
	"scenemedic/internal/output"
	"scenemedic/internal/repair"
	"scenemedic/internal/scene"
	"scenemedic/internal/store"
)

// Engine runs the sequential repair loop over a scene manifest.
//
// Records are processed strictly in input order with at most one provider
// call in flight; the fixed pause after each successful generation is the
// batch's only throttling mechanism.
type Engine struct {
	Generator imagen.Generator
	Uploader  store.Uploader

	// now and sleep are test seams.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func New(gen imagen.Generator, up store.Uploader) *Engine {
	if up == nil {
		up = store.Disabled{}
	}
	return &Engine{
		Generator: gen,
		Uploader:  up,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Run executes the repair batch and returns the process exit code.
//
// Exit code contract (documented in `scenemedic repair --help`):
// 0 = run completed, including runs with per-record failures
// 1 = fatal error (manifest missing/unparsable, output setup or write failed)
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Loading manifest %s...\n", cfg.Source.Manifest)
	}
	records, err := scene.Load(cfg.Source.Manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.Source.DryRun {
		printPlan(cfg, records)
		return 0
	}

	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	_ = outMgr.Write(output.Event{Type: "run.started", Records: len(records)})

	updated := 0
	for _, rec := range records {
		// A canceled context (global --timeout, or termination) abandons the
		// remaining records; repairs already applied are still written below.
		if ctx.Err() != nil {
			break
		}

		res := e.repairRecord(ctx, cfg, rec)
		if res.Updated() {
			updated++
		}
		_ = outMgr.Write(res)

		// Rate-limit pause. Only successful generations are throttled; skips
		// and failed attempts produced no artifact.
		if res.Updated() {
			if !cfg.Output.NoConsole && cfg.Runtime.Pause > 0 {
				fmt.Fprintf(os.Stderr, "Pausing %s before next record...\n", cfg.Runtime.Pause)
			}
			e.sleep(ctx, cfg.Runtime.Pause)
		}
	}

	outPath := cfg.Source.Output
	if outPath == "" {
		outPath = scene.OutputPath(cfg.Source.Manifest, cfg.Source.Suffix)
	}

	manifestWritten := ""
	if updated > 0 {
		if err := scene.Save(outPath, records); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			outMgr.Close()
			return 1
		}
		manifestWritten = outPath
		if !cfg.Output.NoConsole {
			fmt.Fprintf(os.Stderr, "Saved updated manifest to %s\n", outPath)
		}
	} else if !cfg.Output.NoConsole {
		fmt.Fprintln(os.Stderr, "No records were updated; output manifest not written")
	}

	_ = outMgr.Write(output.Event{
		Type:     "run.finished",
		Records:  len(records),
		Updated:  updated,
		Manifest: manifestWritten,
	})

	if err := outMgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// repairRecord takes one record to its terminal outcome. Remote failures are
// converted to outcomes here; nothing propagates past the record boundary.
func (e *Engine) repairRecord(ctx context.Context, cfg *config.Config, rec *scene.Record) repair.Result {
	res := repair.Result{Scene: rec.SceneID()}

	switch scene.Classify(rec) {
	case scene.DecisionSatisfied:
		res.Status = repair.StatusSkipped
		res.Message = "reference already satisfied"
		return res
	case scene.DecisionNoPrompt:
		res.Status = repair.StatusNoPrompt
		res.Message = "no usable prompt"
		return res
	}

	preview := promptPreview(rec.Prompt())
	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Repairing scene %s: %s\n", rec.SceneID(), preview)
	}

	data, err := e.generateWithRetries(ctx, cfg, rec.Prompt())
	if err != nil {
		res.Status = repair.StatusGenFailed
		res.Message = fmt.Sprintf("generation failed (prompt %q): %v", preview, err)
		return res
	}

	name := imagen.ArtifactName(rec.SceneID(), e.now())
	path, err := imagen.SaveArtifact(cfg.Artifacts.Dir, name, data)
	if err != nil {
		res.Status = repair.StatusGenFailed
		res.Message = err.Error()
		return res
	}
	res.Artifact = path

	url, err := e.Uploader.Upload(ctx, path, name)
	if err != nil {
		res.Status = repair.StatusPublishFailed
		res.Message = fmt.Sprintf("upload failed, artifact kept locally: %v", err)
	} else if url == "" {
		res.Status = repair.StatusPublishFailed
		res.Message = "publishing disabled, artifact kept locally"
	} else {
		res.Status = repair.StatusPublished
	}

	ref := url
	if ref == "" && cfg.Storage.LocalRef {
		if abs, absErr := filepath.Abs(path); absErr == nil {
			ref = abs
		}
	}
	if ref != "" {
		if err := rec.SetImageURL(ref); err != nil {
			res.Status = repair.StatusPublishFailed
			res.Message = err.Error()
			return res
		}
		res.Reference = ref
	}
	return res
}

// generateWithRetries asks the provider for one image, retrying up to the
// configured bound with the fixed pause between attempts.
func (e *Engine) generateWithRetries(ctx context.Context, cfg *config.Config, prompt string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.Generation.Retries; attempt++ {
		if attempt > 0 {
			e.sleep(ctx, cfg.Runtime.Pause)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		data, err := e.Generator.Generate(ctx, prompt)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func printPlan(cfg *config.Config, records []*scene.Record) {
	needRepair := 0
	fmt.Printf("Repair plan for %s:\n", cfg.Source.Manifest)
	for _, rec := range records {
		d := scene.Classify(rec)
		if d == scene.DecisionRepair {
			needRepair++
		}
		line := fmt.Sprintf("  scene %s: %s", rec.SceneID(), d)
		if d == scene.DecisionRepair && cfg.Runtime.Verbose {
			line += " (" + promptPreview(rec.Prompt()) + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("%d of %d records need repair.\n", needRepair, len(records))
}

// promptPreview truncates a prompt to 50 runes for log lines.
func promptPreview(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= 50 {
		return prompt
	}
	return string(runes[:50]) + "..."
}
