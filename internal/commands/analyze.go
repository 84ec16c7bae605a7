package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/heron/pkg/output"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
	"github.com/simonhull/firebird-suite/heron/pkg/project"
	"github.com/simonhull/firebird-suite/heron/pkg/runner"
)

// AnalyzeCmd creates the analyze command
func AnalyzeCmd() *cobra.Command {
	var (
		src    source
		format string
		save   string
	)

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Run the analysis engine and summarize the result",
		Long: `Runs the analysis engine over a project and prints what it found.

When the engine fails, heron reports what went wrong and how to fix it, and
still shows whatever partial data the engine produced.

Example:
  heron analyze
  heron analyze ../shop --kind git
  heron analyze --kind file --file app/views.py
  heron analyze --format json > report.json
  heron analyze --save payload.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, projectArg(args, 0), src, format, save)
		},
	}

	src.bindEngine(cmd)
	src.bindPayload(cmd)
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&save, "save", "", "Write the raw engine payload to this file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, root string, src source, format, save string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if format == "text" {
		if info, err := project.Detect(root); err == nil {
			output.Info(fmt.Sprintf("Analyzing %s project: %s", info.Kind(), info.Root))
			if info.IsGo() {
				output.Verbose(fmt.Sprintf("go.mod: %s (go %s)", info.GoModule, info.GoVersion))
			}
			if info.GoModErr != nil {
				output.Warn(fmt.Sprintf("Ignoring go.mod: %v", info.GoModErr))
			}
		}
	}

	a, err := analyze(cmd, cfg, root, src)
	if a != nil {
		printIssues(a.Outcome)
	}
	if err != nil {
		return err
	}

	if save != "" {
		if err := savePayload(save, a.Doc); err != nil {
			return err
		}
	}

	if err := writeReport(cmd.OutOrStdout(), format, a); err != nil {
		return err
	}

	if a.Outcome != nil && !a.Outcome.Succeeded {
		return errors.New("analysis finished with errors; results above are partial")
	}
	if format == "text" {
		output.Success("Analysis complete")
	}
	return nil
}

// savePayload writes doc to path and notes when the file already held the
// same payload.
func savePayload(path string, doc payload.Value) error {
	if prev, err := os.ReadFile(path); err == nil {
		if old, how := payload.Recover(prev); how != payload.RecoveryNone && runner.Digest(old) == runner.Digest(doc) {
			output.Info(fmt.Sprintf("Payload unchanged since %s was written", path))
			return nil
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	output.Verbose(fmt.Sprintf("Payload written to %s", path))
	return nil
}
