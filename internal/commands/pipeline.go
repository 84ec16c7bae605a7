package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/heron/pkg/config"
	"github.com/simonhull/firebird-suite/heron/pkg/logger"
	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/normalize"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
	"github.com/simonhull/firebird-suite/heron/pkg/runner"
)

// source selects where a payload comes from: a saved file, or a fresh
// engine run configured by the remaining fields.
type source struct {
	payloadPath string
	kind        string
	file        string
	engine      string
	timeout     time.Duration
}

func (s *source) bindPayload(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.payloadPath, "payload", "", "Read a saved engine payload instead of running the engine")
}

func (s *source) bindEngine(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.kind, "kind", "k", "full", "Analysis kind: full, file, git or db")
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "Target file for a current-file analysis")
	cmd.Flags().StringVarP(&s.engine, "engine", "e", "", "Engine executable, overriding engine.command")
	cmd.Flags().DurationVarP(&s.timeout, "timeout", "t", 0, "Analysis timeout, overriding engine.timeout")
}

var errNoData = errors.New("analysis produced no usable data")

// analysis is what one pipeline pass produced. Outcome is nil when the
// payload came from a file.
type analysis struct {
	Root    string
	Outcome *runner.Outcome
	Doc     payload.Value
	Result  *model.Result
}

// analyze obtains a payload for root and normalizes it. It fails only when
// there is nothing to normalize; issues on a partial outcome are left for the
// caller to report.
func analyze(cmd *cobra.Command, cfg *config.Config, root string, src source) (*analysis, error) {
	a := &analysis{Root: root}

	if src.payloadPath != "" {
		data, err := os.ReadFile(src.payloadPath)
		if err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
		doc, how := payload.Recover(data)
		if how == payload.RecoveryNone {
			return nil, fmt.Errorf("%s: %w", src.payloadPath, errNoData)
		}
		if how != payload.RecoveryExact {
			logger.Default().Warn("Payload file needed repair", logger.F("file", src.payloadPath), logger.F("recovery", how.String()))
		}
		a.Doc = doc
	} else {
		kind, err := runner.ParseKind(src.kind)
		if err != nil {
			return nil, err
		}
		r := newRunner(cfg)
		listener, finish := startProgress(cmd)
		a.Outcome = r.Run(cmd.Context(), runner.Request{
			ProjectRoot: root,
			EngineHint:  src.engine,
			Timeout:     src.timeout,
			Kind:        kind,
			TargetFile:  src.file,
		}, listener)
		finish(a.Outcome)

		if !a.Outcome.Payload.Present() {
			return a, errors.Join(errNoData, a.Outcome.Err())
		}
		a.Doc = a.Outcome.Payload
	}

	n := normalize.New(root).
		WithThresholds(cfg.Thresholds.Node.Thresholds(), cfg.Thresholds.Folder.Thresholds()).
		WithLogger(logger.Default())
	a.Result = n.Normalize(a.Doc)
	return a, nil
}

func newRunner(cfg *config.Config) *runner.Runner {
	return runner.New(runner.Options{
		Command:     cfg.Engine.Command,
		Args:        cfg.Engine.Args,
		SearchPaths: cfg.Engine.SearchPaths,
		Timeout:     cfg.Engine.Timeout,
		Logger:      logger.Default(),
	})
}
