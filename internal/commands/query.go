package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/output"
	"github.com/simonhull/firebird-suite/heron/pkg/query"
)

// queryFunc answers one question about a normalized result. args are the
// command's positional arguments without the trailing project path.
type queryFunc func(res *model.Result, args []string) error

// newQueryCmd builds a command that analyzes a project (or loads a saved
// payload) and runs q over the result. It takes want positional arguments
// followed by an optional project path.
func newQueryCmd(use, short string, want int, q queryFunc) *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(want, want+1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := analyze(cmd, cfg, projectArg(args, want), src)
			if err != nil {
				if a != nil {
					printIssues(a.Outcome)
				}
				return err
			}
			if a.Outcome != nil && !a.Outcome.Succeeded {
				output.Warn("Analysis was incomplete; answers may be missing data")
			}
			return q(a.Result, args[:want])
		},
	}
	src.bindPayload(cmd)
	src.bindEngine(cmd)
	return cmd
}

// QueryCmds creates the graph query commands
func QueryCmds() []*cobra.Command {
	return []*cobra.Command{
		newQueryCmd("callers <function> [path]", "List the functions that call a function", 1, func(res *model.Result, args []string) error {
			g, err := callGraph(res, args[0])
			if err != nil {
				return err
			}
			printList("Callers of "+args[0], query.Callers(g, args[0]))
			return nil
		}),
		newQueryCmd("callees <function> [path]", "List the functions a function calls", 1, func(res *model.Result, args []string) error {
			g, err := callGraph(res, args[0])
			if err != nil {
				return err
			}
			printList("Callees of "+args[0], query.Callees(g, args[0]))
			return nil
		}),
		newQueryCmd("neighborhood <function> [path]", "Show a function with its direct callers and callees", 1, func(res *model.Result, args []string) error {
			g, err := callGraph(res, args[0])
			if err != nil {
				return err
			}
			fn, _ := query.ResolveFunction(g, args[0])
			sub := query.Neighborhood(g, fn.ID)
			output.Header(fmt.Sprintf("Neighborhood of %s (%d functions)", fn.ID, len(sub.Nodes)))
			for _, e := range sub.Edges {
				output.Plain(fmt.Sprintf("  %s -> %s (x%d)", e.Caller, e.Callee, e.CallCount))
			}
			return nil
		}),
		newQueryCmd("deps <module> [path]", "List the modules a module depends on", 1, func(res *model.Result, args []string) error {
			g, err := moduleGraph(res, args[0])
			if err != nil {
				return err
			}
			printList("Dependencies of "+args[0], query.DependenciesOf(g, args[0]))
			return nil
		}),
		newQueryCmd("dependents <module> [path]", "List the modules that depend on a module", 1, func(res *model.Result, args []string) error {
			g, err := moduleGraph(res, args[0])
			if err != nil {
				return err
			}
			printList("Dependents of "+args[0], query.DependentsOf(g, args[0]))
			return nil
		}),
		newQueryCmd("cycles [path]", "List module import cycles", 0, func(res *model.Result, _ []string) error {
			if res.Modules == nil {
				return fmt.Errorf("payload has no module graph")
			}
			cycles := query.Cycles(res.Modules)
			if len(cycles) == 0 {
				output.Success("No import cycles")
				return nil
			}
			output.Header(fmt.Sprintf("%d import cycle(s)", len(cycles)))
			for _, c := range cycles {
				output.Plain("  " + strings.Join(c, " -> ") + " -> " + c[0])
			}
			return nil
		}),
		newQueryCmd("hotspots [path]", "List the most complex functions", 0, func(res *model.Result, _ []string) error {
			if res.Calls == nil {
				return fmt.Errorf("payload has no call graph")
			}
			output.Header("Most complex functions")
			for _, fn := range query.Hotspots(res.Calls, 10) {
				output.Plain(fmt.Sprintf("  %-40s %s", fn.ID, levelText(fn.Level, fmt.Sprintf("%.1f %s", fn.Complexity, fn.Level))))
			}
			return nil
		}),
	}
}

func callGraph(res *model.Result, ref string) (*model.CallGraph, error) {
	if res.Calls == nil {
		return nil, fmt.Errorf("payload has no call graph")
	}
	if !query.FunctionExists(res.Calls, ref) {
		return nil, fmt.Errorf("function %q not found", ref)
	}
	return res.Calls, nil
}

func moduleGraph(res *model.Result, ref string) (*model.ModuleGraph, error) {
	if res.Modules == nil {
		return nil, fmt.Errorf("payload has no module graph")
	}
	if !query.ModuleExists(res.Modules, ref) {
		return nil, fmt.Errorf("module %q not found", ref)
	}
	return res.Modules, nil
}

func printList(title string, items []string) {
	output.Header(fmt.Sprintf("%s (%d)", title, len(items)))
	for _, it := range items {
		output.Step(it)
	}
}
