package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/heron/pkg/classify"
	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/output"
	"github.com/simonhull/firebird-suite/heron/pkg/query"
	"github.com/simonhull/firebird-suite/heron/pkg/runner"
)

// report is the machine-readable form of an analysis.
type report struct {
	Outcome *runner.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Result  *model.Result   `json:"result" yaml:"result"`
}

func writeReport(w io.Writer, format string, a *analysis) error {
	r := report{Outcome: a.Outcome, Result: a.Result}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		printSummary(a)
		return nil
	default:
		return fmt.Errorf("unknown format %q (supported: text, json, yaml)", format)
	}
}

// printIssues prints errors with their remediation and warnings below them.
func printIssues(o *runner.Outcome) {
	if o == nil {
		return
	}
	for _, issue := range o.Errors {
		output.Error(fmt.Sprintf("%s: %s", issue.Kind.Title(), issueText(issue)))
		output.Step(issue.Kind.Remediation())
	}
	for _, issue := range o.Warnings {
		output.Warn(issueText(issue))
	}
}

func issueText(i classify.Issue) string {
	if i.Location != nil {
		return fmt.Sprintf("%s (%s)", i.Message, i.Location)
	}
	return i.Message
}

func printSummary(a *analysis) {
	if o := a.Outcome; o != nil {
		status := "complete"
		if !o.Succeeded {
			status = "partial"
		}
		if o.Cached {
			status += ", cached"
		}
		output.Header(fmt.Sprintf("Analysis %s (%s)", status, o.Duration.Round(time.Millisecond)))
	}

	res := a.Result
	if len(res.Sections()) == 0 {
		output.Warn("Payload contained no known sections")
		return
	}
	if res.Modules != nil {
		printModules(res.Modules)
	}
	if res.Calls != nil {
		printCalls(res.Calls)
	}
	if res.TechStack != nil {
		printTechStack(res.TechStack)
	}
	if res.Frameworks != nil && !res.Frameworks.Empty() {
		printFrameworks(res.Frameworks)
	}
	if res.Git != nil {
		printGit(res.Git)
	}
	if res.Schema != nil {
		printSchema(res.Schema)
	}
}

func levelText(l model.Level, text string) string {
	return output.Colorize(l.Color(), text)
}

func printModules(g *model.ModuleGraph) {
	output.Header("📦 Modules")
	output.Plain(fmt.Sprintf("  %d modules, %d edges, %d folders", len(g.Nodes), len(g.Edges), len(g.Folders)))
	for _, f := range g.Folders {
		output.Plain(fmt.Sprintf("  %-40s %3d  %s", f.Path, len(f.ModuleIDs),
			levelText(f.Level, fmt.Sprintf("%.1f %s", f.Complexity, f.Level))))
	}
	if _, ok := g.Sentinel(); ok {
		output.Warn("Some edges reference modules missing from the payload")
	}
	if cycles := query.Cycles(g); len(cycles) > 0 {
		output.Warn(fmt.Sprintf("%d import cycle(s); run 'heron cycles' for details", len(cycles)))
	}
}

func printCalls(g *model.CallGraph) {
	output.Header("🔁 Functions")
	output.Plain(fmt.Sprintf("  %d functions, %d call edges", len(g.Nodes), len(g.Edges)))
	for _, fn := range query.Hotspots(g, 5) {
		output.Plain(fmt.Sprintf("  %-40s %s", fn.ID, levelText(fn.Level, fmt.Sprintf("%.1f", fn.Complexity))))
	}
}

func printTechStack(ts *model.TechStack) {
	output.Header("🧰 Tech stack")
	if ts.RuntimeVersion != "" || ts.PackageManager != "" {
		output.Plain(fmt.Sprintf("  runtime %s, package manager %s", orNone(ts.RuntimeVersion), orNone(ts.PackageManager)))
	}
	names := make([]string, 0, len(ts.Frameworks))
	for _, fw := range ts.Frameworks {
		if fw.Confidence != nil {
			names = append(names, fmt.Sprintf("%s (%d%%)", fw.Name, *fw.Confidence))
		} else {
			names = append(names, fw.Name)
		}
	}
	if len(names) > 0 {
		output.Plain("  frameworks: " + strings.Join(names, ", "))
	}
	output.Plain(fmt.Sprintf("  %d libraries, %d dependencies", len(ts.Libraries), len(ts.Dependencies)))
}

func printFrameworks(p *model.FrameworkPatterns) {
	output.Header("🌐 Framework patterns")
	if d := p.Django; d != nil {
		output.Plain(fmt.Sprintf("  django: %d models, %d views, %d url patterns", len(d.Models), len(d.Views), len(d.URLPatterns)))
	}
	if f := p.Flask; f != nil {
		output.Plain(fmt.Sprintf("  flask: %d routes, %d blueprints", len(f.Routes), len(f.Blueprints)))
	}
	if f := p.FastAPI; f != nil {
		output.Plain(fmt.Sprintf("  fastapi: %d routes, %d routers, %d models", len(f.Routes), len(f.Routers), len(f.Models)))
	}
}

func printGit(g *model.GitAnalytics) {
	output.Header("🌿 Git")
	repo := g.Repository
	output.Plain(fmt.Sprintf("  %s@%s: %d commits by %d contributors", orNone(repo.Name), orNone(repo.Branch), repo.TotalCommits, repo.Contributors))
	authors := append([]model.AuthorContribution(nil), g.Authors...)
	sort.SliceStable(authors, func(i, j int) bool { return authors[i].Commits > authors[j].Commits })
	for i, a := range authors {
		if i == 5 {
			break
		}
		output.Plain(fmt.Sprintf("  %-30s %5d commits %5.1f%%", a.Name, a.Commits, a.Percentage))
	}
}

func printSchema(s *model.DBSchema) {
	output.Header("🗄  Database schema")
	output.Plain(fmt.Sprintf("  %d tables, %d relationships, %d statements", len(s.Tables), len(s.Relationships), len(s.Statements)))
	if missing := s.MissingTables(); len(missing) > 0 {
		output.Warn("Relationships reference unknown tables: " + strings.Join(missing, ", "))
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
