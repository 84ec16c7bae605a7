// Package normalize converts an engine payload into typed model snapshots.
//
// Every field read goes through payload.Value accessors with a typed
// default, so malformed input degrades per field instead of failing. The
// same payload always normalizes to the same result: no counters,
// timestamps or map iteration order leak into the output.
package normalize

import (
	"path/filepath"

	"github.com/simonhull/firebird-suite/heron/pkg/logger"
	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

// unknownName replaces missing strings.
const unknownName = "unknown"

// Normalizer builds models for one project root.
type Normalizer struct {
	root   string
	node   model.Thresholds
	folder model.Thresholds
	logger logger.Logger
}

// New creates a Normalizer that rewrites paths relative to root.
func New(root string) *Normalizer {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	return &Normalizer{
		root:   root,
		node:   model.NodeThresholds,
		folder: model.FolderThresholds,
		logger: logger.Default(),
	}
}

// WithThresholds returns a copy using the given node and folder thresholds.
func (n *Normalizer) WithThresholds(node, folder model.Thresholds) *Normalizer {
	c := *n
	c.node = node
	c.folder = folder
	return &c
}

// WithLogger returns a copy that logs to log.
func (n *Normalizer) WithLogger(log logger.Logger) *Normalizer {
	c := *n
	c.logger = log
	return &c
}

// Root returns the absolute project root paths are made relative to.
func (n *Normalizer) Root() string { return n.root }

// Normalize builds every model whose section is present in doc. It never
// fails; a doc that is not an object yields an empty Result.
func (n *Normalizer) Normalize(doc payload.Value) *model.Result {
	res := &model.Result{}
	if !doc.IsObject() {
		return res
	}

	if doc.Has("modules") {
		res.Modules = n.moduleGraph(doc.Get("modules"))
	}
	if sec := doc.First("functions", "call_graph"); sec.Present() {
		res.Calls = n.callGraph(sec)
	}
	if doc.Has("tech_stack") {
		res.TechStack = n.techStack(doc.Get("tech_stack"))
	}
	if doc.Has("framework_patterns") {
		res.Frameworks = n.frameworkPatterns(doc.Get("framework_patterns"))
	}
	if sec, ok := gitSection(doc); ok {
		res.Git = n.gitAnalytics(sec)
	}
	if sec, ok := schemaSection(doc); ok {
		res.Schema = n.dbSchema(sec)
	}

	if res.Modules != nil && res.Calls != nil {
		linkFunctions(res.Modules, res.Calls)
	}
	return res
}

// gitSection finds git analytics either nested under a key or spread over
// the top level of a git-only payload.
func gitSection(doc payload.Value) (payload.Value, bool) {
	if sec := doc.First("git_analytics", "git"); sec.IsObject() {
		return sec, true
	}
	for _, k := range []string{"repository_info", "author_contributions", "module_statistics", "commit_timeline"} {
		if doc.Has(k) {
			return doc, true
		}
	}
	return payload.Value{}, false
}

// schemaSection finds the database schema either nested under a key or at
// the top level of a schema-only payload.
func schemaSection(doc payload.Value) (payload.Value, bool) {
	if sec := doc.First("db_schema", "database_schema"); sec.IsObject() {
		return sec, true
	}
	for _, k := range []string{"tables", "relationships", "raw_sql"} {
		if doc.Has(k) {
			return doc, true
		}
	}
	return payload.Value{}, false
}

// linkFunctions fills empty module function lists from the call graph.
func linkFunctions(mg *model.ModuleGraph, cg *model.CallGraph) {
	owned := map[string][]string{}
	for _, fn := range cg.Nodes {
		if !fn.External {
			owned[fn.ModuleID] = append(owned[fn.ModuleID], fn.ID)
		}
	}
	for i := range mg.Nodes {
		node := &mg.Nodes[i]
		if node.Unknown || len(node.FunctionIDs) > 0 {
			continue
		}
		ids := owned[node.ID]
		if len(ids) == 0 && node.Path != node.ID {
			ids = owned[node.Path]
		}
		if len(ids) > 0 {
			node.FunctionIDs = append([]string{}, ids...)
		}
	}
}
