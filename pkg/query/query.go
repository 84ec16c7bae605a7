// Package query answers structural questions about normalized graphs.
//
// All functions are read-only over their input snapshot and tolerate a nil
// graph.
package query

import (
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
)

// ResolveFunction finds the function ref names. It matches, in order, an
// exact id, an exact display name, and an id ending in "."+ref.
func ResolveFunction(g *model.CallGraph, ref string) (model.FunctionNode, bool) {
	if g == nil || ref == "" {
		return model.FunctionNode{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == ref {
			return n, true
		}
	}
	for _, n := range g.Nodes {
		if n.Name == ref {
			return n, true
		}
	}
	suffix := "." + ref
	for _, n := range g.Nodes {
		if strings.HasSuffix(n.ID, suffix) {
			return n, true
		}
	}
	return model.FunctionNode{}, false
}

// FunctionExists reports whether ref names a function in g.
func FunctionExists(g *model.CallGraph, ref string) bool {
	_, ok := ResolveFunction(g, ref)
	return ok
}

// Neighborhood restricts g to a root function and its direct callers and
// callees, keeping only edges between kept nodes.
//
// An empty rootID returns the whole graph. A rootID that resolves to no
// function returns an empty graph.
func Neighborhood(g *model.CallGraph, rootID string) model.CallGraph {
	out := model.CallGraph{Nodes: []model.FunctionNode{}, Edges: []model.CallEdge{}}
	if g == nil {
		return out
	}
	if rootID == "" {
		out.Nodes = append(out.Nodes, g.Nodes...)
		out.Edges = append(out.Edges, g.Edges...)
		return out
	}

	root, ok := ResolveFunction(g, rootID)
	if !ok {
		return out
	}

	keep := map[string]bool{root.ID: true}
	for _, e := range g.Edges {
		switch {
		case e.Caller == root.ID:
			keep[e.Callee] = true
		case e.Callee == root.ID:
			keep[e.Caller] = true
		}
	}

	for _, n := range g.Nodes {
		if keep[n.ID] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if keep[e.Caller] && keep[e.Callee] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// Callers returns the ids of functions that call ref directly.
func Callers(g *model.CallGraph, ref string) []string {
	root, ok := ResolveFunction(g, ref)
	if !ok {
		return []string{}
	}
	u := newUniq()
	for _, e := range g.Edges {
		if e.Callee == root.ID {
			u.add(e.Caller)
		}
	}
	return u.list
}

// Callees returns the ids of functions ref calls directly.
func Callees(g *model.CallGraph, ref string) []string {
	root, ok := ResolveFunction(g, ref)
	if !ok {
		return []string{}
	}
	u := newUniq()
	for _, e := range g.Edges {
		if e.Caller == root.ID {
			u.add(e.Callee)
		}
	}
	return u.list
}

// ModuleExists reports whether a module has the given id or path.
func ModuleExists(g *model.ModuleGraph, ref string) bool {
	_, ok := resolveModule(g, ref)
	return ok
}

func resolveModule(g *model.ModuleGraph, ref string) (string, bool) {
	if g == nil || ref == "" {
		return "", false
	}
	for _, n := range g.Nodes {
		if n.ID == ref {
			return n.ID, true
		}
	}
	for _, n := range g.Nodes {
		if n.Path == ref {
			return n.ID, true
		}
	}
	return "", false
}

// DependenciesOf returns the targets of edges leaving moduleID, in edge
// order without repeats. It is not transitive.
func DependenciesOf(g *model.ModuleGraph, moduleID string) []string {
	id, ok := resolveModule(g, moduleID)
	if !ok {
		return []string{}
	}
	u := newUniq()
	for _, e := range g.Edges {
		if e.Source == id {
			u.add(e.Target)
		}
	}
	return u.list
}

// DependentsOf returns the sources of edges entering moduleID, in edge
// order without repeats. It is not transitive.
func DependentsOf(g *model.ModuleGraph, moduleID string) []string {
	id, ok := resolveModule(g, moduleID)
	if !ok {
		return []string{}
	}
	u := newUniq()
	for _, e := range g.Edges {
		if e.Target == id {
			u.add(e.Source)
		}
	}
	return u.list
}

// Hotspots returns the n most complex analyzed functions, most complex
// first. Ties are broken by id. n <= 0 returns all of them.
func Hotspots(g *model.CallGraph, n int) []model.FunctionNode {
	out := []model.FunctionNode{}
	if g == nil {
		return out
	}
	for _, fn := range g.Nodes {
		if !fn.External {
			out = append(out, fn)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Complexity != out[j].Complexity {
			return out[i].Complexity > out[j].Complexity
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// uniq collects strings in first-seen order.
type uniq struct {
	seen map[string]bool
	list []string
}

func newUniq() *uniq {
	return &uniq{seen: map[string]bool{}, list: []string{}}
}

func (u *uniq) add(s string) {
	if !u.seen[s] {
		u.seen[s] = true
		u.list = append(u.list, s)
	}
}
