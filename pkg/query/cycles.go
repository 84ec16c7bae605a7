package query

import (
	"strings"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
)

// Cycles finds circular module dependencies using DFS. Each cycle is listed
// once, rotated to start at its smallest id. Edges through the unknown
// sentinel are ignored because it merges unrelated references.
func Cycles(g *model.ModuleGraph) [][]string {
	cycles := [][]string{}
	if g == nil {
		return cycles
	}

	sentinel := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.Unknown {
			sentinel[n.ID] = true
		}
	}

	adjList := make(map[string][]string)
	for _, e := range g.Edges {
		if sentinel[e.Source] || sentinel[e.Target] {
			continue
		}
		adjList[e.Source] = append(adjList[e.Source], e.Target)
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	seen := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		for _, neighbor := range adjList[node] {
			if !visited[neighbor] {
				dfs(neighbor, path)
				continue
			}
			if !recStack[neighbor] {
				continue
			}
			// Back edge: the cycle is the path suffix starting at neighbor.
			for i, p := range path {
				if p == neighbor {
					cycle := canonical(path[i:])
					key := strings.Join(cycle, "\x00")
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
					break
				}
			}
		}

		recStack[node] = false
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] && !n.Unknown {
			dfs(n.ID, nil)
		}
	}
	return cycles
}

// canonical rotates a cycle so it starts at its smallest element.
func canonical(cycle []string) []string {
	start := 0
	for i, id := range cycle {
		if id < cycle[start] {
			start = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[start:]...)
	out = append(out, cycle[:start]...)
	return out
}
