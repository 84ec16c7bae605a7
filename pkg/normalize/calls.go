package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/heron/pkg/logger"
	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

func (n *Normalizer) callGraph(sec payload.Value) *model.CallGraph {
	list := resolveList(sec)
	g := &model.CallGraph{
		Nodes: make([]model.FunctionNode, 0, len(list.nodes)),
		Edges: make([]model.CallEdge, 0, len(list.edges)),
	}

	known := map[string]bool{}
	for i, item := range list.nodes {
		if !item.IsObject() {
			continue
		}
		fn := n.functionNode(i, item)
		if known[fn.ID] {
			n.logger.Debug("Duplicate function id ignored", logger.F("id", fn.ID))
			continue
		}
		known[fn.ID] = true
		g.Nodes = append(g.Nodes, fn)
	}

	for _, e := range list.edges {
		edge := model.CallEdge{
			Caller:    e.First("caller", "source", "from").String(model.UnknownID),
			Callee:    e.First("callee", "target", "to").String(model.UnknownID),
			CallCount: max(e.First("call_count", "count", "weight").Int(1), 1),
			Lines:     lineSet(e.First("line_numbers", "lines", "call_sites")),
		}
		g.Edges = append(g.Edges, edge)
	}

	// Endpoints that were never analyzed (library calls, builtins) become
	// external nodes, one per id.
	for _, e := range g.Edges {
		for _, id := range []string{e.Caller, e.Callee} {
			if known[id] {
				continue
			}
			known[id] = true
			g.Nodes = append(g.Nodes, model.FunctionNode{
				ID:         id,
				Name:       shortName(id),
				ModuleID:   unknownName,
				Level:      model.Low,
				Parameters: []model.Parameter{},
				External:   true,
			})
		}
	}
	return g
}

func (n *Normalizer) functionNode(i int, item payload.Value) model.FunctionNode {
	name := item.Get("name").String("")
	module := item.First("module", "module_id", "file").String(unknownName)

	id := item.First("id", "qualified_name", "full_name").String("")
	switch {
	case id != "":
	case name != "" && module != unknownName:
		id = module + "." + name
	case name != "":
		id = name
	default:
		id = fmt.Sprintf("function:%d", i)
	}
	if name == "" {
		name = shortName(id)
	}

	score := Complexity(item.Get("complexity"))
	return model.FunctionNode{
		ID:         id,
		Name:       name,
		ModuleID:   module,
		Complexity: score,
		Level:      n.node.Classify(score),
		Line:       max(item.First("line_number", "line", "lineno").Int(0), 0),
		Parameters: parameters(item.First("parameters", "params", "args")),
	}
}

// shortName returns the part of an id after its last '.'.
func shortName(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}

func parameters(v payload.Value) []model.Parameter {
	out := []model.Parameter{}
	for _, item := range v.List() {
		var p model.Parameter
		switch {
		case item.IsString():
			p.Name = item.String("")
		case item.IsObject():
			p = model.Parameter{
				Name:          item.First("name", "arg").String(""),
				TypeHint:      item.First("type_hint", "annotation", "type").String(""),
				Default:       item.First("default", "default_value").String(""),
				VarPositional: item.First("is_vararg", "var_positional", "variadic", "is_args").Bool(false),
				VarKeyword:    item.First("is_kwarg", "var_keyword", "is_kwargs").Bool(false),
			}
		default:
			continue
		}

		switch {
		case strings.HasPrefix(p.Name, "**"):
			p.Name = p.Name[2:]
			p.VarKeyword = true
		case strings.HasPrefix(p.Name, "*") && len(p.Name) > 1:
			p.Name = p.Name[1:]
			p.VarPositional = true
		}
		if p.Name == "" {
			p.Name = unknownName
		}
		out = append(out, p)
	}
	return out
}

// lineSet returns the positive line numbers of v, sorted and unique.
func lineSet(v payload.Value) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, item := range v.List() {
		line := item.Int(0)
		if line <= 0 || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	sort.Ints(out)
	return out
}
