package normalize

import (
	"fmt"
	"path"
	"sort"

	"github.com/simonhull/firebird-suite/heron/pkg/logger"
	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

// listShape is how a node list arrived: a bare array, or wrapped in an
// object with "nodes" (and usually "edges").
type listShape int

const (
	shapeAbsent listShape = iota
	shapeBare
	shapeWrapped
)

// nodeList is a section resolved once into its shape.
type nodeList struct {
	shape    listShape
	nodes    []payload.Value
	edges    []payload.Value
	hasEdges bool
}

func resolveList(sec payload.Value) nodeList {
	switch {
	case sec.IsList():
		return nodeList{shape: shapeBare, nodes: sec.List()}
	case sec.IsObject():
		return nodeList{
			shape:    shapeWrapped,
			nodes:    sec.Get("nodes").List(),
			edges:    sec.Get("edges").List(),
			hasEdges: sec.Has("edges"),
		}
	default:
		return nodeList{shape: shapeAbsent}
	}
}

// moduleBuilder accumulates nodes and resolves edge endpoints.
type moduleBuilder struct {
	graph   *model.ModuleGraph
	byID    map[string]bool
	aliases map[string]string // raw path, normalized path and name -> id
	unknown string            // sentinel id once appended
}

func (n *Normalizer) moduleGraph(sec payload.Value) *model.ModuleGraph {
	list := resolveList(sec)
	b := &moduleBuilder{
		graph: &model.ModuleGraph{
			Nodes:   make([]model.ModuleNode, 0, len(list.nodes)),
			Edges:   make([]model.ModuleEdge, 0, len(list.edges)),
			Folders: []model.Folder{},
		},
		byID:    map[string]bool{},
		aliases: map[string]string{},
	}

	for i, item := range list.nodes {
		node, rawPath, ok := n.moduleNode(i, item)
		if !ok {
			continue
		}
		if b.byID[node.ID] {
			n.logger.Debug("Duplicate module id ignored", logger.F("id", node.ID))
			continue
		}
		b.byID[node.ID] = true
		b.graph.Nodes = append(b.graph.Nodes, node)
		for _, alias := range []string{rawPath, node.Path, node.DisplayName} {
			if _, taken := b.aliases[alias]; alias != "" && alias != unknownName && !taken {
				b.aliases[alias] = node.ID
			}
		}
	}

	// Without an explicit edge list, edges come from each node's
	// dependency list.
	if list.hasEdges {
		for _, e := range list.edges {
			b.addEdge(
				e.First("source", "from").String(""),
				e.First("target", "to").String(""),
				edgeKind(e.First("type", "kind").String("")),
				e.Get("weight").Int(1),
			)
		}
	} else {
		for i, item := range list.nodes {
			src := n.nodeID(i, item)
			for _, dep := range item.Get("dependencies").List() {
				target := dep.String("")
				if dep.IsObject() {
					target = dep.First("target", "module", "id", "name", "path").String("")
				}
				b.addEdge(src, target, model.DependencyEdge, dep.Get("weight").Int(1))
			}
		}
	}

	b.checkIntegrity(n.logger)
	b.graph.Folders = n.folders(b.graph.Nodes)
	return b.graph
}

// nodeID computes the id a node entry receives: id, then path, then name,
// then its position.
func (n *Normalizer) nodeID(i int, item payload.Value) string {
	if item.IsString() {
		return item.String(fmt.Sprintf("module:%d", i))
	}
	if id := item.First("id", "path", "file_path", "name").String(""); id != "" {
		return id
	}
	return fmt.Sprintf("module:%d", i)
}

func (n *Normalizer) moduleNode(i int, item payload.Value) (model.ModuleNode, string, bool) {
	if !item.IsObject() && !item.IsString() {
		return model.ModuleNode{}, "", false
	}

	id := n.nodeID(i, item)
	rawPath := item.First("path", "file_path", "file").String("")
	if item.IsString() {
		rawPath = id
	}
	relPath := n.relPath(rawPath)

	name := item.First("name", "display_name").String("")
	if name == "" {
		if relPath != unknownName {
			name = path.Base(relPath)
		} else {
			name = id
		}
	}

	score := Complexity(item.Get("complexity"))
	node := model.ModuleNode{
		ID:          id,
		DisplayName: name,
		Path:        relPath,
		Complexity:  score,
		Level:       n.node.Classify(score),
		Size:        max(item.First("size", "lines", "loc").Int(0), 0),
		FunctionIDs: refNames(item.Get("functions")),
	}
	return node, rawPath, true
}

// refNames reads a list of strings or objects carrying an id or name.
func refNames(v payload.Value) []string {
	out := []string{}
	for _, item := range v.List() {
		s := item.String("")
		if item.IsObject() {
			s = item.First("id", "name").String("")
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func edgeKind(s string) model.EdgeKind {
	if s == string(model.DependencyEdge) {
		return model.DependencyEdge
	}
	return model.ImportEdge
}

func (b *moduleBuilder) resolve(ref string) string {
	if b.byID[ref] {
		return ref
	}
	if id, ok := b.aliases[ref]; ok {
		return id
	}
	return ref
}

func (b *moduleBuilder) addEdge(source, target string, kind model.EdgeKind, weight int) {
	b.graph.Edges = append(b.graph.Edges, model.ModuleEdge{
		Source: b.resolve(source),
		Target: b.resolve(target),
		Kind:   kind,
		Weight: max(weight, 1),
	})
}

// checkIntegrity rewrites every dangling endpoint to the sentinel unknown
// node. Edges are never dropped.
func (b *moduleBuilder) checkIntegrity(log logger.Logger) {
	for i := range b.graph.Edges {
		e := &b.graph.Edges[i]
		if !b.byID[e.Source] {
			log.Debug("Dangling edge source", logger.F("source", e.Source), logger.F("target", e.Target))
			e.Source = b.unknownNode()
		}
		if !b.byID[e.Target] {
			log.Debug("Dangling edge target", logger.F("source", e.Source), logger.F("target", e.Target))
			e.Target = b.unknownNode()
		}
	}
}

// unknownNode appends the sentinel on first use and returns its id. The id
// is UnknownID unless the payload already has a module by that name, in which
// case a numeric suffix keeps it unique.
func (b *moduleBuilder) unknownNode() string {
	if b.unknown == "" {
		id := model.UnknownID
		for i := 2; b.byID[id]; i++ {
			id = fmt.Sprintf("%s%d", model.UnknownID, i)
		}
		b.unknown = id
		b.byID[id] = true
		b.graph.Nodes = append(b.graph.Nodes, model.ModuleNode{
			ID:          id,
			DisplayName: unknownName,
			Path:        unknownName,
			Level:       model.Low,
			FunctionIDs: []string{},
			Unknown:     true,
		})
	}
	return b.unknown
}

// folders groups modules by containing folder. Folder complexity is the
// mean of its members and is classified with the folder thresholds.
func (n *Normalizer) folders(nodes []model.ModuleNode) []model.Folder {
	members := map[string][]model.ModuleNode{}
	for _, node := range nodes {
		if node.Unknown {
			continue
		}
		dir := folderOf(node.Path)
		members[dir] = append(members[dir], node)
	}

	paths := make([]string, 0, len(members))
	for p := range members {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]model.Folder, 0, len(paths))
	for _, p := range paths {
		group := members[p]
		ids := make([]string, len(group))
		var sum float64
		for i, node := range group {
			ids[i] = node.ID
			sum += node.Complexity
		}
		mean := sum / float64(len(group))
		out = append(out, model.Folder{
			Path:       p,
			ModuleIDs:  ids,
			Complexity: mean,
			Level:      n.folder.Classify(mean),
		})
	}
	return out
}
