package model

// UnknownID is the preferred id of the sentinel module that dangling edge
// endpoints are rewritten to. When a real module already uses it the sentinel
// gets a suffixed id; use ModuleGraph.Sentinel to find it.
const UnknownID = "__unknown__"

// EdgeKind distinguishes how two modules are related.
type EdgeKind string

const (
	ImportEdge     EdgeKind = "import"
	DependencyEdge EdgeKind = "dependency"
)

// ModuleGraph is the module dependency graph of a project.
type ModuleGraph struct {
	Nodes   []ModuleNode `json:"nodes" yaml:"nodes"`
	Edges   []ModuleEdge `json:"edges" yaml:"edges"`
	Folders []Folder     `json:"folders" yaml:"folders"`
}

// ModuleNode is one source file.
type ModuleNode struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"name" yaml:"name"`
	Path        string   `json:"path" yaml:"path"` // Relative to the project root when inside it
	Complexity  float64  `json:"complexity" yaml:"complexity"`
	Level       Level    `json:"level" yaml:"level"`
	Size        int      `json:"size" yaml:"size"` // Lines
	FunctionIDs []string `json:"functions" yaml:"functions"`
	Unknown     bool     `json:"unknown,omitempty" yaml:"unknown,omitempty"` // Sentinel for dangling references
}

// ModuleEdge is a directed relation from Source to Target.
type ModuleEdge struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Kind   EdgeKind `json:"kind" yaml:"kind"`
	Weight int      `json:"weight" yaml:"weight"` // Always >= 1
}

// Folder aggregates the modules sharing a containing directory.
type Folder struct {
	Path       string   `json:"path" yaml:"path"`
	ModuleIDs  []string `json:"modules" yaml:"modules"`
	Complexity float64  `json:"complexity" yaml:"complexity"` // Mean of member scores
	Level      Level    `json:"level" yaml:"level"`           // Evaluated against folder thresholds
}

// Node returns the node with the given id.
func (g *ModuleGraph) Node(id string) (ModuleNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ModuleNode{}, false
}

// Sentinel returns the node that stands in for dangling edge endpoints, if
// the graph has one.
func (g *ModuleGraph) Sentinel() (ModuleNode, bool) {
	for _, n := range g.Nodes {
		if n.Unknown {
			return n, true
		}
	}
	return ModuleNode{}, false
}

// CallGraph is the function call graph of a project.
type CallGraph struct {
	Nodes []FunctionNode `json:"nodes" yaml:"nodes"`
	Edges []CallEdge     `json:"edges" yaml:"edges"`
}

// FunctionNode is one function or method.
type FunctionNode struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	ModuleID   string      `json:"module" yaml:"module"`
	Complexity float64     `json:"complexity" yaml:"complexity"`
	Level      Level       `json:"level" yaml:"level"`
	Line       int         `json:"line" yaml:"line"` // 0 when unknown
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
	External   bool        `json:"external,omitempty" yaml:"external,omitempty"` // Referenced by an edge but not analyzed
}

// Parameter is one declared function parameter.
type Parameter struct {
	Name          string `json:"name" yaml:"name"`
	TypeHint      string `json:"type_hint,omitempty" yaml:"type_hint,omitempty"`
	Default       string `json:"default,omitempty" yaml:"default,omitempty"`
	VarPositional bool   `json:"var_positional,omitempty" yaml:"var_positional,omitempty"`
	VarKeyword    bool   `json:"var_keyword,omitempty" yaml:"var_keyword,omitempty"`
}

// CallEdge records that Caller calls Callee.
type CallEdge struct {
	Caller    string `json:"caller" yaml:"caller"`
	Callee    string `json:"callee" yaml:"callee"`
	CallCount int    `json:"call_count" yaml:"call_count"` // Always >= 1
	Lines     []int  `json:"lines" yaml:"lines"`           // Sorted, unique call-site lines
}

// Node returns the function with the given id.
func (g *CallGraph) Node(id string) (FunctionNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FunctionNode{}, false
}
