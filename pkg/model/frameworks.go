package model

// FrameworkPatterns holds what was extracted per web framework. A framework
// the payload did not mention is nil.
type FrameworkPatterns struct {
	Django  *Django  `json:"django,omitempty" yaml:"django,omitempty"`
	Flask   *Flask   `json:"flask,omitempty" yaml:"flask,omitempty"`
	FastAPI *FastAPI `json:"fastapi,omitempty" yaml:"fastapi,omitempty"`
}

// Empty reports whether no framework section was present.
func (p *FrameworkPatterns) Empty() bool {
	return p.Django == nil && p.Flask == nil && p.FastAPI == nil
}

// Route is an HTTP endpoint bound to a handler.
type Route struct {
	Path    string   `json:"path" yaml:"path"`
	Methods []string `json:"methods" yaml:"methods"`
	Handler string   `json:"handler" yaml:"handler"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	File    string   `json:"file" yaml:"file"`
	Line    int      `json:"line" yaml:"line"`
}

// Router groups routes under a prefix (Flask blueprint, FastAPI APIRouter).
type Router struct {
	Name   string `json:"name" yaml:"name"`
	Prefix string `json:"prefix" yaml:"prefix"`
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
}

// ModelDef is an ORM model or schema class.
type ModelDef struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
	File   string   `json:"file" yaml:"file"`
	Line   int      `json:"line" yaml:"line"`
}

// Django patterns.
type Django struct {
	Models      []ModelDef `json:"models" yaml:"models"`
	Views       []Route    `json:"views" yaml:"views"`
	URLPatterns []Route    `json:"url_patterns" yaml:"url_patterns"`
	Apps        []string   `json:"apps" yaml:"apps"`
	Middleware  []string   `json:"middleware" yaml:"middleware"`
}

// Flask patterns.
type Flask struct {
	Routes     []Route  `json:"routes" yaml:"routes"`
	Blueprints []Router `json:"blueprints" yaml:"blueprints"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// FastAPI patterns.
type FastAPI struct {
	Routes       []Route    `json:"routes" yaml:"routes"`
	Routers      []Router   `json:"routers" yaml:"routers"`
	Models       []ModelDef `json:"models" yaml:"models"`
	Dependencies []string   `json:"dependencies" yaml:"dependencies"`
}
