package model

// Relation tells whether a dependency is declared directly or pulled in.
type Relation string

const (
	Direct     Relation = "direct"
	Transitive Relation = "transitive"
)

// TechStack summarizes the libraries and tooling a project uses.
type TechStack struct {
	Libraries      []Library    `json:"libraries" yaml:"libraries"`
	Frameworks     []Framework  `json:"frameworks" yaml:"frameworks"`
	RuntimeVersion string       `json:"runtime_version" yaml:"runtime_version"`
	PackageManager string       `json:"package_manager" yaml:"package_manager"`
	Dependencies   []Dependency `json:"dependencies" yaml:"dependencies"`
}

// Library is an imported third-party library.
type Library struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Framework is a detected framework. Confidence is 0-100 when the engine
// reported one.
type Framework struct {
	Name       string `json:"name" yaml:"name"`
	Confidence *int   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Dependency is a declared or resolved package dependency.
type Dependency struct {
	Name       string   `json:"name" yaml:"name"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Relation   Relation `json:"relation" yaml:"relation"`
	SourceFile string   `json:"source_file" yaml:"source_file"`
}
