package model

// Result holds every model built from one payload. A field is nil when its
// section was absent from the payload.
type Result struct {
	Modules    *ModuleGraph       `json:"modules,omitempty" yaml:"modules,omitempty"`
	Calls      *CallGraph         `json:"functions,omitempty" yaml:"functions,omitempty"`
	TechStack  *TechStack         `json:"tech_stack,omitempty" yaml:"tech_stack,omitempty"`
	Frameworks *FrameworkPatterns `json:"framework_patterns,omitempty" yaml:"framework_patterns,omitempty"`
	Git        *GitAnalytics      `json:"git,omitempty" yaml:"git,omitempty"`
	Schema     *DBSchema          `json:"db_schema,omitempty" yaml:"db_schema,omitempty"`
}

// Sections lists the names of the sections present, in a fixed order.
func (r *Result) Sections() []string {
	var out []string
	if r.Modules != nil {
		out = append(out, "modules")
	}
	if r.Calls != nil {
		out = append(out, "functions")
	}
	if r.TechStack != nil {
		out = append(out, "tech_stack")
	}
	if r.Frameworks != nil {
		out = append(out, "framework_patterns")
	}
	if r.Git != nil {
		out = append(out, "git")
	}
	if r.Schema != nil {
		out = append(out, "db_schema")
	}
	return out
}
