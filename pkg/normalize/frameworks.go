package normalize

import (
	"strings"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

// frameworkPatterns converts each framework sub-section that is present.
// Missing sub-sections stay nil.
func (n *Normalizer) frameworkPatterns(sec payload.Value) *model.FrameworkPatterns {
	p := &model.FrameworkPatterns{}
	if d := sec.Get("django"); d.Present() {
		p.Django = &model.Django{
			Models:      n.modelDefs(d.Get("models")),
			Views:       n.routes(d.Get("views")),
			URLPatterns: n.routes(d.First("url_patterns", "urls")),
			Apps:        refNames(d.First("apps", "installed_apps")),
			Middleware:  refNames(d.Get("middleware")),
		}
	}
	if f := sec.Get("flask"); f.Present() {
		p.Flask = &model.Flask{
			Routes:     n.routes(f.Get("routes")),
			Blueprints: n.routers(f.Get("blueprints")),
			Extensions: refNames(f.Get("extensions")),
		}
	}
	if f := sec.Get("fastapi"); f.Present() {
		p.FastAPI = &model.FastAPI{
			Routes:       n.routes(f.First("routes", "endpoints")),
			Routers:      n.routers(f.Get("routers")),
			Models:       n.modelDefs(f.First("models", "pydantic_models")),
			Dependencies: refNames(f.Get("dependencies")),
		}
	}
	return p
}

func (n *Normalizer) routes(v payload.Value) []model.Route {
	out := []model.Route{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		out = append(out, model.Route{
			Path:    item.First("path", "route", "pattern", "url", "rule").String(unknownName),
			Methods: methods(item.First("methods", "method")),
			Handler: item.First("handler", "view", "function", "endpoint").String(unknownName),
			Name:    item.Get("name").String(""),
			File:    n.relPath(item.First("file", "file_path").String("")),
			Line:    max(item.First("line", "line_number", "lineno").Int(0), 0),
		})
	}
	return out
}

// methods accepts a list or a single method and upper-cases them.
func methods(v payload.Value) []string {
	raw := v.Strings()
	if v.IsString() {
		raw = []string{v.String("")}
	}
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		out = append(out, strings.ToUpper(m))
	}
	return out
}

func (n *Normalizer) routers(v payload.Value) []model.Router {
	out := []model.Router{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		out = append(out, model.Router{
			Name:   item.First("name", "variable").String(unknownName),
			Prefix: item.First("prefix", "url_prefix").String(""),
			File:   n.relPath(item.First("file", "file_path").String("")),
			Line:   max(item.First("line", "line_number", "lineno").Int(0), 0),
		})
	}
	return out
}

func (n *Normalizer) modelDefs(v payload.Value) []model.ModelDef {
	out := []model.ModelDef{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		out = append(out, model.ModelDef{
			Name:   item.First("name", "class_name").String(unknownName),
			Fields: refNames(item.Get("fields")),
			File:   n.relPath(item.First("file", "file_path").String("")),
			Line:   max(item.First("line", "line_number", "lineno").Int(0), 0),
		})
	}
	return out
}
