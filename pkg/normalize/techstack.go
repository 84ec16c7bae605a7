package normalize

import (
	"math"
	"strings"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

func (n *Normalizer) techStack(sec payload.Value) *model.TechStack {
	return &model.TechStack{
		Libraries:      libraries(sec.Get("libraries")),
		Frameworks:     frameworks(sec.Get("frameworks")),
		RuntimeVersion: sec.First("python_version", "runtime_version", "runtime").String(unknownName),
		PackageManager: sec.Get("package_manager").String(unknownName),
		Dependencies:   n.dependencies(sec.Get("dependencies")),
	}
}

// libraries accepts a list of names or objects, or an object mapping
// names to versions.
func libraries(v payload.Value) []model.Library {
	out := []model.Library{}
	if v.IsObject() {
		for _, name := range v.Keys() {
			out = append(out, model.Library{Name: name, Version: v.Get(name).String("")})
		}
		return out
	}
	for _, item := range v.List() {
		lib := model.Library{Name: item.String("")}
		if item.IsObject() {
			lib = model.Library{
				Name:     item.First("name", "library", "package").String(""),
				Version:  item.Get("version").String(""),
				Category: item.First("category", "type").String(""),
			}
		}
		if lib.Name != "" {
			out = append(out, lib)
		}
	}
	return out
}

func frameworks(v payload.Value) []model.Framework {
	out := []model.Framework{}
	for _, item := range v.List() {
		fw := model.Framework{Name: item.String("")}
		if item.IsObject() {
			fw.Name = item.First("name", "framework").String("")
			fw.Confidence = confidence(item.First("confidence", "score"))
		}
		if fw.Name != "" {
			out = append(out, fw)
		}
	}
	return out
}

// confidence converts a reported confidence to a 0-100 integer. Values up to
// 1 are fractions.
func confidence(v payload.Value) *int {
	f := v.Float(math.NaN())
	if math.IsNaN(f) {
		return nil
	}
	if f <= 1 {
		f *= 100
	}
	c := int(math.Round(math.Max(0, math.Min(100, f))))
	return &c
}

// dependencies accepts a list of names or objects, or an object mapping
// names to versions.
func (n *Normalizer) dependencies(v payload.Value) []model.Dependency {
	out := []model.Dependency{}
	if v.IsObject() {
		for _, name := range v.Keys() {
			out = append(out, model.Dependency{
				Name:       name,
				Version:    v.Get(name).String(""),
				Relation:   model.Direct,
				SourceFile: unknownName,
			})
		}
		return out
	}
	for _, item := range v.List() {
		dep := model.Dependency{Name: item.String(""), Relation: model.Direct, SourceFile: unknownName}
		if item.IsObject() {
			dep = model.Dependency{
				Name:       item.First("name", "package").String(""),
				Version:    item.First("version", "version_spec").String(""),
				Relation:   relation(item),
				SourceFile: n.relPath(item.First("source_file", "source", "file").String("")),
			}
		}
		if dep.Name != "" {
			out = append(out, dep)
		}
	}
	return out
}

func relation(item payload.Value) model.Relation {
	if item.First("transitive", "is_transitive").Bool(false) {
		return model.Transitive
	}
	kind := strings.ToLower(item.First("relation", "type", "kind").String(""))
	if kind == "transitive" || kind == "indirect" {
		return model.Transitive
	}
	return model.Direct
}
