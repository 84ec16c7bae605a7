package normalize

import (
	"strings"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
	"github.com/simonhull/firebird-suite/heron/pkg/payload"
)

func (n *Normalizer) dbSchema(sec payload.Value) *model.DBSchema {
	s := &model.DBSchema{
		Tables:     tables(sec.Get("tables")),
		Statements: n.statements(sec.First("raw_sql", "statements", "queries")),
	}
	if sec.Has("relationships") {
		s.Relationships = relationships(sec.Get("relationships"))
	} else {
		s.Relationships = deriveRelationships(s.Tables)
	}
	return s
}

// tables accepts a list of table objects or an object keyed by table name.
func tables(v payload.Value) []model.Table {
	out := []model.Table{}
	if v.IsObject() {
		for _, name := range v.Keys() {
			out = append(out, table(name, v.Get(name)))
		}
		return out
	}
	for _, item := range v.List() {
		if item.IsObject() {
			out = append(out, table("", item))
		}
	}
	return out
}

func table(name string, item payload.Value) model.Table {
	if name == "" {
		name = item.First("name", "table_name").String(unknownName)
	}
	t := model.Table{
		Name:        name,
		Schema:      item.Get("schema").String(""),
		PrimaryKeys: stringOrList(item.First("primary_keys", "primary_key")),
		ForeignKeys: foreignKeys(item.First("foreign_keys", "foreign_key")),
	}

	pk := map[string]bool{}
	for _, c := range t.PrimaryKeys {
		pk[c] = true
	}
	fk := map[string]bool{}
	for _, f := range t.ForeignKeys {
		fk[f.Column] = true
	}

	t.Columns = []model.Column{}
	for _, c := range item.Get("columns").List() {
		col := model.Column{Name: c.String(""), DataType: unknownName, Nullable: true}
		if c.IsObject() {
			col = model.Column{
				Name:         c.First("name", "column_name").String(unknownName),
				DataType:     c.First("type", "data_type").String(unknownName),
				Nullable:     c.First("nullable", "is_nullable").Bool(true),
				IsPrimaryKey: c.First("primary_key", "is_primary_key").Bool(false),
				IsForeignKey: c.First("foreign_key", "is_foreign_key").Bool(false),
			}
		}
		if col.Name == "" {
			continue
		}
		col.IsPrimaryKey = col.IsPrimaryKey || pk[col.Name]
		col.IsForeignKey = col.IsForeignKey || fk[col.Name]
		if col.IsPrimaryKey && !pk[col.Name] {
			pk[col.Name] = true
			t.PrimaryKeys = append(t.PrimaryKeys, col.Name)
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}

func stringOrList(v payload.Value) []string {
	if v.IsString() {
		return []string{v.String("")}
	}
	return v.Strings()
}

func foreignKeys(v payload.Value) []model.ForeignKey {
	out := []model.ForeignKey{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		out = append(out, model.ForeignKey{
			Column:           item.First("column", "column_name", "from").String(unknownName),
			ReferencedTable:  item.First("referenced_table", "references", "to_table", "table").String(unknownName),
			ReferencedColumn: item.First("referenced_column", "to_column").String(unknownName),
		})
	}
	return out
}

func relationships(v payload.Value) []model.Relationship {
	out := []model.Relationship{}
	for _, item := range v.List() {
		if !item.IsObject() {
			continue
		}
		out = append(out, model.Relationship{
			From: item.First("from_table", "from", "source").String(unknownName),
			To:   item.First("to_table", "to", "target").String(unknownName),
			Kind: cardinality(item.First("type", "kind", "relationship_type").String("")),
		})
	}
	return out
}

func cardinality(s string) model.Cardinality {
	switch strings.NewReplacer("_", "-", " ", "-").Replace(strings.ToLower(s)) {
	case "one-to-one", "1:1":
		return model.OneToOne
	case "many-to-many", "n:m", "m:n":
		return model.ManyToMany
	default:
		return model.OneToMany
	}
}

// deriveRelationships treats every foreign key as one-to-many from the
// referenced table to the referencing one.
func deriveRelationships(tables []model.Table) []model.Relationship {
	out := []model.Relationship{}
	seen := map[[2]string]bool{}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			key := [2]string{fk.ReferencedTable, t.Name}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, model.Relationship{From: fk.ReferencedTable, To: t.Name, Kind: model.OneToMany})
		}
	}
	return out
}

func (n *Normalizer) statements(v payload.Value) []model.Statement {
	out := []model.Statement{}
	for _, item := range v.List() {
		st := model.Statement{Kind: unknownName, Text: item.String(""), File: unknownName, Tables: []string{}}
		if item.IsObject() {
			kind := unknownName
			if k := item.First("type", "statement_type", "kind").String(""); k != "" {
				kind = strings.ToUpper(k)
			}
			st = model.Statement{
				Kind:   kind,
				Text:   item.First("sql", "text", "statement", "query").String(""),
				File:   n.relPath(item.First("file", "file_path").String("")),
				Line:   max(item.First("line", "line_number").Int(0), 0),
				Tables: item.First("tables", "table_references").Strings(),
			}
		}
		if st.Text == "" {
			continue
		}
		out = append(out, st)
	}
	return out
}
