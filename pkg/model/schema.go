package model

// Cardinality of a relationship between two tables.
type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// DBSchema is the database schema extracted from a project.
type DBSchema struct {
	Tables        []Table        `json:"tables" yaml:"tables"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
	Statements    []Statement    `json:"statements" yaml:"statements"`
}

// Table is one table definition.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Schema      string       `json:"schema,omitempty" yaml:"schema,omitempty"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	PrimaryKeys []string     `json:"primary_keys" yaml:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys" yaml:"foreign_keys"`
}

// Column is one column of a table.
type Column struct {
	Name         string `json:"name" yaml:"name"`
	DataType     string `json:"data_type" yaml:"data_type"`
	Nullable     bool   `json:"nullable" yaml:"nullable"`
	IsPrimaryKey bool   `json:"is_primary_key" yaml:"is_primary_key"`
	IsForeignKey bool   `json:"is_foreign_key" yaml:"is_foreign_key"`
}

// ForeignKey links a column to a column of another table.
type ForeignKey struct {
	Column           string `json:"column" yaml:"column"`
	ReferencedTable  string `json:"referenced_table" yaml:"referenced_table"`
	ReferencedColumn string `json:"referenced_column" yaml:"referenced_column"`
}

// Relationship connects two tables.
type Relationship struct {
	From string      `json:"from" yaml:"from"`
	To   string      `json:"to" yaml:"to"`
	Kind Cardinality `json:"kind" yaml:"kind"`
}

// Statement is a raw SQL statement found in the source.
type Statement struct {
	Kind   string   `json:"kind" yaml:"kind"` // SELECT, CREATE TABLE, ...
	Text   string   `json:"text" yaml:"text"`
	File   string   `json:"file" yaml:"file"`
	Line   int      `json:"line" yaml:"line"`
	Tables []string `json:"tables" yaml:"tables"`
}

// Table returns the table with the given name.
func (s *DBSchema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// MissingTables lists table names referenced by relationships but not
// defined in Tables, in order of first reference.
func (s *DBSchema) MissingTables() []string {
	defined := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		defined[t.Name] = true
	}
	missing := []string{}
	seen := map[string]bool{}
	for _, r := range s.Relationships {
		for _, name := range []string{r.From, r.To} {
			if !defined[name] && !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}
	return missing
}
