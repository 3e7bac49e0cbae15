package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strata-db/strata/strataerr"
)

type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Key       string         `yaml:"key"`
	Name      string         `yaml:"name"`
	Columns   []yamlColumn   `yaml:"columns"`
	Relations []yamlRelation `yaml:"relations"`
}

type yamlColumn struct {
	Key        string  `yaml:"key"`
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Primary    bool    `yaml:"primary"`
	NotNull    bool    `yaml:"not_null"`
	Unique     bool    `yaml:"unique"`
	Default    *string `yaml:"default"`
	Generator  string  `yaml:"generator"`
	References *struct {
		Table    string `yaml:"table"`
		Column   string `yaml:"column"`
		OnDelete string `yaml:"on_delete"`
	} `yaml:"references"`
}

type yamlRelation struct {
	Key        string `yaml:"key"`
	Kind       string `yaml:"kind"` // one | many
	ForeignKey string `yaml:"foreign_key"`
	Target     string `yaml:"target"` // table key
}

// LoadYAML builds a Registry from a YAML schema document. It exists so a
// project can keep its table definitions in a file instead of code; relations
// reference tables by key and resolve lazily, so circular references between
// tables in the same document work.
func LoadYAML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, strataerr.NewValidation(path, fmt.Sprintf("malformed schema YAML: %v", err))
	}

	reg := NewRegistry()
	for _, yt := range yf.Tables {
		key := yt.Key
		if key == "" {
			key = yt.Name
		}
		if !ValidIdentifier(yt.Name) {
			return nil, strataerr.NewValidation(yt.Name, "invalid table name")
		}

		cols := make(map[string]Column, len(yt.Columns))
		for _, yc := range yt.Columns {
			col, err := yc.toColumn()
			if err != nil {
				return nil, err
			}
			colKey := yc.Key
			if colKey == "" {
				colKey = yc.Name
			}
			cols[colKey] = col
		}
		reg.AddTable(key, NewTable(yt.Name, cols))
	}

	// Relations resolve against the registry, so a second pass after every
	// table exists.
	for _, yt := range yf.Tables {
		key := yt.Key
		if key == "" {
			key = yt.Name
		}
		for _, yr := range yt.Relations {
			target := yr.Target
			thunk := func() *Table {
				t, _ := reg.Table(target)
				return t
			}
			switch yr.Kind {
			case "one":
				reg.AddRelation(key, yr.Key, One(yr.ForeignKey, thunk))
			case "many":
				reg.AddRelation(key, yr.Key, Many(yr.ForeignKey, thunk))
			default:
				return nil, strataerr.NewValidation(yr.Key, fmt.Sprintf("unknown relation kind: %s", yr.Kind))
			}
		}
	}

	return reg, nil
}

func (yc yamlColumn) toColumn() (Column, error) {
	if !ValidIdentifier(yc.Name) {
		return Column{}, strataerr.NewValidation(yc.Name, "invalid column name")
	}

	kind, err := ParseKind(yc.Type)
	if err != nil {
		return Column{}, strataerr.NewValidation(yc.Name, err.Error())
	}

	col := Column{SQLName: yc.Name, Kind: kind}
	if yc.Primary {
		col = col.PrimaryKey()
	}
	if yc.NotNull {
		col = col.NotNull()
	}
	if yc.Unique {
		col = col.Unique()
	}
	if yc.Generator != "" {
		col = col.GeneratedBy(GeneratorID(yc.Generator))
	} else if yc.Default != nil {
		col = col.WithDefault(*yc.Default)
	}
	if yc.References != nil {
		col = col.References(yc.References.Table, yc.References.Column)
		action, err := ParseReferentialAction(yc.References.OnDelete)
		if err != nil {
			return Column{}, strataerr.NewValidation(yc.Name, err.Error())
		}
		col = col.OnDelete(action)
	}
	return col, nil
}
