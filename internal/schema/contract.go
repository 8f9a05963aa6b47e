// Package schema defines column contracts: the declared shape a raw input
// file must be coerced into before the engine works on it. A contract names
// the columns, their types, date layouts and boolean spellings, plus an
// optional header map for renaming source headers that the normalizer alone
// cannot fix.
//
// Contracts are data, not code: they load from JSON or YAML files next to
// the recipe that uses them.
package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"tablekit/internal/table"
)

// Field declares one column of a contract.
type Field struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"` // "string" | "int" | "float" | "date" | "bool"
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Layout   string   `json:"layout,omitempty" yaml:"layout,omitempty"` // date layout
	Truthy   []string `json:"truthy,omitempty" yaml:"truthy,omitempty"` // bool parsing
	Falsy    []string `json:"falsy,omitempty" yaml:"falsy,omitempty"`
}

// Contract declares a table's full shape.
type Contract struct {
	Name      string            `json:"name" yaml:"name"`
	Fields    []Field           `json:"fields" yaml:"fields"`
	HeaderMap map[string]string `json:"header_map,omitempty" yaml:"header_map,omitempty"`
}

// DefaultDateLayout is used when a date field declares no layout.
const DefaultDateLayout = "2006-01-02"

var (
	defaultTruthy = []string{"true", "t", "yes", "y", "1"}
	defaultFalsy  = []string{"false", "f", "no", "n", "0"}
)

// Validate checks the contract is internally consistent: a name, at least
// one field, unique field names, known types.
func (c *Contract) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("contract: name required")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("contract %q: at least one field required", c.Name)
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("contract %q: field with empty name", c.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("contract %q: duplicate field %q", c.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if _, err := table.ParseType(f.Type); err != nil {
			return fmt.Errorf("contract %q: field %q: %w", c.Name, f.Name, err)
		}
	}
	return nil
}

// TableSchema maps the contract to a table schema, in field order.
func (c *Contract) TableSchema() (table.Schema, error) {
	s := make(table.Schema, len(c.Fields))
	for i, f := range c.Fields {
		ft, err := table.ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("contract %q: field %q: %w", c.Name, f.Name, err)
		}
		s[i] = table.Column{Name: f.Name, Type: ft}
	}
	return s, nil
}

// Field returns the named field declaration.
func (c *Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Convert coerces one raw string cell to the field's typed value. Empty
// input is null. Conversion is strict: a value that does not parse is an
// error for the caller to count, not a silent passthrough.
func (f Field) Convert(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	ft, err := table.ParseType(f.Type)
	if err != nil {
		return nil, err
	}
	switch ft {
	case table.String:
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return nil, fmt.Errorf("field %q: %q not in enum", f.Name, s)
		}
		return s, nil
	case table.Int:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not an int", f.Name, s)
		}
		return v, nil
	case table.Float:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not a float", f.Name, s)
		}
		return v, nil
	case table.Date:
		layout := f.Layout
		if layout == "" {
			layout = DefaultDateLayout
		}
		v, err := time.Parse(layout, s)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q does not match layout %q", f.Name, s, layout)
		}
		return v, nil
	case table.Bool:
		truthy := f.Truthy
		if len(truthy) == 0 {
			truthy = defaultTruthy
		}
		falsy := f.Falsy
		if len(falsy) == 0 {
			falsy = defaultFalsy
		}
		low := strings.ToLower(s)
		if slices.Contains(truthy, low) {
			return true, nil
		}
		if slices.Contains(falsy, low) {
			return false, nil
		}
		return nil, fmt.Errorf("field %q: %q is neither truthy nor falsy", f.Name, s)
	}
	return nil, fmt.Errorf("field %q: unhandled type %q", f.Name, f.Type)
}
