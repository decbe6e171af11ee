package sdwload

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type a raw CSV field is coerced to.
type ColumnType int

const (
	Text    ColumnType = iota // passed through unchanged
	Integer                   // base-10, 64-bit
	Decimal                   // 64-bit floating point
)

// String returns a human-readable string representation of the ColumnType.
func (t ColumnType) String() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// IsValid returns true if the ColumnType is a valid, defined value.
func (t ColumnType) IsValid() bool {
	return t >= Text && t <= Decimal
}

// Column is one target column: the CSV field name doubles as the column name.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a target table.
type Schema []Column

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// String renders the schema as "name type, ...".
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + " " + c.Type.String()
	}
	return strings.Join(parts, ", ")
}

// Validate reports empty, duplicate or untyped columns.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema has no columns: %w", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(s))
	for i, c := range s {
		if c.Name == "" {
			return fmt.Errorf("column %d has no name: %w", i+1, ErrInvalidConfig)
		}
		if !c.Type.IsValid() {
			return fmt.Errorf("column %q has invalid type %s: %w", c.Name, c.Type, ErrInvalidConfig)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("column %q declared twice: %w", c.Name, ErrInvalidConfig)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Record maps CSV header names to raw field values for one data row.
type Record map[string]string

// Tuple holds coerced parameter values in schema order.
// Elements are int64, float64 or string.
type Tuple []any
