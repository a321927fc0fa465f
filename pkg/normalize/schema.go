// Package normalize maps raw table fragments onto a column schema and tags
// them with their source file and device.
package normalize

import (
	"fmt"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

// Kind says whether a table's columns carry known meaning
type Kind int

const (
	// Canonical tables have the eight report columns
	Canonical Kind = iota
	// Positional tables keep generic col_i labels
	Positional
)

func (k Kind) String() string {
	if k == Canonical {
		return "canonical"
	}
	return "positional"
}

// Schema describes the columns of a normalised table
type Schema struct {
	Kind   Kind
	Labels []string
}

// CanonicalSchema is the fixed report layout
func CanonicalSchema() Schema {
	return Schema{Kind: Canonical, Labels: append([]string(nil), measure.MeasurementColumns...)}
}

// PositionalSchema labels width columns col_0 .. col_{width-1}
func PositionalSchema(width int) Schema {
	labels := make([]string, width)
	for i := range labels {
		labels[i] = fmt.Sprintf("col_%d", i)
	}
	return Schema{Kind: Positional, Labels: labels}
}

// SchemaFor picks the canonical schema for tables exactly as wide as the
// report layout and a positional one otherwise
func SchemaFor(width int) Schema {
	if width == len(measure.MeasurementColumns) {
		return CanonicalSchema()
	}
	return PositionalSchema(width)
}

// Width returns the number of columns
func (s Schema) Width() int {
	return len(s.Labels)
}
