package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// OnInvalid is what a numeric field becomes when its value cannot be parsed
type OnInvalid int

const (
	// StoreNull stores NULL for an unparseable value (metric rows are omitted)
	StoreNull OnInvalid = iota
	// StoreZero stores 0 for an unparseable value
	StoreZero
)

func (o OnInvalid) String() string {
	if o == StoreZero {
		return "zero"
	}
	return "null"
}

// Policy maps a numeric column to its coercion rule.
//
// Musical attributes and release dates default to NULL while streaming
// metrics default to zero.
type Policy map[string]OnInvalid

// DefaultPolicy returns the coercion policy for every numeric column
func DefaultPolicy() Policy {
	p := make(Policy)
	for _, col := range attributeColumns {
		p[col] = StoreNull
	}
	for _, col := range releaseColumns {
		p[col] = StoreNull
	}
	for _, c := range Capabilities {
		p[c.Column] = StoreZero
	}
	return p
}

// For returns the rule for a column; unknown columns store NULL
func (p Policy) For(column string) OnInvalid {
	if rule, ok := p[column]; ok {
		return rule
	}
	return StoreNull
}

// ParsePolicy overlays column rules ("null" or "zero") onto DefaultPolicy
func ParsePolicy(overrides map[string]string) (Policy, error) {
	p := DefaultPolicy()

	cols := make([]string, 0, len(overrides))
	for col := range overrides {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		if _, known := p[col]; !known {
			return nil, fmt.Errorf("%w: coercion rule for unknown numeric column %q", util.ErrInvalidConfig, col)
		}
		switch strings.ToLower(strings.TrimSpace(overrides[col])) {
		case "null":
			p[col] = StoreNull
		case "zero":
			p[col] = StoreZero
		default:
			return nil, fmt.Errorf("%w: coercion rule for %q must be null or zero, got %q",
				util.ErrInvalidConfig, col, overrides[col])
		}
	}

	return p, nil
}
