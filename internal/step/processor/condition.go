package processor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

// ConditionKind is the comparison applied by a Condition.
type ConditionKind string

const (
	Range       ConditionKind = "range"
	GreaterThan ConditionKind = "greater_than"
	LessThan    ConditionKind = "less_than"
	Exact       ConditionKind = "exact"
	Pattern     ConditionKind = "pattern"
)

// Condition is a predicate on the value of one column.
type Condition struct {
	Column string
	Kind   ConditionKind
	// Value is the raw right-hand side as given by the user.
	Value string

	low, high float64
	re        *regexp.Regexp
}

// ParseConditions reads "column=kind=value" terms separated by ";".
// Range values are written "low:high" and are inclusive.
func ParseConditions(spec string) ([]Condition, error) {
	var conditions []Condition
	for _, term := range strings.Split(spec, ";") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		parts := strings.SplitN(term, "=", 3)
		if len(parts) != 3 {
			return nil, exception.NewBatchErrorf(moduleName, "condition %q must be column=kind=value", term, exception.ErrInvalidCondition)
		}
		c, err := NewCondition(parts[0], ConditionKind(strings.ToLower(strings.TrimSpace(parts[1]))), parts[2])
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

// NewCondition validates and builds a single condition.
func NewCondition(column string, kind ConditionKind, value string) (Condition, error) {
	c := Condition{Column: strings.ToLower(strings.TrimSpace(column)), Kind: kind, Value: strings.TrimSpace(value)}
	if c.Column == "" {
		return Condition{}, exception.NewBatchErrorf(moduleName, "condition on %q has no column", value, exception.ErrInvalidCondition)
	}

	var err error
	switch kind {
	case Range:
		bounds := strings.SplitN(c.Value, ":", 2)
		if len(bounds) != 2 {
			return Condition{}, exception.NewBatchErrorf(moduleName, "range condition on %s must be low:high, got %q", c.Column, c.Value, exception.ErrInvalidCondition)
		}
		if c.low, err = strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64); err == nil {
			c.high, err = strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
		}
		if err == nil && c.low > c.high {
			return Condition{}, exception.NewBatchErrorf(moduleName, "range condition on %s has low above high: %q", c.Column, c.Value, exception.ErrInvalidCondition)
		}
	case GreaterThan:
		c.low, err = strconv.ParseFloat(c.Value, 64)
	case LessThan:
		c.high, err = strconv.ParseFloat(c.Value, 64)
	case Exact:
	case Pattern:
		c.re, err = regexp.Compile(c.Value)
	default:
		return Condition{}, exception.NewBatchErrorf(moduleName, "unknown condition kind %q on %s", kind, c.Column, exception.ErrInvalidCondition)
	}
	if err != nil {
		return Condition{}, exception.NewBatchErrorf(moduleName, "invalid %s condition on %s: %q", kind, c.Column, c.Value, exception.ErrInvalidCondition)
	}
	return c, nil
}

// Matches applies the condition to a field value. Numeric kinds fail on non-numeric values.
func (c Condition) Matches(value string) bool {
	value = strings.TrimSpace(value)
	switch c.Kind {
	case Exact:
		return value == c.Value
	case Pattern:
		return c.re.MatchString(value)
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	switch c.Kind {
	case Range:
		return v >= c.low && v <= c.high
	case GreaterThan:
		return v > c.low
	case LessThan:
		return v < c.high
	}
	return false
}

// BoundCondition is a condition resolved to a 0-based column position.
type BoundCondition struct {
	Condition
	Index int
}
