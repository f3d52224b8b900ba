package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	CombinatorAnd = "and"
	CombinatorOr  = "or"
)

const (
	OperatorEqual              = "equal"
	OperatorNotEqual           = "notEqual"
	OperatorGreaterThan        = "greaterThan"
	OperatorLessThan           = "lessThan"
	OperatorGreaterThanOrEqual = "greaterThanOrEqual"
	OperatorLessThanOrEqual    = "lessThanOrEqual"
	OperatorContains           = "contains"
	OperatorNotContains        = "notContains"
	OperatorBeginsWith         = "beginsWith"
	OperatorEndsWith           = "endsWith"
)

var SupportedOperators = map[string]struct{}{
	OperatorEqual:              {},
	OperatorNotEqual:           {},
	OperatorGreaterThan:        {},
	OperatorLessThan:           {},
	OperatorGreaterThanOrEqual: {},
	OperatorLessThanOrEqual:    {},
	OperatorContains:           {},
	OperatorNotContains:        {},
	OperatorBeginsWith:         {},
	OperatorEndsWith:           {},
}

var (
	ErrMissingField      = errors.New("rule condition is missing a field")
	ErrMissingOperator   = errors.New("rule condition is missing an operator")
	ErrMissingValue      = errors.New("rule condition is missing a value")
	ErrInvalidCombinator = errors.New("rule combinator must be and/or")
)

// Rule is one node of a filter tree: either a condition
// (field + operator + value) or a group (combinator + child rules).
type Rule struct {
	Combinator *string `json:"combinator,omitempty"`
	Rules      []*Rule `json:"rules,omitempty"`

	Field    *string     `json:"field,omitempty"`
	Operator *string     `json:"operator,omitempty"`
	Value    interface{} `json:"value,omitempty"`
}

func (e *Rule) GetCombinator() string {
	if e != nil && e.Combinator != nil {
		return *e.Combinator
	}
	return CombinatorAnd
}

func (e *Rule) GetField() string {
	if e != nil && e.Field != nil {
		return *e.Field
	}
	return ""
}

func (e *Rule) GetOperator() string {
	if e != nil && e.Operator != nil {
		return *e.Operator
	}
	return ""
}

func (e *Rule) GetRules() []*Rule {
	if e != nil && e.Rules != nil {
		return e.Rules
	}
	return nil
}

func (e *Rule) IsCondition() bool {
	if e == nil {
		return false
	}
	return e.Field != nil || e.Operator != nil
}

// IsEmpty reports whether the rule imposes no constraint at all.
func (e *Rule) IsEmpty() bool {
	if e == nil {
		return true
	}
	return !e.IsCondition() && len(e.Rules) == 0
}

func (e *Rule) ToString() (string, error) {
	if e == nil {
		return "{}", nil
	}

	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Validate rejects malformed trees before any evaluation or I/O.
func (e *Rule) Validate() error {
	if e == nil {
		return nil
	}

	if e.IsCondition() {
		if e.GetField() == "" {
			return ErrMissingField
		}

		op := e.GetOperator()
		if op == "" {
			return ErrMissingOperator
		}
		if _, ok := SupportedOperators[op]; !ok {
			return fmt.Errorf("unsupported operator: %s", op)
		}

		if e.Value == nil || valueToString(e.Value) == "" {
			return ErrMissingValue
		}

		return nil
	}

	if e.Combinator != nil {
		switch *e.Combinator {
		case CombinatorAnd, CombinatorOr:
		default:
			return ErrInvalidCombinator
		}
	}

	for _, rule := range e.Rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Eval applies the rule tree to a record. Pure, never errors:
// malformed comparisons evaluate to false.
//
// An empty group is vacuously true, so a no-op filter selects
// everything at any nesting depth.
func (e *Rule) Eval(record map[string]interface{}) bool {
	if e == nil {
		return true
	}

	if e.IsCondition() {
		return e.evalCondition(record)
	}

	if len(e.Rules) == 0 {
		return true
	}

	if e.GetCombinator() == CombinatorOr {
		for _, rule := range e.Rules {
			if rule.Eval(record) {
				return true
			}
		}
		return false
	}

	for _, rule := range e.Rules {
		if !rule.Eval(record) {
			return false
		}
	}
	return true
}

func (e *Rule) evalCondition(record map[string]interface{}) bool {
	var (
		op          = e.GetOperator()
		target, has = record[e.GetField()]
	)

	// absence only satisfies negated operators
	if !has || target == nil {
		return op == OperatorNotEqual || op == OperatorNotContains
	}

	var (
		want = valueToString(e.Value)
		got  = valueToString(target)
	)

	switch op {
	case OperatorEqual:
		return equal(target, e.Value, got, want)
	case OperatorNotEqual:
		return !equal(target, e.Value, got, want)
	case OperatorGreaterThan:
		return compareNumeric(target, e.Value, func(a, b float64) bool { return a > b })
	case OperatorLessThan:
		return compareNumeric(target, e.Value, func(a, b float64) bool { return a < b })
	case OperatorGreaterThanOrEqual:
		return compareNumeric(target, e.Value, func(a, b float64) bool { return a >= b })
	case OperatorLessThanOrEqual:
		return compareNumeric(target, e.Value, func(a, b float64) bool { return a <= b })
	case OperatorContains:
		return containsFold(got, want)
	case OperatorNotContains:
		return !containsFold(got, want)
	case OperatorBeginsWith:
		return strings.HasPrefix(strings.ToLower(got), strings.ToLower(want))
	case OperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(got), strings.ToLower(want))
	}

	return false
}

func equal(target, value interface{}, got, want string) bool {
	if tf, ok := toFloat(target); ok {
		if vf, ok := toFloat(value); ok {
			return tf == vf
		}
	}
	return got == want
}

func compareNumeric(target, value interface{}, cmp func(a, b float64) bool) bool {
	tf, ok := toFloat(target)
	if !ok {
		return false
	}

	vf, ok := toFloat(value)
	if !ok {
		return false
	}

	return cmp(tf, vf)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

func valueToString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
