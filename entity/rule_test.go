package entity

import (
	"crm/pkg/goutil"
	"encoding/json"
	"errors"
	"testing"
)

func condition(field, operator string, value interface{}) *Rule {
	return &Rule{
		Field:    goutil.String(field),
		Operator: goutil.String(operator),
		Value:    value,
	}
}

func group(combinator string, rules ...*Rule) *Rule {
	return &Rule{
		Combinator: goutil.String(combinator),
		Rules:      rules,
	}
}

func TestRuleEvalOperators(t *testing.T) {
	record := map[string]interface{}{
		"email":  "jane.doe@example.com",
		"name":   "Jane Doe",
		"spend":  float64(120),
		"visits": float64(3),
		"city":   "Singapore",
	}

	tests := []struct {
		name string
		rule *Rule
		want bool
	}{
		{"equal number", condition("spend", OperatorEqual, float64(120)), true},
		{"equal number mismatch", condition("spend", OperatorEqual, float64(121)), false},
		{"equal string case insensitive", condition("city", OperatorEqual, "singapore"), true},
		{"equal numeric string", condition("spend", OperatorEqual, "120"), true},
		{"not equal", condition("city", OperatorNotEqual, "Jakarta"), true},
		{"greater than", condition("spend", OperatorGreaterThan, float64(50)), true},
		{"greater than false", condition("visits", OperatorGreaterThan, float64(3)), false},
		{"less than", condition("visits", OperatorLessThan, float64(5)), true},
		{"greater than or equal boundary", condition("visits", OperatorGreaterThanOrEqual, float64(3)), true},
		{"less than or equal boundary", condition("spend", OperatorLessThanOrEqual, float64(120)), true},
		{"numeric compare on non-numeric target", condition("city", OperatorGreaterThan, float64(1)), false},
		{"numeric compare on non-numeric value", condition("spend", OperatorGreaterThan, "high"), false},
		{"contains", condition("email", OperatorContains, "@example"), true},
		{"contains case insensitive", condition("name", OperatorContains, "jane"), true},
		{"not contains", condition("email", OperatorNotContains, "@corp"), true},
		{"begins with", condition("name", OperatorBeginsWith, "jane"), true},
		{"ends with", condition("email", OperatorEndsWith, ".com"), true},
		{"ends with false", condition("email", OperatorEndsWith, ".org"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Eval(record); got != tt.want {
				t.Errorf("Eval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleEvalAbsentField(t *testing.T) {
	record := map[string]interface{}{
		"email": "a@b.com",
	}

	// absence only satisfies negated operators
	tests := []struct {
		operator string
		want     bool
	}{
		{OperatorEqual, false},
		{OperatorNotEqual, true},
		{OperatorGreaterThan, false},
		{OperatorLessThan, false},
		{OperatorContains, false},
		{OperatorNotContains, true},
		{OperatorBeginsWith, false},
		{OperatorEndsWith, false},
	}

	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			rule := condition("missing", tt.operator, "x")
			if got := rule.Eval(record); got != tt.want {
				t.Errorf("Eval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleEvalCombinators(t *testing.T) {
	record := map[string]interface{}{
		"spend":  float64(120),
		"visits": float64(3),
	}

	and := group(CombinatorAnd,
		condition("spend", OperatorGreaterThan, float64(50)),
		condition("visits", OperatorLessThan, float64(5)),
	)
	if !and.Eval(record) {
		t.Errorf("and group should match")
	}

	and.Rules = append(and.Rules, condition("visits", OperatorGreaterThan, float64(10)))
	if and.Eval(record) {
		t.Errorf("and group with one failing condition should not match")
	}

	or := group(CombinatorOr,
		condition("spend", OperatorLessThan, float64(10)),
		condition("visits", OperatorEqual, float64(3)),
	)
	if !or.Eval(record) {
		t.Errorf("or group with one matching condition should match")
	}

	or = group(CombinatorOr,
		condition("spend", OperatorLessThan, float64(10)),
		condition("visits", OperatorEqual, float64(99)),
	)
	if or.Eval(record) {
		t.Errorf("or group with no matching condition should not match")
	}
}

func TestRuleEvalNested(t *testing.T) {
	record := map[string]interface{}{
		"spend": float64(120),
		"city":  "Singapore",
		"tier":  "gold",
	}

	// spend > 50 and (city = Jakarta or tier = gold)
	rule := group(CombinatorAnd,
		condition("spend", OperatorGreaterThan, float64(50)),
		group(CombinatorOr,
			condition("city", OperatorEqual, "Jakarta"),
			condition("tier", OperatorEqual, "gold"),
		),
	)

	if !rule.Eval(record) {
		t.Errorf("nested rule should match")
	}
}

func TestRuleEvalEmpty(t *testing.T) {
	record := map[string]interface{}{"spend": float64(10)}

	var nilRule *Rule
	if !nilRule.Eval(record) {
		t.Errorf("nil rule should match everything")
	}

	if !group(CombinatorAnd).Eval(record) {
		t.Errorf("empty and group should match everything")
	}

	if !group(CombinatorOr).Eval(record) {
		t.Errorf("empty or group should match everything")
	}

	// empty group nested in a conjunction must not veto the match
	rule := group(CombinatorAnd,
		condition("spend", OperatorEqual, float64(10)),
		group(CombinatorOr),
	)
	if !rule.Eval(record) {
		t.Errorf("nested empty group should be vacuously true")
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    *Rule
		wantErr error
	}{
		{"nil rule", nil, nil},
		{"valid condition", condition("spend", OperatorGreaterThan, float64(50)), nil},
		{"valid group", group(CombinatorOr, condition("a", OperatorEqual, "b")), nil},
		{"missing field", &Rule{Operator: goutil.String(OperatorEqual), Value: "x"}, ErrMissingField},
		{"missing operator", &Rule{Field: goutil.String("spend"), Value: "x"}, ErrMissingOperator},
		{"missing value", &Rule{Field: goutil.String("spend"), Operator: goutil.String(OperatorEqual)}, ErrMissingValue},
		{"bad combinator", group("xor", condition("a", OperatorEqual, "b")), ErrInvalidCombinator},
		{"bad nested leaf", group(CombinatorAnd, &Rule{Field: goutil.String("a"), Value: "x"}), ErrMissingOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := condition("spend", "between", float64(1)).Validate(); err == nil {
		t.Errorf("unsupported operator should fail validation")
	}
}

func TestRuleJsonRoundTrip(t *testing.T) {
	js := `{"combinator":"and","rules":[{"field":"spend","operator":"greaterThan","value":50}]}`

	rule := new(Rule)
	if err := json.Unmarshal([]byte(js), rule); err != nil {
		t.Fatalf("unmarshal rule: %v", err)
	}

	if err := rule.Validate(); err != nil {
		t.Fatalf("validate rule: %v", err)
	}

	if !rule.Eval(map[string]interface{}{"spend": float64(120)}) {
		t.Errorf("spend 120 should match spend > 50")
	}
	if rule.Eval(map[string]interface{}{"spend": float64(20)}) {
		t.Errorf("spend 20 should not match spend > 50")
	}
}
