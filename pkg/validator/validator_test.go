package validator

import (
	"regexp"
	"testing"
)

type testForm struct {
	Email *string `json:"email,omitempty"`
	Limit *uint64 `json:"limit,omitempty"`
	Tags  []string
}

func strPtr(s string) *string { return &s }

func uintPtr(ui uint64) *uint64 { return &ui }

func TestFormValidate(t *testing.T) {
	form := MustForm(map[string]Validator{
		"email": &String{Regex: regexp.MustCompile(`@`)},
		"limit": &UInt64{Optional: true},
		"Tags": &Slice{
			Optional:  true,
			MaxLen:    3,
			Validator: &String{},
		},
	})

	ok := &testForm{
		Email: strPtr("a@b.com"),
		Limit: uintPtr(10),
		Tags:  []string{"one", "two"},
	}
	if err := form.Validate(ok); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}

	if err := form.Validate(&testForm{Limit: uintPtr(1)}); err == nil {
		t.Errorf("missing required string should fail")
	}

	if err := form.Validate(&testForm{Email: strPtr("nope")}); err == nil {
		t.Errorf("regex mismatch should fail")
	}

	if err := form.Validate(&testForm{
		Email: strPtr("a@b.com"),
		Tags:  []string{"a", "b", "c", "d"},
	}); err == nil {
		t.Errorf("slice over max length should fail")
	}
}

func TestStringValidator(t *testing.T) {
	v := &String{MinLen: 2, MaxLen: 4}

	if err := v.Validate("abc"); err != nil {
		t.Errorf("valid string rejected: %v", err)
	}
	if err := v.Validate("a"); err == nil {
		t.Errorf("too-short string accepted")
	}
	if err := v.Validate("abcde"); err == nil {
		t.Errorf("too-long string accepted")
	}
	if err := v.Validate((*string)(nil)); err == nil {
		t.Errorf("nil required string accepted")
	}

	opt := &String{Optional: true}
	if err := opt.Validate((*string)(nil)); err != nil {
		t.Errorf("nil optional string rejected: %v", err)
	}
	if err := opt.Validate(""); err != nil {
		t.Errorf("empty optional string rejected: %v", err)
	}
}

func TestUInt64Validator(t *testing.T) {
	min, max := uint64(1), uint64(10)
	v := &UInt64{Min: &min, Max: &max}

	if err := v.Validate(uint64(5)); err != nil {
		t.Errorf("valid uint64 rejected: %v", err)
	}
	if err := v.Validate(uint64(0)); err == nil {
		t.Errorf("below-min value accepted")
	}
	if err := v.Validate(uint64(11)); err == nil {
		t.Errorf("above-max value accepted")
	}
	if err := v.Validate((*uint64)(nil)); err == nil {
		t.Errorf("nil required uint64 accepted")
	}
}
