package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Validator checks a single value extracted from a request struct.
type Validator interface {
	Validate(value interface{}) error
}

// Form validates a struct by field. Keys are json tag names (or the Go field
// name for embedded structs), values are the validators to apply.
type Form struct {
	validators map[string]Validator
}

func MustForm(validators map[string]Validator) *Form {
	if len(validators) == 0 {
		panic("form validator must have at least one field")
	}
	return &Form{validators: validators}
}

func (f *Form) Validate(value interface{}) error {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return errors.New("expect a struct, got nil")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expect a struct, got %v", v.Kind())
	}

	t := v.Type()
	for name, validator := range f.validators {
		field, ok := f.findField(t, name)
		if !ok {
			return fmt.Errorf("field %s not found", name)
		}

		if err := validator.Validate(v.FieldByIndex(field.Index).Interface()); err != nil {
			return fmt.Errorf("%s: %v", name, err)
		}
	}

	return nil
}

func (f *Form) findField(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if tag == "" {
			tag = strings.Split(field.Tag.Get("schema"), ",")[0]
		}

		if tag == name || field.Name == name {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

type String struct {
	Optional bool
	MinLen   int
	MaxLen   int
	Regex    *regexp.Regexp
}

func (v *String) Validate(value interface{}) error {
	var s string
	switch val := value.(type) {
	case string:
		s = val
	case *string:
		if val == nil {
			if v.Optional {
				return nil
			}
			return errors.New("string is required")
		}
		s = *val
	default:
		return errors.New("expect a string")
	}

	if s == "" {
		if v.Optional {
			return nil
		}
		return errors.New("string cannot be empty")
	}

	if v.MinLen > 0 && len(s) < v.MinLen {
		return fmt.Errorf("string too short, min length: %d", v.MinLen)
	}

	if v.MaxLen > 0 && len(s) > v.MaxLen {
		return fmt.Errorf("string too long, max length: %d", v.MaxLen)
	}

	if v.Regex != nil && !v.Regex.MatchString(s) {
		return errors.New("string format is invalid")
	}

	return nil
}

type UInt64 struct {
	Optional bool
	Min      *uint64
	Max      *uint64
}

func (v *UInt64) Validate(value interface{}) error {
	var ui uint64
	switch val := value.(type) {
	case uint64:
		ui = val
	case *uint64:
		if val == nil {
			if v.Optional {
				return nil
			}
			return errors.New("uint64 is required")
		}
		ui = *val
	default:
		return errors.New("expect a uint64")
	}

	if v.Min != nil && ui < *v.Min {
		return fmt.Errorf("value too small, min: %d", *v.Min)
	}

	if v.Max != nil && ui > *v.Max {
		return fmt.Errorf("value too large, max: %d", *v.Max)
	}

	return nil
}

type Slice struct {
	Optional  bool
	MinLen    int
	MaxLen    int
	Validator Validator
}

func (v *Slice) Validate(value interface{}) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return errors.New("expect a slice")
	}

	if rv.IsNil() || rv.Len() == 0 {
		if v.Optional && v.MinLen == 0 {
			return nil
		}
		if v.MinLen > 0 {
			return fmt.Errorf("slice too short, min length: %d", v.MinLen)
		}
		return nil
	}

	if v.MinLen > 0 && rv.Len() < v.MinLen {
		return fmt.Errorf("slice too short, min length: %d", v.MinLen)
	}

	if v.MaxLen > 0 && rv.Len() > v.MaxLen {
		return fmt.Errorf("slice too long, max length: %d", v.MaxLen)
	}

	if v.Validator != nil {
		for i := 0; i < rv.Len(); i++ {
			if err := v.Validator.Validate(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("index %d: %v", i, err)
			}
		}
	}

	return nil
}
