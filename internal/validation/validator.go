// Package validation checks loosely typed request input and collects
// human-readable messages in the order the rules were declared.
package validation

import (
	"time"
)

type Validator struct {
	in     Input
	loc    *time.Location
	failed map[string]bool
	errors []string
}

// New returns a Validator over in. loc is used for dates without an offset.
func New(in Input, loc *time.Location) *Validator {
	return &Validator{
		in:     in,
		loc:    loc,
		failed: make(map[string]bool),
	}
}

// Required fails when field is absent, null, an empty string or an empty array.
func (v *Validator) Required(field, message string) *Validator {
	return v.check(field, message, false, func() bool {
		return v.in.Has(field)
	})
}

func (v *Validator) Integer(field, message string) *Validator {
	return v.check(field, message, true, func() bool {
		_, ok := v.in.Int(field)
		return ok
	})
}

func (v *Validator) String(field, message string) *Validator {
	return v.check(field, message, true, func() bool {
		_, ok := v.in[field].(string)
		return ok
	})
}

func (v *Validator) Date(field, message string) *Validator {
	return v.check(field, message, true, func() bool {
		_, ok := v.in.Time(field, v.loc)
		return ok
	})
}

func (v *Validator) JSON(field, message string) *Validator {
	return v.check(field, message, true, func() bool {
		_, ok := v.in.RawJSON(field)
		return ok
	})
}

func (v *Validator) Array(field, message string) *Validator {
	return v.check(field, message, true, func() bool {
		_, ok := v.in[field].([]interface{})
		return ok
	})
}

// IDs fails unless every element of the array field is a positive integer.
func (v *Validator) IDs(field, message string) *Validator {
	return v.check(field, message, true, func() bool {
		_, err := v.in.UintSlice(field)
		return err == nil
	})
}

func (v *Validator) Fails() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []string {
	return v.errors
}

// check runs one rule. A field reports at most one message; type rules are
// skipped for absent fields so Required alone decides on those.
func (v *Validator) check(field, message string, skipAbsent bool, ok func() bool) *Validator {
	if v.failed[field] {
		return v
	}
	if skipAbsent && !v.in.Has(field) {
		return v
	}
	if !ok() {
		v.failed[field] = true
		v.errors = append(v.errors, message)
	}
	return v
}
