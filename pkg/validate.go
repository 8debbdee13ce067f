package pkg

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validate inspects `validate:"..."` struct tags and returns the first
// violation wrapped in ErrValidation.  Supported rules:
//   - required         string non-blank, int non-zero
//   - email            RFC 5322 address
//   - min=N, max=N     string length in runes
//   - oneof=a b c      string is one of the listed values (empty is skipped)
//   - range=A:B        int within [A, B]
func Validate(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: expected struct, got %s", ErrValidation, v.Kind())
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		name := jsonName(field)
		fv := v.Field(i)
		for _, rule := range strings.Split(tag, ",") {
			if err := checkRule(name, strings.TrimSpace(rule), fv); err != nil {
				return fmt.Errorf("%w: %s", ErrValidation, err)
			}
		}
	}
	return nil
}

func checkRule(name, rule string, fv reflect.Value) error {
	key, arg, _ := strings.Cut(rule, "=")
	switch fv.Kind() {
	case reflect.String:
		sval := fv.String()
		switch key {
		case "required":
			if strings.TrimSpace(sval) == "" {
				return fmt.Errorf("%s is required", name)
			}
		case "email":
			if sval != "" {
				if _, err := mail.ParseAddress(sval); err != nil {
					return fmt.Errorf("%s must be a valid email address", name)
				}
			}
		case "min":
			n, _ := strconv.Atoi(arg)
			if utf8.RuneCountInString(sval) < n {
				return fmt.Errorf("%s must be at least %d characters", name, n)
			}
		case "max":
			n, _ := strconv.Atoi(arg)
			if utf8.RuneCountInString(sval) > n {
				return fmt.Errorf("%s must be at most %d characters", name, n)
			}
		case "oneof":
			if sval == "" {
				return nil
			}
			for _, opt := range strings.Fields(arg) {
				if sval == opt {
					return nil
				}
			}
			return fmt.Errorf("%s must be one of: %s", name, strings.Join(strings.Fields(arg), ", "))
		}
	case reflect.Int, reflect.Int32, reflect.Int64:
		ival := fv.Int()
		switch key {
		case "required":
			if ival == 0 {
				return fmt.Errorf("%s is required", name)
			}
		case "range":
			lo, hi, _ := strings.Cut(arg, ":")
			a, _ := strconv.ParseInt(lo, 10, 64)
			b, _ := strconv.ParseInt(hi, 10, 64)
			if ival < a || ival > b {
				return fmt.Errorf("%s must be between %d and %d", name, a, b)
			}
		}
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
