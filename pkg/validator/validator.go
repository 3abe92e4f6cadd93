// Package validator wraps go-playground/validator with json-tag field names
// and the custom rules the API uses.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single field failure, reported under the field's json
// name.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects every failing field of a struct.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, failure := range v {
		parts[i] = failure.Field + " failed on " + failure.Tag
		if failure.Param != "" {
			parts[i] += "=" + failure.Param
		}
	}
	return strings.Join(parts, "; ")
}

var (
	setupOnce sync.Once
	validate  *validator.Validate
)

// ValidateStruct runs the registered rules against s and flattens failures
// into ValidationErrors.
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, ValidationError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

// RegisterValidation adds a custom rule under tag.
func RegisterValidation(tag string, fn validator.Func) error {
	return instance().RegisterValidation(tag, fn)
}

func instance() *validator.Validate {
	setupOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonFieldName)

		// attending accepts the RSVP answers in any casing; the service
		// normalises to lowercase before storing.
		_ = validate.RegisterValidation("attending", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "yes", "no", "maybe":
				return true
			}
			return false
		})
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name := fld.Tag.Get("json")
	if name == "" {
		return fld.Name
	}
	if comma := strings.Index(name, ","); comma != -1 {
		name = name[:comma]
	}
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
