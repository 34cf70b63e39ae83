package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violations maps a field name (its json tag) to a violation code such as "required".
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless one is already present for the field.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// indexPath rewrites slice indexes as path segments: line_items[2].description -> line_items.2.description.
var indexPath = strings.NewReplacer("[", ".", "]", "")

// Struct validates s against its `validate` tags and returns the violations, keyed by json name.
// Nested fields are keyed by their dotted path below the top-level struct.
func Struct(s any) Violations {
	v := Violations{}
	err := instance().Struct(s)
	if err == nil {
		return v
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range ve {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		v.Add(indexPath.Replace(ns), code(fe))
	}
	return v
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "required"
	case "max":
		return "too_long"
	case "email":
		return "invalid_email"
	case "oneof":
		return "invalid_choice"
	case "gt", "gte", "min":
		return "out_of_range"
	default:
		return fe.Tag()
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}
