package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Ad networks hand out impression ids in several shapes; anything outside this
// alphabet is rejected before it reaches the trace store.
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("trace_id", func(fl validator.FieldLevel) bool {
		return traceIDPattern.MatchString(fl.Field().String())
	})

	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = err.Error()
		return errs
	}
	for _, fe := range validationErrors {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "min":
			errs[field] = "Value is too small (min: " + fe.Param() + ")"
		case "max":
			errs[field] = "Value is too large (max: " + fe.Param() + ")"
		case "gte":
			errs[field] = "Value must be at least " + fe.Param()
		case "lte":
			errs[field] = "Value must be at most " + fe.Param()
		case "oneof":
			errs[field] = "Value must be one of: " + fe.Param()
		case "uuid":
			errs[field] = "Invalid UUID"
		case "trace_id":
			errs[field] = "Invalid trace id"
		case "slug":
			errs[field] = "Invalid identifier"
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
