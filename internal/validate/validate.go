// Package validate decodes request bodies and checks them against their struct tags.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrBody is returned when a body is not a JSON object
var ErrBody = errors.New("invalid request body")

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Errors maps JSON field names to messages
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	return fmt.Sprintf("validation failed on: %s", strings.Join(fields, ", "))
}

var messages = map[string]string{
	"required":   "The field '%s' is required.",
	"min":        "The field '%s' must be at least %s characters long.",
	"max":        "The field '%s' must be no longer than %s characters.",
	"numeric":    "The field '%s' must be numeric.",
	"atleastone": "At least one field must be provided, starting with '%s'.",
}

func message(e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}

// RegisterStructValidation adds a struct level rule for the given types
func RegisterStructValidation(fn validator.StructLevelFunc, types ...interface{}) {
	validate.RegisterStructValidation(fn, types...)
}

// Struct validates s, returning Errors when a rule fails
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("could not validate: %w", err)
	}

	errs := make(Errors, len(ve))
	for _, e := range ve {
		errs[e.Field()] = message(e)
	}
	return errs
}

// Decode unmarshals a JSON body into dst and validates it. An empty body counts as an empty object.
func Decode(body string, dst interface{}) error {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBody, err)
	}
	return Struct(dst)
}
