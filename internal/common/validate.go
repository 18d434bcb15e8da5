package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldError keeps the validator's per-field failures next to ErrValidation.
type fieldError struct {
	fields map[string]string
}

func (e *fieldError) Error() string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.fields[name]))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *fieldError) Unwrap() error { return ErrValidation }

// ValidateStruct runs the struct tags of v and converts failures into an
// error wrapping ErrValidation.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid request: %w", ErrBadRequest)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &fieldError{fields: fields}
}

// DecodeAndValidate decodes a JSON body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, ErrBadRequest)
	}
	return ValidateStruct(dst)
}

// ValidationFields returns the per-field failures carried by err.
func ValidationFields(err error) map[string]string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.fields
	}
	return nil
}
