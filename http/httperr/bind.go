// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Input locations used as the first element of [FieldError.Loc].
const (
	LocBody  = "body"
	LocQuery = "query"
	LocPath  = "path"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// fieldName prefers the name a client actually sends.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"query", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Struct validates v using its `validate` struct tags. Failures are
// returned as a [ValidationError] located under loc.
func Struct(loc string, v any) error {
	err := inputValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fes := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fes = append(fes, fromValidator(loc, fe))
	}
	return ValidationError{Errors: fes}
}

func fromValidator(loc string, fe validator.FieldError) FieldError {
	path := strings.Split(fe.Namespace(), ".")
	if len(path) > 1 {
		path = path[1:]
	}
	l := append([]string{loc}, path...)

	if fe.Tag() == "required" {
		return Missing(l...)
	}
	return FieldError{
		Loc:  l,
		Msg:  message(fe),
		Type: "value_error." + fe.Tag(),
	}
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min", "gte":
		if isString {
			return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("ensure this value is greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("ensure this value is less than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value is not a valid enumeration member; permitted: %s", fe.Param())
	default:
		return fmt.Sprintf("value failed the %s check", fe.Tag())
	}
}

// DecodeJSON decodes the request body into v and validates it.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return ValidationError{Errors: []FieldError{Missing(LocBody)}}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return ValidationError{Errors: []FieldError{{
			Loc:  append([]string{LocBody}, strings.Split(typeErr.Field, ".")...),
			Msg:  fmt.Sprintf("value is not a valid %s", typeErr.Type),
			Type: "type_error." + typeErr.Type.Kind().String(),
		}}}
	}
	if err != nil {
		return ValidationError{Errors: []FieldError{{
			Loc:  []string{LocBody},
			Msg:  err.Error(),
			Type: "value_error.jsondecode",
		}}}
	}
	return Struct(LocBody, v)
}

// DecodeQuery copies query parameters onto the fields of the struct v
// points to, matched by their `query` tag, and validates the result.
// Fields whose parameter is absent keep their current value so callers
// set defaults before decoding.
func DecodeQuery(r *http.Request, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("httperr: DecodeQuery requires a pointer to a struct, got %T", v)
	}

	query := r.URL.Query()
	sv := rv.Elem()
	st := sv.Type()

	var fes []FieldError
	for i := range st.NumField() {
		f := st.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "" || name == "-" {
			continue
		}
		values, ok := query[name]
		if !ok {
			continue
		}

		var input any = values
		if f.Type.Kind() != reflect.Slice {
			input = values[len(values)-1]
		}
		err := mapstructure.WeakDecode(input, sv.Field(i).Addr().Interface())
		if err != nil {
			kind := f.Type.Kind().String()
			fes = append(fes, FieldError{
				Loc:  []string{LocQuery, name},
				Msg:  fmt.Sprintf("value is not a valid %s", kind),
				Type: "type_error." + kind,
			})
		}
	}
	if len(fes) > 0 {
		return ValidationError{Errors: fes}
	}
	return Struct(LocQuery, v)
}
