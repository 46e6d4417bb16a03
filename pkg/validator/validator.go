package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	messagesMu sync.RWMutex
	messages   = map[string]MessageFunc{
		"required": func(label, _ string) string { return fmt.Sprintf("%s is required.", label) },
		"max":      func(label, param string) string { return fmt.Sprintf("%s must be %s characters or fewer.", label, param) },
		"min":      func(label, param string) string { return fmt.Sprintf("%s must be at least %s characters.", label, param) },
	}
)

// MessageFunc renders the human-readable text for a failed rule.
type MessageFunc func(label, param string) string

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Tag     string `json:"tag"`
	Param   string `json:"param"`
	Message string `json:"message"`
}

// ValidationErrors collects failures in struct field order.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return strings.Join(v.Messages(), " ")
}

// Messages returns the rendered messages in reporting order.
func (v ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v))
	for _, failure := range v {
		out = append(out, failure.Message)
	}
	return out
}

// ValidateStruct validates a struct using its `validate` tags. Failures are
// returned as ValidationErrors; the `label` tag names the field in messages.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	typ := reflect.TypeOf(s)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		label := labelFor(typ, fe.StructField(), fe.Field())
		failures = append(failures, ValidationError{
			Field:   fe.Field(),
			Label:   label,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: renderMessage(fe.Tag(), label, fe.Param()),
		})
	}
	return failures
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

// RegisterMessage installs or replaces the message template for a rule tag.
func RegisterMessage(tag string, fn MessageFunc) {
	if tag == "" || fn == nil {
		return
	}
	messagesMu.Lock()
	defer messagesMu.Unlock()
	messages[tag] = fn
}

func renderMessage(tag, label, param string) string {
	messagesMu.RLock()
	fn, ok := messages[tag]
	messagesMu.RUnlock()
	if ok {
		return fn(label, param)
	}
	return fmt.Sprintf("%s is invalid.", label)
}

func labelFor(typ reflect.Type, structField, fallback string) string {
	if typ.Kind() == reflect.Struct {
		if field, ok := typ.FieldByName(structField); ok {
			if label := strings.TrimSpace(field.Tag.Get("label")); label != "" {
				return label
			}
		}
	}
	return fallback
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"form", "json"} {
				name := fld.Tag.Get(key)
				if comma := strings.Index(name, ","); comma != -1 {
					name = name[:comma]
				}
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}
