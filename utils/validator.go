// utils/validator.go - Input validation
package utils

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	initOnce   sync.Once
	translator ut.Translator
)

// InitValidator wires English translations and JSON field names into gin's validator.
func InitValidator() {
	initOnce.Do(func() {
		english := en.New()
		uni := ut.New(english, english)
		translator, _ = uni.GetTranslator("en")

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		// Use JSON/form tag names for errors instead of Go struct names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = en_translations.RegisterDefaultTranslations(v, translator)
		registerCustomTranslation(v, "required", "this field is required")
	})
}

func registerCustomTranslation(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldErrors converts a binding error into messages keyed by input name.
// It returns nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	InitValidator()

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		if translator != nil {
			fields[key] = fe.Translate(translator)
		} else {
			fields[key] = fe.Error()
		}
	}
	return fields
}

// fieldKey drops the top-level struct name and turns "scores[0].score" into "scores.0.score".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	return strings.ReplaceAll(input, "\x00", "")
}

// SanitizeOptional trims an optional value and drops it when empty.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	s := SanitizeInput(*input)
	if s == "" {
		return nil
	}
	return &s
}
