package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/freeflowlabs/freeflow/pkg/api"
)

// Validator checks request parameter ranges before any transport work and
// renders violations as readable, json-tag-keyed messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func New() *Validator {
	v := validator.New()

	// Report the json tag name instead of the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates s, converting raw validator errors into a single
// api.ValidationError keyed by field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			fields[e.Field()] = e.Translate(v.trans)
		}
	} else {
		fields["request"] = err.Error()
	}
	return &api.ValidationError{Fields: fields}
}
