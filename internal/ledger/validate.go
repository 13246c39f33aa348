package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// inputValidator checks struct tags on mutation inputs and renders the first
// failure as an English ValidationError.
type inputValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newInputValidator() (*inputValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	eng := en.New()
	uni := ut.New(eng, eng)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	return &inputValidator{validate: v, translator: trans}, nil
}

func (iv *inputValidator) check(input any) error {
	err := iv.validate.Struct(input)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := errs[0]
	return &ValidationError{
		Field:   fieldPath(fe.StructNamespace()),
		Message: fe.Translate(iv.translator),
	}
}

// fieldPath drops the struct name from a namespace such as
// "CreateExpenseInput.Splits[0].UserID".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
