package utils

import (
	"errors"
	"reflect"
	"regexp"
	"sync"
	"unicode"

	"diagram-hub/internal/schemas"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool
	policy      *bluemonday.Policy
}

var (
	instance      *Validator
	once          sync.Once
	configuration *truemail.Configuration
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9._~-]+$`)

// EmailValidationType selects the truemail check used by VerifyEmail ("regex" or "mx").
// It must be set before the first call to GetValidator.
var EmailValidationType = "regex"

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "team@mail.diagram-hub.dev",
			ValidationTypeDefault: EmailValidationType,
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: validateEmail,
			policy:      bluemonday.StrictPolicy(),
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

func validateEmail(email string) bool {
	if configuration == nil {
		return true
	}
	return truemail.IsValid(email, configuration)
}

func registerCustomValidators(v *validator.Validate) {
	err := v.RegisterValidation("slug_validation", slugValidation)
	if err != nil {
		return
	}

	err = v.RegisterValidation("password_validation", passwordValidation)
	if err != nil {
		return
	}
}

// ValidateStruct runs the struct validations and converts failures into a validation error
// listing every offending field.
func (v *Validator) ValidateStruct(obj interface{}) error {
	err := v.Validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return schemas.NewBadRequest(schemas.BadRequestMessage).WithCause(err)
	}

	details := make([]schemas.FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, schemas.FieldError{
			Field:   fieldErr.Field(),
			Message: "failed on the '" + fieldErr.Tag() + "' rule",
		})
	}
	return schemas.NewValidation(schemas.BadRequestMessage, details...)
}

// SanitizeData strips markup from every exported string field of obj, which must be a pointer to a struct.
// Fields tagged `sanitize:"-"` are left as sent.
func (v *Validator) SanitizeData(obj interface{}) error {
	value := reflect.ValueOf(obj)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return errors.New("sanitize: expected pointer to struct")
	}
	v.sanitizeValue(value.Elem())
	return nil
}

func (v *Validator) sanitizeValue(value reflect.Value) {
	switch value.Kind() {
	case reflect.Ptr:
		if !value.IsNil() {
			v.sanitizeValue(value.Elem())
		}
	case reflect.Struct:
		for i := 0; i < value.NumField(); i++ {
			field := value.Type().Field(i)
			if field.IsExported() && field.Tag.Get("sanitize") != "-" {
				v.sanitizeValue(value.Field(i))
			}
		}
	case reflect.Slice:
		for i := 0; i < value.Len(); i++ {
			v.sanitizeValue(value.Index(i))
		}
	case reflect.String:
		if value.CanSet() {
			value.SetString(v.policy.Sanitize(value.String()))
		}
	}
}

func slugValidation(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

func passwordValidation(fl validator.FieldLevel) bool {
	var upperLetter, lowerLetter, number, specialChar bool

	value := fl.Field().String()
	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case unicode.IsUpper(r):
			upperLetter = true
		case unicode.IsLower(r):
			lowerLetter = true
		case unicode.IsNumber(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			specialChar = true
		}
	}

	return upperLetter && lowerLetter && number && specialChar
}
