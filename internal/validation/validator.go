package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "finhealth/internal/errors"
	"finhealth/pkg/contracts/domain"
)

// Validator validates console action requests against their struct tags
type Validator struct {
	validate *validator.Validate
}

// New creates a validator. languages is the set accepted by the "language" tag.
func New(languages []string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	supported := make(map[string]bool, len(languages))
	for _, code := range languages {
		supported[code] = true
	}

	_ = v.RegisterValidation("industry", isIndustry)
	_ = v.RegisterValidation("filename", isValidFilename)
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return supported[fl.Field().String()]
	})

	// Report fields by their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
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

	return &Validator{validate: v}
}

// Struct validates s. Field failures come back as a VALIDATION_FAILED API error
// listing every offending field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation: %w", err)
	}

	details := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(details)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "industry":
		return fmt.Sprintf("%s must be one of: %s", field, industryList())
	case "language":
		return fmt.Sprintf("%s is not a supported language", field)
	case "filename":
		return fmt.Sprintf("%s must be a valid filename", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isIndustry(fl validator.FieldLevel) bool {
	return domain.Industry(fl.Field().String()).Valid()
}

// isValidFilename rejects empty names, path traversal and overlong names
func isValidFilename(fl validator.FieldLevel) bool {
	filename := fl.Field().String()
	if filename == "" {
		return false
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return false
	}
	return len(filename) <= 255
}

func industryList() string {
	industries := domain.Industries()
	names := make([]string, len(industries))
	for i, industry := range industries {
		names[i] = string(industry)
	}
	return strings.Join(names, ", ")
}
