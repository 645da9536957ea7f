// Package validation is the data-shape gate for request bodies.  It wraps
// go-playground/validator as echo's Validator and turns failures into a
// flat list of field issues.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cactilog/internal/model"
)

// Issue describes one failing field.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error carries every issue found in one payload.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Normalizer is implemented by payloads that clean themselves before
// validation (trim, blank optional strings to null).
type Normalizer interface {
	Normalize()
}

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the cactilog rules registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("calendardate", calendarDate)
	v.RegisterStructValidation(plantPatchRules, model.PlantPatch{})
	v.RegisterStructValidation(growthInputRules, model.GrowthRecordInput{})
	v.RegisterStructValidation(growthPatchRules, model.GrowthRecordPatch{})
	v.RegisterStructValidation(seedPatchRules, model.SeedPatch{})
	return &Validator{v: v}
}

// Validate checks a pointer to a payload struct.  Validation failures come
// back as *Error; anything else is a programming error.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Issues: make([]Issue, 0, len(verrs))}
	for _, fe := range verrs {
		out.Issues = append(out.Issues, Issue{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "maxscale":
		return fmt.Sprintf("%s must have at most %s decimal places", fe.Field(), fe.Param())
	case "calendardate":
		return fe.Field() + " must be a date (YYYY-MM-DD)"
	}
	return fe.Field() + " is invalid"
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func calendarDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}
