// Package validation checks request structs with go-playground/validator and
// converts failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/skyblockhq/teamsvc/internal/domain"
	domainerrors "github.com/skyblockhq/teamsvc/internal/errors"
)

var playerNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the team service's custom tags registered:
//
//	playername  3-16 letters, digits or underscores
//	rank        one of the standard island ranks
//	invitetype  team, coop or trust
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("playername", func(fl validator.FieldLevel) bool {
		return playerNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("rank", func(fl validator.FieldLevel) bool {
		_, ok := domain.LookupRank(domain.Rank(fl.Field().Int()))
		return ok
	})
	_ = v.RegisterValidation("invitetype", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseInviteType(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field any, tag string) error {
	if err := v.v.Var(field, tag); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Field()
		if field == "" {
			field = "value"
		}
		fieldErrors[field] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "playername":
		return "must be 3-16 letters, digits or underscores"
	case "rank":
		return "must be a known rank"
	case "invitetype":
		return "must be one of: team coop trust"
	default:
		return "is invalid"
	}
}
