package slots

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	derrors "github.com/alexisbeaulieu97/designctl/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator used for
// slot definitions.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("css_property", func(fl validator.FieldLevel) bool {
			return ValidTargetProperty(fl.Field().String())
		})

		_ = v.RegisterValidation("widget_kind", func(fl validator.FieldLevel) bool {
			return WidgetKind(fl.Field().String()).Valid()
		})

		validateInst = v
	})

	return validateInst
}

// Validate checks a single definition and returns a SlotError describing the
// first offending field.
func (d Definition) Validate() error {
	err := validatorInstance().Struct(d)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return derrors.NewSlotError(d.Key, "", err.Error(), err)
	}

	fe := fieldErrs[0]
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return derrors.NewSlotError(d.Key, field, "is required", err)
	case "css_property":
		return derrors.NewSlotError(d.Key, field, fmt.Sprintf("%q must start with \"--\" and contain only letters, digits, '-' or '_'", fe.Value()), err)
	case "widget_kind":
		return derrors.NewSlotError(d.Key, field, fmt.Sprintf("unknown widget %q", fe.Value()), err)
	case "max":
		return derrors.NewSlotError(d.Key, field, fmt.Sprintf("exceeds %s characters", fe.Param()), err)
	default:
		return derrors.NewSlotError(d.Key, field, fmt.Sprintf("failed %s validation", fe.Tag()), err)
	}
}

func toSnake(name string) string {
	return strings.ReplaceAll(kebab(name), "-", "_")
}
