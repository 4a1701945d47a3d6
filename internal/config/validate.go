package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	derrors "github.com/alexisbeaulieu97/designctl/pkg/errors"
)

// ValidateDocument performs structural validation of a document. Individual
// slot problems are not errors here: the resolver skips bad slots and reports
// them as warnings.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return derrors.NewValidationError("document", "document is nil", nil)
	}

	if err := validatorInstance().Struct(doc); err != nil {
		return convertValidationError(err)
	}

	if doc.Storage.Backend == BackendRemote && doc.Storage.URL == "" {
		return derrors.NewValidationError("storage.url", "storage.url is required for the remote backend", nil)
	}

	if len(doc.Baseline) == 0 && len(doc.Slots) == 0 {
		return derrors.NewValidationError("slots", "document declares no baseline or slots", nil)
	}

	for key := range doc.Baseline {
		if strings.TrimSpace(key) == "" {
			return derrors.NewValidationError("baseline", "baseline keys must not be empty", nil)
		}
	}
	for key := range doc.Slots {
		if strings.TrimSpace(key) == "" {
			return derrors.NewValidationError("slots", "slot keys must not be empty", nil)
		}
	}

	return nil
}

// convertValidationError normalizes validator errors into document validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := yamlishFieldName(ve)
		return derrors.NewValidationError(field, messageFor(field, ve), err)
	}

	return derrors.NewValidationError("document", err.Error(), err)
}

func messageFor(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "semver":
		return fmt.Sprintf("%s must look like 1.0 or 1.0.0, got %q", field, fe.Value())
	case "segment":
		return fmt.Sprintf("%s %q may only contain letters, digits, '.', '_' or '-'", field, fe.Value())
	case "duration":
		return fmt.Sprintf("%s %q is not a positive duration such as 30s", field, fe.Value())
	case "url":
		return fmt.Sprintf("%s %q is not a valid URL", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation for tag '%s'", field, fe.Tag())
	}
}

// yamlishFieldName maps "Document.Storage.CacheTTL" to "storage.cachettl".
func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	lowered := make([]string, 0, len(parts))
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
