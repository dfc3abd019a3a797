package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
)

var (
	nonDigit        = regexp.MustCompile(`\D`)
	categoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,63}$`)
	zipCodePattern  = regexp.MustCompile(`^\d{4}$`)
)

const (
	maxMetadataEntries = 50
	maxMetadataValue   = 1000
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	var errors []ValidationError

	title := strings.TrimSpace(input.Title)
	if title == "" {
		errors = append(errors, ValidationError{"title", "is required"})
	} else if len(title) < 3 {
		errors = append(errors, ValidationError{"title", "must have at least 3 characters"})
	} else if len(title) > 200 {
		errors = append(errors, ValidationError{"title", "must not exceed 200 characters"})
	}

	if len(input.Description) > 5000 {
		errors = append(errors, ValidationError{"description", "must not exceed 5000 characters"})
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		errors = append(errors, ValidationError{"category", "is required"})
	} else if !categoryPattern.MatchString(category) {
		errors = append(errors, ValidationError{"category", "must be a lowercase slug"})
	}

	if strings.TrimSpace(input.CustomerEmail) == "" {
		errors = append(errors, ValidationError{"customer_email", "is required"})
	} else if _, err := mail.ParseAddress(strings.TrimSpace(input.CustomerEmail)); err != nil {
		errors = append(errors, ValidationError{"customer_email", "is invalid"})
	}

	if len(input.CustomerName) > 200 {
		errors = append(errors, ValidationError{"customer_name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.CustomerPhone) != "" && !isValidPhoneNumber(input.CustomerPhone) {
		errors = append(errors, ValidationError{"customer_phone", "must be a valid Norwegian phone number"})
	}

	if strings.TrimSpace(input.ZipCode) != "" && !zipCodePattern.MatchString(strings.TrimSpace(input.ZipCode)) {
		errors = append(errors, ValidationError{"zip_code", "must be a 4 digit postal code"})
	}

	if len(input.Metadata) > maxMetadataEntries {
		errors = append(errors, ValidationError{"metadata", fmt.Sprintf("must not have more than %d entries", maxMetadataEntries)})
	}
	keys := make([]string, 0, len(input.Metadata))
	for k := range input.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(input.Metadata[k]) > maxMetadataValue {
			errors = append(errors, ValidationError{"metadata." + k, fmt.Sprintf("must not exceed %d characters", maxMetadataValue)})
		}
	}

	return errors
}

// isValidPhoneNumber accepts 8 digit Norwegian numbers, optionally prefixed
// with the country code (+47 / 0047).
func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigit.ReplaceAllString(phone, "")
	switch {
	case len(cleaned) == 8:
	case len(cleaned) == 10 && strings.HasPrefix(cleaned, "47"):
		cleaned = cleaned[2:]
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "0047"):
		cleaned = cleaned[4:]
	default:
		return false
	}
	// Norwegian mobile numbers start with 4 or 9, landlines with 2, 3, 5, 6 or 7.
	return strings.ContainsRune("2345679", rune(cleaned[0]))
}

func joinValidationErrors(errs []ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+" ("+e.Message+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
