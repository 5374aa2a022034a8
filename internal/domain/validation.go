package domain

import (
	"fmt"
	"strings"
)

// ValidationResult lists every structural defect found in a template.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateTemplate checks a template for structural defects and returns all
// of them, not just the first. It has no side effects.
func ValidateTemplate(t *Template) ValidationResult {
	errs := []string{}
	if t == nil {
		return ValidationResult{Valid: false, Errors: []string{"Missing template data"}}
	}

	if t.ID == "" {
		errs = append(errs, "Template ID is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, "Template name is required")
	}

	if t.Elements == nil {
		errs = append(errs, "Template elements must be an array")
	} else {
		errs = append(errs, validateElements("Element", t.Elements)...)
	}
	for p, page := range t.Pages {
		errs = append(errs, validateElements(fmt.Sprintf("Page %d element", p+1), page.Elements)...)
	}

	switch t.PageSize {
	case PageSizeA4, PageSizeLetter, PageSizeLegal:
	default:
		errs = append(errs, fmt.Sprintf("Invalid page size: %s", t.PageSize))
	}

	switch t.Orientation {
	case OrientationPortrait, OrientationLandscape:
	default:
		errs = append(errs, fmt.Sprintf("Invalid orientation: %s", t.Orientation))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateElements(label string, elements []DocumentElement) []string {
	var errs []string
	for i, el := range elements {
		if el.ID == "" {
			errs = append(errs, fmt.Sprintf("%s at index %d is missing an ID", label, i))
		}
		if el.Type == "" {
			errs = append(errs, fmt.Sprintf("%s at index %d is missing a type", label, i))
		}
		if el.Position == nil {
			errs = append(errs, fmt.Sprintf("%s at index %d is missing position", label, i))
		}
		if el.Size == nil {
			errs = append(errs, fmt.Sprintf("%s at index %d is missing size", label, i))
		}
	}
	return errs
}
