// Package validator checks loaded product and listing records and reports
// per-field problems. Problems are advisory: a product missing its
// manufacturer or model still flows through matching and simply matches
// nothing.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
)

const maxTitleLength = 4096

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidateProduct reports missing identity fields on a product.
func ValidateProduct(p *record.Product) error {
	errs := make(map[string]string)
	if strings.TrimSpace(p.ProductName) == "" {
		errs["product_name"] = "product_name is required"
	}
	if strings.TrimSpace(p.Manufacturer) == "" {
		errs["manufacturer"] = "manufacturer is required to match anything"
	}
	if strings.TrimSpace(p.Model) == "" {
		errs["model"] = "model is required to match anything"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateListing reports listing fields that make the listing unmatchable.
func ValidateListing(l *record.Listing) error {
	errs := make(map[string]string)
	title := strings.TrimSpace(l.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if strings.TrimSpace(l.Manufacturer) == "" {
		errs["manufacturer"] = "manufacturer is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
