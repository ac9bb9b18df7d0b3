package siteconfig

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid generation config")

// Validate applies the form rules. The generation engine trusts its input,
// so every caller that builds a Config from user data runs this first.
func Validate(c Config) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}
	required := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			add(field, "is required")
		}
	}
	maxLen := func(field, v string, n int) {
		if utf8.RuneCountInString(v) > n {
			add(field, "must be at most %d characters", n)
		}
	}

	required("websiteIdea", c.WebsiteIdea)
	required("websiteType", c.WebsiteType)
	required("industry", c.Industry)
	required("targetAudience", c.TargetAudience)
	required("primaryColor", c.PrimaryColor)
	required("accentColor", c.AccentColor)
	required("fontStyle", c.FontStyle)
	required("brandTone", c.BrandTone)
	required("layoutPreference", c.LayoutPreference)
	required("iconStyle", c.IconStyle)
	if len(c.KeyPages) == 0 {
		add("keyPages", "at least one page is required")
	}
	if c.NumberOfSections < 3 || c.NumberOfSections > 10 {
		add("numberOfSections", "must be between 3 and 10")
	}
	if c.IncludeTestimonials && (c.NumberOfTestimonials < 1 || c.NumberOfTestimonials > 5) {
		add("numberOfTestimonials", "must be between 1 and 5")
	}
	if c.IncludeBlogPosts && (c.NumberOfBlogPosts < 1 || c.NumberOfBlogPosts > 5) {
		add("numberOfBlogPosts", "must be between 1 and 5")
	}
	maxLen("seoKeywords", c.SEOKeywords, 200)
	maxLen("ctaText", c.CTAText, 50)
	maxLen("ctaLink", c.CTALink, 100)
	maxLen("footerContent", c.FooterContent, 200)
	maxLen("customCssSnippets", c.CustomCSSSnippets, 500)
	maxLen("customJsSnippets", c.CustomJSSnippets, 500)

	if c.Temperature < 0 || c.Temperature > 2 {
		add("temperature", "must be between 0 and 2")
	}
	if c.TopP < 0 || c.TopP > 1 {
		add("topP", "must be between 0 and 1")
	}
	if c.TopK < 1 {
		add("topK", "must be at least 1")
	}
	if c.MaxOutputTokens < 1 {
		add("maxOutputTokens", "must be at least 1")
	}
	if c.ThinkingBudget < 0 {
		add("thinkingBudget", "must not be negative")
	}
	if !c.OutputMode.Valid() {
		add("outputMode", "must be %q or %q", OutputText, OutputJSON)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
