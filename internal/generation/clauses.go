package generation

import (
	"fmt"
	"strings"

	"sitegen/internal/siteconfig"
)

// clause is one gated fragment of composed text. Clauses are evaluated in
// table order; a clause is either rendered whole or skipped.
type clause struct {
	name string
	when func(c siteconfig.Config, p Policy) bool
	text func(c siteconfig.Config, p Policy) string
}

func always(siteconfig.Config, Policy) bool { return true }

func literal(s string) func(siteconfig.Config, Policy) string {
	return func(siteconfig.Config, Policy) string { return s }
}

func hasText(field func(siteconfig.Config) string) func(siteconfig.Config, Policy) bool {
	return func(c siteconfig.Config, _ Policy) bool { return strings.TrimSpace(field(c)) != "" }
}

func flag(field func(siteconfig.Config) bool) func(siteconfig.Config, Policy) bool {
	return func(c siteconfig.Config, _ Policy) bool { return field(c) }
}

// Clause names, in evaluation order.
const (
	ClauseTone          = "tone"
	ClauseAnimation     = "animation"
	ClauseLanguage      = "language"
	ClauseAccessibility = "accessibility"
	ClausePerformance   = "performance"
	ClauseUserDirective = "user_directive"

	ClauseBase            = "base"
	ClauseSampleContent   = "sample_content"
	ClauseContentStrategy = "content_strategy"
	ClauseStructuredData  = "structured_data"
	ClauseSEOKeywords     = "seo_keywords"
	ClauseCTA             = "cta"
	ClauseTestimonials    = "testimonials"
	ClauseBlog            = "blog"
	ClauseFooter          = "footer"
	ClauseImagePrompt     = "image_prompt"
	ClauseVideoPrompt     = "video_prompt"
	ClausePreloader       = "preloader"
	ClauseCookieConsent   = "cookie_consent"
	ClauseFeatureList     = "feature_checklist"
	ClausePayment         = "payment"
	ClauseCRM             = "crm"
	ClauseEmailMarketing  = "email_marketing"
	ClauseCustomCSS       = "custom_css"
	ClauseCustomJS        = "custom_js"
	ClauseClosing         = "closing"
	ClauseStructuredShape = "structured_output"
)

const personaPreamble = "You are an expert web designer and front-end developer. " +
	"You plan website structure, write production-ready copy and suggest modern, accessible markup styled with Tailwind CSS."

var toneInstructions = map[string]string{
	"Professional":  "Keep the voice professional: precise, confident and free of slang.",
	"Playful":       "Keep the voice playful: light, witty and warm without losing clarity.",
	"Innovative":    "Keep the voice innovative: forward-looking and bold, highlighting what is new.",
	"Minimalist":    "Keep the voice minimalist: short sentences, no filler, every word earns its place.",
	"Luxurious":     "Keep the voice luxurious: refined, elegant and exclusive.",
	"Friendly":      "Keep the voice friendly: approachable, conversational and encouraging.",
	"Authoritative": "Keep the voice authoritative: expert, evidence-driven and decisive.",
}

var animationInstructions = map[string]string{
	"Subtle":    "Prefer subtle motion: short fades and gentle hover states only.",
	"Moderate":  "Use moderate motion: hover transforms and scroll-triggered fades on major sections.",
	"Energetic": "Use energetic motion: pronounced hover effects, staggered scroll reveals and a dark mode variant.",
}

var systemClauses = []clause{
	{
		name: ClauseTone,
		when: func(c siteconfig.Config, _ Policy) bool { _, ok := toneInstructions[c.BrandTone]; return ok },
		text: func(c siteconfig.Config, _ Policy) string { return toneInstructions[c.BrandTone] },
	},
	{
		name: ClauseAnimation,
		when: func(c siteconfig.Config, _ Policy) bool { _, ok := animationInstructions[c.AnimationIntensity]; return ok },
		text: func(c siteconfig.Config, _ Policy) string { return animationInstructions[c.AnimationIntensity] },
	},
	{
		name: ClauseLanguage,
		when: hasText(func(c siteconfig.Config) string { return c.LanguagePreference }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("Write all user-facing copy in %s.", strings.TrimSpace(c.LanguagePreference))
		},
	},
	{
		name: ClauseAccessibility,
		when: flag(func(c siteconfig.Config) bool { return c.AccessibilityAudit }),
		text: literal("Follow WCAG 2.1 AA: semantic landmarks, alt text, visible focus states and sufficient color contrast."),
	},
	{
		name: ClausePerformance,
		when: flag(func(c siteconfig.Config) bool { return c.PerformanceTips }),
		text: literal("Favor fast pages: lazy-load media, keep scripts deferred and avoid layout shift."),
	},
	{
		name: ClauseUserDirective,
		when: hasText(func(c siteconfig.Config) string { return c.SystemInstruction }),
		text: func(c siteconfig.Config, _ Policy) string { return c.SystemInstruction },
	},
}

func yesNo(b bool, yes string) string {
	if b {
		return yes
	}
	return "No"
}

var turnClauses = []clause{
	{
		name: ClauseBase,
		when: always,
		text: func(c siteconfig.Config, _ Policy) string {
			var b strings.Builder
			fmt.Fprintf(&b, "Generate a website outline and content for a %s website.\n", c.WebsiteType)
			fmt.Fprintf(&b, "The website idea is: \"%s\".\n", c.WebsiteIdea)
			fmt.Fprintf(&b, "The website is for the industry \"%s\" and targets \"%s\".\n", c.Industry, c.TargetAudience)
			fmt.Fprintf(&b, "The brand tone should be \"%s\" with a %s animation style.\n", c.BrandTone, strings.ToLower(c.AnimationIntensity))
			fmt.Fprintf(&b, "Key pages to include are: %s.\n", strings.Join(c.KeyPages, ", "))
			fmt.Fprintf(&b, "Design preferences: primary color %s, accent color %s, font style %s, layout %s, icon style %s.\n",
				c.PrimaryColor, c.AccentColor, c.FontStyle, c.LayoutPreference, c.IconStyle)
			fmt.Fprintf(&b, "The homepage should have around %d sections.", c.NumberOfSections)
			return b.String()
		},
	},
	{
		name: ClauseSampleContent,
		when: flag(func(c siteconfig.Config) bool { return c.GenerateSampleContent }),
		text: literal("Generate detailed sample content for these sections."),
	},
	{
		name: ClauseContentStrategy,
		when: flag(func(c siteconfig.Config) bool { return c.GenerateContentStrategy }),
		text: literal("Also, provide a brief content strategy for each major section."),
	},
	{
		name: ClauseStructuredData,
		when: flag(func(c siteconfig.Config) bool { return c.IncludeStructuredData }),
		text: literal("Suggest relevant Schema.org structured data markup examples."),
	},
	{
		name: ClauseSEOKeywords,
		when: func(c siteconfig.Config, _ Policy) bool {
			return c.IncludeSEOKeywords && strings.TrimSpace(c.SEOKeywords) != ""
		},
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("Incorporate these SEO keywords: %s.", c.SEOKeywords)
		},
	},
	{
		name: ClauseCTA,
		when: flag(func(c siteconfig.Config) bool { return c.IncludeCTA }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("Include a strong Call-to-Action with text \"%s\" linking to \"%s\".", c.CTAText, c.CTALink)
		},
	},
	{
		name: ClauseTestimonials,
		when: flag(func(c siteconfig.Config) bool { return c.IncludeTestimonials }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("Add a testimonials section with %d examples.", c.NumberOfTestimonials)
		},
	},
	{
		name: ClauseBlog,
		when: flag(func(c siteconfig.Config) bool { return c.IncludeBlogPosts }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("Include a blog section with %d post ideas/summaries.", c.NumberOfBlogPosts)
		},
	},
	{
		name: ClauseFooter,
		when: hasText(func(c siteconfig.Config) string { return c.FooterContent }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("The footer should include: %s.", c.FooterContent)
		},
	},
	{
		name: ClauseImagePrompt,
		when: hasText(func(c siteconfig.Config) string { return c.ImageGenerationPrompt }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("For images, consider: %s.", c.ImageGenerationPrompt)
		},
	},
	{
		name: ClauseVideoPrompt,
		when: hasText(func(c siteconfig.Config) string { return c.VideoGenerationPrompt }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("For videos, consider: %s.", c.VideoGenerationPrompt)
		},
	},
	{
		name: ClausePreloader,
		when: flag(func(c siteconfig.Config) bool { return c.IncludePreloader }),
		text: literal("Include a simple preloader/loading animation suggestion."),
	},
	{
		name: ClauseCookieConsent,
		when: flag(func(c siteconfig.Config) bool { return c.IncludeCookieConsent }),
		text: literal("Add a cookie consent banner suggestion."),
	},
	{
		name: ClauseFeatureList,
		when: always,
		text: func(c siteconfig.Config, _ Policy) string {
			lines := []string{
				"Additional features to consider:",
				"- Responsive Design: " + yesNo(c.ResponsiveDesign, "Yes"),
				"- Accessibility Audit: " + yesNo(c.AccessibilityAudit, "Provide suggestions"),
				"- Performance Optimization: " + yesNo(c.PerformanceTips, "Provide tips"),
				"- Social Media Integration: " + yesNo(c.IntegrateSocialMedia, "Yes"),
				"- Contact Form: " + yesNo(c.IncludeContactForm, "Yes"),
				"- User Authentication: " + yesNo(c.RequireUserAuth, "Yes"),
				"- Analytics Integration: " + yesNo(c.IncludeAnalytics, "Yes"),
			}
			return "\n" + strings.Join(lines, "\n") + "\n"
		},
	},
	{
		name: ClausePayment,
		when: flag(func(c siteconfig.Config) bool { return c.EnablePaymentGatewaySuggestions }),
		text: literal("Suggest payment gateway integration for e-commerce sites."),
	},
	{
		name: ClauseCRM,
		when: flag(func(c siteconfig.Config) bool { return c.EnableCRMIntegrationSuggestions }),
		text: literal("Suggest CRM integrations for the contact form."),
	},
	{
		name: ClauseEmailMarketing,
		when: flag(func(c siteconfig.Config) bool { return c.EnableEmailMarketingSuggestions }),
		text: literal("Suggest email marketing platform integrations."),
	},
	{
		name: ClauseCustomCSS,
		when: hasText(func(c siteconfig.Config) string { return c.CustomCSSSnippets }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("Also, assume the generated website might include custom CSS like: %s.", c.CustomCSSSnippets)
		},
	},
	{
		name: ClauseCustomJS,
		when: hasText(func(c siteconfig.Config) string { return c.CustomJSSnippets }),
		text: func(c siteconfig.Config, _ Policy) string {
			return fmt.Sprintf("And custom JS like: %s.", c.CustomJSSnippets)
		},
	},
	{
		name: ClauseClosing,
		when: always,
		text: func(c siteconfig.Config, _ Policy) string {
			lang := strings.TrimSpace(c.LanguagePreference)
			if lang == "" {
				lang = "English"
			}
			lines := []string{
				fmt.Sprintf("The generated content should be primarily in %s.", lang),
				"Provide a concise HTML-like structure outline for the main homepage elements and example content for its sections, using modern web design principles and Tailwind CSS class suggestions.",
				"Crucially, include sophisticated hover animations for interactive elements (buttons, links, cards, images) using Tailwind CSS classes like hover:scale-105, hover:shadow-xl, hover:bg-blue-600, hover:text-white, hover:translate-y-[-4px], and smooth transition classes (e.g., transition duration-300 ease-in-out).",
				"Also, incorporate scroll animations for major sections or components using classes similar to 'scroll-fade-in'.",
				"Include dark mode considerations if the animation intensity is 'Energetic'.",
			}
			return "\n" + strings.Join(lines, "\n")
		},
	},
	{
		name: ClauseStructuredShape,
		when: func(_ siteconfig.Config, p Policy) bool { return p.Structured() },
		text: func(_ siteconfig.Config, p Policy) string {
			s := StructuredOutputInstruction
			if p.PromptSchemaHint != "" {
				s += " Additional structure guidance: " + p.PromptSchemaHint
			}
			return "\n" + s
		},
	},
}

// StructuredOutputInstruction is appended to the first turn of json-mode runs.
const StructuredOutputInstruction = "Respond with a JSON array only, with no surrounding prose or code fences. " +
	"Each element must be an object with exactly two string fields: \"path\" (a relative file path such as index.html) " +
	"and \"content\" (the complete file content)."
