package siteconfig

// Option lists offered by the configuration form.
var (
	KeyPageOptions      = []string{"Home", "About", "Services", "Contact", "Blog", "Products", "FAQ", "Gallery", "Testimonials", "Pricing"}
	WebsiteTypes        = []string{"Blog", "E-commerce", "Portfolio", "Landing Page", "Corporate", "Community", "News Portal"}
	BrandTones          = []string{"Professional", "Playful", "Innovative", "Minimalist", "Luxurious", "Friendly", "Authoritative"}
	FontStyles          = []string{"Sans-serif (Modern)", "Serif (Classic)", "Monospace (Techy)"}
	LayoutPreferences   = []string{"Modern Grid", "Minimalist", "Bold & Dynamic", "Classic & Elegant"}
	IconStyles          = []string{"Line Icons", "Solid Icons", "Duotone Icons", "Flat Icons"}
	AnimationIntensities = []string{"Subtle", "Moderate", "Energetic"}
)

const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
	DefaultTopK            = 64
	DefaultMaxOutputTokens = 2048
	DefaultThinkingBudget  = 500
)

// Default returns the configuration the form starts with.
func Default() Config {
	return Config{
		WebsiteIdea:      "A sophisticated online portfolio for a freelance graphic designer.",
		WebsiteType:      "Portfolio",
		Industry:         "Graphic Design",
		TargetAudience:   "Potential clients seeking high-quality design work",
		KeyPages:         []string{"Home", "About", "Services", "Contact", "Gallery"},
		NumberOfSections: 5,

		PrimaryColor:       "#3B82F6",
		AccentColor:        "#60A5FA",
		FontStyle:          "Sans-serif (Modern)",
		BrandTone:          "Professional",
		LayoutPreference:   "Modern Grid",
		IconStyle:          "Line Icons",
		AnimationIntensity: "Moderate",
		LanguagePreference: "English",

		GenerateSampleContent: true,
		IncludeSEOKeywords:    true,
		SEOKeywords:           "graphic design portfolio, freelance designer, branding, web design",
		IncludeCTA:            true,
		CTAText:               "View My Portfolio",
		CTALink:               "#portfolio",
		IncludeTestimonials:   true,
		NumberOfTestimonials:  3,
		NumberOfBlogPosts:     3,
		FooterContent:         "Copyright 2024. All Rights Reserved. Privacy Policy. Terms of Service.",

		ResponsiveDesign:     true,
		AccessibilityAudit:   true,
		PerformanceTips:      true,
		IntegrateSocialMedia: true,
		IncludeContactForm:   true,
		IncludeAnalytics:     true,

		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		TopK:            DefaultTopK,
		MaxOutputTokens: DefaultMaxOutputTokens,
		ThinkingBudget:  DefaultThinkingBudget,
		OutputMode:      OutputText,
	}
}
