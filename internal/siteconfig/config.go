package siteconfig

// OutputMode is the user's preferred response format.
type OutputMode string

const (
	OutputText OutputMode = "text"
	OutputJSON OutputMode = "json"
)

// MIMEType maps the mode to the response MIME type understood by model services.
func (m OutputMode) MIMEType() string {
	if m == OutputJSON {
		return "application/json"
	}
	return "text/plain"
}

// Valid reports whether m is a known mode.
func (m OutputMode) Valid() bool {
	return m == OutputText || m == OutputJSON
}

// Config is the snapshot of every option the user picked for one generation run.
// It is built once from validated form data and passed by value afterwards;
// refinement turns reuse the same snapshot.
type Config struct {
	// Content intent.
	WebsiteIdea      string   `json:"websiteIdea"`
	WebsiteType      string   `json:"websiteType"`
	Industry         string   `json:"industry"`
	TargetAudience   string   `json:"targetAudience"`
	KeyPages         []string `json:"keyPages"`
	NumberOfSections int      `json:"numberOfSections"`

	// Design preferences.
	PrimaryColor       string `json:"primaryColor"`
	AccentColor        string `json:"accentColor"`
	FontStyle          string `json:"fontStyle"`
	BrandTone          string `json:"brandTone"`
	LayoutPreference   string `json:"layoutPreference"`
	IconStyle          string `json:"iconStyle"`
	AnimationIntensity string `json:"animationIntensity"`
	LanguagePreference string `json:"languagePreference"`

	// Content toggles.
	GenerateSampleContent   bool   `json:"generateSampleContent"`
	GenerateContentStrategy bool   `json:"generateContentStrategy"`
	IncludeStructuredData   bool   `json:"includeStructuredData"`
	IncludeSEOKeywords      bool   `json:"includeSEOKeywords"`
	SEOKeywords             string `json:"seoKeywords"`
	IncludeCTA              bool   `json:"includeCTA"`
	CTAText                 string `json:"ctaText"`
	CTALink                 string `json:"ctaLink"`
	IncludeTestimonials     bool   `json:"includeTestimonials"`
	NumberOfTestimonials    int    `json:"numberOfTestimonials"`
	IncludeBlogPosts        bool   `json:"includeBlogPosts"`
	NumberOfBlogPosts       int    `json:"numberOfBlogPosts"`
	FooterContent           string `json:"footerContent"`
	ImageGenerationPrompt   string `json:"imageGenerationPrompt"`
	VideoGenerationPrompt   string `json:"videoGenerationPrompt"`
	IncludePreloader        bool   `json:"includePreloader"`
	IncludeCookieConsent    bool   `json:"includeCookieConsent"`

	// Feature checklist.
	ResponsiveDesign     bool `json:"responsiveDesign"`
	AccessibilityAudit   bool `json:"accessibilityAudit"`
	PerformanceTips      bool `json:"performanceTips"`
	IntegrateSocialMedia bool `json:"integrateSocialMedia"`
	IncludeContactForm   bool `json:"includeContactForm"`
	RequireUserAuth      bool `json:"requireUserAuth"`
	IncludeAnalytics     bool `json:"includeAnalytics"`

	// Integrations and custom code.
	EnablePaymentGatewaySuggestions bool   `json:"enablePaymentGatewaySuggestions"`
	EnableCRMIntegrationSuggestions bool   `json:"enableCrmIntegrationSuggestions"`
	EnableEmailMarketingSuggestions bool   `json:"enableEmailMarketingSuggestions"`
	CustomCSSSnippets               string `json:"customCssSnippets"`
	CustomJSSnippets                string `json:"customJsSnippets"`

	// Model parameters.
	Temperature           float64    `json:"temperature"`
	TopP                  float64    `json:"topP"`
	TopK                  int        `json:"topK"`
	MaxOutputTokens       int        `json:"maxOutputTokens"`
	ThinkingBudget        int        `json:"thinkingBudget"`
	SystemInstruction     string     `json:"systemInstruction"`
	OutputMode            OutputMode `json:"outputMode"`
	JSONSchemaDescription string     `json:"jsonSchemaDescription"`
	EnableGoogleSearch    bool       `json:"enableGoogleSearch"`
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	out := c
	if c.KeyPages != nil {
		out.KeyPages = append([]string(nil), c.KeyPages...)
	}
	return out
}
