package generation

import (
	"strings"
	"testing"

	"sitegen/internal/siteconfig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_Deterministic(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputJSON
	cfg.JSONSchemaDescription = "include a css file"
	p := Resolve(cfg)

	a := Compose(cfg, p)
	b := Compose(cfg.Clone(), Resolve(cfg))
	require.Equal(t, b.SystemInstruction, a.SystemInstruction)
	require.Equal(t, b.TurnPrompt, a.TurnPrompt)
	require.Equal(t, b.Params, a.Params)
}

func TestCompose_PortfolioCTAScenario(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.WebsiteType = "Portfolio"
	cfg.EnableGoogleSearch = false
	cfg.OutputMode = siteconfig.OutputText
	cfg.IncludeCTA = true
	cfg.CTAText = "View My Work"

	req := Compose(cfg, Resolve(cfg))
	assert.Contains(t, req.TurnPrompt, "View My Work")
	assert.NotContains(t, req.TurnPrompt, StructuredOutputInstruction)
	assert.NotContains(t, req.TurnPrompt, `"path"`)
	assert.NotContains(t, req.TurnPrompt, "JSON array")
}

func TestCompose_TurnClauseOrder(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.GenerateSampleContent = true
	cfg.GenerateContentStrategy = true
	cfg.IncludeStructuredData = true
	cfg.IncludeSEOKeywords = true
	cfg.IncludeCTA = true
	cfg.IncludeTestimonials = true
	cfg.IncludeBlogPosts = true
	cfg.ImageGenerationPrompt = "warm studio photos"
	cfg.VideoGenerationPrompt = "short reel"
	cfg.IncludePreloader = true
	cfg.IncludeCookieConsent = true
	cfg.EnablePaymentGatewaySuggestions = true
	cfg.EnableCRMIntegrationSuggestions = true
	cfg.EnableEmailMarketingSuggestions = true
	cfg.CustomCSSSnippets = ".hero{color:red}"
	cfg.CustomJSSnippets = "console.log(1)"
	cfg.OutputMode = siteconfig.OutputJSON

	want := []string{
		ClauseBase, ClauseSampleContent, ClauseContentStrategy, ClauseStructuredData,
		ClauseSEOKeywords, ClauseCTA, ClauseTestimonials, ClauseBlog, ClauseFooter,
		ClauseImagePrompt, ClauseVideoPrompt, ClausePreloader, ClauseCookieConsent,
		ClauseFeatureList, ClausePayment, ClauseCRM, ClauseEmailMarketing,
		ClauseCustomCSS, ClauseCustomJS, ClauseClosing, ClauseStructuredShape,
	}
	p := Resolve(cfg)
	require.Equal(t, want, TurnClauses(cfg, p))

	// Rendered text follows the same order.
	prompt := Compose(cfg, p).TurnPrompt
	markers := []string{
		"Generate a website outline",
		"Generate detailed sample content",
		"brief content strategy",
		"Schema.org structured data",
		"Incorporate these SEO keywords",
		"Call-to-Action",
		"testimonials section with 3 examples",
		"blog section with 3 post ideas",
		"The footer should include",
		"For images, consider: warm studio photos.",
		"For videos, consider: short reel.",
		"preloader/loading animation",
		"cookie consent banner",
		"Additional features to consider:",
		"payment gateway integration",
		"CRM integrations",
		"email marketing platform",
		"custom CSS like: .hero{color:red}.",
		"custom JS like: console.log(1).",
		"The generated content should be primarily in English.",
		StructuredOutputInstruction,
	}
	last := -1
	for _, m := range markers {
		i := strings.Index(prompt, m)
		require.GreaterOrEqual(t, i, 0, "missing %q", m)
		require.Greater(t, i, last, "out of order: %q", m)
		last = i
	}
}

func TestCompose_ClausesAbsentWhenGatedOff(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.GenerateSampleContent = false
	cfg.IncludeSEOKeywords = false
	cfg.IncludeCTA = false
	cfg.IncludeTestimonials = false
	cfg.FooterContent = "   "

	p := Resolve(cfg)
	require.Equal(t, []string{ClauseBase, ClauseFeatureList, ClauseClosing}, TurnClauses(cfg, p))

	prompt := Compose(cfg, p).TurnPrompt
	assert.NotContains(t, prompt, "Call-to-Action")
	assert.NotContains(t, prompt, "footer should include")
	assert.Contains(t, prompt, "- Contact Form: Yes")
	assert.Contains(t, prompt, "- User Authentication: No")
}

func TestCompose_SEOClauseNeedsKeywords(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.IncludeSEOKeywords = true
	cfg.SEOKeywords = ""
	require.False(t, contains(TurnClauses(cfg, Resolve(cfg)), ClauseSEOKeywords))
}

func TestCompose_StructuredHint(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputJSON
	cfg.JSONSchemaDescription = "put styles in css/site.css"

	prompt := Compose(cfg, Resolve(cfg)).TurnPrompt
	assert.True(t, strings.HasSuffix(prompt, StructuredOutputInstruction+" Additional structure guidance: put styles in css/site.css"))

	cfg.JSONSchemaDescription = ""
	prompt = Compose(cfg, Resolve(cfg)).TurnPrompt
	assert.True(t, strings.HasSuffix(prompt, StructuredOutputInstruction))
}

func TestCompose_SearchDropsStructuredInstruction(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.OutputMode = siteconfig.OutputJSON
	cfg.EnableGoogleSearch = true
	prompt := Compose(cfg, Resolve(cfg)).TurnPrompt
	assert.NotContains(t, prompt, StructuredOutputInstruction)
}

func TestCompose_SystemInstruction(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.BrandTone = "Playful"
	cfg.AnimationIntensity = "Energetic"
	cfg.LanguagePreference = "Spanish"
	cfg.AccessibilityAudit = true
	cfg.PerformanceTips = false
	cfg.SystemInstruction = "Never mention competitors."

	p := Resolve(cfg)
	require.Equal(t, []string{ClauseTone, ClauseAnimation, ClauseLanguage, ClauseAccessibility, ClauseUserDirective}, SystemClauses(cfg, p))

	si := Compose(cfg, p).SystemInstruction
	require.True(t, strings.HasPrefix(si, personaPreamble))
	assert.Contains(t, si, toneInstructions["Playful"])
	assert.Contains(t, si, animationInstructions["Energetic"])
	assert.Contains(t, si, "Write all user-facing copy in Spanish.")
	assert.True(t, strings.HasSuffix(si, "\nNever mention competitors."))
	assert.NotContains(t, si, "lazy-load")
}

func TestCompose_UnknownToneOmitted(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.BrandTone = "Grumpy"
	require.False(t, contains(SystemClauses(cfg, Resolve(cfg)), ClauseTone))
}

func TestCompose_ParamsCopiedVerbatim(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.Temperature = 1.3
	cfg.TopP = 0.5
	cfg.TopK = 7
	cfg.MaxOutputTokens = 999
	cfg.ThinkingBudget = 0

	got := Compose(cfg, Resolve(cfg)).Params
	require.Equal(t, Params{Temperature: 1.3, TopP: 0.5, TopK: 7, MaxOutputTokens: 999, ThinkingBudget: 0}, got)
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func TestCompose_InterpolatesUserTextVerbatim(t *testing.T) {
	cfg := siteconfig.Default()
	cfg.WebsiteIdea = `A "cozy" cafe\nwith C:\menus`
	cfg.CTAText = `Book "now"`
	cfg.CTALink = "#book"

	prompt := Compose(cfg, Resolve(cfg)).TurnPrompt
	assert.Contains(t, prompt, `The website idea is: "A "cozy" cafe\nwith C:\menus".`)
	assert.Contains(t, prompt, `Include a strong Call-to-Action with text "Book "now"" linking to "#book".`)
	assert.Contains(t, prompt, `The website is for the industry "Graphic Design" and targets "Potential clients seeking high-quality design work".`)
	assert.NotContains(t, prompt, `\"`)
}
