package export

import (
	"errors"
	"strings"
	"testing"

	"sitegen/internal/generation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	ok := map[string]string{
		"index.html":          "index.html",
		"./css/site.css":      "css/site.css",
		"js\\app.js":          "js/app.js",
		"pages/../about.html": "about.html",
		" assets//logo.svg ":  "assets/logo.svg",
	}
	for in, want := range ok {
		got, err := CleanPath(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "/etc/passwd", "../secret", "a/../../b", ".", "C:/x"} {
		_, err := CleanPath(bad)
		require.True(t, errors.Is(err, ErrInvalidPath), bad)
	}
}

func TestFiles_Artifacts(t *testing.T) {
	files, err := Files(generation.Result{Kind: generation.ResultArtifacts, Artifacts: []generation.Artifact{
		{Path: "index.html", Content: "<h1>x</h1>"},
		{Path: "css/site.css", Content: "body{}"},
	}})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "index.html", files[0].Path)
	assert.True(t, strings.HasPrefix(files[0].ContentType, "text/html"))
	assert.True(t, strings.HasPrefix(files[1].ContentType, "text/css"))
	assert.Equal(t, "body{}", string(files[1].Content))
}

func TestFiles_DuplicateAfterCleaning(t *testing.T) {
	_, err := Files(generation.Result{Kind: generation.ResultArtifacts, Artifacts: []generation.Artifact{
		{Path: "index.html", Content: "a"},
		{Path: "./index.html", Content: "b"},
	}})
	require.True(t, errors.Is(err, ErrDuplicatePath))
}

func TestFiles_Freeform(t *testing.T) {
	files, err := Files(generation.Result{
		Kind:      generation.ResultFreeform,
		Freeform:  "# Portfolio\n\n<section class=\"scroll-fade-in\">Hi</section>\n",
		Citations: []generation.Citation{{URI: "https://a.example"}},
	})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "index.md", files[0].Path)
	page := string(files[1].Content)
	assert.Contains(t, page, "<h1>Portfolio</h1>")
	assert.Contains(t, page, `<section class="scroll-fade-in">Hi</section>`)
	assert.Contains(t, page, `href="https://a.example"`)
}

func TestFiles_NothingToExport(t *testing.T) {
	for _, r := range []generation.Result{
		{Kind: generation.ResultError, Err: generation.NewError(generation.StructuredDecodeFailure, "interpret", errors.New("x"))},
		{Kind: generation.ResultFreeform, Freeform: "partial", Streaming: true},
		{Kind: generation.ResultArtifacts},
	} {
		_, err := Files(r)
		require.True(t, errors.Is(err, ErrNothingToExport))
	}
}
