package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"path"
	"strings"

	"sitegen/internal/generation"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	ErrNothingToExport = errors.New("result has nothing to export")
	ErrInvalidPath     = errors.New("invalid artifact path")
	ErrDuplicatePath   = errors.New("duplicate artifact path")
)

// File is one exported file.
type File struct {
	Path        string
	Content     []byte
	ContentType string
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// Model output routinely mixes raw HTML into markdown.
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// Files turns a final result into files. Artifact results map one to one;
// freeform results become index.md plus a rendered index.html.
func Files(r generation.Result) ([]File, error) {
	switch r.Kind {
	case generation.ResultArtifacts:
		return artifactFiles(r.Artifacts)
	case generation.ResultFreeform:
		if r.Streaming || strings.TrimSpace(r.Freeform) == "" {
			return nil, ErrNothingToExport
		}
		return freeformFiles(r.Freeform, r.Citations)
	default:
		return nil, ErrNothingToExport
	}
}

func artifactFiles(arts []generation.Artifact) ([]File, error) {
	if len(arts) == 0 {
		return nil, ErrNothingToExport
	}
	seen := make(map[string]bool, len(arts))
	out := make([]File, 0, len(arts))
	for _, a := range arts {
		p, err := CleanPath(a.Path)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, p)
		}
		seen[p] = true
		out = append(out, File{Path: p, Content: []byte(a.Content), ContentType: ContentType(p)})
	}
	return out, nil
}

func freeformFiles(text string, cites []generation.Citation) ([]File, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(text), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	var page bytes.Buffer
	err := pageTmpl.Execute(&page, pageData{Body: template.HTML(body.String()), Citations: cites})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return []File{
		{Path: "index.md", Content: []byte(text), ContentType: ContentType("index.md")},
		{Path: "index.html", Content: page.Bytes(), ContentType: ContentType("index.html")},
	}, nil
}

// CleanPath normalises a model-supplied relative path. Absolute paths and
// paths escaping the root are rejected.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return c, nil
}

// ContentType guesses a MIME type from the file extension.
func ContentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case "":
		return "text/plain; charset=utf-8"
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type pageData struct {
	Body      template.HTML
	Citations []generation.Citation
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Generated Site</title>
<script src="https://cdn.tailwindcss.com"></script>
<style>
body { font-family: sans-serif; margin: 0; padding: 1rem; background-color: #f8fafc; color: #334155; }
h1, h2, h3 { color: #1e3a8a; }
.scroll-fade-in { opacity: 0; transform: translateY(20px); transition: opacity 0.6s ease-out, transform 0.6s ease-out; }
.scroll-fade-in.animated { opacity: 1; transform: translateY(0); }
</style>
</head>
<body>
{{.Body}}
{{- if .Citations}}
<footer>
<h2>Sources</h2>
<ul>
{{- range .Citations}}
<li><a href="{{.URI}}">{{if .Title}}{{.Title}}{{else}}{{.URI}}{{end}}</a></li>
{{- end}}
</ul>
</footer>
{{- end}}
<script>
document.addEventListener('DOMContentLoaded', () => {
  const observer = new IntersectionObserver(entries => {
    entries.forEach(entry => {
      if (entry.isIntersecting) {
        entry.target.classList.add('animated');
        observer.unobserve(entry.target);
      }
    });
  }, { threshold: 0.1 });
  document.querySelectorAll('.scroll-fade-in').forEach(el => observer.observe(el));
});
</script>
</body>
</html>
`))
