// Package render turns parsed lessons into the HTML view model the site
// templates consume.
package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/gmatprep/internal/mathtex"
)

// Renderer converts lesson markdown to sanitized HTML. It holds no mutable
// state and is safe for concurrent use.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// New builds a renderer. math may be nil for the hook-less default.
func New(math *mathtex.Renderer) *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.Typographer,
				mathtex.Extension(math),
			),
			goldmark.WithRendererOptions(html.WithXHTML()),
		),
		sanitizer: mathtex.AllowMath(bluemonday.UGCPolicy()),
	}
}

// Markdown renders src to sanitized HTML.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// Inline renders a short fragment such as an answer option without the
// wrapping paragraph.
func (r *Renderer) Inline(src string) (template.HTML, error) {
	out, err := r.Markdown(src)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(out))
	if strings.HasPrefix(s, "<p>") && strings.HasSuffix(s, "</p>") && strings.Count(s, "<p>") == 1 {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "<p>"), "</p>")
	}
	return template.HTML(s), nil
}

// PlainText extracts readable text from rendered HTML. Math elements
// contribute their spoken label rather than the TeX source.
func PlainText(fragment template.HTML) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(fragment)))
	if err != nil {
		return ""
	}
	doc.Find("[data-tex]").Each(func(_ int, s *goquery.Selection) {
		if label, ok := s.Attr("aria-label"); ok {
			s.SetText(label)
		}
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
