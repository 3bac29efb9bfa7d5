// Package mathtex turns TeX math into markup that the site layout typesets
// with KaTeX in the browser. Malformed expressions never fail a page: they
// come back as an escaped fallback carrying the reason.
package mathtex

import (
	"fmt"
	"html"
	"html/template"
	"strings"
)

// Mode selects inline or display typesetting.
type Mode int

const (
	Inline Mode = iota
	Display
)

func (m Mode) String() string {
	if m == Display {
		return "display"
	}
	return "inline"
}

// Renderer renders expressions and reports failures to an optional hook.
type Renderer struct {
	onFailure func(mode Mode, err error)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFailureHook registers fn to be called for every expression that
// falls back to the error markup.
func WithFailureHook(fn func(mode Mode, err error)) Option {
	return func(r *Renderer) {
		r.onFailure = fn
	}
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render renders expr with a hook-less renderer.
func Render(expr string, mode Mode) template.HTML {
	return defaultRenderer.Render(expr, mode)
}

// Render returns the markup for expr. Display mode produces a block
// element, inline mode a span.
func (r *Renderer) Render(expr string, mode Mode) template.HTML {
	tag := "span"
	if mode == Display {
		tag = "div"
	}
	return r.render(expr, mode, tag)
}

// RenderInlineElement renders expr in the given mode but always as a span,
// for display math that sits inside a paragraph.
func (r *Renderer) RenderInlineElement(expr string, mode Mode) template.HTML {
	return r.render(expr, mode, "span")
}

// RenderUnclosed renders the body of a display block whose closing $$
// never came, as error markup.
func (r *Renderer) RenderUnclosed(expr string) template.HTML {
	return r.renderError(strings.TrimSpace(expr), Display, "div", ErrUnclosedDisplay)
}

func (r *Renderer) render(expr string, mode Mode, tag string) template.HTML {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return ""
	}

	if err := Check(trimmed); err != nil {
		return r.renderError(trimmed, mode, tag, err)
	}

	escaped := html.EscapeString(trimmed)
	label := html.EscapeString(PlainText(trimmed))
	return template.HTML(fmt.Sprintf(
		`<%s class="math math-%s" data-tex="%s" role="math" aria-label="%s">%s</%s>`,
		tag, mode, mode, label, escaped, tag,
	))
}

func (r *Renderer) renderError(expr string, mode Mode, tag string, err error) template.HTML {
	r.fail(mode, err)
	return template.HTML(fmt.Sprintf(
		`<%s class="math math-error" title="%s">%s</%s>`,
		tag, html.EscapeString(err.Error()), html.EscapeString(expr), tag,
	))
}

func (r *Renderer) fail(mode Mode, err error) {
	if r == nil || r.onFailure == nil {
		return
	}
	r.onFailure(mode, err)
}
