// Package views holds the HTML pages as templ components.
package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
)

// out writes markup and keeps the first write error.
type out struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (o *out) raw(parts ...string) {
	for _, s := range parts {
		if o.err != nil {
			return
		}
		_, o.err = io.WriteString(o.w, s)
	}
}

// text writes s escaped for element content.
func (o *out) text(s string) {
	o.raw(templ.EscapeString(s))
}

func (o *out) num(n int) {
	o.raw(strconv.Itoa(n))
}

// attr writes ` name="value"`.
func (o *out) attr(name, value string) {
	o.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// href writes a sanitized link target.
func (o *out) href(u string) {
	o.attr("href", string(templ.URL(u)))
}

func (o *out) flag(name string, on bool) {
	if on {
		o.raw(" ", name)
	}
}

func (o *out) render(c templ.Component) {
	if o.err == nil {
		o.err = c.Render(o.ctx, o.w)
	}
}

func (o *out) tr(id string) string {
	return appI18n.T(o.ctx, id)
}

// t writes the translation of id.
func (o *out) t(id string) {
	o.text(o.tr(id))
}

func (o *out) path(p string) string {
	return model.BasePathFromContext(o.ctx) + p
}

// csrf writes the hidden CSRF form field.
func (o *out) csrf() {
	o.raw(`<input type="hidden" name="csrf_token"`)
	o.attr("value", model.CSRFTokenFromContext(o.ctx))
	o.raw(">")
}

// postForm opens a form posting to the site path p.
func (o *out) postForm(p string) {
	o.raw(`<form method="post"`)
	o.attr("action", string(templ.URL(o.path(p))))
	o.raw(">")
	o.csrf()
}

// body adapts a writing function into a component.
func body(fn func(o *out)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{ctx: ctx, w: w}
		fn(o)
		return o.err
	})
}

// page renders fn inside the layout, titled by message ID titleID.
func page(titleID string, fn func(o *out)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(appI18n.T(ctx, titleID)).Render(templ.WithChildren(ctx, body(fn)), w)
	})
}
