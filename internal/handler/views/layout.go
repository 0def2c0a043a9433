package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
)

const stylesheet = `body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #1f2937; }
header.top { background: #312e81; color: #fff; padding: .75rem 1.5rem; display: flex; gap: 1rem; align-items: center; }
header.top a { color: #e0e7ff; text-decoration: none; }
header.top .spacer { flex: 1; }
header.top form { display: inline; }
main { max-width: 64rem; margin: 1.5rem auto; padding: 0 1rem; }
.card { background: #fff; border-radius: .5rem; padding: 1.25rem; margin-bottom: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.error { background: #fee2e2; color: #991b1b; padding: .75rem; border-radius: .375rem; }
.notice { background: #dcfce7; color: #166534; padding: .75rem; border-radius: .375rem; }
.invalid { border-color: #dc2626 !important; }
.total-bad { color: #dc2626; font-weight: bold; }
.total-ok { color: #16a34a; font-weight: bold; }
label { display: block; margin-top: .75rem; font-weight: 600; }
input, textarea, select { width: 100%; padding: .4rem; border: 1px solid #d1d5db; border-radius: .25rem; box-sizing: border-box; }
input[type=number].pct { width: 5rem; }
button { padding: .45rem 1rem; border: 0; border-radius: .25rem; background: #4f46e5; color: #fff; cursor: pointer; }
button.secondary { background: #e5e7eb; color: #111827; }
button:disabled { background: #9ca3af; cursor: not-allowed; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #e5e7eb; padding: .4rem; text-align: left; vertical-align: top; }
.tabs a { display: inline-block; padding: .5rem 1rem; border-bottom: 2px solid transparent; text-decoration: none; color: #4b5563; }
.tabs a.active { border-color: #4f46e5; color: #4f46e5; }
.badge { display: inline-block; padding: 0 .5rem; border-radius: 1rem; background: #e0e7ff; font-size: .8rem; }
.muted { color: #6b7280; }
@media print { header.top, .no-print { display: none !important; } .card { box-shadow: none; } }
`

// Message is an optional notice shown at the top of a page.
type Message struct {
	Error  string
	Notice string
}

// Layout is the page frame. The page content is passed as templ children.
func Layout(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{ctx: ctx, w: w}
		o.raw(`<!DOCTYPE html><html`)
		o.attr("lang", appI18n.T(ctx, "LangCode"))
		o.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		o.text(title + " | " + appI18n.T(ctx, "AppTitle"))
		o.raw(`</title><style>`, stylesheet, `</style></head><body>`)
		nav(o)
		o.raw(`<main>`)
		o.render(templ.GetChildren(ctx))
		o.raw(`</main></body></html>`)
		return o.err
	})
}

func nav(o *out) {
	o.raw(`<header class="top"><strong>`)
	o.t("AppTitle")
	o.raw(`</strong>`)
	if u := model.UserFromContext(o.ctx); u != nil {
		o.link("/", "NavNewTest")
		o.link("/tests", "NavHistory")
		o.link("/feedback", "NavFeedback")
		if u.Role == model.UserRoleAdmin {
			o.link("/admin/requests", "NavAdmin")
		}
		o.raw(`<span class="spacer"></span><span>`)
		o.text(u.Email)
		o.raw(`</span>`)
		o.postForm("/logout")
		o.raw(`<button class="secondary" type="submit">`)
		o.t("Logout")
		o.raw(`</button></form>`)
	} else {
		o.raw(`<span class="spacer"></span>`)
		o.link("/login", "Login")
		o.link("/register", "Register")
		o.link("/training", "NavTraining")
	}
	o.raw(`</header>`)
}

func messages(o *out, m Message) {
	if m.Error != "" {
		o.raw(`<p class="error" role="alert">`)
		o.text(m.Error)
		o.raw(`</p>`)
	}
	if m.Notice != "" {
		o.raw(`<p class="notice">`)
		o.text(m.Notice)
		o.raw(`</p>`)
	}
}

// ErrorPage renders a plain error message.
func ErrorPage(msg string) templ.Component {
	return page("ErrorTitle", func(o *out) {
		o.raw(`<div class="card"><p class="error" role="alert">`)
		o.text(msg)
		o.raw(`</p><p><a`)
		o.href(o.path("/"))
		o.raw(`>`)
		o.t("BackHome")
		o.raw(`</a></p></div>`)
	})
}
