package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/present"
)

// ResultData is a generated test with its view selector.
type ResultData struct {
	ID     string
	Doc    *present.Document
	State  present.State
	Config model.TestConfiguration
	Text   string
}

func (d ResultData) link(s present.State) string {
	return "?" + s.Query().Encode()
}

// ViewLink selects view v.
func (d ResultData) ViewLink(v present.View) string {
	s := d.State
	s.Select(v)
	s.MenuOpen = false
	return d.link(s)
}

// LayoutLink toggles the layout.
func (d ResultData) LayoutLink() string {
	s := d.State
	s.ToggleLayout()
	return d.link(s)
}

// MenuLink toggles the export menu.
func (d ResultData) MenuLink() string {
	s := d.State
	s.ToggleMenu()
	return d.link(s)
}

// ExportQuery is the query string of the text download.
func (d ResultData) ExportQuery() string {
	s := d.State
	s.MenuOpen = false
	return s.Query().Encode()
}

func (d ResultData) Full() bool { return d.State.Layout == present.LayoutFull }

// ResultPage renders a generated test.
func ResultPage(d ResultData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(d.Doc.Title).Render(templ.WithChildren(ctx, body(func(o *out) { result(o, d) })), w)
	})
}

func result(o *out, d ResultData) {
	o.raw(`<div class="no-print card"><a`)
	o.href(o.path("/"))
	o.raw(`>&larr; `)
	o.t("BackToConfig")
	o.raw(`</a><span style="float:right"><a`)
	o.href(d.LayoutLink())
	o.raw(`>`)
	if d.Full() {
		o.t("LayoutTabbed")
	} else {
		o.t("LayoutFull")
	}
	o.raw(`</a> | <a`)
	o.href(d.MenuLink())
	o.raw(`>`)
	o.t("ExportMenu")
	o.raw(`</a></span>`)
	if d.State.MenuOpen {
		exportMenu(o, d)
	}
	o.raw(`</div><div class="card">`)

	if !d.Full() {
		o.raw(`<nav class="tabs no-print">`)
		for _, v := range present.Views {
			o.raw(`<a`)
			o.href(d.ViewLink(v))
			if v == d.State.View {
				o.raw(` class="active"`)
			}
			o.raw(`>`)
			o.t("View_" + string(v))
			o.raw(`</a>`)
		}
		o.raw(`</nav>`)
	}

	doc := d.Doc
	o.raw(`<h1>`)
	o.text(doc.Title)
	o.raw(`</h1><p class="no-print"><small>`)
	o.text(d.Config.Subject)
	o.raw(` &middot; `)
	o.text(d.Config.Level)
	o.raw(` &middot; `)
	o.num(d.Config.Duration)
	o.raw(" ")
	o.t("MinutesShort")
	o.raw(` &middot; `)
	o.text(d.Config.QuestionTypes)
	o.raw(`</small></p><p><em>`)
	o.text(doc.Introduction)
	o.raw(`</em></p>`)

	for _, v := range d.State.Sections() {
		switch v {
		case present.ViewTest:
			sectionTest(o, doc)
		case present.ViewAnswers:
			sectionAnswers(o, doc)
		case present.ViewMatrix:
			sectionMatrix(o, doc)
		case present.ViewAnalysis:
			sectionAnalysis(o, doc)
		}
	}
	o.raw(`</div><script>`, copyScript, `</script>`)
}

func exportMenu(o *out, d ResultData) {
	o.raw(`<div id="export-menu"><button type="button" onclick="copyExport()">`)
	o.t("CopyText")
	o.raw(`</button> <button type="button" class="secondary" onclick="window.print()">`)
	o.t("Print")
	o.raw(`</button> <a`)
	o.href(o.path("/tests/" + d.ID + "/export.txt?" + d.ExportQuery()))
	o.raw(`>`)
	o.t("DownloadText")
	o.raw(`</a> <span id="copied" hidden>`)
	o.t("Copied")
	o.raw(`</span><textarea id="export-text" hidden readonly>`)
	o.text(d.Text)
	o.raw(`</textarea></div>`)
}

func (o *out) section(view present.View) {
	o.raw(`<section><h2>`)
	o.t("View_" + string(view))
	o.raw(`</h2>`)
}

func (o *out) cell(tag, s string) {
	o.raw("<", tag, ">")
	o.text(s)
	o.raw("</", tag, ">")
}

func sectionTest(o *out, doc *present.Document) {
	o.section(present.ViewTest)
	for _, q := range doc.Questions {
		o.raw(`<div class="card"><p><strong>`)
		o.num(q.Number)
		o.raw(`.</strong> <span class="badge no-print">`)
		o.text(q.TaxonomyLabel)
		o.raw(`</span> (`)
		o.num(q.Points)
		o.raw(" ")
		o.t("PointsShort")
		o.raw(`)</p><p style="white-space: pre-wrap">`)
		o.text(q.Text)
		o.raw(`</p>`)
		if len(q.Options) > 0 {
			o.raw(`<ol type="A">`)
			for _, opt := range q.Options {
				o.cell("li", opt)
			}
			o.raw(`</ol>`)
		}
		o.raw(`</div>`)
	}
	o.raw(`</section>`)
}

func sectionAnswers(o *out, doc *present.Document) {
	o.section(present.ViewAnswers)
	o.raw(`<table><tr><th>`)
	o.t("NumberShort")
	o.raw(`</th><th>`)
	o.t("AnswerAndCriteria")
	o.raw(`</th>`)
	o.cell("th", string(doc.Scheme.ID))
	o.raw(`<th>`)
	o.t("Explanation")
	o.raw(`</th></tr>`)
	for _, a := range doc.Answers {
		o.raw(`<tr><td>`)
		o.num(a.Number)
		o.raw(`</td><td><strong>`)
		o.text(a.Answer)
		o.raw(`</strong>`)
		if a.Criteria != "" {
			o.raw(`<br><em>`)
			o.text(a.Criteria)
			o.raw(`</em>`)
		}
		o.raw(`</td><td><span class="badge">`)
		o.text(a.TaxonomyLabel)
		o.raw(`</span></td>`)
		o.cell("td", a.Explanation)
		o.raw(`</tr>`)
	}
	o.raw(`</table></section>`)
}

func sectionMatrix(o *out, doc *present.Document) {
	o.section(present.ViewMatrix)
	o.raw(`<table><tr><th>`)
	o.t("Topic")
	o.raw(`</th>`)
	for _, l := range doc.Labels {
		o.cell("th", l)
	}
	o.raw(`<th>`)
	o.t("Total")
	o.raw(`</th></tr>`)
	for _, row := range doc.Matrix {
		o.raw(`<tr>`)
		o.cell("td", row.Topic)
		for _, n := range row.Counts {
			o.cell("td", strconv.Itoa(n))
		}
		o.raw(`<td><strong>`)
		o.num(row.Total)
		o.raw(`</strong></td></tr>`)
	}
	o.raw(`<tr><th>`)
	o.t("Total")
	o.raw(`</th>`)
	for _, n := range doc.ColumnTotals {
		o.cell("th", strconv.Itoa(n))
	}
	o.cell("th", strconv.Itoa(doc.GrandTotal))
	o.raw(`</tr></table><h3>`)
	o.t("GoalCoverage")
	o.raw(`</h3>`)
	for _, g := range doc.Goals {
		o.raw(`<p><strong>`)
		o.text(g.Goal)
		o.raw(`</strong>:`)
		for _, n := range g.Numbers {
			o.raw(` <span class="badge">`)
			o.t("QuestionShort")
			o.raw(" ")
			o.text(n)
			o.raw(`</span>`)
		}
		o.raw(`</p>`)
	}
	o.raw(`</section>`)
}

func sectionAnalysis(o *out, doc *present.Document) {
	o.section(present.ViewAnalysis)
	o.raw(`<div style="white-space: pre-wrap">`)
	o.text(doc.Analysis)
	o.raw(`</div><h3>`)
	o.t("ScoreSheet")
	o.raw(`</h3><table><tr><th>`)
	o.t("StudentName")
	o.raw(`</th>`)
	for _, l := range doc.Labels {
		o.cell("th", l+" %")
	}
	o.raw(`<th>`)
	o.t("Grade")
	o.raw(`</th></tr>`)
	for range 3 {
		o.raw(`<tr><td>&nbsp;</td>`)
		for range doc.Labels {
			o.raw(`<td></td>`)
		}
		o.raw(`<td></td></tr>`)
	}
	o.raw(`</table></section>`)
}

const copyScript = `function copyExport() {
  var text = document.getElementById("export-text").value;
  navigator.clipboard.writeText(text).then(function () {
    document.getElementById("copied").hidden = false;
  });
}`
