package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/taxonomy"
	"github.com/pavelanni/toetsgen/internal/testconfig"
)

// DistRow is one taxonomy category input.
type DistRow struct {
	Label string
	Name  string
	Value int
}

// ConfigureData is the configuration form.
type ConfigureData struct {
	Message
	Draft      *testconfig.Draft
	Problems   *testconfig.ValidationError
	Suggestion *model.Suggestion
}

// Scheme is the active taxonomy.
func (d ConfigureData) Scheme() taxonomy.Scheme { return d.Draft.Distribution.Scheme() }

func (d ConfigureData) DistRows() []DistRow {
	s := d.Scheme()
	rows := make([]DistRow, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, DistRow{Label: c.Label, Name: c.Name, Value: d.Draft.Distribution.Value(c.Label)})
	}
	return rows
}

// CanSubmit reports whether the generate button is enabled.
func (d ConfigureData) CanSubmit() bool { return d.Draft.Submittable() }

// Invalid reports whether a field failed validation.
func (d ConfigureData) Invalid(field string) bool {
	if d.Problems == nil {
		return false
	}
	for _, p := range d.Problems.Problems {
		if p.Code == testconfig.ProblemField && p.Field == field {
			return true
		}
	}
	return false
}

func (o *out) textarea(labelID, name, value string, rows int, invalid bool) {
	o.raw(`<label`)
	o.attr("for", name)
	o.raw(`>`)
	o.t(labelID)
	o.raw(`</label><textarea`)
	o.attr("id", name)
	o.attr("name", name)
	o.attr("rows", strconv.Itoa(rows))
	o.raw(invalidClass(invalid), `>`)
	o.text(value)
	o.raw(`</textarea>`)
}

func (o *out) option(value, label string, selected bool) {
	o.raw(`<option`)
	o.attr("value", value)
	o.flag("selected", selected)
	o.raw(`>`)
	o.text(label)
	o.raw(`</option>`)
}

func (o *out) action(value, labelID string) {
	o.raw(`<button class="secondary" type="submit" name="action"`)
	o.attr("value", value)
	o.raw(`>`)
	o.t(labelID)
	o.raw(`</button>`)
}

func (o *out) total(id string, n int, ok bool) {
	class := "total-bad"
	if ok {
		class = "total-ok"
	}
	o.raw(`<span`)
	o.attr("id", id)
	o.attr("class", class)
	o.raw(`>`)
	o.num(n)
	o.raw(`</span> %`)
}

func (o *out) errorLine(id string) {
	o.raw(`<p class="error">`)
	o.t(id)
	o.raw(`</p>`)
}

// ConfigurePage renders the configuration form.
func ConfigurePage(d ConfigureData) templ.Component {
	return page("ConfigureTitle", func(o *out) {
		o.raw(`<form method="post" id="configure"`)
		o.attr("action", string(templ.URL(o.path("/configure"))))
		o.raw(`>`)
		o.csrf()
		o.raw(`<input type="hidden" name="taxonomy"`)
		o.attr("value", string(d.Scheme().ID))
		o.raw(`>`)

		configureTopics(o, d)
		configureTaxonomy(o, d)
		configureTypes(o, d)
		configureConditions(o, d)

		o.raw(`<p>`)
		o.action("save", "SaveDraft")
		o.raw(` <button id="generate" type="submit" name="action" value="generate"`)
		o.flag("disabled", !d.CanSubmit())
		o.raw(`>`)
		o.t("Generate")
		o.raw(`</button></p></form><script>`, liveTotals, `</script>`)
	})
}

func configureTopics(o *out, d ConfigureData) {
	o.raw(`<div class="card">`)
	o.heading("ConfigureTitle")
	messages(o, d.Message)
	if d.Problems != nil {
		o.raw(`<p class="error" role="alert">`)
		o.t("ConfigInvalid")
		o.raw(`</p>`)
	}

	o.field("Subject", "subject", "", d.Draft.Subject,
		o.placeholder("SubjectPlaceholder")+invalidClass(d.Invalid("Subject")))
	o.field("Level", "level", "", d.Draft.Level, o.placeholder("LevelPlaceholder"))
	o.textarea("Topics", "topics", d.Draft.Topics, 5, d.Invalid("Topics"))
	o.raw(`<p class="no-print">`)
	o.action("suggest", "SuggestTopics")
	o.raw(`</p>`)

	if s := d.Suggestion; s != nil {
		suggestion(o, s)
	}

	o.textarea("LearningGoals", "learning_goals", d.Draft.LearningGoals, 3, false)
	o.raw(`</div>`)
}

func suggestion(o *out, s *model.Suggestion) {
	o.raw(`<div class="card"><h3>`)
	o.t("SuggestionTitle")
	o.raw(`</h3>`)
	if s.Failed {
		o.raw(`<p class="error">`)
		o.text(s.Topics)
		o.raw(`</p>`)
	} else {
		for _, line := range strings.Split(strings.TrimSpace(s.Topics), "\n") {
			o.raw(`<div>`)
			o.text(line)
			o.raw(`</div>`)
		}
	}
	if len(s.Sources) > 0 {
		o.raw(`<h4>`)
		o.t("Sources")
		o.raw(`</h4><p class="muted">`)
		o.t("SourcesUnverified")
		o.raw(`</p><ul>`)
		for _, src := range s.Sources {
			o.raw(`<li><a`)
			o.href(src.URI)
			o.raw(` target="_blank" rel="noopener noreferrer">`)
			o.text(src.Title)
			o.raw(`</a></li>`)
		}
		o.raw(`</ul>`)
	}
	o.raw(`</div>`)
}

func configureTaxonomy(o *out, d ConfigureData) {
	scheme := d.Scheme()
	o.raw(`<div class="card"><h2>`)
	o.t("Taxonomy")
	o.raw(`: `)
	o.text(scheme.Title)
	o.raw(`</h2><p><select name="new_taxonomy"`)
	o.attr("aria-label", o.tr("Taxonomy"))
	o.raw(`>`)
	for _, s := range taxonomy.Schemes() {
		o.option(string(s.ID), s.Title, s.ID == scheme.ID)
	}
	o.raw(`</select> `)
	o.action("switch_scheme", "SwitchTaxonomy")
	o.raw(`</p><table>`)
	for _, row := range d.DistRows() {
		o.raw(`<tr><td><span class="badge">`)
		o.text(row.Label)
		o.raw(`</span> `)
		o.text(row.Name)
		o.raw(`</td><td><input class="pct dist" type="number" min="0" max="100"`)
		o.attr("name", "dist_"+row.Label)
		o.attr("value", strconv.Itoa(row.Value))
		o.raw(`> %</td></tr>`)
	}
	dist := d.Draft.Distribution
	o.raw(`<tr><th>`)
	o.t("Total")
	o.raw(`</th><th>`)
	o.total("dist-total", dist.Total(), dist.Valid())
	o.raw(`</th></tr></table>`)
	if !dist.Valid() {
		o.errorLine("DistributionMustBe100")
	}
	o.raw(`</div>`)
}

func configureTypes(o *out, d ConfigureData) {
	types := d.Draft.Types
	o.raw(`<div class="card"><h2>`)
	o.t("QuestionTypes")
	o.raw(`</h2><table>`)
	for _, w := range types.Entries() {
		o.raw(`<tr><td>`)
		o.text(w.Label)
		o.raw(`<input type="hidden" name="qt_label"`)
		o.attr("value", w.Label)
		o.raw(`></td><td><input class="pct qt" type="number" min="0" max="100" name="qt_percent"`)
		o.attr("value", strconv.Itoa(w.Percent))
		o.raw(`> %</td><td>`)
		o.action("remove_type:"+w.Label, "Remove")
		o.raw(`</td></tr>`)
	}
	o.raw(`<tr><th>`)
	o.t("Total")
	o.raw(`</th><th>`)
	o.total("qt-total", types.Total(), types.Valid())
	o.raw(`</th><td></td></tr></table>`)
	switch {
	case types.Empty():
		o.errorLine("NoQuestionTypes")
	case !types.Valid():
		o.errorLine("TypesMustBe100")
	}
	if avail := types.Available(); len(avail) > 0 {
		next := types.Next()
		o.raw(`<p><select name="next_type"`)
		o.attr("aria-label", o.tr("AddType"))
		o.raw(`>`)
		for _, label := range avail {
			o.option(label, label, label == next)
		}
		o.raw(`</select> `)
		o.action("add_type", "AddType")
		o.raw(`</p>`)
	}
	o.raw(`</div>`)
}

func configureConditions(o *out, d ConfigureData) {
	o.raw(`<div class="card"><h2>`)
	o.t("Conditions")
	o.raw(`</h2>`)
	o.field("Duration", "duration", "number", strconv.Itoa(d.Draft.Duration),
		` min="1" max="600"`+invalidClass(d.Invalid("Duration")))
	o.field("QuestionCount", "question_count", "number", strconv.Itoa(d.Draft.QuestionCount),
		` min="1" max="100"`+invalidClass(d.Invalid("QuestionCount")))
	o.raw(`<label for="language_level">`)
	o.t("LanguageLevel")
	o.raw(`</label><select id="language_level" name="language_level">`)
	for _, lvl := range testconfig.LanguageLevels {
		o.option(lvl, lvl, lvl == d.Draft.LanguageLevel)
	}
	o.raw(`</select>`)
	o.textarea("ExtraRequirements", "extra_requirements", d.Draft.ExtraRequirements, 3, false)
	o.raw(`</div>`)
}

func (o *out) placeholder(id string) string {
	return ` placeholder="` + templ.EscapeString(o.tr(id)) + `"`
}

func invalidClass(on bool) string {
	if on {
		return ` class="invalid"`
	}
	return ""
}

const liveTotals = `(function () {
  function sum(sel) {
    var t = 0;
    document.querySelectorAll(sel).forEach(function (el) { t += parseInt(el.value, 10) || 0; });
    return t;
  }
  function mark(id, total, ok) {
    var el = document.getElementById(id);
    el.textContent = total;
    el.className = ok ? "total-ok" : "total-bad";
  }
  function update() {
    var d = sum("input.dist"), q = sum("input.qt");
    var qn = document.querySelectorAll("input.qt").length;
    mark("dist-total", d, d === 100);
    mark("qt-total", q, qn > 0 && q === 100);
    document.getElementById("generate").disabled = !(d === 100 && qn > 0 && q === 100);
  }
  document.getElementById("configure").addEventListener("input", update);
})();`
