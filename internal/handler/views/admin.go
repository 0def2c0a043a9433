package views

import (
	"net/url"
	"time"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
)

const dateLayout = "02-01-2006 15:04"

func (o *out) date(t time.Time) {
	o.text(t.Format(dateLayout))
}

// HistoryPage lists the user's stored tests.
func HistoryPage(tests []model.TestSummary) templ.Component {
	return page("HistoryTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("HistoryTitle")
		if len(tests) == 0 {
			o.para("NoTestsYet")
			o.raw(`</div>`)
			return
		}
		o.raw(`<p>`)
		o.text(appI18n.Tp(o.ctx, "TestsCount", len(tests)))
		o.raw(`</p><table><tr>`)
		for _, id := range []string{"Title", "Subject", "Level", "Taxonomy", "Created"} {
			o.raw(`<th>`)
			o.t(id)
			o.raw(`</th>`)
		}
		o.raw(`</tr>`)
		for _, ts := range tests {
			o.raw(`<tr><td><a`)
			o.href(o.path("/tests/" + ts.ID))
			o.raw(`>`)
			o.text(ts.Title)
			o.raw(`</a></td>`)
			o.cell("td", ts.Subject)
			o.cell("td", ts.Level)
			o.cell("td", string(ts.Taxonomy))
			o.raw(`<td>`)
			o.date(ts.CreatedAt)
			o.raw(`</td></tr>`)
		}
		o.raw(`</table></div>`)
	})
}

// AdminData is the administration overview.
type AdminData struct {
	Message
	Requests []model.AccessRequest
	Training []model.TrainingRequest
	Feedback []model.Feedback
	Filter   model.RequestStatus
}

// FilterLink returns the admin page filtered to status.
func (d AdminData) FilterLink(status string) string {
	if status == "" {
		return "?"
	}
	return "?" + url.Values{"status": {status}}.Encode()
}

// AdminPage renders the administration overview.
func AdminPage(d AdminData) templ.Component {
	return page("AdminTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("AdminTitle")
		messages(o, d.Message)

		filter := func(status, labelID string) {
			o.raw(`<a`)
			o.href(d.FilterLink(status))
			o.raw(`>`)
			o.t(labelID)
			o.raw(`</a>`)
		}
		o.raw(`<p>`)
		filter("", "FilterAll")
		o.raw(` | `)
		filter(string(model.RequestPending), "StatusPending")
		o.raw(` | `)
		filter(string(model.RequestApproved), "StatusApproved")
		o.raw(`</p>`)

		accessRequests(o, d.Requests)
		o.raw(`</div>`)
		trainingRequests(o, d.Training)
		feedbackList(o, d.Feedback)
	})
}

func accessRequests(o *out, reqs []model.AccessRequest) {
	o.raw(`<table><tr>`)
	for _, id := range []string{"Email", "RequestDescription", "Status", "Created"} {
		o.raw(`<th>`)
		o.t(id)
		o.raw(`</th>`)
	}
	o.raw(`<th></th></tr>`)
	if len(reqs) == 0 {
		o.raw(`<tr><td colspan="5">`)
		o.t("NoRequests")
		o.raw(`</td></tr>`)
	}
	for _, r := range reqs {
		approved := r.Status == model.RequestApproved
		o.raw(`<tr>`)
		o.cell("td", r.Email)
		o.cell("td", r.Description)
		o.raw(`<td>`)
		if approved {
			o.t("StatusApproved")
		} else {
			o.t("StatusPending")
		}
		o.raw(`</td><td>`)
		o.date(r.CreatedAt)
		o.raw(`</td><td>`)
		if approved {
			o.postForm("/admin/requests/revoke")
		} else {
			o.postForm("/admin/requests/approve")
		}
		o.raw(`<input type="hidden" name="email"`)
		o.attr("value", r.Email)
		o.raw(`>`)
		if approved {
			o.raw(`<button class="secondary" type="submit">`)
			o.t("Revoke")
		} else {
			o.raw(`<button type="submit">`)
			o.t("Approve")
		}
		o.raw(`</button></form></td></tr>`)
	}
	o.raw(`</table>`)
}

func trainingRequests(o *out, reqs []model.TrainingRequest) {
	o.raw(`<div class="card"><h2>`)
	o.t("TrainingRequests")
	o.raw(`</h2><table>`)
	if len(reqs) == 0 {
		o.raw(`<tr><td>`)
		o.t("NoRequests")
		o.raw(`</td></tr>`)
	}
	for _, r := range reqs {
		o.raw(`<tr><td>`)
		o.date(r.CreatedAt)
		o.raw(`</td>`)
		o.cell("td", r.Email)
		o.cell("td", r.Description)
		o.raw(`</tr>`)
	}
	o.raw(`</table></div>`)
}

func feedbackList(o *out, items []model.Feedback) {
	o.raw(`<div class="card"><h2>`)
	o.t("FeedbackTitle")
	o.raw(`</h2>`)
	if len(items) == 0 {
		o.para("NoFeedback")
	}
	for _, f := range items {
		o.raw(`<p><strong>`)
		if f.Name != "" {
			o.text(f.Name)
		} else {
			o.t("Anonymous")
		}
		o.raw(`</strong> <small>`)
		o.date(f.CreatedAt)
		o.raw(`</small><br><span style="white-space: pre-wrap">`)
		o.text(f.Message)
		o.raw(`</span></p>`)
	}
	o.raw(`</div>`)
}
