package views

import (
	"github.com/a-h/templ"

	"github.com/pavelanni/toetsgen/internal/access"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
)

// field writes a labelled input. extra is appended verbatim to the tag.
func (o *out) field(labelID, name, typ, value, extra string) {
	o.raw(`<label`)
	o.attr("for", name)
	o.raw(`>`)
	o.t(labelID)
	o.raw(`</label><input`)
	o.attr("id", name)
	o.attr("name", name)
	if typ != "" {
		o.attr("type", typ)
	}
	if value != "" {
		o.attr("value", value)
	}
	o.raw(extra, `>`)
}

func (o *out) link(p, labelID string) {
	o.raw(`<a`)
	o.href(o.path(p))
	o.raw(`>`)
	o.t(labelID)
	o.raw(`</a>`)
}

func (o *out) submit(labelID string) {
	o.raw(`<p><button type="submit">`)
	o.t(labelID)
	o.raw(`</button></p>`)
}

func (o *out) heading(id string) {
	o.raw(`<h1>`)
	o.t(id)
	o.raw(`</h1>`)
}

func (o *out) para(id string) {
	o.raw(`<p>`)
	o.t(id)
	o.raw(`</p>`)
}

// LoginPage renders the sign-in form.
func LoginPage(msg Message, email string) templ.Component {
	return page("LoginTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("LoginTitle")
		messages(o, msg)
		o.postForm("/login")
		o.field("Email", "email", "email", email, " required autofocus")
		o.field("Password", "password", "password", "", " required")
		o.submit("Login")
		o.raw(`</form><p>`)
		o.t("NoAccountYet")
		o.raw(" ")
		o.link("/register", "Register")
		o.raw(`</p><p>`)
		o.link("/training", "TrainingLink")
		o.raw(`</p></div>`)
	})
}

// RegisterForm holds the values re-displayed after a failed registration.
type RegisterForm struct {
	Email  string
	School string
}

// RegisterPage renders the registration form.
func RegisterPage(msg Message, form RegisterForm) templ.Component {
	return page("RegisterTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("RegisterTitle")
		o.para("RegisterIntro")
		messages(o, msg)
		o.postForm("/register")
		o.field("SchoolName", "school", "", form.School, " required")
		o.field("Email", "email", "email", form.Email, " required")
		o.field("Password", "password", "password", "", ` minlength="6" required`)
		o.submit("Register")
		o.raw(`</form><p>`)
		o.link("/login", "HaveAccount")
		o.raw(`</p></div>`)
	})
}

// RegisterDonePage tells a new user to wait for approval.
func RegisterDonePage(email string) templ.Component {
	return page("RegisterTitle", func(o *out) {
		o.raw(`<div class="card"><p class="notice">`)
		o.text(appI18n.Td(o.ctx, "RegisterDone", map[string]any{"Email": email}))
		o.raw(`</p><p>`)
		o.link("/login", "Login")
		o.raw(`</p></div>`)
	})
}

// TrainingForm holds the values of the training request form.
type TrainingForm struct {
	Email   string
	School  string
	Contact string
	Phone   string
}

// TrainingPage renders the training request form.
func TrainingPage(msg Message, form TrainingForm) templ.Component {
	return page("TrainingTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("TrainingTitle")
		o.para("TrainingIntro")
		messages(o, msg)
		o.postForm("/training")
		o.field("SchoolName", "school", "", form.School, " required")
		o.field("ContactPerson", "contact", "", form.Contact, " required")
		o.field("Email", "email", "email", form.Email, " required")
		o.field("Phone", "phone", "", form.Phone, "")
		o.submit("Send")
		o.raw(`</form></div>`)
	})
}

// FeedbackPage renders the feedback form.
func FeedbackPage(msg Message) templ.Component {
	return page("FeedbackTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("FeedbackTitle")
		o.para("FeedbackIntro")
		messages(o, msg)
		o.postForm("/feedback")
		o.field("FeedbackName", "name", "", "", "")
		o.raw(`<label for="message">`)
		o.t("FeedbackMessage")
		o.raw(`</label><textarea id="message" name="message" rows="6" required></textarea>`)
		o.submit("Send")
		o.raw(`</form></div>`)
	})
}

// ApprovalPage shows a technical failure of the approval check with a retry button.
func ApprovalPage(st access.State) templ.Component {
	reason := "ApprovalLookupFailed"
	if st.Reason == access.ReasonTimeout {
		reason = "ApprovalTimeout"
	}
	return page("ApprovalTitle", func(o *out) {
		o.raw(`<div class="card">`)
		o.heading("ApprovalTitle")
		o.raw(`<p class="error" role="alert">`)
		o.t(reason)
		o.raw(`</p>`)
		if st.CanRetry {
			o.postForm("/access/retry")
			o.raw(`<button type="submit">`)
			o.t("TryAgain")
			o.raw(`</button></form>`)
		}
		o.raw(`</div>`)
	})
}
