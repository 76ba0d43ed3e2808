// Package pages holds the public pages that don't belong to a plugin: the
// landing page and the error page used by the app's error handler.
package pages

import (
	"html/template"
	"net/http"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/bookworm/internal/templates/layouts"
)

var landingTmpl = template.Must(template.New("landing").Parse(`<section class="hero">
  <h1>Your reading journey, organised.</h1>
  <p>Track what you read, discover what's next, and keep your library in one place.</p>
  <p><a href="/browse" class="btn-primary">Start browsing</a></p>
</section>
`))

var errorTmpl = template.Must(template.New("error").Parse(`<section class="error-page">
  <h1>{{.Code}} · {{.Status}}</h1>
  <p>{{.Message}}</p>
  <p><a href="/">Back to home</a></p>
</section>
`))

// Landing renders the public home page.
func Landing() templ.Component {
	return layouts.Base("Home", templ.FromGoHTML(landingTmpl, nil))
}

// ErrorPage renders a full error page with a client-safe message.
func ErrorPage(code int, message string) templ.Component {
	data := struct {
		Code    int
		Status  string
		Message string
	}{code, http.StatusText(code), message}
	return layouts.Base(http.StatusText(code), templ.FromGoHTML(errorTmpl, data))
}
