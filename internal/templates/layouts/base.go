package layouts

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var navbarTmpl = template.Must(template.New("navbar").Parse(`<nav class="navbar" data-session="{{.Status}}">
  <a href="/" class="navbar-brand">BookWorm</a>
  {{- if .Links}}
  <ul class="navbar-links">
    {{- range .Links}}
    <li><a href="{{.Path}}"{{if .Active}} class="active" aria-current="page"{{end}}>{{.Name}}</a></li>
    {{- end}}
  </ul>
  {{- end}}
  <div class="navbar-account">
    {{- if .Account}}
    <a href="{{.Account.ProfilePath}}" class="navbar-avatar" title="{{.Account.DisplayName}}"><img src="{{.Account.AvatarURL}}" alt="profile" width="40" height="40"></a>
    {{- end}}
    {{- if .ShowSignOut}}
    <form method="post" action="/logout" class="navbar-signout">
      <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
      <button type="submit" title="Logout" data-disable-on-submit>Logout</button>
    </form>
    {{- end}}
    {{- range .AuthLinks}}
    <a href="{{.Path}}" class="navbar-auth{{if .Active}} active{{end}}">{{.Name}}</a>
    {{- end}}
  </div>
</nav>
`))

var headTmpl = template.Must(template.New("head").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  {{- if .RefreshSeconds}}
  <meta http-equiv="refresh" content="{{.RefreshSeconds}}">
  {{- end}}
  <title>{{.Title}} · BookWorm</title>
  <link rel="stylesheet" href="/static/css/app.css">
  <script src="/static/js/app.js" defer></script>
</head>
<body>
`))

var flashTmpl = template.Must(template.New("flash").Parse(`{{if .Success}}<div class="flash flash-success" role="status">{{.Success}}</div>
{{end}}{{if .Error}}<div class="flash flash-error" role="alert">{{.Error}}</div>
{{end}}`))

const footerHTML = `</main>
</body>
</html>
`

type headData struct {
	Title          string
	RefreshSeconds int
}

type flashData struct {
	Success string
	Error   string
}

// Navbar renders the navigation bar for the session stored in ctx.
func Navbar() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		nav := BuildNav(GetSession(ctx), GetActivePath(ctx))
		nav.CSRFToken = GetCSRFToken(ctx)
		return navbarTmpl.Execute(w, nav)
	})
}

// Base wraps body in the HTML document with the navbar and flash notices.
func Base(title string, body templ.Component) templ.Component {
	return page(title, 0, body)
}

// Refreshing is Base with a meta refresh, used by pages that wait on
// something the server has not finished yet.
func Refreshing(title string, seconds int, body templ.Component) templ.Component {
	return page(title, seconds, body)
}

func page(title string, refresh int, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := headTmpl.Execute(w, headData{Title: title, RefreshSeconds: refresh}); err != nil {
			return err
		}
		if err := Navbar().Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<main class=\"container\">\n"); err != nil {
			return err
		}
		flash := flashData{Success: GetFlashSuccess(ctx), Error: GetFlashError(ctx)}
		if err := flashTmpl.Execute(w, flash); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, footerHTML)
		return err
	})
}
