package auth

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/bookworm/internal/templates/layouts"
)

// LoginFormData is the view model of the login form.
type LoginFormData struct {
	Email    string
	Redirect string
	FormID   string
	Error    string
}

// RegisterFormData is the view model of the registration form.
type RegisterFormData struct {
	Email       string
	DisplayName string
	PhotoURL    string
	Redirect    string
	Error       string
}

var loginTmpl = template.Must(template.New("login").Parse(`<section class="auth-card">
  <h1>Welcome back</h1>
  {{- if .Error}}
  <p class="form-error" role="alert">{{.Error}}</p>
  {{- end}}
  <form method="post" action="/login" class="auth-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="form_id" value="{{.FormID}}">
    {{- if .Redirect}}
    <input type="hidden" name="redirect" value="{{.Redirect}}">
    {{- end}}
    <label>Email <input type="email" name="email" value="{{.Email}}" required autocomplete="email"></label>
    <label>Password <input type="password" name="password" required autocomplete="current-password"></label>
    <button type="submit" class="btn-primary" data-disable-on-submit>Login</button>
  </form>
  {{- if .GoogleEnabled}}
  <div class="auth-divider">or</div>
  <a href="{{.GoogleURL}}" class="btn-google" data-disable-on-click>Sign in with Google</a>
  {{- end}}
  <p>New here? <a href="{{.RegisterURL}}">Create an account</a></p>
</section>
`))

var registerTmpl = template.Must(template.New("register").Parse(`<section class="auth-card">
  <h1>Create your account</h1>
  {{- if .Error}}
  <p class="form-error" role="alert">{{.Error}}</p>
  {{- end}}
  <form method="post" action="/register" class="auth-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    {{- if .Redirect}}
    <input type="hidden" name="redirect" value="{{.Redirect}}">
    {{- end}}
    <label>Name <input type="text" name="display_name" value="{{.DisplayName}}" required maxlength="100" autocomplete="name"></label>
    <label>Email <input type="email" name="email" value="{{.Email}}" required autocomplete="email"></label>
    <label>Photo URL <input type="url" name="photo_url" value="{{.PhotoURL}}" autocomplete="photo"></label>
    <label>Password <input type="password" name="password" required minlength="8" autocomplete="new-password"></label>
    <label>Confirm password <input type="password" name="confirm" required minlength="8" autocomplete="new-password"></label>
    <button type="submit" class="btn-primary" data-disable-on-submit>Sign Up</button>
  </form>
  <p>Already have an account? <a href="{{.LoginURL}}">Login</a></p>
</section>
`))

var loadingTmpl = template.Must(template.New("loading").Parse(`<section class="loading" aria-busy="true">
  <div class="spinner" role="progressbar"></div>
  <p>Checking your session…</p>
</section>
`))

// LoginPage renders the login form.
func LoginPage(form LoginFormData) templ.Component {
	return layouts.Base("Login", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		intent := ParseIntent(form.Redirect)
		return loginTmpl.Execute(w, struct {
			LoginFormData
			CSRFToken     string
			GoogleEnabled bool
			GoogleURL     string
			RegisterURL   string
		}{
			LoginFormData: form,
			CSRFToken:     layouts.GetCSRFToken(ctx),
			GoogleEnabled: layouts.GoogleEnabled(ctx),
			GoogleURL:     withIntent("/auth/google", intent),
			RegisterURL:   withIntent("/register", intent),
		})
	}))
}

// RegisterPage renders the registration form.
func RegisterPage(form RegisterFormData) templ.Component {
	return layouts.Base("Sign Up", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return registerTmpl.Execute(w, struct {
			RegisterFormData
			CSRFToken string
			LoginURL  string
		}{
			RegisterFormData: form,
			CSRFToken:        layouts.GetCSRFToken(ctx),
			LoginURL:         ParseIntent(form.Redirect).LoginURL(),
		})
	}))
}

// LoadingPage is the neutral state shown while the session is unresolved.
// It reloads itself after refreshSeconds.
func LoadingPage(refreshSeconds int) templ.Component {
	return layouts.Refreshing("Loading", refreshSeconds, templ.FromGoHTML(loadingTmpl, nil))
}

// withIntent appends the redirect parameter to path when an intent exists.
func withIntent(path string, intent RedirectIntent) string {
	if intent.IsZero() {
		return path
	}
	login := intent.LoginURL()
	return path + login[len("/login"):]
}
