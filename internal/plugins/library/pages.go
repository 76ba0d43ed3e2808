package library

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/bookworm/internal/plugins/audit"
	"github.com/keyxmakerx/bookworm/internal/plugins/users"
	"github.com/keyxmakerx/bookworm/internal/session"
	"github.com/keyxmakerx/bookworm/internal/templates/layouts"
)

var browseTmpl = template.Must(template.New("browse").Parse(`<section class="browse">
  <h1>Browse</h1>
  <form method="get" action="/browse" class="search-form" role="search">
    <input type="search" name="q" value="{{.Query}}" placeholder="Search by title or author" aria-label="Search books">
    <button type="submit">Search</button>
  </form>
  {{- if .Query}}
  <p class="empty-state">No books match “{{.Query}}” yet.</p>
  {{- else}}
  <p class="empty-state">The catalogue is empty. Check back soon.</p>
  {{- end}}
</section>
`))

var libraryTmpl = template.Must(template.New("library").Parse(`<section class="my-library">
  <h1>{{.Name}}'s library</h1>
  <p class="empty-state">Your shelves are empty. <a href="/browse">Browse</a> to add your first book.</p>
</section>
`))

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<section class="dashboard">
  <h1>Dashboard</h1>
  <dl class="stats">
    <dt>Books read</dt><dd>0</dd>
    <dt>Currently reading</dt><dd>0</dd>
    <dt>Want to read</dt><dd>0</dd>
  </dl>
  <p>Signed in as {{.Email}}.</p>
  {{- if .Activity.FailedLastDay}}
  <p class="activity-warning" role="alert">{{.Activity.FailedLastDay}} failed sign-in {{if eq .Activity.FailedLastDay 1}}attempt{{else}}attempts{{end}} in the last 24 hours.</p>
  {{- end}}
  {{- if .Activity.Entries}}
  <h2>Recent account activity</h2>
  <ul class="activity">
    {{- range .Activity.Entries}}
    <li class="activity-{{.Action}}"><span>{{.Label}}</span> <time datetime="{{.CreatedAt.Format "2006-01-02T15:04:05Z07:00"}}">{{.CreatedAt.Format "2 Jan 2006 15:04"}}</time>{{if .IP}} <span class="activity-ip">from {{.IP}}</span>{{end}}</li>
    {{- end}}
  </ul>
  {{- end}}
</section>
`))

var profileTmpl = template.Must(template.New("profile").Parse(`<section class="profile">
  <img src="{{.Avatar}}" alt="profile" width="96" height="96" class="profile-avatar">
  <h1>{{.Name}}</h1>
  <p>{{.Email}}</p>
  {{- with .Profile}}
  <p class="profile-synced">Profile synced {{.UpdatedAt.Format "2 Jan 2006"}}.</p>
  {{- end}}
</section>
`))

// BrowsePage renders the catalogue search page.
func BrowsePage(query string) templ.Component {
	return layouts.Base("Browse", templ.FromGoHTML(browseTmpl, struct{ Query string }{query}))
}

// LibraryPage renders the reader's own shelves.
func LibraryPage(sess session.Session) templ.Component {
	return layouts.Base("My Library", templ.FromGoHTML(libraryTmpl, struct{ Name string }{displayName(sess)}))
}

// ActivityPanel is the account activity shown on the dashboard.
type ActivityPanel struct {
	Entries       []audit.AuditEntry
	FailedLastDay int
}

// DashboardPage renders reading statistics and recent account activity.
func DashboardPage(sess session.Session, activity ActivityPanel) templ.Component {
	data := struct {
		Email    string
		Activity ActivityPanel
	}{sess.Email, activity}
	return layouts.Base("Dashboard", templ.FromGoHTML(dashboardTmpl, data))
}

// ProfilePage renders the account profile. profile may be nil.
func ProfilePage(sess session.Session, profile *users.Profile) templ.Component {
	data := struct {
		Name    string
		Email   string
		Avatar  string
		Profile *users.Profile
	}{
		Name:    displayName(sess),
		Email:   sess.Email,
		Avatar:  sess.AvatarURL,
		Profile: profile,
	}
	if profile != nil {
		if profile.Name != "" {
			data.Name = profile.Name
		}
		if profile.Photo != "" {
			data.Avatar = profile.Photo
		}
	}
	if data.Avatar == "" {
		data.Avatar = layouts.DefaultAvatarURL
	}
	return layouts.Base("Profile", templ.FromGoHTML(profileTmpl, data))
}

func displayName(sess session.Session) string {
	if sess.DisplayName != "" {
		return sess.DisplayName
	}
	return sess.Email
}
