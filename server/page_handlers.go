package server

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.AppName}}</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 2rem; color: #172b4d; }
a.button { display: inline-block; padding: .5rem 1rem; background: #0052cc; color: #fff; border-radius: 4px; text-decoration: none; }
table { border-collapse: collapse; margin-top: 1rem; }
td, th { border: 1px solid #dfe1e6; padding: .4rem .8rem; text-align: left; }
</style>
</head>
<body>
<h1>{{.AppName}}</h1>
<div id="status">Checking authentication…</div>
<p><a class="button" href="/auth/login">Log in</a></p>
<table id="tickets" hidden><thead><tr><th>Key</th><th>Summary</th><th>Status</th></tr></thead><tbody></tbody></table>
<script>
fetch('/auth/status').then(r => r.json()).then(s => {
  document.getElementById('status').textContent =
    s.authenticated ? 'Signed in' + (s.accountId ? ' as ' + s.accountId : '') : 'Not signed in';
  if (!s.authenticated) return;
  fetch('/api/tickets').then(r => r.json()).then(data => {
    const table = document.getElementById('tickets');
    const body = table.querySelector('tbody');
    (data.tickets || []).forEach(t => {
      const row = body.insertRow();
      row.insertCell().textContent = t.key;
      row.insertCell().textContent = t.summary;
      row.insertCell().textContent = t.status;
    });
    table.hidden = false;
  });
});
</script>
</body>
</html>`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Authentication Error</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 2rem; color: #172b4d; }
.reason { color: #de350b; }
</style>
</head>
<body>
<h1>Authentication failed</h1>
<p class="reason">{{.Reason}}</p>
<p><a href="/auth/login">Try again</a> or <a href="/">return to the dashboard</a>.</p>
</body>
</html>`))

// IndexHandler renders the dashboard page.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != RouteIndex {
			http.Error(w, "404 - Page not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		data := map[string]interface{}{"AppName": s.config.GetAppName()}
		if err := indexTemplate.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render index template")
		}
	}
}

// ErrorPageHandler displays a human-readable reason after a failed
// callback. The reason is whatever sanitized string the workflow put in
// the redirect; template escaping handles the rest.
func (s *Server) ErrorPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := r.URL.Query().Get("error")
		if reason == "" {
			reason = "Unknown error"
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		data := map[string]interface{}{"Reason": reason}
		if err := errorTemplate.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render error template")
		}
	}
}
