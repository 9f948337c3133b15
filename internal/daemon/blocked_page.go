package daemon

import (
	"html/template"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/focusd/internal/focus"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

var blockedPageTemplate = template.Must(template.New("blocked").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Blocked - focusd</title>
<style>
body { font-family: system-ui, sans-serif; background: #1d1f24; color: #e8e8e8; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
main { text-align: center; max-width: 32rem; }
h1 { font-size: 2rem; margin-bottom: .5rem; }
.label { color: #9ecbff; }
.stats { margin-top: 2rem; color: #a0a0a0; }
</style>
</head>
<body>
<main>
<h1>Stay focused</h1>
{{if .Status.Blocking}}<p>You are in <span class="label">{{.Status.SessionLabel}}</span> ({{.Status.TimeRemaining}}).</p>{{end}}
{{if .Status.NextEventLabel}}<p>Next up: {{.Status.NextEventLabel}} at {{.Status.NextEventTime}}</p>{{end}}
<p class="stats">Blocked today: {{.Count}} &middot; Focus time: {{.Status.Stats.FocusTime}}</p>
</main>
</body>
</html>
`))

type blockedPageData struct {
	Status focus.StatusSnapshot
	Count  uint64
}

// handleBlockedPage serves the redirect target. Each page view is one blocked navigation.
func (h *handlers) handleBlockedPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.commandContext(r)
	defer cancel()

	count, err := h.daemon.RecordBlockedNavigation(ctx)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	status, err := h.daemon.FocusStatus(ctx)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := blockedPageTemplate.Execute(w, blockedPageData{Status: status, Count: count}); err != nil {
		slog.Error("Failed to render blocked page", logfields.Error(err))
	}
}
