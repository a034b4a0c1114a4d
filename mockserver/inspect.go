package mockserver

import (
	"embed"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pages = template.Must(template.New("").Funcs(pageFuncs()).ParseFS(templatesFS, "templates/*.tmpl"))

type pageData struct {
	Title    string
	Sessions []sessionView
	Session  *sessionView
}

type sessionView struct {
	ID        string
	User      string
	CreatedAt string
	Messages  []transcriptView
}

type transcriptView struct {
	Sender string
	Text   string
}

func pageFuncs() template.FuncMap {
	funcMap := sprig.HtmlFuncMap()
	funcMap["formatMessage"] = formatMessage
	return funcMap
}

// formatMessage makes text HTML-safe while keeping its line breaks.
func formatMessage(s string) template.HTML {
	s = template.HTMLEscapeString(s)
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = strings.ReplaceAll(s, "  ", "&nbsp;&nbsp;")
	return template.HTML(s)
}

func (s *Server) handleInspectSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	views := make([]sessionView, 0, len(s.sessions))
	for id, session := range s.sessions {
		views = append(views, s.viewLocked(id, session))
	}
	s.mu.Unlock()
	// Newest first.
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt > views[j].CreatedAt })

	s.render(w, &pageData{Title: "Sessions", Sessions: views})
}

func (s *Server) handleInspectSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	var view sessionView
	if ok {
		view = s.viewLocked(sessionID, session)
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, &pageData{Title: "Session " + sessionID, Session: &view})
}

func (s *Server) viewLocked(id string, session *mockSession) sessionView {
	view := sessionView{
		ID:        id,
		User:      "anonymous",
		CreatedAt: session.createdAt.Format(localDateTime),
		Messages:  make([]transcriptView, len(session.transcript)),
	}
	if session.userID != nil {
		view.User = strconv.FormatInt(*session.userID, 10)
	}
	for i, entry := range session.transcript {
		view.Messages[i] = transcriptView{Sender: string(entry.sender), Text: entry.text}
	}
	return view
}

func (s *Server) render(w http.ResponseWriter, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "base", data); err != nil {
		s.log.WithError(err).Error("rendering page")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
