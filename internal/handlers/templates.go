package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageFiles lists every page rendered inside the shell layout.
var pageFiles = []string{
	"sign_in.html",
	"sign_up.html",
	"dashboard.html",
	"create_agent.html",
	"agent.html",
	"ticket.html",
	"ticket_not_found.html",
	"not_found.html",
}

// templateFuncs provides helper functions available in all templates.
var templateFuncs = template.FuncMap{
	"renderMarkdown": renderMarkdown,
	"truncate":       truncate,
	"timeAgo":        formatTimeAgo,
	"formatTime":     formatTime,
	"statusClass":    statusClass,
	"priorityClass":  priorityClass,
	"senderClass":    senderClass,
	"scoreClass":     scoreClass,
}

type pageTemplate struct {
	tmpl *template.Template
}

func parseTemplates() (map[string]*pageTemplate, error) {
	pages := make(map[string]*pageTemplate, len(pageFiles))
	for _, page := range pageFiles {
		tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = &pageTemplate{tmpl: tmpl}
	}
	return pages, nil
}

// layoutData is the part of every page the shell layout reads.
type layoutData struct {
	Title   string
	User    *models.User
	Notices []models.Notice
}

func (l *layoutData) layout() *layoutData { return l }

type page interface {
	layout() *layoutData
}

// render executes the named page inside the shell layout. It fills the
// signed-in user and drains the session's queued notices.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	base := data.layout()
	base.User = middleware.UserFromContext(ctx)
	if session := middleware.SessionFromContext(ctx); session != nil {
		notices, err := h.sessions.PopNotices(ctx, session.ID)
		if err != nil {
			logger.Error().Err(err).Msg("read notices failed")
		}
		base.Notices = append(notices, base.Notices...)
	}

	p, ok := h.pages[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error().Err(err).Str("template", name).Msg("template error")
		http.Error(w, "template rendering error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderMarkdown converts a markdown string to HTML.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// truncate shortens a string to n runes, adding "..." if truncated.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// formatTime renders a message timestamp.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "no activity yet"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func statusClass(s chatbase.TicketStatus) string {
	switch s {
	case chatbase.TicketOpen:
		return "badge badge-open"
	case chatbase.TicketClosed:
		return "badge badge-closed"
	case chatbase.TicketEscalated:
		return "badge badge-escalated"
	default:
		return "badge"
	}
}

func priorityClass(p chatbase.TicketPriority) string {
	switch p {
	case chatbase.PriorityHigh:
		return "badge badge-high"
	case chatbase.PriorityMedium:
		return "badge badge-medium"
	case chatbase.PriorityLow:
		return "badge badge-low"
	default:
		return "badge"
	}
}

func senderClass(s chatbase.Sender) string {
	switch {
	case s == chatbase.SenderUser:
		return "message message-user"
	case strings.EqualFold(string(s), string(chatbase.SenderSystem)):
		return "message message-system"
	default:
		return "message message-agent"
	}
}

func scoreClass(score float64) string {
	switch {
	case score > 0.2:
		return "point-positive"
	case score < -0.2:
		return "point-negative"
	default:
		return "point-neutral"
	}
}
