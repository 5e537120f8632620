package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/view"
)

type agentPage struct {
	layoutData

	AgentID  string
	Agent    view.Result[*chatbase.Agent]
	Tickets  view.Result[[]chatbase.Ticket]
	Editor   *view.PromptEditor
	Selected *chatbase.Ticket

	// Unsaved holds a posted prompt that could not be applied because the
	// agent failed to load.
	Unsaved string

	ShowSuggestions bool
	Suggestions     []string
}

// NotFound reports whether the backend has no such agent.
func (p *agentPage) NotFound() bool {
	return !p.Agent.HasValue && chatbase.IsNotFound(p.Agent.Err)
}

// Editing reports whether the prompt editor is open.
func (p *agentPage) Editing() bool {
	return p.Editor != nil && p.Editor.Mode == view.Editing
}

// SelectedID returns the selected ticket's ID, or "".
func (p *agentPage) SelectedID() string {
	if p.Selected == nil {
		return ""
	}
	return p.Selected.ID
}

// TicketURL links to this page with ticketID selected.
func (p *agentPage) TicketURL(ticketID string) string {
	return agentURL(p.AgentID, ticketID, false)
}

// EditURL enters editing mode, keeping the ticket selection.
func (p *agentPage) EditURL() string {
	return agentURL(p.AgentID, p.SelectedID(), true)
}

// ViewURL returns to viewing mode, keeping the ticket selection.
func (p *agentPage) ViewURL() string {
	return agentURL(p.AgentID, p.SelectedID(), false)
}

func agentURL(agentID, ticketID string, edit bool) string {
	u := "/agent/" + url.PathEscape(agentID)
	q := url.Values{}
	if ticketID != "" {
		q.Set("ticket", ticketID)
	}
	if edit {
		q.Set("edit", "1")
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// loadAgentPage loads the agent and its tickets concurrently. Each failed
// slot queues one failure notice.
func (h *Handler) loadAgentPage(ctx context.Context, agentID string) *agentPage {
	p := &agentPage{
		layoutData: layoutData{Title: "Agent"},
		AgentID:    agentID,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Agent = view.Load(ctx, h.views, slotKey(ctx, "agent", agentID, "agent"), func(ctx context.Context) (*chatbase.Agent, error) {
			return h.backend.GetAgent(ctx, agentID)
		})
	}()
	go func() {
		defer wg.Done()
		p.Tickets = view.Load(ctx, h.views, slotKey(ctx, "agent", agentID, "tickets"), func(ctx context.Context) ([]chatbase.Ticket, error) {
			return h.backend.ListTicketsByAgent(ctx, agentID)
		})
	}()
	wg.Wait()

	if p.Agent.Failed() {
		h.fetchFailed(ctx, "agent", "agent", p.Agent.Err, "Failed to fetch agent details.")
	}
	if p.Tickets.Failed() {
		h.fetchFailed(ctx, "agent", "tickets", p.Tickets.Err, "Failed to fetch tickets.")
	}

	if p.Agent.HasValue && p.Agent.Value != nil {
		p.Title = p.Agent.Value.Name
		p.Editor = view.NewPromptEditor(p.Agent.Value.SystemPrompt)
	}
	return p
}

func (h *Handler) renderAgent(w http.ResponseWriter, r *http.Request, status int, p *agentPage) {
	if p.NotFound() {
		status = http.StatusNotFound
	}
	h.render(w, r, status, "agent.html", p)
}

// Agent handles GET /agent/{agentID}.
func (h *Handler) Agent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	query := r.URL.Query()

	p := h.loadAgentPage(r.Context(), agentID)
	p.Selected = view.SelectTicket(p.Tickets.Value, query.Get("ticket"))
	if p.Editor != nil && query.Get("edit") == "1" {
		p.Editor.Edit()
	}

	h.renderAgent(w, r, http.StatusOK, p)
}

// UpdatePrompt handles POST /agent/{agentID}/prompt.
func (h *Handler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	ticketID := r.FormValue("ticket")

	if r.FormValue("action") == "cancel" {
		http.Redirect(w, r, agentURL(agentID, ticketID, false), http.StatusSeeOther)
		return
	}

	p := h.loadAgentPage(ctx, agentID)
	p.Selected = view.SelectTicket(p.Tickets.Value, ticketID)
	if p.Editor == nil {
		p.Unsaved = r.FormValue("systemPrompt")
		h.renderAgent(w, r, http.StatusBadGateway, p)
		return
	}

	p.Editor.SetBuffer(r.FormValue("systemPrompt"))
	err := p.Editor.Commit(ctx, func(ctx context.Context, prompt string) error {
		_, err := h.backend.UpdateAgentPrompt(ctx, agentID, prompt)
		return err
	})

	switch {
	case errors.Is(err, view.ErrNothingToCommit):
		h.notify(ctx, models.NoticeInfo, "Nothing to save", "Change the prompt before saving.")
		h.renderAgent(w, r, http.StatusUnprocessableEntity, p)
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("agent_id", agentID).Msg("update prompt failed")
		metrics.PromptUpdates.WithLabelValues("failure").Inc()
		h.notify(ctx, models.NoticeDestructive, "Error", "Failed to update the prompt. Please try again.")
		h.renderAgent(w, r, http.StatusBadGateway, p)
	default:
		metrics.PromptUpdates.WithLabelValues("success").Inc()
		h.notify(ctx, models.NoticeSuccess, "Prompt updated", "The agent's behavior prompt was saved.")
		http.Redirect(w, r, agentURL(agentID, ticketID, false), http.StatusSeeOther)
	}
}

// Suggestions handles POST /agent/{agentID}/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	var (
		text       string
		improveErr error
		wg         sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		text, improveErr = h.backend.ImproveAgent(ctx, agentID)
	}()

	p := h.loadAgentPage(ctx, agentID)
	p.Selected = view.SelectTicket(p.Tickets.Value, r.FormValue("ticket"))
	wg.Wait()

	metrics.SuggestionsRequested.Inc()
	if improveErr != nil {
		h.fetchFailed(ctx, "agent", "suggestions", improveErr, "Failed to get suggestions.")
	} else {
		p.ShowSuggestions = true
		p.Suggestions = view.Paragraphs(text)
	}

	h.renderAgent(w, r, http.StatusOK, p)
}
