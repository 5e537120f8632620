package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/view"
)

type ticketPage struct {
	layoutData
	Ticket *chatbase.Ticket
	Agent  *chatbase.Agent
}

// Ticket handles GET /ticket/{ticketID}.
func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticketID := chi.URLParam(r, "ticketID")

	ticket := view.Load(ctx, h.views, slotKey(ctx, "ticket", ticketID, "ticket"), func(ctx context.Context) (*chatbase.Ticket, error) {
		return h.backend.GetTicket(ctx, ticketID)
	})
	if ticket.Failed() {
		h.fetchFailed(ctx, "ticket", "ticket", ticket.Err, "Failed to load ticket details.")
	}
	if ticket.Failed() || ticket.Value == nil {
		h.render(w, r, http.StatusNotFound, "ticket_not_found.html", &ticketPage{
			layoutData: layoutData{Title: "Ticket Not Found"},
		})
		return
	}

	p := &ticketPage{
		layoutData: layoutData{Title: ticket.Value.Title},
		Ticket:     ticket.Value,
	}

	if agentID := ticket.Value.Agent; agentID != "" {
		agent := view.Load(ctx, h.views, slotKey(ctx, "ticket", ticketID, "agent"), func(ctx context.Context) (*chatbase.Agent, error) {
			return h.backend.GetAgent(ctx, agentID)
		})
		if agent.Failed() {
			zerolog.Ctx(ctx).Warn().Err(agent.Err).Str("agent_id", agentID).Msg("ticket agent unavailable")
		}
		if agent.HasValue && !agent.Stale {
			p.Agent = agent.Value
		}
	}

	h.render(w, r, http.StatusOK, "ticket.html", p)
}
