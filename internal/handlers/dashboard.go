package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/view"
)

const (
	chartWidth  = 640
	chartHeight = 240
)

// sentimentSlot is the retained value of one agent's sentiment load.
// A reachable backend without usable data is a value, not a failure.
type sentimentSlot struct {
	Analysis *chatbase.SentimentAnalysis `json:"analysis,omitempty"`
	NoData   bool                        `json:"no_data,omitempty"`
}

type dashboardPage struct {
	layoutData

	Agents       view.Result[[]chatbase.Agent]
	Tickets      view.Result[[]chatbase.Ticket]
	Stats        DashboardStats
	Visible      []chatbase.Ticket
	ShowToggle   bool
	Expanded     bool
	ToggleURL    string
	SentimentFor string
	Sentiment    view.SentimentView
	Chart        view.Chart
}

// AgentName returns the display name of agentID among the loaded agents.
func (p *dashboardPage) AgentName(agentID string) string {
	for _, a := range p.Agents.Value {
		if a.ID == agentID {
			return a.Name
		}
	}
	return agentID
}

// Dashboard handles GET / and GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)
	query := r.URL.Query()

	p := &dashboardPage{
		layoutData:   layoutData{Title: "Your Agents"},
		Expanded:     query.Get("tickets") == "all",
		SentimentFor: query.Get("sentiment"),
	}

	var (
		wg        sync.WaitGroup
		sentiment view.Result[sentimentSlot]
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Agents = view.Load(ctx, h.views, slotKey(ctx, "dashboard", "", "agents"), func(ctx context.Context) ([]chatbase.Agent, error) {
			agents, err := h.backend.ListAgentsByUser(ctx, user.ID.String())
			if err != nil {
				return nil, err
			}
			h.countTickets(ctx, agents)
			return agents, nil
		})
	}()
	go func() {
		defer wg.Done()
		p.Tickets = view.Load(ctx, h.views, slotKey(ctx, "dashboard", "", "tickets"), h.backend.ListAllTickets)
	}()

	if p.SentimentFor != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sentiment = view.Load(ctx, h.views, slotKey(ctx, "dashboard", p.SentimentFor, "sentiment"), func(ctx context.Context) (sentimentSlot, error) {
				return h.loadSentiment(ctx, p.SentimentFor)
			})
		}()
	}
	wg.Wait()

	if p.Agents.Failed() {
		h.fetchFailed(ctx, "dashboard", "agents", p.Agents.Err, "Failed to fetch agents. Please try again.")
	}
	if p.Tickets.Failed() {
		h.fetchFailed(ctx, "dashboard", "tickets", p.Tickets.Err, "Failed to fetch tickets. Please try again.")
	}

	if p.SentimentFor != "" {
		switch {
		case sentiment.Failed():
			metrics.SentimentLoads.WithLabelValues("error").Inc()
			h.fetchFailed(ctx, "dashboard", "sentiment", sentiment.Err, "Failed to load sentiment analysis.")
		case sentiment.Value.NoData:
			metrics.SentimentLoads.WithLabelValues("no_data").Inc()
			h.notify(ctx, models.NoticeInfo, "No sentiment data", "There is no sentiment data for this agent yet.")
		default:
			metrics.SentimentLoads.WithLabelValues("ok").Inc()
		}
		if sentiment.HasValue {
			p.Sentiment.Replace(p.SentimentFor, sentiment.Value.Analysis)
		} else {
			p.Sentiment.Clear(p.SentimentFor)
		}
		p.Chart = view.NewChart(p.Sentiment.Turns, chartWidth, chartHeight)
	}

	p.Stats = computeStats(p.Agents.Value, p.Tickets.Value)

	window := view.Window{Limit: view.DefaultWindow, Expanded: p.Expanded}
	p.Visible = view.Visible(p.Tickets.Value, window)
	p.ShowToggle = window.HasMore(len(p.Tickets.Value))
	p.ToggleURL = dashboardURL(window.Toggled().Expanded, p.SentimentFor)

	h.render(w, r, http.StatusOK, "dashboard.html", p)
}

// loadSentiment maps the backend's no-data answers to an empty value.
func (h *Handler) loadSentiment(ctx context.Context, agentID string) (sentimentSlot, error) {
	analysis, err := h.backend.SentimentGraph(ctx, agentID)
	if errors.Is(err, chatbase.ErrNoSentimentData) {
		return sentimentSlot{NoData: true}, nil
	}
	if err != nil {
		return sentimentSlot{}, err
	}
	return sentimentSlot{Analysis: analysis}, nil
}

// countTickets fills each agent's TicketCount concurrently. A failed count
// is zero.
func (h *Handler) countTickets(ctx context.Context, agents []chatbase.Agent) {
	var wg sync.WaitGroup
	for i := range agents {
		wg.Add(1)
		go func(a *chatbase.Agent) {
			defer wg.Done()
			tickets, err := h.backend.ListTicketsByAgent(ctx, a.ID)
			if err != nil {
				a.TicketCount = 0
				return
			}
			a.TicketCount = len(tickets)
		}(&agents[i])
	}
	wg.Wait()
}

// dashboardURL builds the agent list URL for a window and sentiment choice.
func dashboardURL(expanded bool, sentimentFor string) string {
	q := url.Values{}
	if expanded {
		q.Set("tickets", "all")
	}
	if sentimentFor != "" {
		q.Set("sentiment", sentimentFor)
	}
	if len(q) == 0 {
		return "/dashboard"
	}
	return "/dashboard?" + q.Encode()
}
