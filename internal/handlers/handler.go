package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/config"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/store"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/view"
)

// emailRegex validates email addresses per RFC 5322 (simplified).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Backend is the agent backend as the pages use it. *chatbase.Client
// implements it.
type Backend interface {
	ListAgentsByUser(ctx context.Context, userID string) ([]chatbase.Agent, error)
	GetAgent(ctx context.Context, agentID string) (*chatbase.Agent, error)
	UpdateAgentPrompt(ctx context.Context, agentID, prompt string) (*chatbase.Agent, error)
	CreateAgent(ctx context.Context, req chatbase.CreateAgentRequest) (*chatbase.Agent, error)
	ListTicketsByAgent(ctx context.Context, agentID string) ([]chatbase.Ticket, error)
	ListAllTickets(ctx context.Context) ([]chatbase.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*chatbase.Ticket, error)
	ImproveAgent(ctx context.Context, agentID string) (string, error)
	SentimentGraph(ctx context.Context, agentID string) (*chatbase.SentimentAnalysis, error)
	Ping(ctx context.Context) error
}

// Deps are the dependencies shared by all handlers.
type Deps struct {
	Config   *config.Config
	Backend  Backend
	Users    store.UserStore
	Sessions store.SessionStore
	Views    view.Store
	Signer   *crypto.Signer
	Redis    *store.RedisStore // nil without REDIS_URL
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	backend  Backend
	users    store.UserStore
	sessions store.SessionStore
	views    view.Store
	signer   *crypto.Signer
	redis    *store.RedisStore
	pages    map[string]*pageTemplate
}

// NewHandler creates a new Handler. It fails if the page templates do not
// parse.
func NewHandler(d Deps) (*Handler, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:      d.Config,
		backend:  d.Backend,
		users:    d.Users,
		sessions: d.Sessions,
		views:    d.Views,
		signer:   d.Signer,
		redis:    d.Redis,
		pages:    pages,
	}, nil
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// notify queues a notice on the current session. Notices shown on the
// next render of any page.
func (h *Handler) notify(ctx context.Context, level models.NoticeLevel, title, description string) {
	session := middleware.SessionFromContext(ctx)
	if session == nil {
		return
	}
	if err := h.sessions.PushNotice(ctx, session.ID, models.NewNotice(level, title, description)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("queue notice failed")
	}
}

// fetchFailed records a slot that ended in the error state and queues its
// single failure notice.
func (h *Handler) fetchFailed(ctx context.Context, page, slot string, err error, description string) {
	zerolog.Ctx(ctx).Error().Err(err).Str("page", page).Str("slot", slot).Msg("backend fetch failed")
	metrics.FetchFailures.WithLabelValues(page, slot).Inc()
	h.notify(ctx, models.NoticeDestructive, "Error", description)
}

// slotKey builds the view slot key for the current session.
func slotKey(ctx context.Context, page, id, slot string) string {
	sid := uuid.Nil
	if session := middleware.SessionFromContext(ctx); session != nil {
		sid = session.ID
	}
	return view.Key(sid.String(), page, id, slot)
}

// sanitizeName trims and limits name to 100 characters, removing control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Limit to 100 characters
	if len(name) > 100 {
		name = name[:100]
	}

	return name
}

// isValidEmail validates email addresses using RFC 5322 pattern.
func isValidEmail(email string) bool {
	// Must be reasonable length and match RFC 5322 pattern
	if email == "" || len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// safeRedirect returns target if it is a local path, otherwise fallback.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
