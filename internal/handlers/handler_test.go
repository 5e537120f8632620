package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/config"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/store"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/view"
)

// mockBackend is a scripted agent backend that counts calls.
type mockBackend struct {
	mu    sync.Mutex
	calls map[string]int

	agents     []chatbase.Agent
	agentsErr  error
	agent      *chatbase.Agent
	agentErr   error
	tickets    []chatbase.Ticket
	ticketsErr error
	ticket     *chatbase.Ticket
	ticketErr  error

	improve    string
	improveErr error

	sentiment    map[string]*chatbase.SentimentAnalysis
	sentimentErr error

	updateErr     error
	updatedPrompt string

	createErr error
	created   []chatbase.CreateAgentRequest

	pingErr error
}

func (m *mockBackend) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockBackend) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockBackend) ListAgentsByUser(ctx context.Context, userID string) ([]chatbase.Agent, error) {
	m.record("ListAgentsByUser")
	if m.agentsErr != nil {
		return nil, m.agentsErr
	}
	return append([]chatbase.Agent{}, m.agents...), nil
}

func (m *mockBackend) GetAgent(ctx context.Context, agentID string) (*chatbase.Agent, error) {
	m.record("GetAgent")
	if m.agentErr != nil {
		return nil, m.agentErr
	}
	if m.agent == nil {
		return nil, &chatbase.APIError{StatusCode: http.StatusNotFound}
	}
	a := *m.agent
	return &a, nil
}

func (m *mockBackend) UpdateAgentPrompt(ctx context.Context, agentID, prompt string) (*chatbase.Agent, error) {
	m.record("UpdateAgentPrompt")
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.mu.Lock()
	m.updatedPrompt = prompt
	m.mu.Unlock()
	return nil, nil
}

func (m *mockBackend) CreateAgent(ctx context.Context, req chatbase.CreateAgentRequest) (*chatbase.Agent, error) {
	m.record("CreateAgent")
	if m.createErr != nil {
		return nil, m.createErr
	}
	io.Copy(io.Discard, req.File)
	m.mu.Lock()
	m.created = append(m.created, req)
	m.mu.Unlock()
	return &chatbase.Agent{ID: "new", Name: req.Name}, nil
}

func (m *mockBackend) ListTicketsByAgent(ctx context.Context, agentID string) ([]chatbase.Ticket, error) {
	m.record("ListTicketsByAgent")
	if m.ticketsErr != nil {
		return nil, m.ticketsErr
	}
	var out []chatbase.Ticket
	for _, t := range m.tickets {
		if t.Agent == agentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockBackend) ListAllTickets(ctx context.Context) ([]chatbase.Ticket, error) {
	m.record("ListAllTickets")
	if m.ticketsErr != nil {
		return nil, m.ticketsErr
	}
	return append([]chatbase.Ticket{}, m.tickets...), nil
}

func (m *mockBackend) GetTicket(ctx context.Context, ticketID string) (*chatbase.Ticket, error) {
	m.record("GetTicket")
	if m.ticketErr != nil {
		return nil, m.ticketErr
	}
	if m.ticket == nil {
		return nil, &chatbase.APIError{StatusCode: http.StatusNotFound, Message: "Ticket not found"}
	}
	t := *m.ticket
	return &t, nil
}

func (m *mockBackend) ImproveAgent(ctx context.Context, agentID string) (string, error) {
	m.record("ImproveAgent")
	return m.improve, m.improveErr
}

func (m *mockBackend) SentimentGraph(ctx context.Context, agentID string) (*chatbase.SentimentAnalysis, error) {
	m.record("SentimentGraph")
	if m.sentimentErr != nil {
		return nil, m.sentimentErr
	}
	a, ok := m.sentiment[agentID]
	if !ok {
		return nil, chatbase.ErrNoSentimentData
	}
	return a, nil
}

func (m *mockBackend) Ping(ctx context.Context) error {
	return m.pingErr
}

type fixture struct {
	t        *testing.T
	backend  *mockBackend
	users    *store.SQLiteStore
	sessions *store.MemorySessionStore
	handler  *Handler
	router   chi.Router
	user     *models.User
	session  *models.Session
}

func newFixture(t *testing.T, backend *mockBackend) *fixture {
	t.Helper()

	users, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(users.Close)

	signer, err := crypto.NewSigner("test-session-secret")
	if err != nil {
		t.Fatal(err)
	}

	sessions := store.NewMemorySessionStore()
	h, err := NewHandler(Deps{
		Config: &config.Config{
			Env:            "development",
			SessionTTL:     time.Hour,
			MaxUploadBytes: 1 << 20,
		},
		Backend:  backend,
		Users:    users,
		Sessions: sessions,
		Views:    view.NewMemoryStore(0),
		Signer:   signer,
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	now := time.Now()
	f := &fixture{
		t:        t,
		backend:  backend,
		users:    users,
		sessions: sessions,
		handler:  h,
		user:     &models.User{ID: crypto.NewUUIDv7(), Email: "owner@example.com", Name: "Owner"},
		session:  &models.Session{ID: crypto.NewUUIDv7(), CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	f.session.UserID = f.user.ID
	sessions.CreateSession(context.Background(), f.session)

	r := chi.NewRouter()
	r.Get("/sign-in", h.SignInPage)
	r.Post("/sign-in", h.SignIn)
	r.Get("/sign-up", h.SignUpPage)
	r.Post("/sign-up", h.SignUp)
	r.Get("/health", h.Health)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), f.user, f.session)))
			})
		})
		r.Post("/sign-out", h.SignOut)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/create-agent", h.CreateAgentPage)
		r.Post("/create-agent", h.CreateAgent)
		r.Get("/agent/{agentID}", h.Agent)
		r.Post("/agent/{agentID}/prompt", h.UpdatePrompt)
		r.Post("/agent/{agentID}/suggestions", h.Suggestions)
		r.Get("/ticket/{ticketID}", h.Ticket)
		r.NotFound(h.NotFound)
	})
	f.router = r
	return f
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postForm(target string, form map[string]string) *httptest.ResponseRecorder {
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) notices() []models.Notice {
	notices, _ := f.sessions.PopNotices(context.Background(), f.session.ID)
	return notices
}

func makeTickets(n int, agentID string) []chatbase.Ticket {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tickets := make([]chatbase.Ticket, n)
	for i := range tickets {
		tickets[i] = chatbase.Ticket{
			ID:        "t" + string(rune('1'+i)),
			Title:     "Ticket " + string(rune('A'+i)),
			Status:    chatbase.TicketOpen,
			Priority:  chatbase.PriorityLow,
			Agent:     agentID,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return tickets
}

func TestDashboardEmptyAgents(t *testing.T) {
	f := newFixture(t, &mockBackend{agents: []chatbase.Agent{}})

	rec := f.get("/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "No Agents Created") || !strings.Contains(body, "Create Your First Agent") {
		t.Fatal("expected the empty state")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestDashboardFailureKeepsPreviousAgents(t *testing.T) {
	backend := &mockBackend{agents: []chatbase.Agent{{ID: "a1", Name: "Support Bot", SystemPrompt: "Be kind"}}}
	f := newFixture(t, backend)

	if rec := f.get("/dashboard"); !strings.Contains(rec.Body.String(), "Support Bot") {
		t.Fatal("first load should list the agent")
	}

	backend.agentsErr = &chatbase.APIError{StatusCode: http.StatusInternalServerError}
	rec := f.get("/dashboard")
	body := rec.Body.String()
	if !strings.Contains(body, "Support Bot") {
		t.Fatal("failed refresh should keep the previous agents")
	}
	if strings.Contains(body, "No Agents Created") {
		t.Fatal("failed refresh must not show the empty state")
	}
	if n := strings.Count(body, "Failed to fetch agents"); n != 1 {
		t.Fatalf("failure notices = %d, want 1", n)
	}
}

func TestDashboardFailureWithoutHistory(t *testing.T) {
	f := newFixture(t, &mockBackend{agentsErr: &chatbase.APIError{StatusCode: http.StatusBadGateway}})

	body := f.get("/dashboard").Body.String()
	if !strings.Contains(body, "Agents unavailable") {
		t.Fatal("expected the unavailable panel")
	}
	if strings.Contains(body, "No Agents Created") {
		t.Fatal("a failed load is not an empty list")
	}
}

func TestDashboardTicketWindow(t *testing.T) {
	f := newFixture(t, &mockBackend{agents: []chatbase.Agent{}, tickets: makeTickets(7, "a1")})

	rows := func(rec *httptest.ResponseRecorder) int {
		return strings.Count(rec.Body.String(), `class="ticket-row"`)
	}

	rec := f.get("/dashboard")
	if got := rows(rec); got != 5 {
		t.Fatalf("collapsed rows = %d, want 5", got)
	}
	if !strings.Contains(rec.Body.String(), "Show More") {
		t.Fatal("expected Show More")
	}

	rec = f.get("/dashboard?tickets=all")
	if got := rows(rec); got != 7 {
		t.Fatalf("expanded rows = %d, want 7", got)
	}
	if !strings.Contains(rec.Body.String(), "Show Less") {
		t.Fatal("expected Show Less")
	}

	if got := rows(f.get("/dashboard")); got != 5 {
		t.Fatalf("collapsed again rows = %d, want 5", got)
	}
}

func TestDashboardShortTicketListHasNoToggle(t *testing.T) {
	f := newFixture(t, &mockBackend{agents: []chatbase.Agent{}, tickets: makeTickets(3, "a1")})

	body := f.get("/dashboard").Body.String()
	if strings.Contains(body, "tickets-toggle") {
		t.Fatal("toggle shown for a short list")
	}
}

func TestDashboardSentimentReplacedPerAgent(t *testing.T) {
	f := newFixture(t, &mockBackend{
		agents: []chatbase.Agent{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}},
		sentiment: map[string]*chatbase.SentimentAnalysis{
			"a": {Summary: "Calm alpha", Trend: []chatbase.SentimentTurn{
				{Turn: 1, Speaker: "user", Score: 0.2},
				{Turn: 2, Speaker: "agent", Score: 0.6},
			}},
			"b": {Summary: "Tense beta", Trend: []chatbase.SentimentTurn{
				{Turn: 1, Speaker: "user", Score: -0.7},
			}},
		},
	})

	body := f.get("/dashboard?sentiment=a").Body.String()
	if !strings.Contains(body, "Calm alpha") || strings.Count(body, "<circle") != 2 {
		t.Fatal("expected alpha's two turns")
	}

	body = f.get("/dashboard?sentiment=b").Body.String()
	if !strings.Contains(body, "Tense beta") || strings.Contains(body, "Calm alpha") {
		t.Fatal("beta's analysis should replace alpha's")
	}
	if n := strings.Count(body, "<circle"); n != 1 {
		t.Fatalf("points = %d, want 1", n)
	}
}

func TestDashboardSentimentNoData(t *testing.T) {
	f := newFixture(t, &mockBackend{
		agents:       []chatbase.Agent{{ID: "a", Name: "Alpha"}},
		sentimentErr: chatbase.ErrNoSentimentData,
	})

	rec := f.get("/dashboard?sentiment=a")
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(body, "sentiment-empty") || strings.Contains(body, "<svg") {
		t.Fatal("expected the empty chart state")
	}
	if strings.Contains(body, "Failed to load sentiment") {
		t.Fatal("missing data is not a failure")
	}
}

func TestTicketNotFound(t *testing.T) {
	backend := &mockBackend{}
	f := newFixture(t, backend)

	rec := f.get("/ticket/unknown-id")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ticket Not Found") || !strings.Contains(body, `href="/dashboard"`) {
		t.Fatal("expected the not-found page with a way back")
	}
	if n := backend.count("GetAgent"); n != 0 {
		t.Fatalf("GetAgent calls = %d, want 0", n)
	}
}

func TestTicketTranscript(t *testing.T) {
	f := newFixture(t, &mockBackend{
		agent: &chatbase.Agent{ID: "a1", Name: "Refund Helper", SystemPrompt: "Help with refunds"},
		ticket: &chatbase.Ticket{
			ID: "t1", Title: "Refund", Status: chatbase.TicketEscalated, Priority: chatbase.PriorityHigh, Agent: "a1",
			ChatHistory: []chatbase.ChatMessage{
				{Sender: chatbase.SenderUser, Message: "first message"},
				{Sender: chatbase.SenderAgent, Message: "second message"},
			},
		},
	})

	rec := f.get("/ticket/t1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	first, second := strings.Index(body, "first message"), strings.Index(body, "second message")
	if first < 0 || second < 0 || first > second {
		t.Fatal("transcript missing or reordered")
	}
	if !strings.Contains(body, "Refund Helper") || !strings.Contains(body, "badge-escalated") {
		t.Fatal("expected agent panel and status badge")
	}
}

func TestTicketAgentUnavailable(t *testing.T) {
	f := newFixture(t, &mockBackend{
		agentErr: &chatbase.APIError{StatusCode: http.StatusInternalServerError},
		ticket:   &chatbase.Ticket{ID: "t1", Title: "Refund", Agent: "a1"},
	})

	rec := f.get("/ticket/t1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "agent-missing") {
		t.Fatal("ticket should render without its agent")
	}
}

func newAgentBackend() *mockBackend {
	tickets := makeTickets(2, "a1")
	tickets[1].Title = "Second chat"
	tickets[1].ChatHistory = []chatbase.ChatMessage{{Sender: chatbase.SenderUser, Message: "hello there"}}
	return &mockBackend{
		agent:   &chatbase.Agent{ID: "a1", Name: "Support Bot", SystemPrompt: "Be kind"},
		tickets: tickets,
	}
}

func TestAgentSelectsTicket(t *testing.T) {
	f := newFixture(t, newAgentBackend())

	body := f.get("/agent/a1").Body.String()
	if !strings.Contains(body, "Select a conversation") {
		t.Fatal("expected the empty transcript panel")
	}
	if !strings.Contains(body, "Conversations (2)") {
		t.Fatal("expected the conversation count")
	}

	body = f.get("/agent/a1?ticket=t2").Body.String()
	if !strings.Contains(body, "Chat: Second chat") || !strings.Contains(body, "hello there") {
		t.Fatal("expected the selected transcript")
	}
}

func TestAgentNotFound(t *testing.T) {
	f := newFixture(t, &mockBackend{})

	rec := f.get("/agent/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Agent not found") {
		t.Fatal("expected the not-found state")
	}
}

func TestAgentEditModeSeedsBuffer(t *testing.T) {
	f := newFixture(t, newAgentBackend())

	body := f.get("/agent/a1?edit=1").Body.String()
	if !strings.Contains(body, `id="prompt-editor"`) || !strings.Contains(body, ">Be kind</textarea>") {
		t.Fatal("editor should open seeded with the current prompt")
	}
	if !strings.Contains(body, `id="prompt-save" disabled>`) {
		t.Fatal("Save should be disabled while the buffer equals the current prompt")
	}
}

func TestUpdatePromptWhitespaceOnly(t *testing.T) {
	backend := newAgentBackend()
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/prompt", map[string]string{"action": "save", "systemPrompt": "   "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if n := backend.count("UpdateAgentPrompt"); n != 0 {
		t.Fatalf("update calls = %d, want 0", n)
	}
}

func TestUpdatePromptUnchanged(t *testing.T) {
	backend := newAgentBackend()
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/prompt", map[string]string{"action": "save", "systemPrompt": " Be kind \n"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if n := backend.count("UpdateAgentPrompt"); n != 0 {
		t.Fatalf("update calls = %d, want 0", n)
	}
}

func TestUpdatePromptCancel(t *testing.T) {
	backend := newAgentBackend()
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/prompt", map[string]string{"action": "cancel", "systemPrompt": "changed", "ticket": "t2"})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/agent/a1?ticket=t2" {
		t.Fatalf("Location = %q", loc)
	}
	if backend.count("UpdateAgentPrompt") != 0 || backend.count("GetAgent") != 0 {
		t.Fatal("cancel must not call the backend")
	}
}

func TestUpdatePromptSavesTrimmed(t *testing.T) {
	backend := newAgentBackend()
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/prompt", map[string]string{"action": "save", "systemPrompt": "  Be brief  "})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if backend.count("UpdateAgentPrompt") != 1 || backend.updatedPrompt != "Be brief" {
		t.Fatalf("update calls = %d, prompt = %q", backend.count("UpdateAgentPrompt"), backend.updatedPrompt)
	}
	notices := f.notices()
	if len(notices) != 1 || notices[0].Level != models.NoticeSuccess {
		t.Fatalf("notices = %+v", notices)
	}
}

func TestUpdatePromptFailureKeepsBuffer(t *testing.T) {
	backend := newAgentBackend()
	backend.updateErr = &chatbase.APIError{StatusCode: http.StatusInternalServerError}
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/prompt", map[string]string{"action": "save", "systemPrompt": "Be brief"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="prompt-editor"`) || !strings.Contains(body, ">Be brief</textarea>") {
		t.Fatal("failed save should keep the editor open with the buffer")
	}
	if !strings.Contains(body, "Failed to update the prompt") {
		t.Fatal("expected a failure notice")
	}
	if !strings.Contains(body, `id="prompt-save">`) {
		t.Fatal("Save should stay enabled for a changed buffer")
	}
}

func TestUpdatePromptReloadFailureKeepsBuffer(t *testing.T) {
	backend := newAgentBackend()
	backend.agentErr = &chatbase.APIError{StatusCode: http.StatusInternalServerError}
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/prompt", map[string]string{"action": "save", "systemPrompt": "Be brief", "ticket": "t2"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="prompt-unsaved"`) || !strings.Contains(body, ">Be brief</textarea>") {
		t.Fatal("posted prompt should be kept when the agent cannot be loaded")
	}
	if n := backend.count("UpdateAgentPrompt"); n != 0 {
		t.Fatalf("update calls = %d, want 0", n)
	}
}

func TestSuggestionsParagraphs(t *testing.T) {
	backend := newAgentBackend()
	backend.improve = "Be shorter.\n\n  \nAsk follow-up questions."
	f := newFixture(t, backend)

	rec := f.postForm("/agent/a1/suggestions", map[string]string{"ticket": "t2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Agent Improvement Suggestions") {
		t.Fatal("expected the suggestions dialog")
	}
	if n := strings.Count(body, `class="suggestion">`); n != 2 {
		t.Fatalf("paragraphs = %d, want 2", n)
	}
	if !strings.Contains(body, "Chat: Second chat") {
		t.Fatal("ticket selection should survive")
	}
}

func TestSuggestionsFailure(t *testing.T) {
	backend := newAgentBackend()
	backend.improveErr = &chatbase.APIError{StatusCode: http.StatusInternalServerError}
	f := newFixture(t, backend)

	body := f.postForm("/agent/a1/suggestions", nil).Body.String()
	if strings.Contains(body, "Agent Improvement Suggestions") {
		t.Fatal("dialog shown after a failure")
	}
	if n := strings.Count(body, "Failed to get suggestions"); n != 1 {
		t.Fatalf("failure notices = %d, want 1", n)
	}
}

func TestNoticesShownOnce(t *testing.T) {
	f := newFixture(t, &mockBackend{agents: []chatbase.Agent{}})
	f.handler.notify(middleware.WithIdentity(context.Background(), f.user, f.session), models.NoticeInfo, "Heads up", "")

	if !strings.Contains(f.get("/dashboard").Body.String(), "Heads up") {
		t.Fatal("queued notice not shown")
	}
	if strings.Contains(f.get("/dashboard").Body.String(), "Heads up") {
		t.Fatal("notice shown twice")
	}
}

func TestNotFoundPage(t *testing.T) {
	f := newFixture(t, &mockBackend{})

	rec := f.get("/nowhere")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Page not found") {
		t.Fatal("expected the not-found page")
	}
}

func TestHealth(t *testing.T) {
	backend := &mockBackend{}
	f := newFixture(t, backend)

	rec := f.get("/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) || !strings.Contains(rec.Body.String(), `"skip"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	backend.pingErr = io.ErrUnexpectedEOF
	if rec := f.get("/health"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d", rec.Code)
	}
}
