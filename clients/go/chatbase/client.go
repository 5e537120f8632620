// Package chatbase provides a client for the Chatbase agent backend REST API.
package chatbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// DefaultBaseURL is the backend origin used when none is configured.
const DefaultBaseURL = "http://localhost:5001"

var (
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded
	// into the expected shape.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrNoSentimentData is returned when the sentiment endpoint answers
	// without a usable analysis. Callers treat it as an empty state.
	ErrNoSentimentData = errors.New("no sentiment data")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a Chatbase backend API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// NewClient creates a new backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an HTTP request and returns the body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

func decodeAgent(data []byte) (*Agent, error) {
	var agent Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	return &agent, nil
}

func decodeAgents(data []byte) ([]Agent, error) {
	var agents []Agent
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i := range agents {
		if err := agents[i].Validate(); err != nil {
			return nil, err
		}
	}
	if agents == nil {
		agents = []Agent{}
	}
	return agents, nil
}

func decodeTicket(data []byte) (*Ticket, error) {
	var ticket Ticket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := ticket.Validate(); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func decodeTickets(data []byte) ([]Ticket, error) {
	var tickets []Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i := range tickets {
		if err := tickets[i].Validate(); err != nil {
			return nil, err
		}
	}
	if tickets == nil {
		tickets = []Ticket{}
	}
	return tickets, nil
}

// ListAgentsByUser lists the agents owned by a user.
func (c *Client) ListAgentsByUser(ctx context.Context, userID string) ([]Agent, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/agents/user/"+url.PathEscape(userID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeAgents(respBody)
}

// GetAgent fetches a single agent.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(agentID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeAgent(respBody)
}

// UpdatePromptRequest is the request body for updating an agent's prompt.
type UpdatePromptRequest struct {
	AgentID      string `json:"agentId"`
	SystemPrompt string `json:"systemPrompt"`
}

// UpdateAgentPrompt overwrites an agent's behavior prompt. The backend may
// answer with the updated agent or with a bare acknowledgement, in which
// case the returned agent is nil.
func (c *Client) UpdateAgentPrompt(ctx context.Context, agentID, prompt string) (*Agent, error) {
	respBody, err := c.postJSON(ctx, "/api/agents/update-agent", UpdatePromptRequest{
		AgentID:      agentID,
		SystemPrompt: prompt,
	})
	if err != nil {
		return nil, err
	}

	agent, err := decodeAgent(respBody)
	if err != nil {
		return nil, nil
	}
	return agent, nil
}

// CreateAgentRequest describes a new agent and its knowledge document.
type CreateAgentRequest struct {
	Name         string
	SystemPrompt string
	UserID       string
	FileName     string
	File         io.Reader
}

// CreateAgent uploads a document and creates an agent from it.
func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"name", req.Name},
		{"systemPrompt", req.SystemPrompt},
		{"userId", req.UserID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.FileName))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/agents/create-agent", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	agent, err := decodeAgent(respBody)
	if err != nil {
		// Creation succeeded; only the echo is unusable.
		return nil, nil
	}
	return agent, nil
}

// ListTicketsByAgent lists the tickets handled by an agent.
func (c *Client) ListTicketsByAgent(ctx context.Context, agentID string) ([]Ticket, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/tickets/get-ticket-by-agent/"+url.PathEscape(agentID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeTickets(respBody)
}

// ListAllTickets lists every ticket known to the backend.
func (c *Client) ListAllTickets(ctx context.Context) ([]Ticket, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/tickets/get-all-tickets", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeTickets(respBody)
}

// GetTicket fetches a single ticket with its transcript.
func (c *Client) GetTicket(ctx context.Context, ticketID string) (*Ticket, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/tickets/get-ticket-by-id/"+url.PathEscape(ticketID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeTicket(respBody)
}

type agentRequest struct {
	AgentID string `json:"agentId"`
}

// ImproveAgent asks the backend for free-text improvement suggestions.
func (c *Client) ImproveAgent(ctx context.Context, agentID string) (string, error) {
	respBody, err := c.postJSON(ctx, "/api/improve/improve-agent", agentRequest{AgentID: agentID})
	if err != nil {
		return "", err
	}

	var resp struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil || resp.Response == nil {
		return "", fmt.Errorf("%w: improve-agent without response", ErrMalformedResponse)
	}
	return *resp.Response, nil
}

// sentimentEnvelope is the outer body of the sentiment-graph endpoint.
// Response holds a second, JSON-encoded document.
type sentimentEnvelope struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

type sentimentDocument struct {
	Analysis *SentimentAnalysis `json:"sentiment_analysis"`
}

// SentimentGraph fetches the sentiment trend for an agent's conversations.
// A reachable backend that returns no usable analysis yields
// ErrNoSentimentData.
func (c *Client) SentimentGraph(ctx context.Context, agentID string) (*SentimentAnalysis, error) {
	respBody, err := c.postJSON(ctx, "/api/improve/sentiment-graph", agentRequest{AgentID: agentID})
	if err != nil {
		return nil, err
	}
	return ParseSentimentEnvelope(respBody)
}

// ParseSentimentEnvelope decodes the double-encoded sentiment payload.
func ParseSentimentEnvelope(data []byte) (*SentimentAnalysis, error) {
	var env sentimentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrNoSentimentData, err)
	}
	if !env.Success || strings.TrimSpace(env.Response) == "" {
		return nil, ErrNoSentimentData
	}

	var doc sentimentDocument
	if err := json.Unmarshal([]byte(env.Response), &doc); err != nil {
		return nil, fmt.Errorf("%w: response: %v", ErrNoSentimentData, err)
	}
	if doc.Analysis == nil {
		return nil, ErrNoSentimentData
	}
	return doc.Analysis, nil
}

// Ping checks that the backend origin answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
