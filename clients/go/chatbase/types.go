package chatbase

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayouts are the formats the backend has been seen to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes a display-only time. Values in none of the known
// layouts, or not strings at all, decode to the zero time instead of
// failing the record.
type Timestamp time.Time

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(parsed)
			return nil
		}
	}
	return nil
}

// Agent represents a configured chat agent as stored by the backend.
type Agent struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	SystemPrompt    string    `json:"systemPrompt"`
	UserID          string    `json:"userId"`
	CreatedAt       time.Time `json:"createdAt"`
	EmbeddingScript string    `json:"embeddingScript,omitempty"`
	KnowledgeBaseID string    `json:"knowledgeBaseId,omitempty"`
	TicketCount     int       `json:"ticketCount,omitempty"`
}

// UnmarshalJSON decodes an agent, tolerating malformed timestamps.
func (a *Agent) UnmarshalJSON(data []byte) error {
	type plain Agent
	aux := struct {
		*plain
		CreatedAt Timestamp `json:"createdAt"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.CreatedAt = time.Time(aux.CreatedAt)
	return nil
}

// Validate rejects agents missing the fields every page relies on.
func (a *Agent) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: agent without _id", ErrMalformedResponse)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: agent %s without name", ErrMalformedResponse, a.ID)
	}
	return nil
}

// EmbedSnippet returns the script tag third-party sites use to embed the agent.
func (a *Agent) EmbedSnippet() string {
	if a.EmbeddingScript != "" {
		return a.EmbeddingScript
	}
	return fmt.Sprintf(`<script src="https://chatbase.co/embed/%s"></script>`, a.ID)
}

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen      TicketStatus = "open"
	TicketClosed    TicketStatus = "closed"
	TicketEscalated TicketStatus = "escalated"
)

// TicketPriority is the urgency assigned to a ticket.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAgent  Sender = "agent"
	SenderSystem Sender = "System"
)

// ChatMessage is one entry of a ticket transcript.
type ChatMessage struct {
	ID        string    `json:"_id,omitempty"`
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON decodes a message, tolerating a malformed timestamp.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type plain ChatMessage
	aux := struct {
		*plain
		Timestamp Timestamp `json:"timestamp"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Timestamp = time.Time(aux.Timestamp)
	return nil
}

// Ticket is a recorded conversation between an end user and an agent.
type Ticket struct {
	ID          string         `json:"_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	Agent       string         `json:"agent,omitempty"`
	UserID      string         `json:"userId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	ChatHistory []ChatMessage  `json:"chatHistory"`
}

// UnmarshalJSON decodes a ticket, tolerating malformed timestamps. Only
// Validate rejects a ticket.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	type plain Ticket
	aux := struct {
		*plain
		CreatedAt Timestamp `json:"createdAt"`
		UpdatedAt Timestamp `json:"updatedAt"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.CreatedAt = time.Time(aux.CreatedAt)
	t.UpdatedAt = time.Time(aux.UpdatedAt)
	return nil
}

// Validate rejects tickets without an identifier. Unknown status or
// priority values are kept as-is.
func (t *Ticket) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: ticket without _id", ErrMalformedResponse)
	}
	return nil
}

// LastActivity returns the most recent of UpdatedAt and CreatedAt.
func (t *Ticket) LastActivity() time.Time {
	if t.UpdatedAt.After(t.CreatedAt) {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// SentimentTurn is the sentiment annotation of a single conversation turn.
type SentimentTurn struct {
	Turn      int     `json:"turn"`
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Emotion   string  `json:"emotion"`
}

// SentimentAnalysis is the decoded payload of the sentiment-graph endpoint.
type SentimentAnalysis struct {
	Summary string          `json:"summary"`
	Trend   []SentimentTurn `json:"sentiment_trend"`
}
