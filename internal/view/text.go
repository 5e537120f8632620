package view

import (
	"strings"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
)

// Paragraphs splits free text into its non-empty lines.
func Paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SelectTicket returns the ticket with id from tickets, or nil.
func SelectTicket(tickets []chatbase.Ticket, id string) *chatbase.Ticket {
	if id == "" {
		return nil
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i]
		}
	}
	return nil
}
