package handlers

import (
	"time"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
)

// DashboardStats are the summary cards on the agent list page.
type DashboardStats struct {
	TotalAgents      int
	TotalTickets     int
	OpenTickets      int
	EscalatedTickets int
	LastActivity     time.Time
}

// computeStats aggregates the loaded agents and tickets.
func computeStats(agents []chatbase.Agent, tickets []chatbase.Ticket) DashboardStats {
	stats := DashboardStats{
		TotalAgents:  len(agents),
		TotalTickets: len(tickets),
	}
	for i := range tickets {
		switch tickets[i].Status {
		case chatbase.TicketOpen:
			stats.OpenTickets++
		case chatbase.TicketEscalated:
			stats.EscalatedTickets++
		}
		if t := tickets[i].LastActivity(); t.After(stats.LastActivity) {
			stats.LastActivity = t
		}
	}
	return stats
}
