// Chatbase CLI - Command line client for the Chatbase agent backend
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := chatbase.NewClient(os.Getenv("CHATBASE_API_URL"))
	ctx := context.Background()
	cmd := os.Args[1]

	switch cmd {
	case "agents":
		requireArgs(3, "Usage: chatbase agents <user_id>")
		agents, err := client.ListAgentsByUser(ctx, os.Args[2])
		exitOnError(err)
		for _, a := range agents {
			fmt.Printf("  %s  %s\n", a.ID, a.Name)
		}

	case "agent":
		requireArgs(3, "Usage: chatbase agent <agent_id>")
		agent, err := client.GetAgent(ctx, os.Args[2])
		exitOnError(err)
		printJSON(agent)

	case "tickets":
		var (
			tickets []chatbase.Ticket
			err     error
		)
		if len(os.Args) > 2 {
			tickets, err = client.ListTicketsByAgent(ctx, os.Args[2])
		} else {
			tickets, err = client.ListAllTickets(ctx)
		}
		exitOnError(err)
		for _, t := range tickets {
			fmt.Printf("  %s  [%s/%s] %s (%d msgs)\n", t.ID, t.Status, t.Priority, t.Title, len(t.ChatHistory))
		}

	case "ticket":
		requireArgs(3, "Usage: chatbase ticket <ticket_id>")
		ticket, err := client.GetTicket(ctx, os.Args[2])
		exitOnError(err)
		fmt.Printf("%s [%s/%s]\n%s\n\n", ticket.Title, ticket.Status, ticket.Priority, ticket.Description)
		for _, m := range ticket.ChatHistory {
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04:05"), m.Sender, m.Message)
		}

	case "improve":
		requireArgs(3, "Usage: chatbase improve <agent_id>")
		text, err := client.ImproveAgent(ctx, os.Args[2])
		exitOnError(err)
		fmt.Println(text)

	case "sentiment":
		requireArgs(3, "Usage: chatbase sentiment <agent_id>")
		analysis, err := client.SentimentGraph(ctx, os.Args[2])
		if errors.Is(err, chatbase.ErrNoSentimentData) {
			fmt.Println("No sentiment data available for this agent.")
			return
		}
		exitOnError(err)
		fmt.Println(analysis.Summary)
		for _, t := range analysis.Trend {
			fmt.Printf("  #%-3d %-6s %+.2f %-9s %s\n", t.Turn, t.Speaker, t.Score, t.Sentiment, t.Emotion)
		}

	case "update-prompt":
		requireArgs(4, "Usage: chatbase update-prompt <agent_id> <prompt>")
		prompt := strings.TrimSpace(strings.Join(os.Args[3:], " "))
		if prompt == "" {
			fmt.Fprintln(os.Stderr, "Prompt must not be empty")
			os.Exit(1)
		}
		_, err := client.UpdateAgentPrompt(ctx, os.Args[2], prompt)
		exitOnError(err)
		fmt.Println("Prompt updated")

	case "create-agent":
		requireArgs(6, "Usage: chatbase create-agent <user_id> <name> <prompt> <file.pdf>")
		path := os.Args[5]
		f, err := os.Open(path)
		exitOnError(err)
		defer f.Close()
		agent, err := client.CreateAgent(ctx, chatbase.CreateAgentRequest{
			UserID:       os.Args[2],
			Name:         os.Args[3],
			SystemPrompt: os.Args[4],
			FileName:     filepath.Base(path),
			File:         f,
		})
		exitOnError(err)
		if agent != nil {
			fmt.Printf("Created: %s\n", agent.ID)
		} else {
			fmt.Println("Created")
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Chatbase CLI - agent backend client

Usage: chatbase <command> [options]

Commands:
  agents <user_id>                               List a user's agents
  agent <agent_id>                               Show an agent
  tickets [agent_id]                             List tickets (all, or for one agent)
  ticket <ticket_id>                             Show a ticket transcript
  improve <agent_id>                             Ask for improvement suggestions
  sentiment <agent_id>                           Show the sentiment trend
  update-prompt <agent_id> <prompt>              Replace an agent's prompt
  create-agent <user_id> <name> <prompt> <pdf>   Create an agent from a PDF

Environment:
  CHATBASE_API_URL   Backend URL (default: http://localhost:5001)`)
}

func requireArgs(n int, msg string) {
	if len(os.Args) < n {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
