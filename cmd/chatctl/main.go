// File: cmd/chatctl/main.go
//
// chatctl is a terminal chat client. It keeps a local mirror of the session
// list and transcripts, so browsing previously opened sessions does not hit
// the server again.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/iyunix/go-chatapp/internal/client"
	"github.com/iyunix/go-chatapp/internal/domain"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "chat server base URL")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "bearer token (defaults to CHAT_TOKEN)")
	userID := flag.String("user", os.Getenv("CHAT_USER"), "user id (defaults to CHAT_USER)")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "chatctl: -user (or CHAT_USER) is required")
		os.Exit(1)
	}

	c, err := client.New(client.Config{
		BaseURL: *serverURL,
		Token:   *token,
		UserID:  *userID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatctl: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	fmt.Printf("Connected to %s as %s.\n", *serverURL, *userID)
	fmt.Println("Type a message to chat, or /help for commands.")

	repl(ctx, c)
}

func repl(ctx context.Context, c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	// summaries holds the last printed list so /open and /delete can take an
	// index into it.
	var summaries []domain.SessionSummary
	includeHistory := true

	for {
		prompt := "new"
		if c.ActiveSessionID() != "" {
			prompt = shortID(c.ActiveSessionID())
		}
		fmt.Printf("[%s]> ", prompt)

		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			resp, err := c.SubmitTurn(ctx, line, includeHistory)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			fmt.Println(resp.Response)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/help":
			printHelp()

		case "/sessions":
			refreshed, err := c.ListSessions(ctx, true)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			summaries = refreshed
			if len(summaries) == 0 {
				fmt.Println("No sessions yet.")
				continue
			}
			for i, s := range summaries {
				marker := " "
				if s.SessionID == c.ActiveSessionID() {
					marker = "*"
				}
				fmt.Printf("%s %2d. %s (%d messages, %s)\n",
					marker, i+1, s.SessionName, s.MessageCount,
					s.LastUpdated.Local().Format("Jan 2 15:04"))
			}

		case "/open":
			s, ok := pickSession(summaries, fields)
			if !ok {
				continue
			}
			messages, err := c.LoadSessionMessages(ctx, s.SessionID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			c.SetActiveSession(s.SessionID)
			for _, m := range messages {
				role := "assistant"
				if m.IsUserMessage {
					role = "you"
				}
				fmt.Printf("%s: %s\n", role, m.Text)
			}

		case "/new":
			c.NewSession()
			fmt.Println("Next message starts a new session.")

		case "/delete":
			s, ok := pickSession(summaries, fields)
			if !ok {
				continue
			}
			if err := c.DeleteSession(ctx, s.SessionID); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			fmt.Printf("Deleted %q.\n", s.SessionName)

		case "/history":
			if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
				fmt.Println("usage: /history on|off")
				continue
			}
			includeHistory = fields[1] == "on"
			fmt.Printf("Conversation history: %s\n", fields[1])

		case "/quit", "/exit":
			return

		default:
			fmt.Printf("Unknown command %s. Try /help.\n", fields[0])
		}
	}
}

// pickSession resolves "/open 2" style arguments against the last listing.
func pickSession(summaries []domain.SessionSummary, fields []string) (domain.SessionSummary, bool) {
	if len(fields) != 2 {
		fmt.Printf("usage: %s N (run /sessions first)\n", fields[0])
		return domain.SessionSummary{}, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > len(summaries) {
		fmt.Printf("no session %q in the last /sessions listing\n", fields[1])
		return domain.SessionSummary{}, false
	}
	return summaries[n-1], true
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func printHelp() {
	fmt.Print(`Commands:
  /sessions        list your sessions
  /open N          open session N from the last listing
  /new             start a new session on the next message
  /delete N        delete session N from the last listing
  /history on|off  include prior turns in completions (default on)
  /quit            exit
Anything else is sent as a chat message.
`)
}
