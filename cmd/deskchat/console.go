package main

import (
	"fmt"
	"io"
	"sync"

	"DeskChat/internal/session"
)

// console is the terminal front end: it implements the engine's UI
// interface and keeps a copy of the listing for the /list command.
// Callbacks arrive from the engine goroutine while main reads stdin,
// hence the mutex.
type console struct {
	out io.Writer

	mu     sync.Mutex
	titles []string
	active string
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) TurnPending(userText string) {
	fmt.Fprintf(c.out, "You: %s\nAI: Thinking...\n", userText)
}

func (c *console) TurnResolved(assistantText string) {
	fmt.Fprintf(c.out, "AI: %s\n\n", assistantText)
}

func (c *console) TurnFailed(err error, restoredText string) {
	fmt.Fprintf(c.out, "AI: Error - %v\n", err)
	fmt.Fprintf(c.out, "(your message was not sent; press up or retype: %s)\n\n", restoredText)
}

func (c *console) ListingChanged(titles []string, activeTitle string) {
	c.mu.Lock()
	c.titles = titles
	c.active = activeTitle
	c.mu.Unlock()
}

func (c *console) RecordLoaded(rec *session.Record) {
	c.mu.Lock()
	c.active = rec.Title
	c.mu.Unlock()
	fmt.Fprintf(c.out, "--- %s ---\n", rec.Title)
	for _, m := range rec.Messages {
		label := "AI"
		if m.Role == session.RoleUser {
			label = "You"
		}
		fmt.Fprintf(c.out, "%s: %s\n\n", label, m.Content)
	}
}

func (c *console) Notice(text string) {
	fmt.Fprintln(c.out, text)
}

// activeTitle returns the title of the conversation currently open.
func (c *console) activeTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// listing returns the last known stored titles, newest first.
func (c *console) listing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.titles))
	copy(out, c.titles)
	return out
}
