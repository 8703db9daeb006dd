// Package title turns arbitrary strings into safe, collision-free
// conversation titles, and asks the completion backend for a short
// descriptive title after the first exchange.
package title

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"DeskChat/internal/config"
)

// Characters that are illegal in file names on at least one supported
// platform. Titles double as file names, so they are replaced outright.
var illegalChars = regexp.MustCompile(`[\\/*?:"<>|]`)

var newlines = regexp.MustCompile(`[\r\n]+`)

const fallbackWords = 4
const fallbackMaxLen = 30

// SanitizeFilename makes name safe to use as a storage key. An empty
// result is replaced with a timestamp-based fallback so the returned
// title is always usable.
func SanitizeFilename(name string, now time.Time) string {
	name = strings.TrimSpace(name)
	name = illegalChars.ReplaceAllString(name, "_")
	if name == "" {
		return now.Format("Chat_2006-01-02_15-04-05")
	}
	return name
}

// Allocate resolves candidate against the set of existing titles,
// appending _1, _2, ... until unique. The result is always safe as a
// storage key and never a member of existing.
func Allocate(candidate string, existing []string, now time.Time) string {
	taken := make(map[string]bool, len(existing))
	for _, t := range existing {
		taken[t] = true
	}
	base := SanitizeFilename(candidate, now)
	title := base
	for counter := 1; taken[title]; counter++ {
		title = fmt.Sprintf("%s_%d", base, counter)
	}
	return title
}

// titlePrompt is the system instruction for the title-generation call.
const titlePrompt = "Create a short, descriptive 3-5 word title for this chat based on the user's message. Respond only with the title, no quotes or extra text."

// Completer is the slice of the backend client the generator needs.
type Completer interface {
	CompleteTitle(ctx context.Context, model string, temperature float64, system, prompt string) (string, error)
}

// Generator produces a candidate title for a conversation from its
// first user message.
type Generator struct {
	backend Completer
	models  []config.TitleModel
	logger  *slog.Logger
	now     func() time.Time
}

func NewGenerator(backend Completer, models []config.TitleModel, logger *slog.Logger) *Generator {
	return &Generator{backend: backend, models: models, logger: logger, now: time.Now}
}

// Candidate asks each title model in order and returns the first usable
// title. Backend failure is never fatal: the local fallback derives a
// title from the first words of the message, so the result is always
// non-empty and filesystem-safe. The caller still passes it through
// Allocate before use.
func (g *Generator) Candidate(ctx context.Context, firstUserMessage string) string {
	for _, m := range g.models {
		raw, err := g.backend.CompleteTitle(ctx, m.Model, m.Temperature, titlePrompt, firstUserMessage)
		if err != nil {
			g.logger.Warn("title generation failed", "model", m.Model, "error", err)
			continue
		}
		t := newlines.ReplaceAllString(raw, " ")
		t = strings.Trim(strings.TrimSpace(t), `"'`)
		if t != "" {
			return SanitizeFilename(t, g.now())
		}
	}
	return SanitizeFilename(fallbackTitle(firstUserMessage), g.now())
}

// fallbackTitle is the first few words of the message, truncated.
func fallbackTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > fallbackWords {
		words = words[:fallbackWords]
	}
	t := strings.Join(words, " ")
	if len(t) > fallbackMaxLen {
		t = t[:fallbackMaxLen]
	}
	return t
}
