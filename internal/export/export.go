// Package export renders conversation records as human-readable
// transcripts.
package export

import (
	"strings"
	"time"

	"DeskChat/internal/session"
)

const ruleWidth = 50

// roleLabel maps the stored role to its display label.
func roleLabel(role string) string {
	if role == session.RoleUser {
		return "You"
	}
	return "AI"
}

// Transcript renders a record for export to a file: a header with the
// title and export timestamp, a separator rule, then each message as
// "<label>: <content>" followed by a blank line, in message order.
func Transcript(rec *session.Record, exportedAt time.Time) string {
	var b strings.Builder
	b.WriteString("Chat: " + rec.Title + "\n")
	b.WriteString("Exported: " + exportedAt.Format("2006-01-02 15:04:05") + "\n")
	writeBody(&b, rec)
	return b.String()
}

// ClipboardText renders a record for copying: same layout without the
// export timestamp.
func ClipboardText(rec *session.Record) string {
	var b strings.Builder
	b.WriteString("Chat: " + rec.Title + "\n")
	writeBody(&b, rec)
	return b.String()
}

func writeBody(b *strings.Builder, rec *session.Record) {
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")
	for _, m := range rec.Messages {
		b.WriteString(roleLabel(m.Role) + ": " + m.Content + "\n\n")
	}
}
