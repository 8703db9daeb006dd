package session

import (
	"time"
)

// Message roles. A record never contains any other role value.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn half: who said it and what was said.
// Messages are immutable once appended and their order is the
// conversation's semantic order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is one conversation: a title (its storage identity) plus the
// ordered message log.
type Record struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// NewRecord creates a fresh empty record with a timestamp-derived
// provisional title. It is not persisted until it gains a message.
func NewRecord(now time.Time) *Record {
	return &Record{Title: now.Format("Chat_2006-01-02_15-04-05")}
}

// UserTurns counts the user messages in the record.
func (r *Record) UserTurns() int {
	n := 0
	for _, m := range r.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the message log safe to hand to a
// background request.
func (r *Record) Snapshot() []Message {
	out := make([]Message, len(r.Messages))
	copy(out, r.Messages)
	return out
}

// State is the session's position in the send lifecycle.
type State int

const (
	// StateIdle means no record is active yet.
	StateIdle State = iota
	// StateComposing means a record is active and input may be sent.
	StateComposing
	// StateAwaitingResponse means a completion request is outstanding.
	StateAwaitingResponse
	// StateError means the last request failed and the input was
	// restored for retry.
	StateError
)

// Session is the in-memory state for the single active conversation.
// It is owned by one goroutine; it does no locking of its own.
type Session struct {
	record     *Record
	state      State
	processing bool
}

func New() *Session {
	return &Session{state: StateIdle}
}

func (s *Session) Record() *Record { return s.record }
func (s *Session) State() State    { return s.state }

// Processing reports whether a completion request (including its
// first-exchange title follow-up) is still outstanding. While true,
// sends and record swaps are rejected.
func (s *Session) Processing() bool { return s.processing }

// StartNew replaces the active record with a fresh empty one.
func (s *Session) StartNew(now time.Time) *Record {
	s.record = NewRecord(now)
	s.state = StateComposing
	return s.record
}

// Replace swaps in a loaded record wholesale. Every completed exchange
// of the previous record is already persisted, so nothing is lost.
func (s *Session) Replace(rec *Record) {
	s.record = rec
	s.state = StateComposing
}

// BeginTurn appends the sanitized user text and enters
// AwaitingResponse. It reports whether this is the record's first user
// turn, and refuses (ok=false) while a request is already outstanding.
// The caller must have created a record first.
func (s *Session) BeginTurn(text string) (first, ok bool) {
	if s.processing || s.record == nil {
		return false, false
	}
	first = s.record.UserTurns() == 0
	s.record.Messages = append(s.record.Messages, Message{Role: RoleUser, Content: text})
	s.state = StateAwaitingResponse
	s.processing = true
	return first, true
}

// ResolveTurn appends the assistant reply. The processing guard stays
// held; the caller releases it with EndTurn once persistence and any
// title follow-up are done.
func (s *Session) ResolveTurn(reply string) {
	s.record.Messages = append(s.record.Messages, Message{Role: RoleAssistant, Content: reply})
	s.state = StateComposing
}

// FailTurn rolls back the user message appended by BeginTurn so the
// record reflects only completed exchanges, and releases the guard.
func (s *Session) FailTurn() {
	if r := s.record; r != nil {
		if n := len(r.Messages); n > 0 && r.Messages[n-1].Role == RoleUser {
			r.Messages = r.Messages[:n-1]
		}
	}
	s.state = StateError
	s.processing = false
}

// EndTurn releases the processing guard after a successful exchange has
// been fully committed.
func (s *Session) EndTurn() {
	s.processing = false
}
