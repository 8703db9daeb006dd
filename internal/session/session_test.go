package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestNewRecordProvisionalTitle(t *testing.T) {
	rec := NewRecord(testNow)
	assert.Equal(t, "Chat_2025-03-14_09-26-53", rec.Title)
	assert.Empty(t, rec.Messages)
}

func TestSessionStartsIdle(t *testing.T) {
	s := New()
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Processing())
	assert.Nil(t, s.Record())
}

func TestBeginTurnAppendsAndGuards(t *testing.T) {
	s := New()
	s.StartNew(testNow)

	first, ok := s.BeginTurn("Hello")
	require.True(t, ok)
	assert.True(t, first)
	assert.Equal(t, StateAwaitingResponse, s.State())
	assert.True(t, s.Processing())
	require.Len(t, s.Record().Messages, 1)
	assert.Equal(t, Message{Role: RoleUser, Content: "Hello"}, s.Record().Messages[0])

	// Reentrancy guard: a second send while outstanding is refused and
	// leaves the log untouched.
	_, ok = s.BeginTurn("again")
	assert.False(t, ok)
	assert.Len(t, s.Record().Messages, 1)
}

func TestBeginTurnWithoutRecordRefuses(t *testing.T) {
	s := New()
	_, ok := s.BeginTurn("Hello")
	assert.False(t, ok)
}

func TestResolveTurnAppendsReplyAndKeepsGuard(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	s.BeginTurn("Hello")

	s.ResolveTurn("Hi there")
	assert.Equal(t, StateComposing, s.State())
	assert.True(t, s.Processing(), "guard is held until the turn is fully committed")
	require.Len(t, s.Record().Messages, 2)
	assert.Equal(t, RoleAssistant, s.Record().Messages[1].Role)

	s.EndTurn()
	assert.False(t, s.Processing())
}

func TestFailTurnRollsBackExactly(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	s.BeginTurn("one")
	s.ResolveTurn("reply")
	s.EndTurn()

	before := len(s.Record().Messages)
	s.BeginTurn("two")
	s.FailTurn()

	assert.Len(t, s.Record().Messages, before)
	assert.Equal(t, StateError, s.State())
	assert.False(t, s.Processing())
}

func TestFailTurnDoesNotEatAssistantMessages(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	s.BeginTurn("one")
	s.ResolveTurn("reply")
	s.EndTurn()

	// A stray failure with no pending user message must not remove the
	// assistant reply.
	s.FailTurn()
	assert.Len(t, s.Record().Messages, 2)
}

func TestSecondTurnIsNotFirst(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	s.BeginTurn("one")
	s.ResolveTurn("reply")
	s.EndTurn()

	first, ok := s.BeginTurn("two")
	require.True(t, ok)
	assert.False(t, first)
}

func TestSendAllowedAfterError(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	s.BeginTurn("one")
	s.FailTurn()

	first, ok := s.BeginTurn("one again")
	require.True(t, ok)
	assert.True(t, first, "rolled-back turn does not count")
}

func TestReplaceSwapsRecordWholesale(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	loaded := &Record{Title: "Other", Messages: []Message{{Role: RoleUser, Content: "x"}, {Role: RoleAssistant, Content: "y"}}}

	s.Replace(loaded)
	assert.Same(t, loaded, s.Record())
	assert.Equal(t, StateComposing, s.State())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.StartNew(testNow)
	s.BeginTurn("Hello")

	snap := s.Record().Snapshot()
	snap[0].Content = "mutated"
	assert.Equal(t, "Hello", s.Record().Messages[0].Content)
}
