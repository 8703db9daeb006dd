package title

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DeskChat/internal/config"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestSanitizeFilenameReplacesIllegalCharacters(t *testing.T) {
	assert.Equal(t, "a_b_c_d_e_f_g_h_i", SanitizeFilename(`a\b/c*d?e:f"g<h>i`, testNow))
}

func TestSanitizeFilenameKeepsPlainNames(t *testing.T) {
	assert.Equal(t, "Trip Plans", SanitizeFilename("  Trip Plans  ", testNow))
}

func TestSanitizeFilenameEmptyFallsBackToTimestamp(t *testing.T) {
	assert.Equal(t, "Chat_2025-03-14_09-26-53", SanitizeFilename("", testNow))
	assert.Equal(t, "Chat_2025-03-14_09-26-53", SanitizeFilename("   ", testNow))
}

func TestAllocateReturnsCandidateWhenFree(t *testing.T) {
	got := Allocate("Trip Plans", []string{"Other", "Chat_2025"}, testNow)
	assert.Equal(t, "Trip Plans", got)
}

func TestAllocateSuffixesOnCollision(t *testing.T) {
	got := Allocate("Trip Plans", []string{"Trip Plans"}, testNow)
	assert.Equal(t, "Trip Plans_1", got)

	got = Allocate("Trip Plans", []string{"Trip Plans", "Trip Plans_1", "Trip Plans_2"}, testNow)
	assert.Equal(t, "Trip Plans_3", got)
}

func TestAllocateNeverReturnsExisting(t *testing.T) {
	existing := []string{"x", "x_1", "x_2", "x_3"}
	got := Allocate("x", existing, testNow)
	for _, e := range existing {
		assert.NotEqual(t, e, got)
	}
}

type fakeCompleter struct {
	calls   []string
	replies map[string]string
	err     error
}

func (f *fakeCompleter) CompleteTitle(_ context.Context, model string, _ float64, _, _ string) (string, error) {
	f.calls = append(f.calls, model)
	if f.err != nil {
		return "", f.err
	}
	return f.replies[model], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCandidateFirstModelWins(t *testing.T) {
	fake := &fakeCompleter{replies: map[string]string{"gpt-5-nano": `"Trip Planning Help"`}}
	g := NewGenerator(fake, config.TitleModels, testLogger())

	got := g.Candidate(context.Background(), "help me plan a trip to Norway")
	assert.Equal(t, "Trip Planning Help", got)
	require.Equal(t, []string{"gpt-5-nano"}, fake.calls)
}

func TestCandidateCollapsesNewlines(t *testing.T) {
	fake := &fakeCompleter{replies: map[string]string{"gpt-5-nano": "Trip\r\nPlanning"}}
	g := NewGenerator(fake, config.TitleModels, testLogger())

	assert.Equal(t, "Trip Planning", g.Candidate(context.Background(), "whatever"))
}

func TestCandidateTriesModelsInOrder(t *testing.T) {
	fake := &fakeCompleter{replies: map[string]string{
		"gpt-5-nano":   "",
		"gpt-4.1-nano": "Second Model Title",
	}}
	g := NewGenerator(fake, config.TitleModels, testLogger())

	got := g.Candidate(context.Background(), "whatever")
	assert.Equal(t, "Second Model Title", got)
	require.Equal(t, []string{"gpt-5-nano", "gpt-4.1-nano"}, fake.calls)
}

func TestCandidateLocalFallbackWhenAllModelsFail(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("backend down")}
	g := NewGenerator(fake, config.TitleModels, testLogger())

	got := g.Candidate(context.Background(), "please explain monads to me simply")
	assert.Equal(t, "please explain monads to", got)
	assert.Len(t, fake.calls, len(config.TitleModels))
}

func TestCandidateFallbackTruncatesLongInput(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("backend down")}
	g := NewGenerator(fake, config.TitleModels, testLogger())

	got := g.Candidate(context.Background(), "supercalifragilisticexpialidocious words keep going forever")
	assert.LessOrEqual(t, len(got), 30)
	assert.True(t, strings.HasPrefix(got, "supercalifragilisticexpialido"))
}

func TestCandidateFallbackIsNeverEmpty(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("backend down")}
	g := NewGenerator(fake, config.TitleModels, testLogger())

	got := g.Candidate(context.Background(), "hi")
	assert.NotEmpty(t, got)
}
