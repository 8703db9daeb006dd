// Package chat contains the conversation engine: a single-writer event
// loop that owns the active session and the store, orchestrates
// completion requests off that loop, and reports back to the UI through
// a small callback interface.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"DeskChat/internal/cache"
	"DeskChat/internal/config"
	"DeskChat/internal/export"
	"DeskChat/internal/session"
	"DeskChat/internal/store"
	"DeskChat/internal/textutil"
	"DeskChat/internal/title"
)

// UI is the presentation collaborator. All callbacks are invoked from
// the engine's owner goroutine, in order; implementations must not call
// back into the engine synchronously.
type UI interface {
	// TurnPending fires after the user message is appended, before any
	// network I/O begins.
	TurnPending(userText string)
	// TurnResolved fires when the assistant reply has been appended.
	TurnResolved(assistantText string)
	// TurnFailed fires after a failed exchange was rolled back;
	// restoredText is the sanitized input to put back in the composer.
	TurnFailed(err error, restoredText string)
	// ListingChanged reports the stored titles (newest first) and the
	// active record's title.
	ListingChanged(titles []string, activeTitle string)
	// RecordLoaded fires when the active record is replaced wholesale.
	RecordLoaded(rec *session.Record)
	// Notice carries status text and non-turn errors.
	Notice(text string)
}

// Completer is the completion backend.
type Completer interface {
	// Ready reports whether a credential is configured.
	Ready() bool
	Complete(ctx context.Context, model string, messages []session.Message) (string, error)
	CompleteTitle(ctx context.Context, model string, temperature float64, system, prompt string) (string, error)
}

const defaultAutosaveInterval = 5 * time.Second

// Engine owns all conversation state. Exactly one goroutine (the one
// running Run) touches the session and the store; public methods post
// work onto that goroutine and return immediately. Background
// completion requests deliver their outcome the same way, which is the
// whole concurrency story: no locks, one writer.
type Engine struct {
	store   store.Store
	backend Completer
	titles  *title.Generator
	cache   *cache.Cache
	ui      UI
	logger  *slog.Logger

	sess  *session.Session
	model string

	calls chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once

	autosaveEvery time.Duration
	now           func() time.Time
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithAutosaveInterval overrides the 5-second autosave cadence.
func WithAutosaveInterval(d time.Duration) Option {
	return func(e *Engine) { e.autosaveEvery = d }
}

// WithClock substitutes the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(st store.Store, bk Completer, titles *title.Generator, ui UI, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:         st,
		backend:       bk,
		titles:        titles,
		cache:         cache.New(),
		ui:            ui,
		logger:        logger,
		sess:          session.New(),
		model:         config.DefaultModel,
		calls:         make(chan func(), 64),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		autosaveEvery: defaultAutosaveInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run is the owner loop. It blocks until Close is called.
func (e *Engine) Run() {
	ticker := time.NewTicker(e.autosaveEvery)
	defer ticker.Stop()

	rec := e.sess.StartNew(e.now())
	e.ui.RecordLoaded(rec)
	e.notifyListing()

	for {
		select {
		case fn := <-e.calls:
			fn()
		case <-ticker.C:
			e.autosave()
		case <-e.quit:
			if !e.sess.Processing() {
				e.saveActive("final save")
			}
			close(e.done)
			return
		}
	}
}

// Close stops the loop after a final save. Safe to call more than once.
func (e *Engine) Close() {
	e.once.Do(func() { close(e.quit) })
	<-e.done
}

// post hands fn to the owner goroutine. Calls arriving after Close are
// dropped.
func (e *Engine) post(fn func()) {
	select {
	case e.calls <- fn:
	case <-e.quit:
	}
}

// Send submits user input. Safe to call from any goroutine.
func (e *Engine) Send(text string) { e.post(func() { e.handleSend(text) }) }

// NewConversation starts a fresh conversation.
func (e *Engine) NewConversation() { e.post(e.handleNewConversation) }

// Load replaces the active conversation with a stored one.
func (e *Engine) Load(title string) { e.post(func() { e.handleLoad(title) }) }

// Rename gives a stored conversation a new name.
func (e *Engine) Rename(oldTitle, newName string) {
	e.post(func() { e.handleRename(oldTitle, newName) })
}

// Delete removes one or more stored conversations.
func (e *Engine) Delete(titles ...string) { e.post(func() { e.handleDelete(titles) }) }

// Export writes transcripts: one title to the destination file, several
// titles into the destination directory.
func (e *Engine) Export(titles []string, destination string) {
	e.post(func() { e.handleExport(titles, destination) })
}

// SetModel selects the completion model for subsequent sends.
func (e *Engine) SetModel(id string) { e.post(func() { e.handleSetModel(id) }) }

// Clipboard returns the active conversation rendered for copying, or
// empty if there is nothing to copy.
func (e *Engine) Clipboard() string {
	ch := make(chan string, 1)
	e.post(func() {
		rec := e.sess.Record()
		if rec == nil || len(rec.Messages) == 0 {
			ch <- ""
			return
		}
		ch <- export.ClipboardText(rec)
	})
	select {
	case s := <-ch:
		return s
	case <-e.done:
		return ""
	}
}

func (e *Engine) handleSend(text string) {
	if e.sess.Processing() {
		// Drop, don't queue: a second send while one is outstanding
		// is rejected outright.
		e.logger.Info("send rejected, request outstanding")
		e.ui.Notice("Still waiting for the previous reply.")
		return
	}
	clean := textutil.Sanitize(text)
	if clean == "" {
		return
	}
	if !e.backend.Ready() {
		e.ui.Notice("No API key configured. Set one before sending.")
		return
	}
	if e.sess.Record() == nil {
		e.sess.StartNew(e.now())
	}
	first, ok := e.sess.BeginTurn(clean)
	if !ok {
		return
	}
	e.ui.TurnPending(clean)

	model := e.model
	msgs := e.sess.Record().Snapshot()
	key := cache.Key(model, msgs)
	if cached, hit := e.cache.Get(key); hit {
		e.logger.Debug("completion cache hit", "key", key[:16])
		e.completeTurn(cached, clean, first)
		return
	}

	go func() {
		reply, err := e.backend.Complete(context.Background(), model, msgs)
		e.post(func() {
			if err != nil {
				e.failTurn(err, clean)
				return
			}
			e.cache.Put(key, reply)
			e.completeTurn(reply, clean, first)
		})
	}()
}

// failTurn rolls back the pending user message and restores the input.
func (e *Engine) failTurn(err error, restored string) {
	e.sess.FailTurn()
	e.logger.Error("completion failed", "error", err)
	e.ui.TurnFailed(err, restored)
}

// completeTurn commits a successful exchange. For the record's first
// exchange it saves under the provisional title immediately, then asks
// for a descriptive title with the processing guard still held, so
// there is never a window where the exchange exists only in memory.
func (e *Engine) completeTurn(reply, userText string, first bool) {
	e.sess.ResolveTurn(reply)
	e.ui.TurnResolved(reply)
	e.saveActive("save after exchange")
	e.notifyListing()

	if !first {
		e.sess.EndTurn()
		return
	}

	go func() {
		candidate := e.titles.Candidate(context.Background(), userText)
		e.post(func() { e.applyTitle(candidate) })
	}()
}

// applyTitle performs the rename half of the first-exchange two-phase
// commit. The candidate always sanitizes to something usable, so title
// work never fails the exchange.
func (e *Engine) applyTitle(candidate string) {
	defer e.sess.EndTurn()

	rec := e.sess.Record()
	if rec == nil {
		return
	}
	old := rec.Title
	cleaned := title.SanitizeFilename(candidate, e.now())
	if cleaned == old {
		e.saveActive("save after title")
		return
	}
	unique := title.Allocate(cleaned, e.store.List(), e.now())
	rec.Title = unique
	if err := e.store.Delete(old); err != nil && !errors.Is(err, store.ErrNotFound) {
		e.logger.Warn("failed to remove provisional record", "title", old, "error", err)
	}
	if err := e.store.Save(rec); err != nil {
		// Keep a valid persisted record: fall back to the old title.
		e.logger.Error("failed to save retitled record", "title", unique, "error", err)
		rec.Title = old
		e.saveActive("resave under old title")
	}
	e.notifyListing()
}

func (e *Engine) handleNewConversation() {
	if e.sess.Processing() {
		e.ui.Notice("Still waiting for the previous reply.")
		return
	}
	rec := e.sess.StartNew(e.now())
	e.ui.RecordLoaded(rec)
	e.notifyListing()
}

func (e *Engine) handleLoad(t string) {
	if e.sess.Processing() {
		e.ui.Notice("Still waiting for the previous reply.")
		return
	}
	rec, err := e.store.Load(t)
	if err != nil {
		// The active record stays whatever it was.
		e.logger.Error("failed to load conversation", "title", t, "error", err)
		e.ui.Notice("Failed to load " + t + ": " + err.Error())
		return
	}
	e.sess.Replace(rec)
	e.ui.RecordLoaded(rec)
	e.notifyListing()
}

func (e *Engine) handleRename(oldTitle, newName string) {
	if e.sess.Processing() {
		e.ui.Notice("Still waiting for the previous reply.")
		return
	}
	cleaned := title.SanitizeFilename(newName, e.now())
	if cleaned == oldTitle {
		return
	}
	var existing []string
	for _, t := range e.store.List() {
		if t != oldTitle {
			existing = append(existing, t)
		}
	}
	unique := title.Allocate(cleaned, existing, e.now())
	if err := e.store.Rename(oldTitle, unique); err != nil {
		e.logger.Error("failed to rename conversation", "from", oldTitle, "to", unique, "error", err)
		e.ui.Notice("Failed to rename " + oldTitle + ": " + err.Error())
		return
	}
	if rec := e.sess.Record(); rec != nil && rec.Title == oldTitle {
		rec.Title = unique
		e.saveActive("save after rename")
	}
	e.ui.Notice("Renamed to " + unique)
	e.notifyListing()
}

func (e *Engine) handleDelete(titles []string) {
	if e.sess.Processing() {
		e.ui.Notice("Still waiting for the previous reply.")
		return
	}
	activeDeleted := false
	deleted := 0
	for _, t := range titles {
		if err := e.store.Delete(t); err != nil {
			e.logger.Error("failed to delete conversation", "title", t, "error", err)
			e.ui.Notice("Failed to delete " + t + ": " + err.Error())
			continue
		}
		deleted++
		if rec := e.sess.Record(); rec != nil && rec.Title == t {
			activeDeleted = true
		}
	}
	if activeDeleted {
		rec := e.sess.StartNew(e.now())
		e.ui.RecordLoaded(rec)
	}
	if deleted > 0 {
		e.ui.Notice(pluralize(deleted, "conversation deleted", "conversations deleted"))
	}
	e.notifyListing()
}

// handleExport reads only the store, so it stays available mid-request
// and without an API key.
func (e *Engine) handleExport(titles []string, destination string) {
	if len(titles) == 0 {
		return
	}
	if len(titles) == 1 {
		if err := e.exportOne(titles[0], destination); err != nil {
			e.logger.Error("export failed", "title", titles[0], "error", err)
			e.ui.Notice("Failed to export " + titles[0] + ": " + err.Error())
			return
		}
		e.ui.Notice("Exported to " + destination)
		return
	}
	if err := os.MkdirAll(destination, 0o755); err != nil {
		e.ui.Notice("Failed to export: " + err.Error())
		return
	}
	exported := 0
	for _, t := range titles {
		name := title.SanitizeFilename(t, e.now()) + ".txt"
		if err := e.exportOne(t, filepath.Join(destination, name)); err != nil {
			e.logger.Error("export failed", "title", t, "error", err)
			e.ui.Notice("Failed to export " + t + ": " + err.Error())
			continue
		}
		exported++
	}
	e.ui.Notice(pluralize(exported, "conversation exported", "conversations exported"))
}

func (e *Engine) exportOne(t, path string) error {
	rec, err := e.store.Load(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(export.Transcript(rec, e.now())), 0o644)
}

func (e *Engine) handleSetModel(id string) {
	if !config.ValidModel(id) {
		e.ui.Notice("Unknown model: " + id)
		return
	}
	e.model = id
	e.ui.Notice("Model set to " + id)
}

func (e *Engine) autosave() {
	if e.sess.Processing() {
		return
	}
	rec := e.sess.Record()
	if rec == nil {
		return
	}
	if err := e.store.Save(rec); err != nil {
		e.logger.Warn("autosave failed", "title", rec.Title, "error", err)
	}
}

func (e *Engine) saveActive(what string) {
	rec := e.sess.Record()
	if rec == nil {
		return
	}
	if err := e.store.Save(rec); err != nil {
		e.logger.Error("failed to save conversation", "op", what, "title", rec.Title, "error", err)
	}
}

func (e *Engine) notifyListing() {
	active := ""
	if rec := e.sess.Record(); rec != nil {
		active = rec.Title
	}
	e.ui.ListingChanged(e.store.List(), active)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}
