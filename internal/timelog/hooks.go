package timelog

import (
	"context"
	"log"
	"sync"
)

// Scope is an equality filter selecting the rows a bulk update targets,
// e.g. Scope{"issue_id": 7}.
type Scope map[string]any

// Listener observes time entry lifecycle events. Implementations must
// treat the passed records as read-only; the host ignores anything a
// listener does, including panics.
type Listener interface {
	// TimeEntryBeforeSave fires before a create or update commits (quick
	// log and log-while-editing-issue paths). The entry may still change
	// before it is persisted.
	TimeEntryBeforeSave(ctx context.Context, entry *TimeEntry)

	// TimeEntryAfterSave fires after an inline update from the spent-time
	// list view has committed.
	TimeEntryAfterSave(ctx context.Context, entry *TimeEntry)

	// TimeEntriesBulkEdited fires after a bulk edit has committed, once
	// with all affected entries.
	TimeEntriesBulkEdited(ctx context.Context, entries []*TimeEntry)

	// TimeEntryBeforeDestroy fires before the row is deleted. The row is
	// gone afterwards, so anything needing its state must happen here.
	TimeEntryBeforeDestroy(ctx context.Context, entry *TimeEntry)

	// TimeEntriesBeforeBulkUpdate fires before a bulk UPDATE executes.
	// This is the only signal for mutations that bypass per-record hooks.
	TimeEntriesBeforeBulkUpdate(ctx context.Context, spec UpdateSpec, scope Scope)
}

// Hooks fans lifecycle events out to registered listeners. Listener
// failures are logged and swallowed: a hook must never prevent, delay,
// or roll back the mutation it observes.
type Hooks struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewHooks() *Hooks {
	return &Hooks{}
}

func (h *Hooks) Register(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

func (h *Hooks) fireBeforeSave(ctx context.Context, entry *TimeEntry) {
	h.each("before_save", func(l Listener) { l.TimeEntryBeforeSave(ctx, entry) })
}

func (h *Hooks) fireAfterSave(ctx context.Context, entry *TimeEntry) {
	h.each("after_save", func(l Listener) { l.TimeEntryAfterSave(ctx, entry) })
}

func (h *Hooks) fireBulkEdited(ctx context.Context, entries []*TimeEntry) {
	h.each("bulk_edited", func(l Listener) { l.TimeEntriesBulkEdited(ctx, entries) })
}

func (h *Hooks) fireBeforeDestroy(ctx context.Context, entry *TimeEntry) {
	h.each("before_destroy", func(l Listener) { l.TimeEntryBeforeDestroy(ctx, entry) })
}

func (h *Hooks) fireBeforeBulkUpdate(ctx context.Context, spec UpdateSpec, scope Scope) {
	h.each("before_bulk_update", func(l Listener) { l.TimeEntriesBeforeBulkUpdate(ctx, spec, scope) })
}

func (h *Hooks) each(hook string, fn func(Listener)) {
	h.mu.RLock()
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("ERROR: hook %s listener panicked: %v", hook, r)
				}
			}()
			fn(l)
		}()
	}
}
