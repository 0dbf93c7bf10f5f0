package timelog

import (
	"context"
	"testing"
)

type recordingListener struct {
	calls []string
}

func (r *recordingListener) TimeEntryBeforeSave(ctx context.Context, entry *TimeEntry) {
	r.calls = append(r.calls, "before_save")
}

func (r *recordingListener) TimeEntryAfterSave(ctx context.Context, entry *TimeEntry) {
	r.calls = append(r.calls, "after_save")
}

func (r *recordingListener) TimeEntriesBulkEdited(ctx context.Context, entries []*TimeEntry) {
	r.calls = append(r.calls, "bulk_edited")
}

func (r *recordingListener) TimeEntryBeforeDestroy(ctx context.Context, entry *TimeEntry) {
	r.calls = append(r.calls, "before_destroy")
}

func (r *recordingListener) TimeEntriesBeforeBulkUpdate(ctx context.Context, spec UpdateSpec, scope Scope) {
	r.calls = append(r.calls, "before_bulk_update")
}

type panickingListener struct {
	recordingListener
}

func (p *panickingListener) TimeEntryBeforeSave(ctx context.Context, entry *TimeEntry) {
	panic("listener blew up")
}

func TestHooksFanOut(t *testing.T) {
	hooks := NewHooks()
	l := &recordingListener{}
	hooks.Register(l)

	ctx := context.Background()
	entry := &TimeEntry{ID: 1}
	hooks.fireBeforeSave(ctx, entry)
	hooks.fireAfterSave(ctx, entry)
	hooks.fireBulkEdited(ctx, []*TimeEntry{entry})
	hooks.fireBeforeDestroy(ctx, entry)
	hooks.fireBeforeBulkUpdate(ctx, RawUpdate("issue_id = NULL"), Scope{"issue_id": int64(1)})

	want := []string{"before_save", "after_save", "bulk_edited", "before_destroy", "before_bulk_update"}
	if len(l.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", l.calls, want)
	}
	for i := range want {
		if l.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, l.calls[i], want[i])
		}
	}
}

func TestHooksIsolatePanickingListener(t *testing.T) {
	hooks := NewHooks()
	bad := &panickingListener{}
	good := &recordingListener{}
	hooks.Register(bad)
	hooks.Register(good)

	// Must not propagate, and must not stop later listeners.
	hooks.fireBeforeSave(context.Background(), &TimeEntry{ID: 1})

	if len(good.calls) != 1 || good.calls[0] != "before_save" {
		t.Fatalf("listener after the panicking one was not called: %v", good.calls)
	}
}

func TestHooksNoListeners(t *testing.T) {
	hooks := NewHooks()
	hooks.fireBeforeSave(context.Background(), &TimeEntry{ID: 1})
	hooks.fireBeforeDestroy(context.Background(), nil)
}
