package webhook

import (
	"context"
	"errors"
	"log"
	"time"

	"timetrack-backend/internal/settings"
	"timetrack-backend/internal/store"
	"timetrack-backend/internal/timelog"
)

// Refetch delays: a best-effort wait for the enclosing transaction to
// commit before re-reading the row. This is a heuristic, not a
// synchronization primitive: a commit slower than the delay loses the
// event, which is accepted under the no-delivery-guarantee model.
const (
	createRefetchDelay = 500 * time.Millisecond
	updateRefetchDelay = 300 * time.Millisecond
)

// EntryFinder is the slice of the host repository the listener needs to
// re-read committed state.
type EntryFinder interface {
	FindByID(ctx context.Context, id int64) (*timelog.TimeEntry, error)
	FindLatestMatching(ctx context.Context, userID int64, spentOn string, activityID, projectID int64) (*timelog.TimeEntry, error)
	FindWhere(ctx context.Context, scope timelog.Scope) ([]*timelog.TimeEntry, error)
	FindIssue(ctx context.Context, id int64) (*timelog.Issue, error)
}

// Listener watches time entry mutations and feeds eligible ones to the
// delivery pipeline. It implements timelog.Listener. Nothing it does may
// affect the host mutation: every failure path logs and returns.
//
// Settings are loaded fresh at each decision point, including again
// inside the delayed dispatch task, so admin changes apply to the very
// next event.
type Listener struct {
	settings   settings.Provider
	finder     EntryFinder
	dispatcher *Dispatcher
	pool       *Pool
	condition  *ConditionEvaluator

	// Overridable for tests.
	createDelay time.Duration
	updateDelay time.Duration
}

func NewListener(provider settings.Provider, finder EntryFinder, dispatcher *Dispatcher, pool *Pool) *Listener {
	return &Listener{
		settings:    provider,
		finder:      finder,
		dispatcher:  dispatcher,
		pool:        pool,
		condition:   NewConditionEvaluator(),
		createDelay: createRefetchDelay,
		updateDelay: updateRefetchDelay,
	}
}

// TimeEntryBeforeSave handles the pre-commit create/update paths (quick
// log and log-while-editing-issue). The pre-commit payload may not
// reflect persisted state, so the dispatch task re-reads the committed
// row after a short delay and re-validates before sending.
func (l *Listener) TimeEntryBeforeSave(ctx context.Context, entry *timelog.TimeEntry) {
	if !l.shouldSend(ctx, entry) {
		return
	}

	action := ActionUpdate
	if entry.IsNew() {
		action = ActionCreate
	}
	log.Printf("[Webhook] Overtime time entry detected (%s): hours: %v", action, entry.Hours)

	// Capture lookup keys now; the entry may be mutated after we return.
	originalID := entry.ID
	userID, spentOn := entry.UserID, entry.SpentOn
	activityID, projectID := entry.ActivityID, entry.ProjectID

	l.pool.Submit(func() {
		time.Sleep(l.createDelay)

		bg := context.Background()
		saved, err := l.findSaved(bg, originalID, userID, spentOn, activityID, projectID)
		if err != nil {
			log.Printf("[Webhook] ERROR: refetch after save: %v", err)
			return
		}
		if saved == nil || !ValidOvertimePayload(saved) {
			log.Printf("[Webhook] Skipped: invalid payload or entry not found")
			return
		}
		l.deliver(bg, NewEvent(action, Snapshot(saved), nil))
	})
}

// TimeEntryAfterSave handles the post-commit inline update from the
// spent-time list. The row is committed; re-read by id after a shorter
// delay, re-validate, dispatch as update.
func (l *Listener) TimeEntryAfterSave(ctx context.Context, entry *timelog.TimeEntry) {
	if !l.shouldSend(ctx, entry) {
		return
	}
	log.Printf("[Webhook] Overtime time entry updated from list: #%d", entry.ID)
	l.submitRefetch(entry.ID)
}

// TimeEntriesBulkEdited dispatches one update per affected entry, each
// with its own delayed re-fetch.
func (l *Listener) TimeEntriesBulkEdited(ctx context.Context, entries []*timelog.TimeEntry) {
	for _, entry := range entries {
		if !l.shouldSend(ctx, entry) {
			continue
		}
		l.submitRefetch(entry.ID)
	}
}

// TimeEntryBeforeDestroy sends the delete notice synchronously: the row
// is gone after this hook. Only the activity match gates a delete;
// hours and time fields are irrelevant to a deletion notice.
func (l *Listener) TimeEntryBeforeDestroy(ctx context.Context, entry *timelog.TimeEntry) {
	if !l.shouldSend(ctx, entry) {
		return
	}
	log.Printf("[Webhook] Overtime entry #%d being deleted", entry.ID)
	l.deliver(ctx, NewEvent(ActionDelete, Snapshot(entry), nil))
}

// TimeEntriesBeforeBulkUpdate intercepts the bulk primitive, the one
// mutation path with no per-record hooks. If the spec assigns issue_id,
// every eligible entry currently linked to an issue gets a webhook
// carrying old and new issue references, before the UPDATE runs.
func (l *Listener) TimeEntriesBeforeBulkUpdate(ctx context.Context, spec timelog.UpdateSpec, scope timelog.Scope) {
	newValue, assignsIssue := spec.ExtractAssignment("issue_id")
	if !assignsIssue {
		return
	}
	if _, ok := l.loadConfig(ctx); !ok {
		return
	}

	affected, err := l.finder.FindWhere(ctx, scope)
	if err != nil {
		log.Printf("[Webhook] ERROR: collect entries for bulk update: %v", err)
		return
	}

	var linked []*timelog.TimeEntry
	for _, entry := range affected {
		if entry.IssueID != nil && IsOvertimeActivity(entry) {
			linked = append(linked, entry)
		}
	}
	if len(linked) == 0 {
		return
	}

	action, reason := ActionUpdate, ReasonIssueReassigned
	var newIssueID int64
	var newIssue *timelog.Issue
	if newValue == nil {
		action, reason = ActionDelete, ReasonIssueNullified
	} else {
		id, ok := newValue.(int64)
		if !ok {
			log.Printf("[Webhook] ERROR: unexpected issue_id assignment value %v", newValue)
			return
		}
		newIssueID = id
		newIssue, err = l.finder.FindIssue(ctx, id)
		if err != nil {
			log.Printf("[Webhook] ERROR: load new issue %d: %v", id, err)
		}
	}

	log.Printf("[Webhook] Bulk update detected: issue_id changing, %d overtime entries to process", len(linked))

	for _, entry := range linked {
		eventCtx := &EventContext{
			Reason:     reason,
			OldIssueID: *entry.IssueID,
		}
		if entry.Issue != nil {
			eventCtx.OldIssueSubject = entry.Issue.Subject
		}
		if action == ActionUpdate {
			eventCtx.NewIssueID = newIssueID
			if newIssue != nil {
				eventCtx.NewIssueSubject = newIssue.Subject
				eventCtx.NewIssue = &IssueSnapshot{
					ID:      newIssue.ID,
					Subject: newIssue.Subject,
					Tracker: newIssue.Tracker,
				}
			}
		}
		log.Printf("[Webhook] %s: sending %s for entry #%d", reason, action, entry.ID)
		l.deliver(ctx, NewEvent(action, Snapshot(entry), eventCtx))
	}
}

// shouldSend applies the cheap pre-dispatch gates: delivery enabled,
// URL configured, activity is overtime. The settings are re-read again
// at dispatch time; this early check just avoids queueing dead tasks.
func (l *Listener) shouldSend(ctx context.Context, entry *timelog.TimeEntry) bool {
	if entry == nil {
		return false
	}
	if _, ok := l.loadConfig(ctx); !ok {
		return false
	}
	return IsOvertimeActivity(entry)
}

// loadConfig reads the settings fresh and reports whether delivery is
// currently possible.
func (l *Listener) loadConfig(ctx context.Context) (settings.Settings, bool) {
	cfg, err := l.settings.Load(ctx)
	if err != nil {
		log.Printf("[Webhook] ERROR: load settings: %v", err)
		return settings.Settings{}, false
	}
	if !cfg.IsEnabled() || cfg.URL() == "" {
		return settings.Settings{}, false
	}
	return cfg, true
}

func (l *Listener) submitRefetch(id int64) {
	l.pool.Submit(func() {
		time.Sleep(l.updateDelay)

		bg := context.Background()
		saved, err := l.finder.FindByID(bg, id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("[Webhook] ERROR: refetch entry #%d: %v", id, err)
			}
			return
		}
		if !ValidOvertimePayload(saved) {
			return
		}
		l.deliver(bg, NewEvent(ActionUpdate, Snapshot(saved), nil))
	})
}

// findSaved re-reads the committed row: by id when known, otherwise the
// best-effort composite lookup for brand-new rows whose id was assigned
// inside the transaction.
func (l *Listener) findSaved(ctx context.Context, id, userID int64, spentOn string, activityID, projectID int64) (*timelog.TimeEntry, error) {
	if id > 0 {
		entry, err := l.finder.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return entry, err
	}
	entry, err := l.finder.FindLatestMatching(ctx, userID, spentOn, activityID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

// deliver re-reads settings, signs and posts one event. All failures
// are internal.
func (l *Listener) deliver(ctx context.Context, ev *Event) {
	cfg, ok := l.loadConfig(ctx)
	if !ok {
		return
	}
	if !l.condition.Allow(cfg.FilterCondition, ev) {
		return
	}
	payload, err := ev.Sign(cfg.ResolveSecret())
	if err != nil {
		log.Printf("[Webhook] ERROR: sign payload: %v", err)
		return
	}
	l.dispatcher.Deliver(ctx, cfg.URL(), payload)
}
