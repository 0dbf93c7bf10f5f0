package timelog

import (
	"context"
	"fmt"
)

// Service is the host's mutation surface. Every write path fires the
// matching lifecycle hook; hook outcomes never affect the mutation.
type Service struct {
	repo  *Repository
	hooks *Hooks
}

func NewService(repo *Repository, hooks *Hooks) *Service {
	return &Service{repo: repo, hooks: hooks}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// LogTime creates or updates an entry via the log-time form (quick log,
// or logging while editing an issue). The before-save hook fires with
// the not-yet-committed entry, then the write commits.
func (s *Service) LogTime(ctx context.Context, entry *TimeEntry) (*TimeEntry, error) {
	// Hooks inspect associations, so resolve them for the pending entry.
	if err := s.repo.Hydrate(ctx, entry); err != nil {
		return nil, fmt.Errorf("hydrate entry: %w", err)
	}

	isNew := entry.IsNew()
	s.hooks.fireBeforeSave(ctx, entry)

	if isNew {
		if err := s.repo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("create time entry: %w", err)
		}
	} else {
		if err := s.repo.Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("update time entry %d: %w", entry.ID, err)
		}
	}
	return entry, nil
}

// UpdateFromList is the inline edit from the spent-time list view. The
// after-save hook fires once the row has committed.
func (s *Service) UpdateFromList(ctx context.Context, entry *TimeEntry) (*TimeEntry, error) {
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update time entry %d: %w", entry.ID, err)
	}
	if err := s.repo.Hydrate(ctx, entry); err != nil {
		return nil, fmt.Errorf("hydrate entry: %w", err)
	}
	s.hooks.fireAfterSave(ctx, entry)
	return entry, nil
}

// BulkEdit applies the same column changes to several entries, then
// fires the bulk-edited hook with the committed rows.
func (s *Service) BulkEdit(ctx context.Context, ids []int64, changes KeyValueUpdate) ([]*TimeEntry, error) {
	saved := make([]*TimeEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("bulk edit %d: %w", id, err)
		}
		applyChanges(entry, changes)
		if err := s.repo.Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("bulk edit %d: %w", id, err)
		}
		saved = append(saved, entry)
	}
	s.hooks.fireBulkEdited(ctx, saved)
	return saved, nil
}

// Destroy deletes an entry. The before-destroy hook fires while the row
// is still readable; the delete proceeds no matter what the hook does.
func (s *Service) Destroy(ctx context.Context, id int64) error {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("destroy %d: %w", id, err)
	}

	s.hooks.fireBeforeDestroy(ctx, entry)

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("destroy %d: %w", id, err)
	}
	return nil
}

// UpdateAll is the bulk-update primitive. It bypasses per-record hooks
// entirely, so the before-bulk-update hook fires first with the update
// spec and scope; then the UPDATE executes unmodified.
func (s *Service) UpdateAll(ctx context.Context, scope Scope, spec UpdateSpec) (int64, error) {
	s.hooks.fireBeforeBulkUpdate(ctx, spec, scope)
	return s.repo.UpdateAll(ctx, scope, spec)
}

func applyChanges(entry *TimeEntry, changes KeyValueUpdate) {
	for field, value := range changes {
		switch field {
		case "hours":
			entry.Hours = toFloat64(value)
		case "comments":
			entry.Comments = toString(value)
		case "spent_on":
			entry.SpentOn = toString(value)
		case "activity_id":
			entry.ActivityID = toInt64(value)
		case "issue_id":
			if value == nil {
				entry.IssueID = nil
			} else {
				id := toInt64(value)
				entry.IssueID = &id
			}
		}
	}
}
