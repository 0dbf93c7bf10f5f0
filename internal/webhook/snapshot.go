package webhook

import (
	"time"

	"timetrack-backend/internal/timelog"
)

// Snapshot types are the wire projections of the host entities. Field
// order here fixes the JSON serialization order, which the signature is
// computed over; do not reorder.

type ActivitySnapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserSnapshot struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Mail      string `json:"mail"`
}

type ProjectSnapshot struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

type IssueSnapshot struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Tracker string `json:"tracker"`
}

type CustomFieldValueSnapshot struct {
	CustomFieldID   int64  `json:"custom_field_id"`
	CustomFieldName string `json:"custom_field_name"`
	Value           string `json:"value"`
}

type TimeEntrySnapshot struct {
	ID                int64                      `json:"id"`
	Hours             float64                    `json:"hours"`
	Comments          string                     `json:"comments"`
	SpentOn           string                     `json:"spent_on"`
	CreatedOn         string                     `json:"created_on"`
	UpdatedOn         string                     `json:"updated_on"`
	Activity          *ActivitySnapshot          `json:"activity"`
	User              *UserSnapshot              `json:"user"`
	Project           *ProjectSnapshot           `json:"project"`
	Issue             *IssueSnapshot             `json:"issue"`
	CustomFieldValues []CustomFieldValueSnapshot `json:"custom_field_values"`
}

// Snapshot projects a time entry and its loaded associations into the
// wire shape. Severed references become null; this never fails.
func Snapshot(entry *timelog.TimeEntry) TimeEntrySnapshot {
	s := TimeEntrySnapshot{
		ID:                entry.ID,
		Hours:             entry.Hours,
		Comments:          entry.Comments,
		SpentOn:           entry.SpentOn,
		CreatedOn:         formatTimestamp(entry.CreatedOn),
		UpdatedOn:         formatTimestamp(entry.UpdatedOn),
		CustomFieldValues: []CustomFieldValueSnapshot{},
	}

	if entry.Activity != nil {
		s.Activity = &ActivitySnapshot{ID: entry.Activity.ID, Name: entry.Activity.Name}
	}
	if entry.User != nil {
		s.User = &UserSnapshot{
			ID:        entry.User.ID,
			Login:     entry.User.Login,
			Firstname: entry.User.Firstname,
			Lastname:  entry.User.Lastname,
			Mail:      entry.User.Mail,
		}
	}
	if entry.Project != nil {
		s.Project = &ProjectSnapshot{
			ID:         entry.Project.ID,
			Identifier: entry.Project.Identifier,
			Name:       entry.Project.Name,
		}
	}
	if entry.Issue != nil {
		s.Issue = &IssueSnapshot{
			ID:      entry.Issue.ID,
			Subject: entry.Issue.Subject,
			Tracker: entry.Issue.Tracker,
		}
	}
	for _, cfv := range entry.CustomFieldValues {
		s.CustomFieldValues = append(s.CustomFieldValues, CustomFieldValueSnapshot{
			CustomFieldID:   cfv.FieldID,
			CustomFieldName: cfv.FieldName,
			Value:           cfv.Value,
		})
	}
	return s
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
