package timelog

import "time"

// User is the account a time entry is booked against.
type User struct {
	ID        int64
	Login     string
	Firstname string
	Lastname  string
	Mail      string
}

// Project groups issues and time entries.
type Project struct {
	ID         int64
	Identifier string
	Name       string
}

// Issue is the parent task a time entry may be linked to. Tracker holds
// the tracker name ("Bug", "Task", ...), resolved at load time.
type Issue struct {
	ID      int64
	Subject string
	Tracker string
}

// Activity classifies a time entry ("Development", "Overtime", ...).
type Activity struct {
	ID   int64
	Name string
}

// CustomFieldValue is one (field, value) pair attached to a time entry.
// Field names are not guaranteed unique; lookups take the first match.
type CustomFieldValue struct {
	FieldID   int64
	FieldName string
	Value     string
}

// TimeEntry is a logged unit of work. Associations are read-only
// projections loaded alongside the row; a severed reference is nil.
type TimeEntry struct {
	ID         int64
	UserID     int64
	ProjectID  int64
	IssueID    *int64
	ActivityID int64
	Hours      float64
	Comments   string
	SpentOn    string // YYYY-MM-DD
	CreatedOn  time.Time
	UpdatedOn  time.Time

	Activity          *Activity
	User              *User
	Project           *Project
	Issue             *Issue
	CustomFieldValues []CustomFieldValue
}

// IsNew reports whether the entry has not been persisted yet.
func (e *TimeEntry) IsNew() bool {
	return e.ID == 0
}
