package timelog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"timetrack-backend/internal/store"
)

// Repository persists time entries and loads their association
// projections.
type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// FindByID loads a time entry with its associations.
func (r *Repository) FindByID(ctx context.Context, id int64) (*TimeEntry, error) {
	pb := r.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`SELECT id, user_id, project_id, issue_id, activity_id, hours, comments, spent_on, created_on, updated_on
		 FROM time_entries WHERE id = %s`, pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return nil, err
	}

	entry := scanTimeEntry(row)
	if err := r.Hydrate(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// FindLatestMatching is the best-effort composite lookup used for rows
// whose ID was not known before the enclosing transaction committed:
// most recent entry for {user, date, activity, project}.
func (r *Repository) FindLatestMatching(ctx context.Context, userID int64, spentOn string, activityID, projectID int64) (*TimeEntry, error) {
	pb := r.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`SELECT id FROM time_entries
		 WHERE user_id = %s AND spent_on = %s AND activity_id = %s AND project_id = %s
		 ORDER BY created_on DESC LIMIT 1`,
			pb.Add(userID), pb.Add(spentOn), pb.Add(activityID), pb.Add(projectID)),
		pb.Params()...)
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, toInt64(row["id"]))
}

// FindWhere loads all entries matching the equality scope, with
// associations.
func (r *Repository) FindWhere(ctx context.Context, scope Scope) ([]*TimeEntry, error) {
	pb := r.store.Dialect.NewParamBuilder()
	where, params := buildScope(scope, pb)

	rows, err := store.QueryRows(ctx, r.store.DB,
		`SELECT id, user_id, project_id, issue_id, activity_id, hours, comments, spent_on, created_on, updated_on
		 FROM time_entries`+where+` ORDER BY id`,
		params...)
	if err != nil {
		return nil, err
	}

	entries := make([]*TimeEntry, 0, len(rows))
	for _, row := range rows {
		entry := scanTimeEntry(row)
		if err := r.Hydrate(ctx, entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Create inserts the entry and its custom field values. Sets entry.ID.
func (r *Repository) Create(ctx context.Context, entry *TimeEntry) error {
	d := r.store.Dialect
	pb := d.NewParamBuilder()
	row, err := store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`INSERT INTO time_entries (user_id, project_id, issue_id, activity_id, hours, comments, spent_on, created_on, updated_on)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s) RETURNING id`,
			pb.Add(entry.UserID), pb.Add(entry.ProjectID), pb.Add(entry.IssueID), pb.Add(entry.ActivityID),
			pb.Add(entry.Hours), pb.Add(entry.Comments), pb.Add(entry.SpentOn), d.NowExpr(), d.NowExpr()),
		pb.Params()...)
	if err != nil {
		return store.MapError(d, err)
	}
	entry.ID = toInt64(row["id"])

	return r.saveCustomValues(ctx, entry)
}

// Update writes the entry's scalar columns and replaces its custom
// field values.
func (r *Repository) Update(ctx context.Context, entry *TimeEntry) error {
	d := r.store.Dialect
	pb := d.NewParamBuilder()
	affected, err := store.Exec(ctx, r.store.DB,
		fmt.Sprintf(`UPDATE time_entries
		 SET user_id = %s, project_id = %s, issue_id = %s, activity_id = %s, hours = %s, comments = %s, spent_on = %s, updated_on = %s
		 WHERE id = %s`,
			pb.Add(entry.UserID), pb.Add(entry.ProjectID), pb.Add(entry.IssueID), pb.Add(entry.ActivityID),
			pb.Add(entry.Hours), pb.Add(entry.Comments), pb.Add(entry.SpentOn), d.NowExpr(), pb.Add(entry.ID)),
		pb.Params()...)
	if err != nil {
		return store.MapError(d, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return r.saveCustomValues(ctx, entry)
}

// Delete removes the entry. Custom values cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	pb := r.store.Dialect.NewParamBuilder()
	affected, err := store.Exec(ctx, r.store.DB,
		fmt.Sprintf(`DELETE FROM time_entries WHERE id = %s`, pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateAll executes a bulk UPDATE over the scoped rows, rendering
// whichever UpdateSpec shape the caller provided. Returns affected rows.
func (r *Repository) UpdateAll(ctx context.Context, scope Scope, spec UpdateSpec) (int64, error) {
	pb := r.store.Dialect.NewParamBuilder()

	setClause, err := renderSet(spec, pb)
	if err != nil {
		return 0, err
	}
	where, _ := buildScope(scope, pb)

	return store.Exec(ctx, r.store.DB,
		`UPDATE time_entries SET `+setClause+where,
		pb.Params()...)
}

// Hydrate loads the association projections for the entry's foreign
// keys. Missing rows leave the projection nil rather than erroring: a
// reference severed between interception and load is not a failure.
func (r *Repository) Hydrate(ctx context.Context, entry *TimeEntry) error {
	entry.Activity = nil
	entry.User = nil
	entry.Project = nil
	entry.Issue = nil

	pb := r.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`SELECT id, name FROM activities WHERE id = %s`, pb.Add(entry.ActivityID)), pb.Params()...)
	if err == nil {
		entry.Activity = &Activity{ID: toInt64(row["id"]), Name: toString(row["name"])}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	pb = r.store.Dialect.NewParamBuilder()
	row, err = store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`SELECT id, login, firstname, lastname, mail FROM users WHERE id = %s`, pb.Add(entry.UserID)), pb.Params()...)
	if err == nil {
		entry.User = &User{
			ID:        toInt64(row["id"]),
			Login:     toString(row["login"]),
			Firstname: toString(row["firstname"]),
			Lastname:  toString(row["lastname"]),
			Mail:      toString(row["mail"]),
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	pb = r.store.Dialect.NewParamBuilder()
	row, err = store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`SELECT id, identifier, name FROM projects WHERE id = %s`, pb.Add(entry.ProjectID)), pb.Params()...)
	if err == nil {
		entry.Project = &Project{ID: toInt64(row["id"]), Identifier: toString(row["identifier"]), Name: toString(row["name"])}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if entry.IssueID != nil {
		pb = r.store.Dialect.NewParamBuilder()
		row, err = store.QueryRow(ctx, r.store.DB,
			fmt.Sprintf(`SELECT i.id, i.subject, t.name AS tracker
			 FROM issues i LEFT JOIN trackers t ON t.id = i.tracker_id
			 WHERE i.id = %s`, pb.Add(*entry.IssueID)), pb.Params()...)
		if err == nil {
			entry.Issue = &Issue{ID: toInt64(row["id"]), Subject: toString(row["subject"]), Tracker: toString(row["tracker"])}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	// Caller-supplied custom values (pending writes) only need their
	// field names resolved; otherwise load the stored values.
	if len(entry.CustomFieldValues) > 0 {
		return r.resolveFieldNames(ctx, entry.CustomFieldValues)
	}
	if entry.IsNew() {
		return nil
	}

	pb = r.store.Dialect.NewParamBuilder()
	rows, err := store.QueryRows(ctx, r.store.DB,
		fmt.Sprintf(`SELECT cv.custom_field_id, cf.name, cv.value
		 FROM custom_values cv JOIN custom_fields cf ON cf.id = cv.custom_field_id
		 WHERE cv.time_entry_id = %s ORDER BY cv.id`, pb.Add(entry.ID)), pb.Params()...)
	if err != nil {
		return err
	}
	for _, row := range rows {
		entry.CustomFieldValues = append(entry.CustomFieldValues, CustomFieldValue{
			FieldID:   toInt64(row["custom_field_id"]),
			FieldName: toString(row["name"]),
			Value:     toString(row["value"]),
		})
	}
	return nil
}

func (r *Repository) resolveFieldNames(ctx context.Context, values []CustomFieldValue) error {
	for i := range values {
		if values[i].FieldName != "" {
			continue
		}
		pb := r.store.Dialect.NewParamBuilder()
		row, err := store.QueryRow(ctx, r.store.DB,
			fmt.Sprintf(`SELECT name FROM custom_fields WHERE id = %s`, pb.Add(values[i].FieldID)), pb.Params()...)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		values[i].FieldName = toString(row["name"])
	}
	return nil
}

// FindIssue loads an issue projection, or nil if it does not exist.
func (r *Repository) FindIssue(ctx context.Context, id int64) (*Issue, error) {
	pb := r.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(ctx, r.store.DB,
		fmt.Sprintf(`SELECT i.id, i.subject, t.name AS tracker
		 FROM issues i LEFT JOIN trackers t ON t.id = i.tracker_id
		 WHERE i.id = %s`, pb.Add(id)), pb.Params()...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Issue{ID: toInt64(row["id"]), Subject: toString(row["subject"]), Tracker: toString(row["tracker"])}, nil
}

func (r *Repository) saveCustomValues(ctx context.Context, entry *TimeEntry) error {
	pb := r.store.Dialect.NewParamBuilder()
	if _, err := store.Exec(ctx, r.store.DB,
		fmt.Sprintf(`DELETE FROM custom_values WHERE time_entry_id = %s`, pb.Add(entry.ID)),
		pb.Params()...); err != nil {
		return err
	}
	for _, cfv := range entry.CustomFieldValues {
		pb = r.store.Dialect.NewParamBuilder()
		if _, err := store.Exec(ctx, r.store.DB,
			fmt.Sprintf(`INSERT INTO custom_values (custom_field_id, time_entry_id, value) VALUES (%s, %s, %s)`,
				pb.Add(cfv.FieldID), pb.Add(entry.ID), pb.Add(cfv.Value)),
			pb.Params()...); err != nil {
			return err
		}
	}
	return nil
}

// renderSet turns an UpdateSpec into a SQL SET clause using the given
// parameter builder.
func renderSet(spec UpdateSpec, pb store.ParamBuilder) (string, error) {
	switch s := spec.(type) {
	case KeyValueUpdate:
		if len(s) == 0 {
			return "", fmt.Errorf("empty key-value update")
		}
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+" = "+pb.Add(s[k]))
		}
		return strings.Join(parts, ", "), nil
	case PositionalUpdate:
		var b strings.Builder
		vi := 0
		for i := 0; i < len(s.Template); i++ {
			if s.Template[i] == '?' {
				if vi >= len(s.Values) {
					return "", fmt.Errorf("positional update: %d placeholders but %d values", vi+1, len(s.Values))
				}
				b.WriteString(pb.Add(s.Values[vi]))
				vi++
				continue
			}
			b.WriteByte(s.Template[i])
		}
		if vi != len(s.Values) {
			return "", fmt.Errorf("positional update: %d placeholders but %d values", vi, len(s.Values))
		}
		return b.String(), nil
	case RawUpdate:
		if strings.TrimSpace(string(s)) == "" {
			return "", fmt.Errorf("empty raw update")
		}
		return string(s), nil
	default:
		return "", fmt.Errorf("unknown update spec %T", spec)
	}
}

func buildScope(scope Scope, pb store.ParamBuilder) (string, []any) {
	if len(scope) == 0 {
		return "", pb.Params()
	}
	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if scope[k] == nil {
			parts = append(parts, k+" IS NULL")
			continue
		}
		parts = append(parts, k+" = "+pb.Add(scope[k]))
	}
	return " WHERE " + strings.Join(parts, " AND "), pb.Params()
}

func scanTimeEntry(row map[string]any) *TimeEntry {
	entry := &TimeEntry{
		ID:         toInt64(row["id"]),
		UserID:     toInt64(row["user_id"]),
		ProjectID:  toInt64(row["project_id"]),
		ActivityID: toInt64(row["activity_id"]),
		Hours:      toFloat64(row["hours"]),
		Comments:   toString(row["comments"]),
		SpentOn:    toDateString(row["spent_on"]),
		CreatedOn:  toTime(row["created_on"]),
		UpdatedOn:  toTime(row["updated_on"]),
	}
	if row["issue_id"] != nil {
		id := toInt64(row["issue_id"])
		entry.IssueID = &id
	}
	return entry
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

// toDateString normalizes spent_on across dialects: PostgreSQL returns
// DATE as time.Time, SQLite stores the YYYY-MM-DD string.
func toDateString(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006-01-02")
	case string:
		return d
	default:
		return ""
	}
}
